package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"operators-vault-go/internal/types"
)

// Source chunks are provenance only; cap them so a long transcript window
// doesn't bloat the row.
const maxSourceChunkLen = 8000

// InsightRepo owns the insights table. A video's insight set is replaced
// wholesale on every processing pass.
type InsightRepo struct {
	db *sqlx.DB
}

func NewInsightRepo(db *sqlx.DB) *InsightRepo {
	return &InsightRepo{db: db}
}

// Replace deletes the video's previous insights and inserts the new set in one
// transaction, so a reprocessed video never accumulates duplicates.
func (r *InsightRepo) Replace(ctx context.Context, videoID string, insights []types.Insight) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insights tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM insights WHERE video_id = $1`, videoID); err != nil {
		return fmt.Errorf("insights delete: %w", err)
	}

	const q = `
		INSERT INTO insights (id, video_id, podcast, category, title, description,
		                      start_time_sec, end_time_sec, framework_markdown, source_chunk)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, ins := range insights {
		_, err := tx.ExecContext(ctx, q,
			ins.ID, ins.VideoID, ins.Podcast, ins.Category, ins.Title, ins.Description,
			ins.StartSec, ins.EndSec, ins.FrameworkMarkdown, truncate(ins.SourceChunk, maxSourceChunkLen),
		)
		if err != nil {
			return fmt.Errorf("insight insert %s: %w", ins.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insights commit: %w", err)
	}
	return nil
}
