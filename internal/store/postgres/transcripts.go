package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"operators-vault-go/internal/types"
)

// TranscriptRepo owns the transcriptions and segments tables. A video has at
// most one transcription; replacing it is the pipeline's idempotency boundary.
type TranscriptRepo struct {
	db *sqlx.DB
}

func NewTranscriptRepo(db *sqlx.DB) *TranscriptRepo {
	return &TranscriptRepo{db: db}
}

// Replace deletes any prior transcription for the video and inserts the new
// one with its segments. Segments missing either timestamp are not stored.
func (r *TranscriptRepo) Replace(ctx context.Context, videoID, rawText string, segments []types.Segment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("transcript tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transcriptions WHERE video_id = $1`, videoID); err != nil {
		return fmt.Errorf("transcript delete: %w", err)
	}

	var transcriptionID int64
	const insertQ = `INSERT INTO transcriptions (video_id, raw_text) VALUES ($1, $2) RETURNING id`
	if err := tx.GetContext(ctx, &transcriptionID, insertQ, videoID, rawText); err != nil {
		return fmt.Errorf("transcript insert: %w", err)
	}

	const segQ = `
		INSERT INTO segments (transcription_id, start_time_sec, end_time_sec, text, speaker_label)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, s := range segments {
		if _, err := tx.ExecContext(ctx, segQ, transcriptionID, s.Start, s.End, s.Text, s.SpeakerLabel); err != nil {
			return fmt.Errorf("segment insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transcript commit: %w", err)
	}
	return nil
}
