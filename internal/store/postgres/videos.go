package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"operators-vault-go/internal/types"
)

// VideoRepo owns the videos and seed_links tables. Upserts never erase known
// data: incoming blank/null fields lose to what is already stored.
type VideoRepo struct {
	db *sqlx.DB
}

func NewVideoRepo(db *sqlx.DB) *VideoRepo {
	return &VideoRepo{db: db}
}

func (r *VideoRepo) Upsert(ctx context.Context, v types.Video) error {
	const q = `
		INSERT INTO videos (video_id, podcast, title, duration_seconds, channel_id, published_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (video_id) DO UPDATE SET
		  podcast = EXCLUDED.podcast,
		  title = COALESCE(NULLIF(EXCLUDED.title,''), videos.title),
		  duration_seconds = COALESCE(EXCLUDED.duration_seconds, videos.duration_seconds),
		  channel_id = COALESCE(EXCLUDED.channel_id, videos.channel_id),
		  published_at = COALESCE(EXCLUDED.published_at, videos.published_at),
		  updated_at = now()
	`
	_, err := r.db.ExecContext(ctx, q,
		v.VideoID, v.Podcast, v.Title, v.DurationSeconds, v.ChannelID, v.PublishedAt,
	)
	if err != nil {
		return fmt.Errorf("video upsert: %w", err)
	}
	return nil
}

// UpsertSeedLinks writes candidate videos keyed (video_id, podcast) with
// field-level coalesce. Rows missing either key are skipped. Returns the
// number of rows written.
func (r *VideoRepo) UpsertSeedLinks(ctx context.Context, rows []types.SeedLink) (int, error) {
	const q = `
		INSERT INTO seed_links (video_id, podcast, title, duration_seconds, url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (video_id, podcast) DO UPDATE SET
		  title = COALESCE(NULLIF(EXCLUDED.title,''), seed_links.title),
		  duration_seconds = COALESCE(EXCLUDED.duration_seconds, seed_links.duration_seconds),
		  url = COALESCE(NULLIF(EXCLUDED.url,''), seed_links.url),
		  updated_at = now()
	`
	n := 0
	for _, row := range rows {
		if row.VideoID == "" || row.Podcast == "" {
			continue
		}
		_, err := r.db.ExecContext(ctx, q,
			row.VideoID, row.Podcast, truncate(row.Title, 2048), row.DurationSeconds, truncate(row.URL, 2048),
		)
		if err != nil {
			return n, fmt.Errorf("seed link upsert %s: %w", row.VideoID, err)
		}
		n++
	}
	return n, nil
}

// SeedVideosFromLinks upserts every seed link into the videos catalog with
// the same coalesce discipline. Returns the number of rows reconciled.
func (r *VideoRepo) SeedVideosFromLinks(ctx context.Context) (int, error) {
	const q = `SELECT video_id, podcast, title, duration_seconds, url FROM seed_links`
	var links []types.SeedLink
	if err := r.db.SelectContext(ctx, &links, q); err != nil {
		return 0, fmt.Errorf("seed links select: %w", err)
	}
	for _, l := range links {
		v := types.Video{
			VideoID:         l.VideoID,
			Podcast:         l.Podcast,
			Title:           l.Title,
			DurationSeconds: l.DurationSeconds,
		}
		if err := r.Upsert(ctx, v); err != nil {
			return 0, err
		}
	}
	return len(links), nil
}

// Unprocessed returns videos with no transcription yet, newest first.
func (r *VideoRepo) Unprocessed(ctx context.Context) ([]types.Video, error) {
	const q = `
		SELECT v.video_id, v.podcast, v.title, v.duration_seconds, v.channel_id, v.published_at
		FROM videos v
		LEFT JOIN transcriptions t ON t.video_id = v.video_id
		WHERE t.id IS NULL
		ORDER BY v.published_at DESC NULLS LAST, v.created_at DESC
	`
	var out []types.Video
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("unprocessed select: %w", err)
	}
	return out, nil
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
