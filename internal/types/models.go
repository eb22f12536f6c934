package types

import "time"

// Podcast identifiers as stored in the videos and seed_links tables.
const (
	Podcast9Operators        = "9operators"
	PodcastMarketingOperator = "marketing_operator"
	PodcastFinanceOperators  = "finance_operators"
)

// Podcasts lists the known podcast identifiers in discovery order.
var Podcasts = []string{Podcast9Operators, PodcastMarketingOperator, PodcastFinanceOperators}

// Insight categories as emitted by the extraction prompt and stored in the DB.
const (
	CategoryFrameworks    = "Frameworks and exercises"
	CategoryPerspectives  = "Points of view and perspectives"
	CategoryBusinessIdeas = "Business ideas"
	CategoryStories       = "Stories and anecdotes"
	CategoryQuotes        = "Quotes"
	CategoryProducts      = "Products"
)

type Video struct {
	VideoID         string     `db:"video_id" json:"video_id"`
	Podcast         string     `db:"podcast" json:"podcast"`
	Title           string     `db:"title" json:"title,omitempty"`
	DurationSeconds *int       `db:"duration_seconds" json:"duration_seconds,omitempty"`
	ChannelID       *string    `db:"channel_id" json:"channel_id,omitempty"`
	PublishedAt     *time.Time `db:"published_at" json:"published_at,omitempty"`
}

// SeedLink is an externally sourced candidate video, keyed (video_id, podcast).
// It never becomes a Video by itself; reconciliation copies it into the catalog.
type SeedLink struct {
	VideoID         string `db:"video_id" json:"video_id"`
	Podcast         string `db:"podcast" json:"podcast"`
	Title           string `db:"title" json:"title,omitempty"`
	DurationSeconds *int   `db:"duration_seconds" json:"duration_seconds,omitempty"`
	URL             string `db:"url" json:"url,omitempty"`
}

// Segment is one time-bounded utterance of a transcription. Persisted only when
// both Start and End are known.
type Segment struct {
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	Text         string  `json:"text"`
	SpeakerLabel string  `json:"speaker_label,omitempty"`
}

// ParsedInsight is the raw parser output for one bullet, before enrichment.
type ParsedInsight struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	SourceChunk string `json:"-"`
}

// Insight is the enriched, persisted unit of extracted content. ID is freshly
// generated per run so re-indexing never collides with a prior pass.
type Insight struct {
	ID                string   `db:"id" json:"id"`
	VideoID           string   `db:"video_id" json:"video_id"`
	Podcast           string   `db:"podcast" json:"podcast"`
	Category          string   `db:"category" json:"category"`
	Title             string   `db:"title" json:"title"`
	Description       string   `db:"description" json:"description"`
	StartSec          *float64 `db:"start_time_sec" json:"start_time_sec"`
	EndSec            *float64 `db:"end_time_sec" json:"end_time_sec"`
	FrameworkMarkdown *string  `db:"framework_markdown" json:"framework_markdown"`
	SourceChunk       string   `db:"source_chunk" json:"-"`
}
