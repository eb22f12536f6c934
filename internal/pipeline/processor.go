// Package pipeline orchestrates per-video processing: acquire audio,
// transcribe, persist the transcript, chunk, extract, enrich, and persist
// insights into both stores.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"operators-vault-go/internal/chunker"
	"operators-vault-go/internal/logger"
	"operators-vault-go/internal/transcribe"
	"operators-vault-go/internal/types"
)

// AudioSource acquires episode audio and returns a local file path.
type AudioSource interface {
	Download(ctx context.Context, videoID string) (string, error)
}

// Transcriber converts an audio file into raw text plus utterances.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*transcribe.Result, error)
}

// Extractor runs per-chunk insight extraction and per-insight enrichment.
type Extractor interface {
	Extract(ctx context.Context, chunk string) []types.ParsedInsight
	Enrich(ctx context.Context, timestamped string, rec types.ParsedInsight) types.Insight
}

// Catalog is the videos/seed_links side of the relational store.
type Catalog interface {
	Upsert(ctx context.Context, v types.Video) error
	UpsertSeedLinks(ctx context.Context, rows []types.SeedLink) (int, error)
	SeedVideosFromLinks(ctx context.Context) (int, error)
	Unprocessed(ctx context.Context) ([]types.Video, error)
}

// TranscriptStore replaces a video's transcription and segments.
type TranscriptStore interface {
	Replace(ctx context.Context, videoID, rawText string, segments []types.Segment) error
}

// InsightStore replaces a video's insight set.
type InsightStore interface {
	Replace(ctx context.Context, videoID string, insights []types.Insight) error
}

// InsightIndex mirrors insights into the search store. Failures are logged and
// swallowed; the index converges on the next processing pass.
type InsightIndex interface {
	Add(insights []types.Insight) error
}

// Discovery fetches new catalog entries from the external video host.
type Discovery interface {
	FetchNew(ctx context.Context, maxPerChannel int) ([]types.Video, error)
}

type Processor struct {
	audio       AudioSource
	transcriber Transcriber
	extractor   Extractor
	catalog     Catalog
	transcripts TranscriptStore
	insights    InsightStore
	index       InsightIndex // nil when the search store is not configured
	discovery   Discovery    // nil when discovery is not configured

	chunkSize    int
	chunkOverlap int
	idGen        func() string
	log          *logrus.Entry
}

func New(audio AudioSource, transcriber Transcriber, extractor Extractor,
	catalog Catalog, transcripts TranscriptStore, insights InsightStore,
	index InsightIndex, discovery Discovery) *Processor {
	return &Processor{
		audio:        audio,
		transcriber:  transcriber,
		extractor:    extractor,
		catalog:      catalog,
		transcripts:  transcripts,
		insights:     insights,
		index:        index,
		discovery:    discovery,
		chunkSize:    chunker.DefaultSize,
		chunkOverlap: chunker.DefaultOverlap,
		idGen:        func() string { return uuid.New().String() },
		log:          logger.Component("pipeline"),
	}
}

// Process runs the full pipeline for one video. Audio or transcription
// failures are hard stops: no transcript or insight writes happen for this
// run, and whatever the previous successful run stored stays in place.
// Zero extracted insights is still a success.
func (p *Processor) Process(ctx context.Context, videoID, podcast string) error {
	log := p.log.WithField("video_id", videoID).WithField("podcast", podcast)

	// Bare catalog row first, so later inserts have a parent even when the
	// video was submitted directly rather than discovered.
	if err := p.catalog.Upsert(ctx, types.Video{VideoID: videoID, Podcast: podcast}); err != nil {
		return fmt.Errorf("ensure video: %w", err)
	}

	log.Info("downloading audio")
	audioPath, err := p.audio.Download(ctx, videoID)
	if err != nil {
		return fmt.Errorf("audio download: %w", err)
	}

	log.Info("transcribing")
	tr, err := p.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}
	if tr == nil || tr.RawText == "" {
		return fmt.Errorf("transcribe: empty transcript for %s", videoID)
	}

	if err := p.transcripts.Replace(ctx, videoID, tr.RawText, tr.Utterances); err != nil {
		return fmt.Errorf("store transcript: %w", err)
	}

	timestamped := transcribe.FormatTimestamped(tr.Utterances)
	if timestamped == "" {
		timestamped = tr.RawText
	}

	chunks := chunker.Split(tr.RawText, p.chunkSize, p.chunkOverlap)
	var parsed []types.ParsedInsight
	for i, ch := range chunks {
		log.WithField("chunk", fmt.Sprintf("%d/%d", i+1, len(chunks))).Info("extracting insights")
		for _, rec := range p.extractor.Extract(ctx, ch) {
			rec.SourceChunk = ch
			parsed = append(parsed, rec)
		}
	}

	insights := make([]types.Insight, 0, len(parsed))
	for _, rec := range parsed {
		ins := p.extractor.Enrich(ctx, timestamped, rec)
		ins.ID = p.idGen()
		ins.VideoID = videoID
		ins.Podcast = podcast
		insights = append(insights, ins)
	}

	if err := p.insights.Replace(ctx, videoID, insights); err != nil {
		return fmt.Errorf("store insights: %w", err)
	}
	if p.index != nil {
		// Search writes are best-effort; the relational write stands either way.
		if err := p.index.Add(insights); err != nil {
			log.WithField("error", err.Error()).Warn("search index write failed")
		}
	}

	log.WithField("insights", len(insights)).Info("video processed")
	return nil
}

// BatchResult summarizes a batch run; it becomes the job's result payload.
type BatchResult struct {
	Upserted  int      `json:"upserted,omitempty"`
	Seeded    int      `json:"seeded,omitempty"`
	Processed int      `json:"processed"`
	VideoIDs  []string `json:"video_ids"`
	Failed    []string `json:"failed,omitempty"`
}

// ProcessNew processes every video that has no transcription yet. Individual
// video failures don't abort the batch.
func (p *Processor) ProcessNew(ctx context.Context) (*BatchResult, error) {
	videos, err := p.catalog.Unprocessed(ctx)
	if err != nil {
		return nil, err
	}
	res := &BatchResult{VideoIDs: []string{}}
	for i, v := range videos {
		p.log.WithField("progress", fmt.Sprintf("%d/%d", i+1, len(videos))).
			WithField("video_id", v.VideoID).Info("processing")
		if err := p.Process(ctx, v.VideoID, v.Podcast); err != nil {
			p.log.WithField("video_id", v.VideoID).WithField("error", err.Error()).Warn("video failed")
			res.Failed = append(res.Failed, v.VideoID)
			continue
		}
		res.Processed++
		res.VideoIDs = append(res.VideoIDs, v.VideoID)
	}
	return res, nil
}

// Sync discovers new videos, upserts them into the catalog, then processes
// everything unprocessed. Discovery must be configured.
func (p *Processor) Sync(ctx context.Context, maxPerChannel int) (*BatchResult, error) {
	if p.discovery == nil {
		return nil, fmt.Errorf("video discovery not configured")
	}
	videos, err := p.discovery.FetchNew(ctx, maxPerChannel)
	if err != nil {
		return nil, fmt.Errorf("fetch new: %w", err)
	}
	upserted := 0
	for _, v := range videos {
		if err := p.catalog.Upsert(ctx, v); err != nil {
			return nil, err
		}
		upserted++
	}
	res, err := p.ProcessNew(ctx)
	if err != nil {
		return nil, err
	}
	res.Upserted = upserted
	return res, nil
}

// Backfill reconciles seed links into the videos catalog and then processes
// everything unprocessed.
func (p *Processor) Backfill(ctx context.Context) (*BatchResult, error) {
	seeded, err := p.catalog.SeedVideosFromLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed from links: %w", err)
	}
	res, err := p.ProcessNew(ctx)
	if err != nil {
		return nil, err
	}
	res.Seeded = seeded
	return res, nil
}
