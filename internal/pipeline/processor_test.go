package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"operators-vault-go/internal/transcribe"
	"operators-vault-go/internal/types"
)

type fixture struct {
	audio       *AudioMock
	transcriber *TranscriberMock
	extractor   *ExtractorMock
	catalog     *CatalogMock
	transcripts *TranscriptStoreMock
	insights    *InsightStoreMock
	index       *IndexMock
	discovery   *DiscoveryMock
	proc        *Processor
}

func newFixture() *fixture {
	f := &fixture{
		audio:       new(AudioMock),
		transcriber: new(TranscriberMock),
		extractor:   new(ExtractorMock),
		catalog:     new(CatalogMock),
		transcripts: new(TranscriptStoreMock),
		insights:    new(InsightStoreMock),
		index:       new(IndexMock),
		discovery:   new(DiscoveryMock),
	}
	f.proc = New(f.audio, f.transcriber, f.extractor, f.catalog, f.transcripts, f.insights, f.index, f.discovery)
	n := 0
	f.proc.idGen = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return f
}

func segs() []types.Segment {
	return []types.Segment{{Start: 0, End: 4, Text: "welcome to the show", SpeakerLabel: "0"}}
}

func TestProcessHappyPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.catalog.On("Upsert", mock.Anything, types.Video{VideoID: "vid1", Podcast: types.Podcast9Operators}).Return(nil).Once()
	f.audio.On("Download", mock.Anything, "vid1").Return("/tmp/vid1.audio.webm", nil).Once()
	f.transcriber.On("Transcribe", mock.Anything, "/tmp/vid1.audio.webm").
		Return(&transcribe.Result{RawText: "full transcript", Utterances: segs()}, nil).Once()
	f.transcripts.On("Replace", mock.Anything, "vid1", "full transcript", segs()).Return(nil).Once()

	parsed := types.ParsedInsight{Category: types.CategoryQuotes, Title: "Jane", Description: "Do the work"}
	f.extractor.On("Extract", mock.Anything, "full transcript").Return([]types.ParsedInsight{parsed}).Once()

	tagged := parsed
	tagged.SourceChunk = "full transcript"
	enriched := types.Insight{Category: types.CategoryQuotes, Title: "Jane", Description: "Do the work", SourceChunk: "full transcript"}
	f.extractor.On("Enrich", mock.Anything, "00:00:00 0: welcome to the show", tagged).Return(enriched).Once()

	var stored []types.Insight
	f.insights.On("Replace", mock.Anything, "vid1", mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(2).([]types.Insight) }).
		Return(nil).Once()
	f.index.On("Add", mock.Anything).Return(nil).Once()

	require.NoError(t, f.proc.Process(ctx, "vid1", types.Podcast9Operators))

	require.Len(t, stored, 1)
	require.Equal(t, "id-1", stored[0].ID)
	require.Equal(t, "vid1", stored[0].VideoID)
	require.Equal(t, types.Podcast9Operators, stored[0].Podcast)

	f.audio.AssertExpectations(t)
	f.transcriber.AssertExpectations(t)
	f.extractor.AssertExpectations(t)
	f.catalog.AssertExpectations(t)
	f.transcripts.AssertExpectations(t)
	f.insights.AssertExpectations(t)
	f.index.AssertExpectations(t)
}

func TestProcessAudioFailureIsHardStop(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.catalog.On("Upsert", mock.Anything, mock.Anything).Return(nil).Once()
	f.audio.On("Download", mock.Anything, "vid1").Return("", errors.New("yt-dlp: video unavailable")).Once()

	err := f.proc.Process(ctx, "vid1", types.Podcast9Operators)
	require.Error(t, err)

	// No writes past the failure point.
	f.transcripts.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.insights.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessEmptyTranscriptIsHardStop(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.catalog.On("Upsert", mock.Anything, mock.Anything).Return(nil).Once()
	f.audio.On("Download", mock.Anything, "vid1").Return("/tmp/a.webm", nil).Once()
	f.transcriber.On("Transcribe", mock.Anything, "/tmp/a.webm").
		Return(&transcribe.Result{RawText: ""}, nil).Once()

	err := f.proc.Process(ctx, "vid1", types.Podcast9Operators)
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty transcript")
	f.transcripts.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessZeroInsightsIsSuccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.catalog.On("Upsert", mock.Anything, mock.Anything).Return(nil).Once()
	f.audio.On("Download", mock.Anything, "vid1").Return("/tmp/a.webm", nil).Once()
	f.transcriber.On("Transcribe", mock.Anything, "/tmp/a.webm").
		Return(&transcribe.Result{RawText: "nothing useful here", Utterances: segs()}, nil).Once()
	f.transcripts.On("Replace", mock.Anything, "vid1", "nothing useful here", segs()).Return(nil).Once()
	f.extractor.On("Extract", mock.Anything, "nothing useful here").Return(nil).Once()
	f.insights.On("Replace", mock.Anything, "vid1", mock.Anything).Return(nil).Once()
	f.index.On("Add", mock.Anything).Return(nil).Once()

	require.NoError(t, f.proc.Process(ctx, "vid1", types.Podcast9Operators))
}

func TestProcessIndexFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.catalog.On("Upsert", mock.Anything, mock.Anything).Return(nil).Once()
	f.audio.On("Download", mock.Anything, "vid1").Return("/tmp/a.webm", nil).Once()
	f.transcriber.On("Transcribe", mock.Anything, "/tmp/a.webm").
		Return(&transcribe.Result{RawText: "text", Utterances: segs()}, nil).Once()
	f.transcripts.On("Replace", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.extractor.On("Extract", mock.Anything, "text").Return(nil).Once()
	f.insights.On("Replace", mock.Anything, "vid1", mock.Anything).Return(nil).Once()
	f.index.On("Add", mock.Anything).Return(errors.New("meilisearch down")).Once()

	require.NoError(t, f.proc.Process(ctx, "vid1", types.Podcast9Operators))
	f.index.AssertExpectations(t)
}

func TestProcessWithoutIndexConfigured(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.proc.index = nil

	f.catalog.On("Upsert", mock.Anything, mock.Anything).Return(nil).Once()
	f.audio.On("Download", mock.Anything, "vid1").Return("/tmp/a.webm", nil).Once()
	f.transcriber.On("Transcribe", mock.Anything, "/tmp/a.webm").
		Return(&transcribe.Result{RawText: "text", Utterances: segs()}, nil).Once()
	f.transcripts.On("Replace", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.extractor.On("Extract", mock.Anything, "text").Return(nil).Once()
	f.insights.On("Replace", mock.Anything, "vid1", mock.Anything).Return(nil).Once()

	require.NoError(t, f.proc.Process(ctx, "vid1", types.Podcast9Operators))
	f.index.AssertNotCalled(t, "Add", mock.Anything)
}

func TestProcessTagsSourceChunkPerChunk(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.proc.chunkSize = 10
	f.proc.chunkOverlap = 2

	raw := "abcdefghijklmnop" // chunks: abcdefghij, ijklmnop
	f.catalog.On("Upsert", mock.Anything, mock.Anything).Return(nil).Once()
	f.audio.On("Download", mock.Anything, "vid1").Return("/tmp/a.webm", nil).Once()
	f.transcriber.On("Transcribe", mock.Anything, "/tmp/a.webm").
		Return(&transcribe.Result{RawText: raw}, nil).Once()
	f.transcripts.On("Replace", mock.Anything, "vid1", raw, mock.Anything).Return(nil).Once()

	f.extractor.On("Extract", mock.Anything, "abcdefghij").
		Return([]types.ParsedInsight{{Category: "Products", Title: "One"}}).Once()
	f.extractor.On("Extract", mock.Anything, "ijklmnop").
		Return([]types.ParsedInsight{{Category: "Products", Title: "Two"}}).Once()

	var enrichedChunks []string
	f.extractor.On("Enrich", mock.Anything, raw, mock.Anything).
		Run(func(args mock.Arguments) {
			enrichedChunks = append(enrichedChunks, args.Get(2).(types.ParsedInsight).SourceChunk)
		}).
		Return(types.Insight{}).Twice()

	f.insights.On("Replace", mock.Anything, "vid1", mock.Anything).Return(nil).Once()
	f.index.On("Add", mock.Anything).Return(nil).Once()

	require.NoError(t, f.proc.Process(ctx, "vid1", types.Podcast9Operators))
	require.Equal(t, []string{"abcdefghij", "ijklmnop"}, enrichedChunks)
}

func TestProcessNewContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.catalog.On("Unprocessed", mock.Anything).Return([]types.Video{
		{VideoID: "good", Podcast: types.Podcast9Operators},
		{VideoID: "bad", Podcast: types.Podcast9Operators},
	}, nil).Once()

	f.catalog.On("Upsert", mock.Anything, mock.Anything).Return(nil).Twice()
	f.audio.On("Download", mock.Anything, "good").Return("/tmp/good.webm", nil).Once()
	f.audio.On("Download", mock.Anything, "bad").Return("", errors.New("unavailable")).Once()
	f.transcriber.On("Transcribe", mock.Anything, "/tmp/good.webm").
		Return(&transcribe.Result{RawText: "text", Utterances: segs()}, nil).Once()
	f.transcripts.On("Replace", mock.Anything, "good", "text", segs()).Return(nil).Once()
	f.extractor.On("Extract", mock.Anything, "text").Return(nil).Once()
	f.insights.On("Replace", mock.Anything, "good", mock.Anything).Return(nil).Once()
	f.index.On("Add", mock.Anything).Return(nil).Once()

	res, err := f.proc.ProcessNew(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Processed)
	require.Equal(t, []string{"good"}, res.VideoIDs)
	require.Equal(t, []string{"bad"}, res.Failed)
}

func TestSyncUpsertsDiscoveredVideos(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	dur := 3600
	discovered := []types.Video{{VideoID: "newvid", Podcast: types.PodcastMarketingOperator, Title: "Ep 42", DurationSeconds: &dur}}
	f.discovery.On("FetchNew", mock.Anything, 50).Return(discovered, nil).Once()
	f.catalog.On("Upsert", mock.Anything, discovered[0]).Return(nil).Once()
	f.catalog.On("Unprocessed", mock.Anything).Return([]types.Video{}, nil).Once()

	res, err := f.proc.Sync(ctx, 50)
	require.NoError(t, err)
	require.Equal(t, 1, res.Upserted)
	require.Equal(t, 0, res.Processed)
}

func TestSyncWithoutDiscoveryConfigured(t *testing.T) {
	f := newFixture()
	f.proc.discovery = nil
	_, err := f.proc.Sync(context.Background(), 50)
	require.Error(t, err)
}

func TestBackfillSeedsThenProcesses(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.catalog.On("SeedVideosFromLinks", mock.Anything).Return(7, nil).Once()
	f.catalog.On("Unprocessed", mock.Anything).Return([]types.Video{}, nil).Once()

	res, err := f.proc.Backfill(ctx)
	require.NoError(t, err)
	require.Equal(t, 7, res.Seeded)
}
