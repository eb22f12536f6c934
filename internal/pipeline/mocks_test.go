package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"operators-vault-go/internal/transcribe"
	"operators-vault-go/internal/types"
)

type AudioMock struct{ mock.Mock }

func (m *AudioMock) Download(ctx context.Context, videoID string) (string, error) {
	args := m.Called(ctx, videoID)
	return args.String(0), args.Error(1)
}

type TranscriberMock struct{ mock.Mock }

func (m *TranscriberMock) Transcribe(ctx context.Context, audioPath string) (*transcribe.Result, error) {
	args := m.Called(ctx, audioPath)
	if v := args.Get(0); v != nil {
		return v.(*transcribe.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

type ExtractorMock struct{ mock.Mock }

func (m *ExtractorMock) Extract(ctx context.Context, chunk string) []types.ParsedInsight {
	args := m.Called(ctx, chunk)
	if v := args.Get(0); v != nil {
		return v.([]types.ParsedInsight)
	}
	return nil
}

func (m *ExtractorMock) Enrich(ctx context.Context, timestamped string, rec types.ParsedInsight) types.Insight {
	args := m.Called(ctx, timestamped, rec)
	return args.Get(0).(types.Insight)
}

type CatalogMock struct{ mock.Mock }

func (m *CatalogMock) Upsert(ctx context.Context, v types.Video) error {
	return m.Called(ctx, v).Error(0)
}

func (m *CatalogMock) UpsertSeedLinks(ctx context.Context, rows []types.SeedLink) (int, error) {
	args := m.Called(ctx, rows)
	return args.Int(0), args.Error(1)
}

func (m *CatalogMock) SeedVideosFromLinks(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *CatalogMock) Unprocessed(ctx context.Context) ([]types.Video, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]types.Video), args.Error(1)
	}
	return nil, args.Error(1)
}

type TranscriptStoreMock struct{ mock.Mock }

func (m *TranscriptStoreMock) Replace(ctx context.Context, videoID, rawText string, segments []types.Segment) error {
	return m.Called(ctx, videoID, rawText, segments).Error(0)
}

type InsightStoreMock struct{ mock.Mock }

func (m *InsightStoreMock) Replace(ctx context.Context, videoID string, insights []types.Insight) error {
	return m.Called(ctx, videoID, insights).Error(0)
}

type IndexMock struct{ mock.Mock }

func (m *IndexMock) Add(insights []types.Insight) error {
	return m.Called(insights).Error(0)
}

type DiscoveryMock struct{ mock.Mock }

func (m *DiscoveryMock) FetchNew(ctx context.Context, maxPerChannel int) ([]types.Video, error) {
	args := m.Called(ctx, maxPerChannel)
	if v := args.Get(0); v != nil {
		return v.([]types.Video), args.Error(1)
	}
	return nil, args.Error(1)
}
