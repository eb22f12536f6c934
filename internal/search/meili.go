// Package search mirrors insights into Meilisearch. The index is a secondary,
// eventually-consistent store: writes are best-effort and a failed write is
// repaired by the next processing pass of the same video.
package search

import (
	"fmt"
	"os"
	"strings"

	"github.com/meilisearch/meilisearch-go"
	"github.com/sirupsen/logrus"

	"operators-vault-go/internal/logger"
	"operators-vault-go/internal/types"
)

const indexName = "operators_insights"

type Index struct {
	idx *meilisearch.Index
	log *logrus.Entry
}

// New requires MEILISEARCH_HOST and MEILISEARCH_API_KEY and configures the
// insights index attributes. Settings updates are best-effort.
func New() (*Index, error) {
	host := os.Getenv("MEILISEARCH_HOST")
	key := os.Getenv("MEILISEARCH_API_KEY")
	if host == "" || key == "" {
		return nil, fmt.Errorf("MEILISEARCH_HOST or MEILISEARCH_API_KEY not set")
	}
	client := meilisearch.NewClient(meilisearch.ClientConfig{Host: host, APIKey: key})
	idx := client.Index(indexName)
	log := logger.Component("search")

	if _, err := idx.UpdateFilterableAttributes(&[]string{"podcast", "category", "video_id"}); err != nil {
		log.WithError(err).Warn("filterable attributes update failed")
	}
	if _, err := idx.UpdateSearchableAttributes(&[]string{"title", "description", "framework_markdown"}); err != nil {
		log.WithError(err).Warn("searchable attributes update failed")
	}
	if _, err := idx.UpdateSortableAttributes(&[]string{"start_time_sec", "title", "category"}); err != nil {
		log.WithError(err).Warn("sortable attributes update failed")
	}
	return &Index{idx: idx, log: log}, nil
}

// document is the searchable projection of an insight. Source chunks stay out
// of the index.
type document struct {
	ID                string   `json:"id"`
	VideoID           string   `json:"video_id"`
	Podcast           string   `json:"podcast"`
	Category          string   `json:"category"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	StartSec          *float64 `json:"start_time_sec"`
	EndSec            *float64 `json:"end_time_sec"`
	FrameworkMarkdown *string  `json:"framework_markdown"`
}

// Add indexes insights by their generated IDs.
func (i *Index) Add(insights []types.Insight) error {
	if len(insights) == 0 {
		return nil
	}
	docs := make([]document, 0, len(insights))
	for _, ins := range insights {
		docs = append(docs, document{
			ID:                ins.ID,
			VideoID:           ins.VideoID,
			Podcast:           ins.Podcast,
			Category:          ins.Category,
			Title:             ins.Title,
			Description:       ins.Description,
			StartSec:          ins.StartSec,
			EndSec:            ins.EndSec,
			FrameworkMarkdown: ins.FrameworkMarkdown,
		})
	}
	if _, err := i.idx.AddDocuments(docs, "id"); err != nil {
		return fmt.Errorf("meilisearch add documents: %w", err)
	}
	return nil
}

// Query runs a search with optional podcast/category/video_id filters.
func (i *Index) Query(q, podcast, category, videoID string, limit int64) (*meilisearch.SearchResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var filters []string
	if podcast != "" {
		filters = append(filters, fmt.Sprintf("podcast = %q", podcast))
	}
	if category != "" {
		filters = append(filters, fmt.Sprintf("category = %q", category))
	}
	if videoID != "" {
		filters = append(filters, fmt.Sprintf("video_id = %q", videoID))
	}
	req := &meilisearch.SearchRequest{Limit: limit}
	if len(filters) > 0 {
		req.Filter = strings.Join(filters, " AND ")
	}
	res, err := i.idx.Search(q, req)
	if err != nil {
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}
	return res, nil
}
