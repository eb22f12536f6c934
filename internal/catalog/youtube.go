// Package catalog discovers podcast episodes: from the YouTube Data API and
// from CSV/XLSX seed files.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"operators-vault-go/internal/logger"
	"operators-vault-go/internal/types"
)

const apiBase = "https://www.googleapis.com/youtube/v3"

// MinDurationSeconds filters out shorts and trailers during discovery.
const MinDurationSeconds = 300

var httpClient = &http.Client{Timeout: 15 * time.Second}

// channelHandles maps each podcast to its YouTube @handle.
var channelHandles = map[string]string{
	types.Podcast9Operators:        "Operators9",
	types.PodcastMarketingOperator: "MarketingOperators",
	types.PodcastFinanceOperators:  "FinanceOperators",
}

type YouTube struct {
	apiKey string
}

// NewYouTube requires YOUTUBE_API_KEY.
func NewYouTube() (*YouTube, error) {
	key := os.Getenv("YOUTUBE_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("YOUTUBE_API_KEY not set")
	}
	return &YouTube{apiKey: key}, nil
}

// FetchNew fetches recent videos for every known podcast channel. Videos
// shorter than MinDurationSeconds are dropped.
func (y *YouTube) FetchNew(ctx context.Context, maxPerChannel int) ([]types.Video, error) {
	log := logger.Component("youtube")
	var out []types.Video
	for _, podcast := range types.Podcasts {
		handle := channelHandles[podcast]
		channelID, err := y.ResolveChannelID(ctx, handle)
		if err != nil {
			log.WithError(err).WithField("podcast", podcast).Warn("channel resolution failed")
			continue
		}
		videos, err := y.ChannelVideos(ctx, channelID, podcast, maxPerChannel)
		if err != nil {
			log.WithError(err).WithField("podcast", podcast).Warn("channel fetch failed")
			continue
		}
		kept := 0
		for _, v := range videos {
			if v.DurationSeconds != nil && *v.DurationSeconds < MinDurationSeconds {
				continue
			}
			out = append(out, v)
			kept++
		}
		log.WithField("podcast", podcast).WithField("kept", kept).Info("channel fetched")
	}
	return out, nil
}

// ResolveChannelID resolves a channel @handle to its channel ID.
func (y *YouTube) ResolveChannelID(ctx context.Context, handle string) (string, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return "", fmt.Errorf("empty channel handle")
	}
	var parsed struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	q := url.Values{"part": {"id"}, "forHandle": {handle}, "key": {y.apiKey}}
	if err := y.getJSON(ctx, apiBase+"/channels?"+q.Encode(), &parsed); err != nil {
		return "", err
	}
	if len(parsed.Items) == 0 {
		return "", fmt.Errorf("no channel for handle %q", handle)
	}
	return parsed.Items[0].ID, nil
}

// ChannelVideos lists recent uploads for a channel with duration and publish
// metadata resolved via a second videos.list call.
func (y *YouTube) ChannelVideos(ctx context.Context, channelID, podcast string, maxResults int) ([]types.Video, error) {
	if maxResults <= 0 {
		maxResults = 50
	}
	var search struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
		} `json:"items"`
	}
	q := url.Values{
		"part":       {"id,snippet"},
		"channelId":  {channelID},
		"type":       {"video"},
		"order":      {"date"},
		"maxResults": {fmt.Sprint(maxResults)},
		"key":        {y.apiKey},
	}
	if err := y.getJSON(ctx, apiBase+"/search?"+q.Encode(), &search); err != nil {
		return nil, err
	}
	var ids []string
	for _, it := range search.Items {
		if it.ID.VideoID != "" {
			ids = append(ids, it.ID.VideoID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var details struct {
		Items []struct {
			ID      string `json:"id"`
			Snippet struct {
				Title       string    `json:"title"`
				PublishedAt time.Time `json:"publishedAt"`
			} `json:"snippet"`
			ContentDetails struct {
				Duration string `json:"duration"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	q = url.Values{"part": {"snippet,contentDetails"}, "id": {strings.Join(ids, ",")}, "key": {y.apiKey}}
	if err := y.getJSON(ctx, apiBase+"/videos?"+q.Encode(), &details); err != nil {
		return nil, err
	}

	var out []types.Video
	for _, it := range details.Items {
		v := types.Video{
			VideoID:   it.ID,
			Podcast:   podcast,
			Title:     it.Snippet.Title,
			ChannelID: &channelID,
		}
		if !it.Snippet.PublishedAt.IsZero() {
			t := it.Snippet.PublishedAt
			v.PublishedAt = &t
		}
		if sec := ParseISO8601Duration(it.ContentDetails.Duration); sec != nil {
			v.DurationSeconds = sec
		}
		out = append(out, v)
	}
	return out, nil
}

func (y *YouTube) getJSON(ctx context.Context, rawURL string, target any) error {
	var lastErr error
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("youtube server error: %s", string(body))
			return lastErr
		}
		if resp.StatusCode >= 400 {
			lastErr = fmt.Errorf("youtube request rejected: %s", string(body))
			return backoff.Permanent(lastErr)
		}
		if err := json.Unmarshal(body, target); err != nil {
			lastErr = fmt.Errorf("youtube decode error: %w", err)
			return lastErr
		}
		return nil
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return lastErr
	}
	return nil
}

var reISODuration = regexp.MustCompile(`(\d+)([HMS])`)

// ParseISO8601Duration converts "PT1H27M30S" into seconds. Returns nil when
// the value does not look like an ISO 8601 duration.
func ParseISO8601Duration(s string) *int {
	if !strings.HasPrefix(s, "PT") {
		return nil
	}
	var h, m, sec int
	for _, mo := range reISODuration.FindAllStringSubmatch(strings.ToUpper(s[2:]), -1) {
		v := 0
		for _, c := range mo[1] {
			v = v*10 + int(c-'0')
		}
		switch mo[2] {
		case "H":
			h = v
		case "M":
			m = v
		case "S":
			sec = v
		}
	}
	total := h*3600 + m*60 + sec
	return &total
}
