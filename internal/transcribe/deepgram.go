// Package transcribe calls the Deepgram prerecorded API with diarization and
// utterances enabled, and shapes the response into a raw transcript plus
// time-bounded segments.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"operators-vault-go/internal/logger"
	"operators-vault-go/internal/types"
)

const defaultEndpoint = "https://api.deepgram.com/v1/listen"

var httpClient = &http.Client{Timeout: 10 * time.Minute}

// Result is the transcription output the pipeline consumes.
type Result struct {
	RawText    string
	Utterances []types.Segment
}

type Client struct {
	endpoint string
	apiKey   string
	model    string
}

// New reads DEEPGRAM_API_KEY (required) and DEEPGRAM_MODEL / DEEPGRAM_URL
// (optional overrides).
func New() (*Client, error) {
	apiKey := os.Getenv("DEEPGRAM_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("DEEPGRAM_API_KEY not set")
	}
	c := &Client{endpoint: defaultEndpoint, apiKey: apiKey, model: "nova-2"}
	if v := os.Getenv("DEEPGRAM_URL"); v != "" {
		c.endpoint = v
	}
	if v := os.Getenv("DEEPGRAM_MODEL"); v != "" {
		c.model = v
	}
	return c, nil
}

type response struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
		Utterances []utterance `json:"utterances"`
	} `json:"results"`
}

type utterance struct {
	Start      *float64        `json:"start"`
	End        *float64        `json:"end"`
	Transcript string          `json:"transcript"`
	Speaker    json.RawMessage `json:"speaker"`
}

// Transcribe uploads the audio file and returns the full transcript with
// utterances. USE_MOCK_TRANSCRIBE=true short-circuits for offline runs.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	if os.Getenv("USE_MOCK_TRANSCRIBE") == "true" {
		return &Result{
			RawText: "Mock transcript about running a DTC brand.",
			Utterances: []types.Segment{
				{Start: 0, End: 5, Text: "Mock transcript about running a DTC brand.", SpeakerLabel: "0"},
			},
		}, nil
	}
	log := logger.Component("transcribe")

	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("deepgram url: %w", err)
	}
	q := u.Query()
	q.Set("model", c.model)
	q.Set("punctuate", "true")
	q.Set("smart_format", "true")
	q.Set("utterances", "true")
	q.Set("diarize", "true")
	u.RawQuery = q.Encode()

	var parsed response
	var lastErr error
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(audio))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Token "+c.apiKey)
		req.Header.Set("Content-Type", contentType(audioPath))

		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("deepgram server error: %s", string(body))
			return lastErr
		}
		if resp.StatusCode >= 400 {
			lastErr = fmt.Errorf("deepgram rejected request: %s", string(body))
			return backoff.Permanent(lastErr)
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			lastErr = fmt.Errorf("deepgram decode error: %w", err)
			return lastErr
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 5 * time.Minute
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return nil, fmt.Errorf("deepgram transcribe: %w", lastErr)
	}

	res := &Result{}
	if chans := parsed.Results.Channels; len(chans) > 0 && len(chans[0].Alternatives) > 0 {
		res.RawText = strings.TrimSpace(chans[0].Alternatives[0].Transcript)
	}
	for _, u := range parsed.Results.Utterances {
		// Segments need both bounds; anything else is unusable downstream.
		if u.Start == nil || u.End == nil {
			continue
		}
		res.Utterances = append(res.Utterances, types.Segment{
			Start:        *u.Start,
			End:          *u.End,
			Text:         strings.TrimSpace(u.Transcript),
			SpeakerLabel: speakerLabel(u.Speaker),
		})
	}
	log.WithField("utterances", len(res.Utterances)).Info("transcription done")
	return res, nil
}

// speakerLabel tolerates both numeric and string speaker fields.
func speakerLabel(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.Itoa(n)
	}
	return ""
}

func contentType(path string) string {
	switch {
	case strings.HasSuffix(path, ".webm"):
		return "audio/webm"
	case strings.HasSuffix(path, ".m4a"):
		return "audio/mp4"
	case strings.HasSuffix(path, ".mp3"):
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}

// FormatTimestamped renders utterances as "HH:MM:SS Speaker: text" lines for
// the span-resolution prompt.
func FormatTimestamped(utterances []types.Segment) string {
	var b strings.Builder
	for _, u := range utterances {
		text := strings.TrimSpace(u.Text)
		if text == "" {
			continue
		}
		s := int(u.Start)
		sp := u.SpeakerLabel
		if sp == "" {
			sp = "Speaker"
		}
		fmt.Fprintf(&b, "%02d:%02d:%02d %s: %s\n", s/3600, (s%3600)/60, s%60, sp, text)
	}
	return strings.TrimRight(b.String(), "\n")
}
