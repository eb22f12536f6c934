package insight

import (
	"context"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"operators-vault-go/internal/logger"
	"operators-vault-go/internal/types"
)

// Completer is the language-model call. An empty string means "no result";
// enrichment treats errors and empty results the same way.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

var (
	reDigits   = regexp.MustCompile(`\d+`)
	reTitleTag = regexp.MustCompile(`<title>([^<]*)</title>`)
	reStartTag = regexp.MustCompile(`<start_time>([^<]*)</start_time>`)
	reEndTag   = regexp.MustCompile(`<end_time>([^<]*)</end_time>`)
	reFrameTag = regexp.MustCompile(`<FrameWork>([\s\S]*?)</FrameWork>`)
)

// Enricher resolves a display title, a time span, and framework content for
// parsed insights. Every sub-step degrades gracefully: a failed model call
// leaves the corresponding field empty or nil, never aborts the insight.
type Enricher struct {
	llm Completer
	log *logrus.Entry
}

func NewEnricher(llm Completer) *Enricher {
	return &Enricher{llm: llm, log: logger.Component("enricher")}
}

// Extract runs the extraction prompt on one transcript chunk and parses the
// response. An empty or failed response yields zero records.
func (e *Enricher) Extract(ctx context.Context, chunk string) []types.ParsedInsight {
	user := strings.ReplaceAll(extractUserPrompt, "{transcript}", chunk)
	raw, err := e.llm.Complete(ctx, extractSystemPrompt, user)
	if err != nil {
		e.log.WithError(err).Warn("insight extraction call failed")
		return nil
	}
	return Parse(raw)
}

// Enrich produces the persistable insight for one parsed record. The caller
// supplies the timestamped transcript for span resolution and fills identity
// fields (id, video_id, podcast) afterwards.
func (e *Enricher) Enrich(ctx context.Context, timestamped string, rec types.ParsedInsight) types.Insight {
	ins := types.Insight{
		Category:    rec.Category,
		Title:       strings.TrimSpace(rec.Title),
		Description: strings.TrimSpace(rec.Description),
		SourceChunk: rec.SourceChunk,
	}

	if len(ins.Title) < 3 || len(ins.Title) > 120 {
		seed := ins.Description
		if seed == "" {
			seed = ins.Title
		}
		ins.Title = e.generateTitle(ctx, seed)
	}

	anchor := ins.Description
	if anchor == "" {
		anchor = ins.Title
	}
	ins.StartSec, ins.EndSec = e.resolveSpan(ctx, timestamped, anchor)

	if IsFrameworkCategory(rec.Category) {
		topic := ins.Title
		if topic == "" {
			topic = "Framework"
		}
		if fw := e.makeFramework(ctx, topic, rec.SourceChunk); fw != "" {
			ins.FrameworkMarkdown = &fw
		}
	}
	return ins
}

// IsFrameworkCategory matches loosely on purpose: the model occasionally drifts
// to labels like "Framework" or "frameworks", and those still get content.
func IsFrameworkCategory(category string) bool {
	return strings.Contains(category, "ramework") || category == types.CategoryFrameworks
}

func (e *Enricher) generateTitle(ctx context.Context, insight string) string {
	user := strings.ReplaceAll(titleUserPrompt, "{insight}", insight)
	raw, err := e.llm.Complete(ctx, titleSystemPrompt, user)
	if err != nil {
		e.log.WithError(err).Warn("title generation failed")
		return ""
	}
	if m := reTitleTag.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	raw = strings.TrimSpace(raw)
	if len(raw) > 120 {
		raw = raw[:120]
	}
	return raw
}

func (e *Enricher) resolveSpan(ctx context.Context, timestamped, anchor string) (start, end *float64) {
	user := strings.ReplaceAll(timestampUserPrompt, "{transcript}", timestamped)
	user = strings.ReplaceAll(user, "{insight}", anchor)
	raw, err := e.llm.Complete(ctx, timestampSystemPrompt, user)
	if err != nil {
		e.log.WithError(err).Warn("timestamp extraction failed")
		return nil, nil
	}
	if m := reStartTag.FindStringSubmatch(raw); m != nil {
		start = ParseClock(m[1])
	}
	if m := reEndTag.FindStringSubmatch(raw); m != nil {
		end = ParseClock(m[1])
	}
	return start, end
}

func (e *Enricher) makeFramework(ctx context.Context, topic, chunk string) string {
	user := strings.ReplaceAll(frameworkUserPrompt, "{topic}", topic)
	user = strings.ReplaceAll(user, "{raw_transcript}", chunk)
	raw, err := e.llm.Complete(ctx, frameworkSystemPrompt, user)
	if err != nil {
		e.log.WithError(err).Warn("framework generation failed")
		return ""
	}
	if m := reFrameTag.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

// ParseClock parses "HH:MM:SS", "MM:SS", or "SS" into seconds. One, two, or
// three numeric groups mean seconds, minutes+seconds, and hours+minutes+seconds
// respectively. Unparsable input yields nil, never zero.
func ParseClock(s string) *float64 {
	groups := reDigits.FindAllString(strings.TrimSpace(s), -1)
	if len(groups) == 0 {
		return nil
	}
	n := make([]int, len(groups))
	for i, g := range groups {
		v := 0
		for _, c := range g {
			v = v*10 + int(c-'0')
		}
		n[i] = v
	}
	var sec float64
	switch {
	case len(n) == 1:
		sec = float64(n[0])
	case len(n) == 2:
		sec = float64(n[0]*60 + n[1])
	default:
		sec = float64(n[0]*3600 + n[1]*60 + n[2])
	}
	return &sec
}
