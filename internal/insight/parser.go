// Package insight turns free-form categorized-bullet model output into
// structured records and enriches them with titles, time spans, and framework
// content.
package insight

import (
	"regexp"
	"strings"

	"operators-vault-go/internal/types"
)

var (
	reLeadingSep  = regexp.MustCompile(`^\s*-{3,}\s*\n?`)
	reTrailingSep = regexp.MustCompile(`\n?-{3,}\s*$`)
	reBlockSep    = regexp.MustCompile(`\n-{3,}\n`)
	reQuoteBullet = regexp.MustCompile(`^"([^"]+)"\s*[–—-]\s*(.+)$`)
)

// parser state while scanning a block line by line.
type parseState int

const (
	stateScanning   parseState = iota // no category open yet
	stateInCategory                   // bullets accumulate under the open category
)

// Parse converts one model response into ordered {category, title, description}
// records. A block is delimited by --- separator lines; within a block a
// non-bullet line ending in ":" opens a category and subsequent "*" bullets
// belong to it. Blocks containing a "(none)" marker contribute nothing.
// Duplicates are passed through unchanged; dedup is not this layer's job.
func Parse(text string) []types.ParsedInsight {
	t := reLeadingSep.ReplaceAllString(text, "")
	t = reTrailingSep.ReplaceAllString(t, "")

	var out []types.ParsedInsight
	for _, block := range reBlockSep.Split(t, -1) {
		block = strings.TrimSpace(block)
		if block == "" || strings.Contains(strings.ToLower(block), "(none)") {
			continue
		}
		lines := strings.Split(block, "\n")

		state := stateScanning
		category := ""
		var bullets []string
		for _, line := range lines {
			stripped := strings.TrimSpace(line)
			if stripped == "" {
				continue
			}
			switch {
			case !strings.HasPrefix(stripped, "*") && strings.HasSuffix(stripped, ":"):
				// New category header flushes the previous one.
				if state == stateInCategory && len(bullets) > 0 {
					out = append(out, parseBullets(bullets, category)...)
				}
				category = strings.TrimSpace(strings.TrimRight(stripped, ":"))
				bullets = nil
				state = stateInCategory
			case strings.HasPrefix(stripped, "*"):
				bullets = append(bullets, stripped)
			}
		}
		if state == stateInCategory && len(bullets) > 0 {
			out = append(out, parseBullets(bullets, category)...)
		}

		// Legacy header-less format: the first line is the category and the
		// rest are its bullets. Only applies when nothing was recognized yet.
		if len(out) == 0 && state == stateScanning && len(lines) > 0 {
			catLine := strings.TrimRight(lines[0], ":")
			if !strings.HasPrefix(strings.TrimSpace(catLine), "*") {
				var rest []string
				for _, line := range lines[1:] {
					stripped := strings.TrimSpace(line)
					if strings.HasPrefix(stripped, "*") {
						rest = append(rest, stripped)
					}
				}
				out = append(out, parseBullets(rest, strings.TrimSpace(catLine))...)
			}
		}
	}
	return out
}

// parseBullets parses accumulated "*" lines under one category. Each bullet is
// either `"Quote" – Person`, `Title: Description`, or a bare title.
func parseBullets(bullets []string, category string) []types.ParsedInsight {
	var out []types.ParsedInsight
	for _, b := range bullets {
		line := strings.TrimSpace(strings.TrimPrefix(b, "*"))
		if line == "" {
			continue
		}
		if m := reQuoteBullet.FindStringSubmatch(line); m != nil {
			out = append(out, types.ParsedInsight{
				Category:    category,
				Title:       strings.TrimSpace(m[2]),
				Description: strings.TrimSpace(m[1]),
			})
			continue
		}
		if title, desc, ok := strings.Cut(line, ": "); ok {
			out = append(out, types.ParsedInsight{
				Category:    category,
				Title:       strings.TrimSpace(title),
				Description: strings.TrimSpace(desc),
			})
			continue
		}
		out = append(out, types.ParsedInsight{Category: category, Title: line})
	}
	return out
}
