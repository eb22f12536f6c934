package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"operators-vault-go/internal/types"
)

var (
	reVideoID  = regexp.MustCompile(`(?:v=|youtu\.be/|/embed/)([a-zA-Z0-9_-]{11})`)
	reDuration = regexp.MustCompile(`\d+`)
)

// VideoIDFromURL pulls the 11-character video ID out of a YouTube URL.
func VideoIDFromURL(u string) string {
	m := reVideoID.FindStringSubmatch(u)
	if m == nil {
		return ""
	}
	return m[1]
}

// ParseClockDuration parses "1:27:30" or "45:00" or "90" into seconds.
func ParseClockDuration(s string) *int {
	groups := reDuration.FindAllString(strings.TrimSpace(s), -1)
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
	var sec int
	switch {
	case len(n) == 1:
		sec = n[0]
	case len(n) == 2:
		sec = n[0]*60 + n[1]
	default:
		sec = n[0]*3600 + n[1]*60 + n[2]
	}
	return &sec
}

// PodcastFromFilename infers the podcast from a seed file name. Files that
// don't mention marketing or finance default to the flagship podcast.
func PodcastFromFilename(path string) string {
	p := strings.ToLower(path)
	switch {
	case strings.Contains(p, "marketing") && strings.Contains(p, "operators"):
		return types.PodcastMarketingOperator
	case strings.Contains(p, "finance") && strings.Contains(p, "operators"):
		return types.PodcastFinanceOperators
	default:
		return types.Podcast9Operators
	}
}

// LoadSeedFile reads a CSV or XLSX seed file into seed links, deduplicating by
// video ID and dropping rows under minDurationSec (when a duration is known).
// Expected columns: URL, (anything), duration, title.
func LoadSeedFile(path, podcast string, minDurationSec int) ([]types.SeedLink, error) {
	if podcast == "" {
		podcast = PodcastFromFilename(path)
	}
	var rows [][]string
	var err error
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		rows, err = readXLSX(path)
	} else {
		rows, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}
	return seedLinksFromRows(rows, podcast, minDurationSec), nil
}

// LoadSeedDir loads every .csv and .xlsx file in a directory and merges the
// results; the first occurrence of a video ID wins.
func LoadSeedDir(dir string, minDurationSec int) ([]types.SeedLink, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("seed dir: %w", err)
	}
	var merged []types.SeedLink
	seen := map[string]bool{}
	for _, e := range entries {
		name := strings.ToLower(e.Name())
		if e.IsDir() || (!strings.HasSuffix(name, ".csv") && !strings.HasSuffix(name, ".xlsx")) {
			continue
		}
		links, err := LoadSeedFile(filepath.Join(dir, e.Name()), "", minDurationSec)
		if err != nil {
			return nil, err
		}
		for _, l := range links {
			if seen[l.VideoID] {
				continue
			}
			seen[l.VideoID] = true
			merged = append(merged, l)
		}
	}
	return merged, nil
}

func seedLinksFromRows(rows [][]string, podcast string, minDurationSec int) []types.SeedLink {
	var out []types.SeedLink
	seen := map[string]bool{}
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		u := strings.TrimSpace(row[0])
		vid := VideoIDFromURL(u)
		if vid == "" || seen[vid] {
			continue
		}
		seen[vid] = true
		link := types.SeedLink{VideoID: vid, Podcast: podcast, URL: u}
		if len(row) > 2 {
			if sec := ParseClockDuration(row[2]); sec != nil {
				if minDurationSec > 0 && *sec < minDurationSec {
					continue
				}
				link.DurationSeconds = sec
			}
		}
		if len(row) > 3 {
			link.Title = strings.TrimSpace(row[3])
		}
		out = append(out, link)
	}
	return out
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx %s: no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	// Skip a header row when the first cell isn't a video URL.
	if len(rows) > 0 && len(rows[0]) > 0 && VideoIDFromURL(rows[0][0]) == "" {
		rows = rows[1:]
	}
	return rows, nil
}
