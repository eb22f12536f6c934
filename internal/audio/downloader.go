// Package audio downloads episode audio from YouTube via yt-dlp.
package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"operators-vault-go/internal/logger"
)

type Downloader struct {
	workDir string
}

// NewDownloader uses WORK_DIR or the system temp dir for audio files.
func NewDownloader() *Downloader {
	dir := os.Getenv("WORK_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return &Downloader{workDir: dir}
}

var audioExts = []string{".webm", ".m4a", ".mp3"}

// Download fetches the best audio stream for a video and returns the local
// file path. Re-downloads are skipped when the file is already present.
func (d *Downloader) Download(ctx context.Context, videoID string) (string, error) {
	if err := os.MkdirAll(d.workDir, 0o755); err != nil {
		return "", fmt.Errorf("work dir: %w", err)
	}
	if p := d.existing(videoID); p != "" {
		return p, nil
	}

	log := logger.Component("audio").WithField("video_id", videoID)
	url := "https://www.youtube.com/watch?v=" + videoID
	outTpl := filepath.Join(d.workDir, videoID+".audio.%(ext)s")

	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()
	cmd := exec.CommandContext(ctx, "yt-dlp",
		"-f", "bestaudio[ext=m4a]/bestaudio[ext=webm]/bestaudio",
		"--extract-audio",
		"--audio-format", "m4a",
		"-o", outTpl,
		"--no-playlist",
		"--no-warnings",
		"--quiet",
		url,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		log.WithError(err).WithField("output", string(out)).Warn("yt-dlp failed")
		return "", fmt.Errorf("yt-dlp %s: %w", videoID, err)
	}

	if p := d.existing(videoID); p != "" {
		return p, nil
	}
	return "", fmt.Errorf("yt-dlp %s: no audio file produced", videoID)
}

func (d *Downloader) existing(videoID string) string {
	for _, ext := range audioExts {
		p := filepath.Join(d.workDir, videoID+".audio"+ext)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
