package downloader

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rizkirmdhn/vistopia/internal/common/logger"
	"github.com/sirupsen/logrus"
)

// Concatenator merges the files listed in a concat list into output without re-encoding
type Concatenator interface {
	Concat(ctx context.Context, listFile, output string) error
}

// FFmpegConcatenator runs the ffmpeg concat demuxer with stream copy
type FFmpegConcatenator struct {
	Path string
	log  *logger.ComponentLogger
}

// NewFFmpegConcatenator resolves the ffmpeg binary lazily; path defaults to "ffmpeg"
func NewFFmpegConcatenator(path string, log *logrus.Logger) *FFmpegConcatenator {
	if strings.TrimSpace(path) == "" {
		path = "ffmpeg"
	}
	return &FFmpegConcatenator{
		Path: path,
		log:  logger.NewComponentLogger(log, "ffmpeg"),
	}
}

// Available reports the resolved binary, or an error when it cannot be found
func (c *FFmpegConcatenator) Available() (string, error) {
	resolved, err := exec.LookPath(c.Path)
	if err != nil {
		return "", fmt.Errorf("ffmpeg binary %q not found: %w", c.Path, err)
	}
	return resolved, nil
}

func (c *FFmpegConcatenator) Concat(ctx context.Context, listFile, output string) error {
	binary, err := c.Available()
	if err != nil {
		return err
	}

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		"-y", output,
	}

	c.log.WithFields(logrus.Fields{
		"binary": binary,
		"list":   listFile,
		"output": output,
	}).Debug("Running ffmpeg concat")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("ffmpeg error: %w: %s", err, msg)
		}
		return fmt.Errorf("ffmpeg error: %w", err)
	}
	return nil
}

// writeMergeManifest writes a concat demuxer list in the given order
func writeMergeManifest(listFile string, paths []string) error {
	var b strings.Builder
	for _, p := range paths {
		absPath, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("error getting absolute path: %w", err)
		}
		// Escape single quotes in the path
		escapedPath := strings.ReplaceAll(absPath, "'", "'\\''")
		fmt.Fprintf(&b, "file '%s'\n", escapedPath)
	}

	if err := os.WriteFile(listFile, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("error writing filelist: %w", err)
	}
	return nil
}
