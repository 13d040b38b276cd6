package transcode

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/melsuly/Audio-File-Tools-Bot/internal/timecode"
)

// Transcoder runs ffmpeg to produce voice-message audio
type Transcoder struct {
	config Config
}

// Config contains transcoder configuration
type Config struct {
	FFmpegPath string
	Bitrate    string // e.g. "48k"
	SampleRate int    // Hz
	Channels   int
	Timeout    time.Duration // 0 disables the per-run timeout
}

// Job describes a single transcode run
type Job struct {
	Input  string
	Output string
	Trim   *timecode.TrimRange // nil keeps the full length
}

// NewTranscoder creates a Transcoder, filling in voice-message defaults for
// unset encoding parameters.
func NewTranscoder(config Config) *Transcoder {
	if config.FFmpegPath == "" {
		config.FFmpegPath = "ffmpeg"
	}
	if config.Bitrate == "" {
		config.Bitrate = "48k"
	}
	if config.SampleRate == 0 {
		config.SampleRate = 48000
	}
	if config.Channels == 0 {
		config.Channels = 1
	}

	return &Transcoder{config: config}
}

// Run executes ffmpeg for the given job, blocking until it completes. The
// one coordination point per request: either the output file exists on
// return, or an error carrying ffmpeg's stderr is returned.
func (t *Transcoder) Run(ctx context.Context, job Job) error {
	if t.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.Timeout)
		defer cancel()
	}

	args := buildArgs(t.config, job)
	cmd := exec.CommandContext(ctx, t.config.FFmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, lastLine(stderr.Bytes()))
	}

	return nil
}

// buildArgs assembles the ffmpeg argument list. Trim bounds become a start
// offset plus a duration; encoding is always audio-only Opus in Ogg.
func buildArgs(config Config, job Job) []string {
	args := []string{"-y", "-i", job.Input}

	if job.Trim != nil {
		args = append(args,
			"-ss", strconv.Itoa(job.Trim.Start),
			"-t", strconv.Itoa(job.Trim.Duration()),
		)
	}

	args = append(args,
		"-vn",
		"-ac", strconv.Itoa(config.Channels),
		"-ar", strconv.Itoa(config.SampleRate),
		"-c:a", "libopus",
		"-b:a", config.Bitrate,
		"-f", "ogg",
		job.Output,
	)

	return args
}

// lastLine extracts the final non-empty stderr line, which is where ffmpeg
// puts its actual error.
func lastLine(out []byte) string {
	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	if len(lines) == 0 {
		return ""
	}
	return string(bytes.TrimSpace(lines[len(lines)-1]))
}
