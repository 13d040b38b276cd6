package bot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/melsuly/Audio-File-Tools-Bot/internal/metrics"
	"github.com/melsuly/Audio-File-Tools-Bot/internal/timecode"
	"github.com/melsuly/Audio-File-Tools-Bot/internal/transcode"
	"github.com/melsuly/Audio-File-Tools-Bot/internal/workdir"
)

// FileResolver converts a platform file identifier into a fetchable URL
type FileResolver interface {
	ResolveFileURL(fileID string) (string, error)
}

// Downloader fetches a URL to a local path via streamed transfer
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}

// Transcoder converts an input file into voice-message audio
type Transcoder interface {
	Run(ctx context.Context, job transcode.Job) error
}

// Messenger delivers replies and presence indicators to a chat
type Messenger interface {
	SendRecording(chatID int64)
	ReplyText(chatID int64, replyTo int, text string) error
	ReplyVoice(chatID int64, replyTo int, path string) error
}

// User-facing reply texts
const (
	replyTimecodeHint = "I couldn't read those timecodes. Send a range like 0:40, where both numbers are seconds and the end exceeds the start."
	replyApology      = "Sorry, something went wrong while processing your audio. Please try again."
)

// Recognized audio file extensions for document attachments
var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".flac": true,
	".aac":  true,
	".ogg":  true,
	".oga":  true,
}

// fallbackExt is used when the attachment carries no filename hint; ffmpeg
// probes the container itself, so the input extension only has to exist.
const fallbackExt = ".bin"

// Handler runs the per-message audio pipeline
type Handler struct {
	resolver   FileResolver
	downloader Downloader
	transcoder Transcoder
	messenger  Messenger
	work       *workdir.Dir
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewHandler creates a Handler with explicit collaborators so tests can
// substitute fakes for the network client and ffmpeg.
func NewHandler(resolver FileResolver, downloader Downloader, transcoder Transcoder,
	messenger Messenger, work *workdir.Dir, logger *slog.Logger, m *metrics.Metrics) *Handler {

	return &Handler{
		resolver:   resolver,
		downloader: downloader,
		transcoder: transcoder,
		messenger:  messenger,
		work:       work,
		logger:     logger,
		metrics:    m,
	}
}

// attachment is the audio payload extracted from a message
type attachment struct {
	fileID   string
	fileName string
	mimeType string
}

// audioAttachment extracts a processable audio attachment from a message.
// Audio messages always qualify; documents qualify when their MIME type is
// audio/* or their filename carries a recognized audio extension. Anything
// else is left for other handlers.
func audioAttachment(msg *tgbotapi.Message) (attachment, bool) {
	if msg.Audio != nil {
		return attachment{
			fileID:   msg.Audio.FileID,
			fileName: msg.Audio.FileName,
			mimeType: msg.Audio.MimeType,
		}, true
	}

	if doc := msg.Document; doc != nil {
		ext := strings.ToLower(filepath.Ext(doc.FileName))
		if strings.HasPrefix(doc.MimeType, "audio/") || audioExtensions[ext] {
			return attachment{
				fileID:   doc.FileID,
				fileName: doc.FileName,
				mimeType: doc.MimeType,
			}, true
		}
	}

	return attachment{}, false
}

// caption returns the text accompanying a message, preferring the media
// caption over plain text.
func caption(msg *tgbotapi.Message) string {
	if msg.Caption != "" {
		return msg.Caption
	}
	return msg.Text
}

// HandleMessage runs the pipeline for one message. It reports whether the
// message carried a processable audio attachment, and any pipeline error
// for accounting; user-facing replies have already been sent either way.
func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	att, ok := audioAttachment(msg)
	if !ok {
		return false, nil
	}

	h.metrics.AudioRequests.Inc()
	return true, h.process(ctx, msg, att)
}

// process executes download, optional trim, transcode, and reply for a
// single attachment.
func (h *Handler) process(ctx context.Context, msg *tgbotapi.Message, att attachment) error {
	chatID := msg.Chat.ID
	log := h.logger.With(
		slog.Int64("chat_id", chatID),
		slog.Int("message_id", msg.MessageID),
		slog.String("file_id", att.fileID),
	)

	trim, err := timecode.Parse(caption(msg))
	if err != nil {
		// User input problem: hint at the format and stop before any
		// download or transcode work.
		log.Info("Rejected timecodes", slog.String("error", err.Error()))
		h.metrics.RecordFailure(metrics.StageTimecode)
		if replyErr := h.messenger.ReplyText(chatID, msg.MessageID, replyTimecodeHint); replyErr != nil {
			log.Error("Failed to send timecode hint", slog.String("error", replyErr.Error()))
		}
		return err
	}

	ext := strings.ToLower(filepath.Ext(att.fileName))
	if ext == "" {
		ext = fallbackExt
	}
	inputPath := h.work.Alloc(ext)
	outputPath := h.work.Alloc(".ogg")
	defer h.cleanup(inputPath, outputPath)

	h.messenger.SendRecording(chatID)

	url, err := h.resolver.ResolveFileURL(att.fileID)
	if err != nil {
		return h.fail(log, chatID, msg.MessageID, metrics.StageDownload, fmt.Errorf("failed to resolve file: %w", err))
	}

	downloadStart := time.Now()
	if err := h.downloader.Download(ctx, url, inputPath); err != nil {
		return h.fail(log, chatID, msg.MessageID, metrics.StageDownload, fmt.Errorf("failed to download file: %w", err))
	}
	h.metrics.DownloadDuration.Observe(time.Since(downloadStart).Seconds())
	if info, err := os.Stat(inputPath); err == nil {
		h.metrics.InputBytes.Observe(float64(info.Size()))
	}

	job := transcode.Job{Input: inputPath, Output: outputPath, Trim: trim}
	transcodeStart := time.Now()
	if err := h.transcoder.Run(ctx, job); err != nil {
		return h.fail(log, chatID, msg.MessageID, metrics.StageTranscode, fmt.Errorf("failed to transcode: %w", err))
	}
	h.metrics.TranscodeDuration.Observe(time.Since(transcodeStart).Seconds())
	if trim != nil {
		h.metrics.TrimsApplied.Inc()
	}

	if err := h.messenger.ReplyVoice(chatID, msg.MessageID, outputPath); err != nil {
		return h.fail(log, chatID, msg.MessageID, metrics.StageReply, fmt.Errorf("failed to send voice reply: %w", err))
	}

	h.metrics.RequestsSucceeded.Inc()
	h.metrics.VoiceRepliesSent.Inc()
	log.Info("Voice reply sent", slog.Bool("trimmed", trim != nil))
	return nil
}

// fail logs a pipeline failure with detail, records it, and sends the
// generic apology. The user never sees the underlying error.
func (h *Handler) fail(log *slog.Logger, chatID int64, replyTo int, stage string, err error) error {
	log.Error("Audio request failed",
		slog.String("stage", stage),
		slog.String("error", err.Error()),
	)
	h.metrics.RecordFailure(stage)

	if replyErr := h.messenger.ReplyText(chatID, replyTo, replyApology); replyErr != nil {
		log.Error("Failed to send apology", slog.String("error", replyErr.Error()))
	}

	return err
}

// cleanup removes a request's temp files, best effort on every exit path
func (h *Handler) cleanup(paths ...string) {
	for _, p := range paths {
		if h.work.Remove(p) {
			h.metrics.TempFilesRemoved.Inc()
		}
	}
}
