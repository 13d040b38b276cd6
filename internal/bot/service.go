package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/melsuly/Audio-File-Tools-Bot/internal/config"
	"github.com/melsuly/Audio-File-Tools-Bot/internal/metrics"
	"github.com/melsuly/Audio-File-Tools-Bot/internal/server"
	"github.com/melsuly/Audio-File-Tools-Bot/internal/workdir"
)

// Service runs the Telegram update loop and dispatches audio requests
type Service struct {
	api       *tgbotapi.BotAPI
	handler   *Handler
	messenger Messenger
	logger    *slog.Logger
	cfg       config.BotConfig
	metrics   *metrics.Metrics

	wg sync.WaitGroup

	updatesReceived   atomic.Uint64
	audioRequests     atomic.Uint64
	requestsSucceeded atomic.Uint64
	requestsFailed    atomic.Uint64
}

// Options collects the dependencies for a Service
type Options struct {
	Token      string
	Config     config.BotConfig
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Workdir    *workdir.Dir
	Downloader Downloader
	Transcoder Transcoder
}

// New authenticates against the Telegram API and assembles the service
func New(opts Options) (*Service, error) {
	api, err := tgbotapi.NewBotAPI(opts.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API client: %w", err)
	}
	api.Debug = opts.Config.Debug

	msgr := &telegramClient{api: api}
	handler := NewHandler(msgr, opts.Downloader, opts.Transcoder, msgr,
		opts.Workdir, opts.Logger, opts.Metrics)

	return &Service{
		api:       api,
		handler:   handler,
		messenger: msgr,
		logger:    opts.Logger,
		cfg:       opts.Config,
		metrics:   opts.Metrics,
	}, nil
}

// Username returns the authenticated bot account name
func (s *Service) Username() string {
	return s.api.Self.UserName
}

// Start begins consuming updates in a background goroutine
func (s *Service) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = s.cfg.GetUpdateTimeout()

	updates := s.api.GetUpdatesChan(u)

	s.wg.Add(1)
	go s.loop(updates)
}

// Stop ends the update loop and waits for in-flight requests to finish
func (s *Service) Stop() {
	s.api.StopReceivingUpdates()
	s.wg.Wait()
}

// Statistics returns a snapshot of the service counters
func (s *Service) Statistics() server.Statistics {
	return server.Statistics{
		UpdatesReceived:   s.updatesReceived.Load(),
		AudioRequests:     s.audioRequests.Load(),
		RequestsSucceeded: s.requestsSucceeded.Load(),
		RequestsFailed:    s.requestsFailed.Load(),
	}
}

// loop consumes the update channel until it is closed by Stop
func (s *Service) loop(updates tgbotapi.UpdatesChannel) {
	defer s.wg.Done()

	for update := range updates {
		s.updatesReceived.Add(1)
		s.metrics.UpdatesReceived.Inc()

		msg := update.Message
		if msg == nil {
			continue
		}

		s.wg.Add(1)
		go func(msg *tgbotapi.Message) {
			defer s.wg.Done()
			s.dispatch(msg)
		}(msg)
	}
}

// dispatch handles one message, with a recover boundary so a fault in the
// pipeline never takes down the update loop.
func (s *Service) dispatch(msg *tgbotapi.Message) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic while handling message",
				slog.Int64("chat_id", msg.Chat.ID),
				slog.Int("message_id", msg.MessageID),
				slog.Any("panic", r),
			)
			s.metrics.RecordFailure(metrics.StagePanic)
			// The pipeline only panics once a request is in flight, so
			// count it: failed must never outrun the request counter.
			s.audioRequests.Add(1)
			s.requestsFailed.Add(1)
			if err := s.messenger.ReplyText(msg.Chat.ID, msg.MessageID, replyApology); err != nil {
				s.logger.Error("Failed to send apology after panic", slog.String("error", err.Error()))
			}
		}
	}()

	handled, err := s.handler.HandleMessage(context.Background(), msg)
	if !handled {
		return
	}

	s.audioRequests.Add(1)
	if err != nil {
		s.requestsFailed.Add(1)
	} else {
		s.requestsSucceeded.Add(1)
	}
}

// telegramClient adapts the bot API to the FileResolver and Messenger
// interfaces the handler consumes.
type telegramClient struct {
	api *tgbotapi.BotAPI
}

// ResolveFileURL asks the platform for a downloadable URL for a file ID
func (t *telegramClient) ResolveFileURL(fileID string) (string, error) {
	file, err := t.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return "", fmt.Errorf("getFile %s: %w", fileID, err)
	}
	return file.Link(t.api.Token), nil
}

// SendRecording shows the "recording a voice message" presence indicator.
// Best effort; a missing indicator is not worth failing the request over.
func (t *telegramClient) SendRecording(chatID int64) {
	action := tgbotapi.NewChatAction(chatID, "record_voice")
	_, _ = t.api.Request(action)
}

// ReplyText sends a plain text reply to the originating message
func (t *telegramClient) ReplyText(chatID int64, replyTo int, text string) error {
	m := tgbotapi.NewMessage(chatID, text)
	m.ReplyToMessageID = replyTo
	_, err := t.api.Send(m)
	return err
}

// ReplyVoice sends a local Ogg/Opus file as a voice message reply
func (t *telegramClient) ReplyVoice(chatID int64, replyTo int, path string) error {
	v := tgbotapi.NewVoice(chatID, tgbotapi.FilePath(path))
	v.ReplyToMessageID = replyTo
	_, err := t.api.Send(v)
	return err
}
