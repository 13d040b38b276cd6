package bot

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/melsuly/Audio-File-Tools-Bot/internal/metrics"
	"github.com/melsuly/Audio-File-Tools-Bot/internal/transcode"
	"github.com/melsuly/Audio-File-Tools-Bot/internal/workdir"
)

// panickyTranscoder blows up mid-pipeline to drive the dispatch recover
// boundary.
type panickyTranscoder struct{}

func (panickyTranscoder) Run(ctx context.Context, job transcode.Job) error {
	panic("encoder exploded")
}

type serviceFixture struct {
	service   *Service
	messenger *fakeMessenger
	tempDir   string
}

// newServiceFixture assembles a Service around a real handler and fake
// collaborators, skipping the network client entirely.
func newServiceFixture(t *testing.T, transcoder Transcoder) *serviceFixture {
	t.Helper()

	tempDir := t.TempDir()
	work, err := workdir.New(tempDir)
	if err != nil {
		t.Fatalf("workdir.New() unexpected error: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	m := metrics.NewMetricsWith(prometheus.NewRegistry())
	messenger := &fakeMessenger{}

	handler := NewHandler(
		&fakeResolver{url: "https://files.example/abc"},
		&fakeDownloader{},
		transcoder,
		messenger,
		work, logger, m,
	)

	return &serviceFixture{
		service: &Service{
			handler:   handler,
			messenger: messenger,
			logger:    logger,
			metrics:   m,
		},
		messenger: messenger,
		tempDir:   tempDir,
	}
}

func TestDispatchRecoversFromPanic(t *testing.T) {
	f := newServiceFixture(t, panickyTranscoder{})

	// Must not propagate: a fault in one request never takes down the
	// update loop.
	f.service.dispatch(audioMessage(""))

	if len(f.messenger.texts) != 1 || f.messenger.texts[0] != replyApology {
		t.Errorf("expected one apology reply after panic, got %v", f.messenger.texts)
	}
	if len(f.messenger.voices) != 0 {
		t.Error("no voice reply should be sent after a panic")
	}

	stats := f.service.Statistics()
	if stats.RequestsFailed != 1 {
		t.Errorf("RequestsFailed = %d, want 1", stats.RequestsFailed)
	}
	if stats.AudioRequests != 1 {
		t.Errorf("AudioRequests = %d, want 1", stats.AudioRequests)
	}
	if stats.RequestsFailed > stats.AudioRequests {
		t.Errorf("failed (%d) must never exceed requests (%d)", stats.RequestsFailed, stats.AudioRequests)
	}

	entries, err := os.ReadDir(f.tempDir)
	if err != nil {
		t.Fatalf("failed to read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("temp files left behind after panic: %d", len(entries))
	}
}

func TestDispatchCountsSuccess(t *testing.T) {
	f := newServiceFixture(t, &fakeTranscoder{})

	f.service.dispatch(audioMessage(""))

	stats := f.service.Statistics()
	if stats.AudioRequests != 1 {
		t.Errorf("AudioRequests = %d, want 1", stats.AudioRequests)
	}
	if stats.RequestsSucceeded != 1 {
		t.Errorf("RequestsSucceeded = %d, want 1", stats.RequestsSucceeded)
	}
	if stats.RequestsFailed != 0 {
		t.Errorf("RequestsFailed = %d, want 0", stats.RequestsFailed)
	}
	if len(f.messenger.voices) != 1 {
		t.Errorf("voice replies = %d, want 1", len(f.messenger.voices))
	}
}

func TestDispatchCountsPipelineFailure(t *testing.T) {
	f := newServiceFixture(t, &fakeTranscoder{err: os.ErrInvalid})

	f.service.dispatch(audioMessage(""))

	stats := f.service.Statistics()
	if stats.AudioRequests != 1 {
		t.Errorf("AudioRequests = %d, want 1", stats.AudioRequests)
	}
	if stats.RequestsFailed != 1 {
		t.Errorf("RequestsFailed = %d, want 1", stats.RequestsFailed)
	}
	if stats.RequestsSucceeded != 0 {
		t.Errorf("RequestsSucceeded = %d, want 0", stats.RequestsSucceeded)
	}
}

func TestDispatchIgnoresNonAudio(t *testing.T) {
	f := newServiceFixture(t, &fakeTranscoder{})

	msg := audioMessage("")
	msg.Audio = nil
	msg.Text = "just chatting"
	f.service.dispatch(msg)

	stats := f.service.Statistics()
	if stats.AudioRequests != 0 || stats.RequestsSucceeded != 0 || stats.RequestsFailed != 0 {
		t.Errorf("no counters should move for non-audio messages, got %+v", stats)
	}
	if f.messenger.recordings != 0 || len(f.messenger.texts) != 0 || len(f.messenger.voices) != 0 {
		t.Error("no replies should be sent for non-audio messages")
	}
}
