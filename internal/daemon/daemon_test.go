package daemon_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"vcert/internal/daemon"
	"vcert/internal/telegram"
	"vcert/internal/testsupport"
)

type scriptedUpdater struct {
	mu      sync.Mutex
	batches [][]telegram.Update
	offsets []int64
	started sync.Once
	ready   chan struct{}
}

func newScriptedUpdater(batches ...[]telegram.Update) *scriptedUpdater {
	return &scriptedUpdater{batches: batches, ready: make(chan struct{})}
}

func (s *scriptedUpdater) GetUpdates(ctx context.Context, offset int64) ([]telegram.Update, error) {
	s.started.Do(func() { close(s.ready) })
	s.mu.Lock()
	s.offsets = append(s.offsets, offset)
	var batch []telegram.Update
	if len(s.batches) > 0 {
		batch = s.batches[0]
		s.batches = s.batches[1:]
	}
	s.mu.Unlock()

	if batch != nil {
		return batch, nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

type recordingHandler struct {
	mu      sync.Mutex
	byChat  map[int64][]int64
	handled chan struct{}
}

func newRecordingHandler(expect int) *recordingHandler {
	return &recordingHandler{
		byChat:  make(map[int64][]int64),
		handled: make(chan struct{}, expect),
	}
}

func (h *recordingHandler) HandleUpdate(_ context.Context, update telegram.Update) {
	h.mu.Lock()
	chat := update.Message.Chat.ID
	h.byChat[chat] = append(h.byChat[chat], update.UpdateID)
	h.mu.Unlock()
	h.handled <- struct{}{}
}

func (h *recordingHandler) SweepSessions() int { return 0 }

func msg(updateID, chatID int64) telegram.Update {
	return telegram.Update{
		UpdateID: updateID,
		Message:  &telegram.Message{Chat: telegram.Chat{ID: chatID}},
	}
}

func TestRunDispatchesInChatOrderAndAdvancesOffset(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	updater := newScriptedUpdater(
		[]telegram.Update{msg(10, 1), msg(11, 2), msg(12, 1)},
		[]telegram.Update{msg(13, 1)},
	)
	handler := newRecordingHandler(4)

	d, err := daemon.New(cfg, updater, handler, nil)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(ctx) }()

	for i := 0; i < 4; i++ {
		select {
		case <-handler.handled:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for updates")
		}
	}
	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("run: %v", err)
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()
	if got := handler.byChat[1]; len(got) != 3 || got[0] != 10 || got[1] != 12 || got[2] != 13 {
		t.Fatalf("chat 1 order = %v", got)
	}
	if got := handler.byChat[2]; len(got) != 1 || got[0] != 11 {
		t.Fatalf("chat 2 order = %v", got)
	}

	updater.mu.Lock()
	defer updater.mu.Unlock()
	if len(updater.offsets) < 3 {
		t.Fatalf("polls = %d", len(updater.offsets))
	}
	if updater.offsets[1] != 13 || updater.offsets[2] != 14 {
		t.Fatalf("offsets = %v", updater.offsets)
	}
}

func TestSecondInstanceRefused(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	updater := newScriptedUpdater()
	handler := newRecordingHandler(0)

	first, err := daemon.New(cfg, updater, handler, nil)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- first.Run(ctx) }()

	// The first poll only happens after the lock is held.
	select {
	case <-updater.ready:
	case <-time.After(2 * time.Second):
		t.Fatal("first instance never started polling")
	}

	second, err := daemon.New(cfg, newScriptedUpdater(), handler, nil)
	if err != nil {
		t.Fatalf("new second daemon: %v", err)
	}
	runErr := second.Run(context.Background())
	if runErr == nil || !strings.Contains(runErr.Error(), "already running") {
		t.Fatalf("second run error = %v", runErr)
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("first run: %v", err)
	}
}
