package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// testLogger implements Logger for testing
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("DEBUG: %s %v", msg, keysAndValues))
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("INFO: %s %v", msg, keysAndValues))
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("ERROR: %s %v", msg, keysAndValues))
}

func newTestDispatcher(t *testing.T, size int) (*Dispatcher, *testLogger) {
	logger := &testLogger{}

	d, err := New(logger, size)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}

	return d, logger
}

func TestDispatcher_SyncHandler(t *testing.T) {
	d, _ := newTestDispatcher(t, 0)

	var got Event
	d.Register("zone:selected", func(e Event) (any, error) {
		got = e
		return "result", nil
	})

	result, err := d.Dispatch(Event{Command: "zone:selected", Payload: "z1"})

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if got.Payload != "z1" {
		t.Errorf("expected payload z1, got %v", got.Payload)
	}
	if got.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
	if result != "result" {
		t.Errorf("expected 'result', got %v", result)
	}
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d, _ := newTestDispatcher(t, 0)

	_, err := d.Dispatch(Event{Command: "nope"})

	if err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestDispatcher_PostRunsOnLoopInOrder(t *testing.T) {
	d, _ := newTestDispatcher(t, 10)

	var order []string
	d.Register("probe", func(e Event) (any, error) {
		order = append(order, e.Payload.(string))
		return nil, nil
	})

	for _, id := range []string{"a", "b", "c"} {
		if err := d.Post(Event{Command: "probe", Payload: id}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(order) != 0 {
		t.Fatal("handler ran before the loop")
	}
	if d.QueueLen() != 3 {
		t.Errorf("expected 3 queued, got %d", d.QueueLen())
	}

	if n := d.RunPending(); n != 3 {
		t.Errorf("expected 3 processed, got %d", n)
	}
	if fmt.Sprint(order) != "[a b c]" {
		t.Errorf("unexpected order: %v", order)
	}
}

func TestDispatcher_PostFromOtherGoroutines(t *testing.T) {
	d, _ := newTestDispatcher(t, 100)

	count := 0
	done := make(chan struct{})
	d.Register("reply", func(e Event) (any, error) {
		count++
		if count == 20 {
			close(done)
		}
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- d.Run(ctx) }()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.Post(Event{Command: "reply"}); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("events were not processed")
	}

	cancel()
	if err := <-runErr; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDispatcher_PostDropsWhenFull(t *testing.T) {
	d, _ := newTestDispatcher(t, 2)
	d.Register("x", func(e Event) (any, error) { return nil, nil })

	d.Post(Event{Command: "x"})
	d.Post(Event{Command: "x"})

	err := d.Post(Event{Command: "x"})
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

func TestDispatcher_RunPendingIncludesChainedPosts(t *testing.T) {
	d, _ := newTestDispatcher(t, 10)

	ran := []string{}
	d.Register("first", func(e Event) (any, error) {
		ran = append(ran, "first")
		return nil, d.Post(Event{Command: "second"})
	})
	d.Register("second", func(e Event) (any, error) {
		ran = append(ran, "second")
		return nil, nil
	})

	d.Post(Event{Command: "first"})

	if n := d.RunPending(); n != 2 {
		t.Errorf("expected 2 processed, got %d", n)
	}
	if fmt.Sprint(ran) != "[first second]" {
		t.Errorf("unexpected run order: %v", ran)
	}
}

func TestDispatcher_QueuedErrorsAreLogged(t *testing.T) {
	d, logger := newTestDispatcher(t, 10)
	d.Register("bad", func(e Event) (any, error) { return nil, errors.New("boom") })
	d.Post(Event{Command: "bad"})
	d.Post(Event{Command: "unregistered"})

	d.RunPending()

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.messages) != 2 {
		t.Errorf("expected 2 log messages, got %d: %v", len(logger.messages), logger.messages)
	}
}

func TestDispatcher_LoggedHandler(t *testing.T) {
	d, logger := newTestDispatcher(t, 0)

	d.Register("logged", func(e Event) (any, error) {
		return "ok", nil
	}, Logged())

	d.Dispatch(Event{Command: "logged", Payload: []string{"a", "b"}})

	logger.mu.Lock()
	defer logger.mu.Unlock()

	if len(logger.messages) < 2 {
		t.Errorf("expected at least 2 log messages, got %d", len(logger.messages))
	}
}
