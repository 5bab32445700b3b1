package outbound

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMessenger struct {
	mu   sync.Mutex
	sent []Message
	err  error
	gate chan struct{}
}

func (m *recordingMessenger) Send(_ context.Context, msg Message) error {
	if m.gate != nil {
		<-m.gate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *recordingMessenger) messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}

func TestDebouncerSuppressesWithinWindow(t *testing.T) {
	d := NewDebouncer(200 * time.Millisecond)

	assert.True(t, d.Allow(1, "ask_total"))
	assert.False(t, d.Allow(1, "ask_total"), "same key within window")
	assert.True(t, d.Allow(1, "ask_notes"), "different key passes")
	assert.True(t, d.Allow(2, "ask_total"), "different conversation passes")

	time.Sleep(250 * time.Millisecond)
	assert.True(t, d.Allow(1, "ask_total"), "window elapsed")
}

func TestDispatcherDelivers(t *testing.T) {
	m := &recordingMessenger{}
	d := NewDispatcher(m, 8, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	require.True(t, d.Enqueue(Message{ChatID: 1, Text: "Ready."}))
	require.Eventually(t, func() bool {
		return len(m.messages()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "Ready.", m.messages()[0].Text)
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	m := &recordingMessenger{gate: make(chan struct{})}
	d := NewDispatcher(m, 1, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	// First message parks the worker on the gate, second fills the queue.
	d.Enqueue(Message{ChatID: 1, Text: "a"})
	require.Eventually(t, func() bool {
		return d.Enqueue(Message{ChatID: 1, Text: "b"})
	}, time.Second, time.Millisecond)

	done := make(chan bool, 1)
	go func() { done <- d.Enqueue(Message{ChatID: 1, Text: "c"}) }()
	select {
	case ok := <-done:
		assert.False(t, ok, "full queue must drop, not block")
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
	close(m.gate)
}

func TestDispatcherLogsAndContinuesOnError(t *testing.T) {
	m := &recordingMessenger{err: errors.New("transport down")}
	d := NewDispatcher(m, 8, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Enqueue(Message{ChatID: 1, Text: "a"})
	d.Enqueue(Message{ChatID: 1, Text: "b"})
	require.Eventually(t, func() bool {
		return len(m.messages()) == 2
	}, time.Second, 10*time.Millisecond)
}
