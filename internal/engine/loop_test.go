package engine

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoop_DrainRunsFIFO(t *testing.T) {
	l := NewLoop(quietLogger())

	var order []string
	for _, name := range []string{"a", "b", "c"} {
		name := name
		require.NoError(t, l.Post(func() { order = append(order, name) }))
	}
	assert.Equal(t, 3, l.Len())

	n := l.Drain()
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Zero(t, l.Len())
}

func TestLoop_CallbacksMayPost(t *testing.T) {
	l := NewLoop(quietLogger())

	var order []int
	require.NoError(t, l.Post(func() {
		order = append(order, 1)
		_ = l.Post(func() { order = append(order, 3) })
	}))
	require.NoError(t, l.Post(func() { order = append(order, 2) }))

	assert.Equal(t, 3, l.Drain())
	assert.Equal(t, []int{1, 2, 3}, order, "posted callbacks queue behind existing ones")
}

func TestLoop_PanicIsContained(t *testing.T) {
	l := NewLoop(quietLogger())

	ran := false
	require.NoError(t, l.Post(func() { panic("frame exploded") }))
	require.NoError(t, l.Post(func() { ran = true }))

	assert.Equal(t, 2, l.Drain())
	assert.True(t, ran)
}

func TestLoop_PostAfterClose(t *testing.T) {
	l := NewLoop(quietLogger())
	l.Close()
	l.Close()

	assert.ErrorIs(t, l.Post(func() {}), ErrLoopClosed)
}

func TestLoop_RunStopsOnClose(t *testing.T) {
	l := NewLoop(quietLogger())

	var mu sync.Mutex
	count := 0
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Post(func() {
			mu.Lock()
			count++
			mu.Unlock()
		}))
	}
	l.Close()

	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, count, "queued callbacks still run after Close")
}

func TestLoop_RunStopsOnCancel(t *testing.T) {
	l := NewLoop(quietLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	processed := make(chan struct{})
	require.NoError(t, l.Post(func() { close(processed) }))

	select {
	case <-processed:
	case <-time.After(time.Second):
		t.Fatal("callback not processed")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	assert.ErrorIs(t, l.Post(func() {}), ErrLoopClosed)
}
