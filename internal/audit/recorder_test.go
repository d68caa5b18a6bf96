package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
	err    error
	block  chan struct{}
}

func (s *captureSink) Record(_ context.Context, e Event) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *captureSink) recorded() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestRecorder_DeliversInOrder(t *testing.T) {
	sink := &captureSink{}
	r := NewRecorder(sink, 8, zap.NewNop())

	for _, action := range []string{"register", "login", "logout"} {
		require.NoError(t, r.Record(context.Background(), NewEvent(KindLoginRegister, action)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Close(ctx))

	got := sink.recorded()
	require.Len(t, got, 3)
	assert.Equal(t, "register", got[0].Action)
	assert.Equal(t, "logout", got[2].Action)
	assert.NotEmpty(t, got[0].ID)
}

func TestRecorder_SinkFailureIsSwallowed(t *testing.T) {
	sink := &captureSink{err: errors.New("redis down")}
	r := NewRecorder(sink, 4, zap.NewNop())

	assert.NoError(t, r.Record(context.Background(), NewEvent(KindProfileChange, "update")))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Close(ctx))
	assert.Len(t, sink.recorded(), 1)
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	sink := &captureSink{block: make(chan struct{})}
	r := NewRecorder(sink, 1, zap.NewNop())

	// first event is taken by the worker and blocks, second fills the buffer
	require.NoError(t, r.Record(context.Background(), NewEvent(KindLoginRegister, "a")))
	require.Eventually(t, func() bool { return len(r.events) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, r.Record(context.Background(), NewEvent(KindLoginRegister, "b")))
	require.NoError(t, r.Record(context.Background(), NewEvent(KindLoginRegister, "c")))

	close(sink.block)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Close(ctx))

	got := sink.recorded()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Action)
	assert.Equal(t, "b", got[1].Action)
}

func TestStreamSink_StreamKey(t *testing.T) {
	s := NewStreamSink(nil, "carconnect:audit", 0)
	assert.Equal(t, "carconnect:audit:login_register", s.Stream(KindLoginRegister))
	assert.Equal(t, "carconnect:audit:profile_change", s.Stream(KindProfileChange))
}

func TestNopSink(t *testing.T) {
	assert.NoError(t, NopSink{}.Record(context.Background(), NewEvent(KindLoginRegister, "login")))
}
