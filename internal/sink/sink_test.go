package sink

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ivanoskov/budget_bot/internal/model"
)

type recordingSink struct {
	mu      sync.Mutex
	records []model.LogRecord
	err     error
	block   chan struct{}
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Append(ctx context.Context, rec model.LogRecord) error {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return s.err
}

func (s *recordingSink) all() []model.LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.LogRecord(nil), s.records...)
}

func TestAsync_DeliversRecords(t *testing.T) {
	rs := &recordingSink{}
	a := NewAsync(rs, 8, time.Second, zap.NewNop())

	a.Emit(model.LogRecord{UserID: "u1", Type: "expense"})
	a.Emit(model.LogRecord{UserID: "u2", Type: "income"})
	require.NoError(t, a.Close(context.Background()))

	got := rs.all()
	require.Len(t, got, 2)
	assert.Equal(t, "u1", got[0].UserID)
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].Timestamp.IsZero())
}

func TestAsync_SwallowsSinkErrors(t *testing.T) {
	rs := &recordingSink{err: errors.New("sheet not found")}
	a := NewAsync(rs, 8, time.Second, zap.NewNop())

	assert.NotPanics(t, func() {
		a.Emit(model.LogRecord{UserID: "u1"})
	})
	require.NoError(t, a.Close(context.Background()))
	assert.Len(t, rs.all(), 1)
}

func TestAsync_EmitNeverBlocks(t *testing.T) {
	rs := &recordingSink{block: make(chan struct{})}
	a := NewAsync(rs, 1, time.Minute, zap.NewNop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			a.Emit(model.LogRecord{UserID: "u1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a stalled sink")
	}

	close(rs.block)
	require.NoError(t, a.Close(context.Background()))
	assert.Less(t, len(rs.all()), 50)
}

func TestAsync_EmitAfterCloseIsDropped(t *testing.T) {
	rs := &recordingSink{}
	a := NewAsync(rs, 4, time.Second, zap.NewNop())
	require.NoError(t, a.Close(context.Background()))

	assert.NotPanics(t, func() {
		a.Emit(model.LogRecord{UserID: "late"})
	})
	assert.Empty(t, rs.all())
	assert.NoError(t, a.Close(context.Background()))
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard{}.Append(context.Background(), model.LogRecord{}))
	assert.Equal(t, "none", Discard{}.Name())
}
