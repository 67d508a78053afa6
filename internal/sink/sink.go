// Package sink доставляет строки журнала во внешние приемники.
// Доставка асинхронная и без гарантий: ошибки приемника не влияют на ответ.
package sink

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ivanoskov/budget_bot/internal/metrics"
	"github.com/ivanoskov/budget_bot/internal/model"
)

// Sink - приемник строк журнала (таблица, база и т.п.)
type Sink interface {
	Name() string
	Append(ctx context.Context, rec model.LogRecord) error
}

// Discard - приемник, который ничего не делает
type Discard struct{}

func (Discard) Name() string { return "none" }

func (Discard) Append(context.Context, model.LogRecord) error { return nil }

// Async отправляет записи в приемник из отдельной горутины
type Async struct {
	sink    Sink
	logger  *zap.Logger
	timeout time.Duration
	queue   chan model.LogRecord

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewAsync запускает фоновую отправку в sink. buffer - размер очереди,
// timeout - предел времени на одну запись.
func NewAsync(s Sink, buffer int, timeout time.Duration, logger *zap.Logger) *Async {
	if buffer <= 0 {
		buffer = 256
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	a := &Async{
		sink:    s,
		logger:  logger.With(zap.String("sink", s.Name())),
		timeout: timeout,
		queue:   make(chan model.LogRecord, buffer),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

// Emit ставит запись в очередь и никогда не блокирует. Если очередь
// заполнена или приемник закрыт, запись отбрасывается.
func (a *Async) Emit(rec model.LogRecord) {
	rec.GenerateID()
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		metrics.SinkDropped.Inc()
		return
	}

	select {
	case a.queue <- rec:
	default:
		metrics.SinkDropped.Inc()
		a.logger.Warn("log sink queue is full, dropping record", zap.String("record_id", rec.ID))
	}
}

func (a *Async) run() {
	defer close(a.done)
	for rec := range a.queue {
		a.deliver(rec)
	}
}

func (a *Async) deliver(rec model.LogRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	if err := a.sink.Append(ctx, rec); err != nil {
		metrics.SinkErrors.WithLabelValues(a.sink.Name()).Inc()
		a.logger.Warn("failed to append log record",
			zap.String("record_id", rec.ID),
			zap.String("user_id", rec.UserID),
			zap.Error(err),
		)
	}
}

// Close перестает принимать записи и ждет отправки очереди
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
