package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ivanoskov/budget_bot/internal/budget"
	"github.com/ivanoskov/budget_bot/internal/classifier"
	"github.com/ivanoskov/budget_bot/internal/metrics"
	"github.com/ivanoskov/budget_bot/internal/model"
)

// Emitter принимает строки журнала. Реализация не должна блокировать.
type Emitter interface {
	Emit(rec model.LogRecord)
}

// HelpWriter пишет ответ на нераспознанное сообщение (например, через LLM)
type HelpWriter interface {
	HelpReply(ctx context.Context, text string) (string, error)
}

// Inbound - входящее сообщение, уже приведенное к тексту
type Inbound struct {
	UserID string
	Text   string
	Source string // model.SourceText или model.SourceVoice
}

// ExpenseTracker связывает классификатор, хранилище бюджета и журнал
type ExpenseTracker struct {
	classifier *classifier.Classifier
	store      *budget.Store
	emitter    Emitter
	help       HelpWriter
	logger     *zap.Logger
	now        func() time.Time
}

// Option настраивает ExpenseTracker
type Option func(*ExpenseTracker)

// WithHelpWriter включает генерацию подсказок внешним сервисом
func WithHelpWriter(h HelpWriter) Option {
	return func(s *ExpenseTracker) { s.help = h }
}

// WithClock подменяет время для меток в журнале
func WithClock(now func() time.Time) Option {
	return func(s *ExpenseTracker) { s.now = now }
}

// NewExpenseTracker создает новый экземпляр ExpenseTracker
func NewExpenseTracker(store *budget.Store, c *classifier.Classifier, emitter Emitter, logger *zap.Logger, opts ...Option) *ExpenseTracker {
	s := &ExpenseTracker{
		classifier: c,
		store:      store,
		emitter:    emitter,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleMessage обрабатывает одно сообщение и всегда возвращает ответ
func (s *ExpenseTracker) HandleMessage(ctx context.Context, in Inbound) string {
	source := in.Source
	if source == "" {
		source = model.SourceText
	}

	msg := s.classifier.Classify(in.Text)
	metrics.MessagesTotal.WithLabelValues(msg.Intent.String(), source).Inc()

	unlock := s.store.Lock(in.UserID)
	state, err := s.store.GetOrCreate(ctx, in.UserID)
	if err != nil {
		unlock()
		return s.HandleFailure(ctx, in.UserID, source, "store", err)
	}

	reply := s.apply(state, msg)
	if err := s.store.Save(ctx, state); err != nil {
		metrics.CollaboratorFailures.WithLabelValues("store").Inc()
		s.logger.Error("failed to persist budget state", zap.String("user_id", in.UserID), zap.Error(err))
	}
	rec := s.newRecord(state, msg, source)
	unlock()

	if msg.Intent == model.IntentUnrecognized {
		reply = s.helpReply(ctx, msg.RawText)
	}

	s.emitter.Emit(rec)
	s.logger.Debug("message handled",
		zap.String("user_id", in.UserID),
		zap.Stringer("intent", msg.Intent),
		zap.String("source", source),
	)
	return reply
}

// apply меняет состояние по намерению и возвращает текст ответа.
// Вызывается под блокировкой пользователя.
func (s *ExpenseTracker) apply(state *model.BudgetState, msg model.ClassifiedMessage) string {
	if msg.MissingAmount() {
		return missingAmountReply(msg.Intent)
	}

	switch msg.Intent {
	case model.IntentSetDailyLimit:
		s.store.SetDailyLimit(state, msg.Amount.Decimal)
		return dailyLimitReply(state.DailyLimit.Decimal)

	case model.IntentBalanceQuery:
		remaining, hasLimit := s.store.ComputeRemaining(state)
		return balanceReply(state, remaining, hasLimit)

	case model.IntentIncome:
		return incomeReply(msg.Amount.Decimal)

	case model.IntentExpense:
		s.store.RecordExpense(state, msg.Amount.Decimal)
		remaining, hasLimit := s.store.ComputeRemaining(state)
		return expenseReply(msg.Amount.Decimal, msg.Category, remaining, hasLimit, s.store.WarningFor(state))
	}
	return HelpText
}

func (s *ExpenseTracker) helpReply(ctx context.Context, text string) string {
	if s.help == nil || strings.TrimSpace(text) == "" {
		return HelpText
	}
	reply, err := s.help.HelpReply(ctx, text)
	if err != nil || reply == "" {
		if err != nil {
			metrics.CollaboratorFailures.WithLabelValues("llm").Inc()
			s.logger.Warn("llm help reply failed, using canned help", zap.Error(err))
		}
		return HelpText
	}
	return reply
}

func (s *ExpenseTracker) newRecord(state *model.BudgetState, msg model.ClassifiedMessage, source string) model.LogRecord {
	rec := model.LogRecord{
		Timestamp:  s.now(),
		UserID:     state.UserID,
		Type:       msg.Intent.String(),
		Amount:     msg.Amount,
		Category:   msg.Category.String(),
		DailyLimit: state.DailyLimit,
		SpentToday: state.SpentToday,
		Source:     source,
	}
	if msg.MissingAmount() {
		rec.Detail = "missing amount"
	}
	rec.GenerateID()
	return rec
}

// HandleFailure фиксирует сбой внешнего сервиса (загрузка медиа,
// распознавание речи, хранилище) и возвращает извиняющийся ответ
func (s *ExpenseTracker) HandleFailure(ctx context.Context, userID, source, collaborator string, err error) string {
	metrics.CollaboratorFailures.WithLabelValues(collaborator).Inc()
	s.logger.Error("collaborator failed",
		zap.String("collaborator", collaborator),
		zap.String("user_id", userID),
		zap.String("source", source),
		zap.Error(err),
	)

	rec := model.LogRecord{
		Timestamp: s.now(),
		UserID:    userID,
		Type:      model.LogTypeError,
		Source:    source,
		Detail:    collaborator + ": " + err.Error(),
	}
	rec.GenerateID()
	s.emitter.Emit(rec)

	switch {
	case collaborator == CollaboratorMedia:
		return UnsupportedMediaReply
	case source == model.SourceVoice:
		return VoiceFailureReply
	}
	return FailureReply
}

// Snapshot возвращает копию текущего состояния пользователя
func (s *ExpenseTracker) Snapshot(ctx context.Context, userID string) (*model.BudgetState, error) {
	unlock := s.store.Lock(userID)
	defer unlock()

	state, err := s.store.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return state.Clone(), nil
}

// Remaining - остаток на сегодня для состояния из Snapshot
func (s *ExpenseTracker) Remaining(state *model.BudgetState) (remaining, limit float64, hasLimit bool) {
	rem, ok := s.store.ComputeRemaining(state)
	if !ok {
		return 0, 0, false
	}
	return rem.InexactFloat64(), state.DailyLimit.Decimal.InexactFloat64(), true
}
