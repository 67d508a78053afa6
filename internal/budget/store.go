// Package budget хранит дневной бюджет каждого пользователя.
//
// "Сегодня" определяется одними глобальными часами процесса в одной
// часовой зоне. Часовые пояса пользователей не учитываются.
package budget

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ivanoskov/budget_bot/internal/model"
)

var (
	warningRatio = decimal.RequireFromString("0.8")
	fullRatio    = decimal.NewFromInt(1)
)

// Warning - предупреждение о расходовании лимита
type Warning int

const (
	WarningNone Warning = iota
	WarningNearLimit
	WarningLimitReached
)

// Repository - долговременное хранилище состояний. Без него состояние
// живет только в памяти процесса.
type Repository interface {
	GetState(ctx context.Context, userID string) (*model.BudgetState, error)
	SaveState(ctx context.Context, state *model.BudgetState) error
}

// Option настраивает Store
type Option func(*Store)

// WithClock подменяет источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLocation задает часовую зону, в которой считается календарный день
func WithLocation(loc *time.Location) Option {
	return func(s *Store) { s.loc = loc }
}

// WithRepository включает сквозную запись в долговременное хранилище
func WithRepository(repo Repository) Option {
	return func(s *Store) { s.repo = repo }
}

// Store держит по одному BudgetState на пользователя
type Store struct {
	mu     sync.Mutex
	states map[string]*model.BudgetState
	locks  map[string]*sync.Mutex
	now    func() time.Time
	loc    *time.Location
	repo   Repository
}

// NewStore создает хранилище в памяти
func NewStore(opts ...Option) *Store {
	s := &Store{
		states: make(map[string]*model.BudgetState),
		locks:  make(map[string]*sync.Mutex),
		now:    time.Now,
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today возвращает текущую дату в зоне хранилища
func (s *Store) Today() string {
	return s.now().In(s.loc).Format(model.DateLayout)
}

// Lock дает эксклюзивный доступ к состоянию одного пользователя.
// Разные пользователи друг друга не блокируют.
func (s *Store) Lock(userID string) (unlock func()) {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// GetOrCreate возвращает состояние пользователя, предварительно сбросив
// его при смене дня. Новое состояние создается без лимита и с нулевыми
// расходами.
func (s *Store) GetOrCreate(ctx context.Context, userID string) (*model.BudgetState, error) {
	today := s.Today()

	s.mu.Lock()
	state, ok := s.states[userID]
	s.mu.Unlock()

	if !ok {
		loaded, err := s.load(ctx, userID)
		if err != nil {
			return nil, err
		}
		if loaded == nil {
			loaded = &model.BudgetState{
				UserID:        userID,
				SpentToday:    decimal.Zero,
				LastResetDate: today,
				UpdatedAt:     s.now(),
			}
		}

		s.mu.Lock()
		if existing, exists := s.states[userID]; exists {
			loaded = existing
		} else {
			s.states[userID] = loaded
		}
		s.mu.Unlock()
		state = loaded
	}

	if state.LastResetDate != today {
		state.SpentToday = decimal.Zero
		state.LastResetDate = today
		state.UpdatedAt = s.now()
	}
	return state, nil
}

func (s *Store) load(ctx context.Context, userID string) (*model.BudgetState, error) {
	if s.repo == nil {
		return nil, nil
	}
	state, err := s.repo.GetState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load budget state for %s: %w", userID, err)
	}
	return state, nil
}

// Save сохраняет состояние в долговременное хранилище, если оно настроено
func (s *Store) Save(ctx context.Context, state *model.BudgetState) error {
	if s.repo == nil {
		return nil
	}
	if err := s.repo.SaveState(ctx, state.Clone()); err != nil {
		return fmt.Errorf("failed to save budget state for %s: %w", state.UserID, err)
	}
	return nil
}

// RecordExpense добавляет сумму к расходам за день и возвращает новый итог.
// Проверка суммы - ответственность вызывающего.
func (s *Store) RecordExpense(state *model.BudgetState, amount decimal.Decimal) decimal.Decimal {
	state.SpentToday = state.SpentToday.Add(amount).Round(2)
	state.UpdatedAt = s.now()
	return state.SpentToday
}

// SetDailyLimit перезаписывает лимит без оглядки на уже потраченное
func (s *Store) SetDailyLimit(state *model.BudgetState, amount decimal.Decimal) {
	state.DailyLimit = decimal.NewNullDecimal(amount.Round(2))
	state.UpdatedAt = s.now()
}

// ComputeRemaining возвращает остаток на сегодня, не меньше нуля.
// Второй результат false, если лимит не задан.
func (s *Store) ComputeRemaining(state *model.BudgetState) (decimal.Decimal, bool) {
	if !state.DailyLimit.Valid {
		return decimal.Zero, false
	}
	remaining := state.DailyLimit.Decimal.Sub(state.SpentToday)
	if remaining.IsNegative() {
		return decimal.Zero, true
	}
	return remaining.Round(2), true
}

// UsageRatio возвращает долю использованного лимита, если лимит больше нуля
func (s *Store) UsageRatio(state *model.BudgetState) (decimal.Decimal, bool) {
	if !state.DailyLimit.Valid || !state.DailyLimit.Decimal.IsPositive() {
		return decimal.Zero, false
	}
	return state.SpentToday.Div(state.DailyLimit.Decimal), true
}

// WarningFor переводит долю использования в предупреждение
func (s *Store) WarningFor(state *model.BudgetState) Warning {
	ratio, ok := s.UsageRatio(state)
	if !ok {
		return WarningNone
	}
	switch {
	case ratio.GreaterThanOrEqual(fullRatio):
		return WarningLimitReached
	case ratio.GreaterThanOrEqual(warningRatio):
		return WarningNearLimit
	default:
		return WarningNone
	}
}
