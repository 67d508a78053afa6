package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout - формат календарной даты сброса
const DateLayout = "2006-01-02"

// BudgetState представляет дневной бюджет одного пользователя
type BudgetState struct {
	UserID        string              `json:"user_id"`
	DailyLimit    decimal.NullDecimal `json:"daily_limit"`
	SpentToday    decimal.Decimal     `json:"spent_today"`
	LastResetDate string              `json:"last_reset_date"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// Clone возвращает независимую копию состояния
func (s *BudgetState) Clone() *BudgetState {
	c := *s
	return &c
}
