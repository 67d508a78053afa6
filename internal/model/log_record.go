package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	SourceText  = "text"
	SourceVoice = "voice"

	// LogTypeError - тип строки журнала для сбоев внешних сервисов
	LogTypeError = "error"
)

// LogRecord - строка журнала, отправляемая во внешний приемник
type LogRecord struct {
	ID         string              `json:"id"`
	Timestamp  time.Time           `json:"timestamp"`
	UserID     string              `json:"user_id"`
	Type       string              `json:"type"`
	Amount     decimal.NullDecimal `json:"amount"`
	Category   string              `json:"category"`
	DailyLimit decimal.NullDecimal `json:"daily_limit"`
	SpentToday decimal.Decimal     `json:"spent_today"`
	Source     string              `json:"source"`
	Detail     string              `json:"detail,omitempty"`
}

// GenerateID генерирует новый UUID для записи, если он еще не установлен
func (r *LogRecord) GenerateID() {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
}

// Row возвращает запись в виде строки таблицы
func (r LogRecord) Row() []interface{} {
	return []interface{}{
		r.Timestamp.Format(time.RFC3339),
		r.UserID,
		r.Type,
		nullString(r.Amount),
		r.Category,
		nullString(r.DailyLimit),
		r.SpentToday.StringFixed(2),
		r.Source,
		r.Detail,
		r.ID,
	}
}

func nullString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(2)
}
