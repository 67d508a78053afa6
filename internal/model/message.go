package model

import "github.com/shopspring/decimal"

// Intent - тип запроса пользователя, определенный по тексту сообщения
type Intent int

const (
	IntentUnrecognized Intent = iota
	IntentSetDailyLimit
	IntentBalanceQuery
	IntentIncome
	IntentExpense
)

func (i Intent) String() string {
	switch i {
	case IntentSetDailyLimit:
		return "set_daily_limit"
	case IntentBalanceQuery:
		return "balance_query"
	case IntentIncome:
		return "income"
	case IntentExpense:
		return "expense"
	default:
		return "unrecognized"
	}
}

// RequiresAmount сообщает, нужна ли сумма для обработки намерения
func (i Intent) RequiresAmount() bool {
	return i == IntentSetDailyLimit || i == IntentIncome || i == IntentExpense
}

// ClassifiedMessage - результат классификации одного входящего сообщения
type ClassifiedMessage struct {
	RawText  string
	Intent   Intent
	Amount   decimal.NullDecimal
	Category Category
}

// MissingAmount возвращает true, если намерение требует сумму, а ее не нашли
func (m ClassifiedMessage) MissingAmount() bool {
	return m.Intent.RequiresAmount() && !m.Amount.Valid
}
