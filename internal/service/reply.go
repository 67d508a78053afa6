package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ivanoskov/budget_bot/internal/budget"
	"github.com/ivanoskov/budget_bot/internal/model"
)

// HelpText - приветствие и подсказка для нераспознанных сообщений
const HelpText = "Hi! I keep track of your daily spending. Try:\n" +
	"• \"Spent 12 on lunch\"\n" +
	"• \"Got paid 800\"\n" +
	"• \"Daily limit 60\"\n" +
	"• \"Balance\"\n" +
	"You can also send a voice note."

// Ответы при сбоях внешних сервисов
const (
	FailureReply      = "Sorry, something went wrong on my side. Please try again in a moment."
	VoiceFailureReply = "Sorry, I couldn't process your voice message. Please try again or type it, e.g. \"Spent 12 on lunch\"."

	UnsupportedMediaReply = "I can read text or voice notes only. Try typing it, e.g. \"Spent 12 on lunch\"."
)

// CollaboratorMedia - вложение, которое бот не умеет читать
const CollaboratorMedia = "media"

var amountExamples = map[model.Intent]string{
	model.IntentSetDailyLimit: "Daily limit 60",
	model.IntentIncome:        "Got paid 800",
	model.IntentExpense:       "Spent 12 on lunch",
}

// FormatMoney печатает целые суммы без копеек, остальные - с двумя знаками
func FormatMoney(d decimal.Decimal) string {
	d = d.Round(2)
	if d.Equal(d.Truncate(0)) {
		return "$" + d.Truncate(0).String()
	}
	return "$" + d.StringFixed(2)
}

func missingAmountReply(intent model.Intent) string {
	return fmt.Sprintf("Couldn't find an amount. Try: %q", amountExamples[intent])
}

func dailyLimitReply(amount decimal.Decimal) string {
	return "Daily limit set: " + FormatMoney(amount)
}

func balanceReply(state *model.BudgetState, remaining decimal.Decimal, hasLimit bool) string {
	var b strings.Builder
	b.WriteString("Today: " + FormatMoney(state.SpentToday) + " spent")
	if hasLimit {
		fmt.Fprintf(&b, " · %s left (limit %s)", FormatMoney(remaining), FormatMoney(state.DailyLimit.Decimal))
	} else {
		b.WriteString(" · No daily limit set")
	}
	return b.String()
}

func incomeReply(amount decimal.Decimal) string {
	return "Saved: " + FormatMoney(amount) + " — " + model.CategoryIncome.String()
}

func expenseReply(amount decimal.Decimal, category model.Category, remaining decimal.Decimal, hasLimit bool, warning budget.Warning) string {
	var b strings.Builder
	b.WriteString("Saved: " + FormatMoney(amount) + " — " + category.String())
	if hasLimit {
		b.WriteString(" · " + FormatMoney(remaining) + " left today")
	}
	switch warning {
	case budget.WarningLimitReached:
		b.WriteString("\n🚫 Daily limit reached")
	case budget.WarningNearLimit:
		b.WriteString("\n⚠️ 80% of your daily limit used")
	}
	return b.String()
}
