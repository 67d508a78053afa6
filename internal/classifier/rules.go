package classifier

import (
	"regexp"

	"github.com/ivanoskov/budget_bot/internal/model"
)

var (
	amountPattern     = regexp.MustCompile(`\d+(?:\.\d+)?`)
	dailyLimitPattern = regexp.MustCompile(`(?i)daily\s*limit`)
)

// Триггерные фразы намерений, сравниваются с текстом в нижнем регистре
var (
	BalancePhrases = []string{"balance", "left today", "how much left", "how much is left", "remaining"}
	IncomePhrases  = []string{"got paid", "received", "income", "earned", "salary"}
	ExpensePhrases = []string{"spent", "spend", "paid", "bought", "cost"}
)

// CategoryKeywords связывает категорию со списком ключевых слов
type CategoryKeywords struct {
	Category model.Category
	Keywords []string
}

// DefaultCategories - таблица категорий. Порядок задает приоритет:
// побеждает первая категория, у которой совпало хотя бы одно слово.
var DefaultCategories = []CategoryKeywords{
	{model.CategoryFood, []string{"food", "lunch", "dinner", "breakfast", "coffee", "groceries", "grocery", "restaurant", "pizza", "snack", "meal", "burger"}},
	{model.CategoryHousing, []string{"rent", "mortgage", "electricity", "utilities", "water bill", "internet", "furniture"}},
	{model.CategoryTransport, []string{"uber", "lyft", "taxi", "bus", "train", "metro", "fuel", "gas", "parking"}},
	{model.CategoryShopping, []string{"clothes", "shoes", "amazon", "shopping", "mall", "store", "gift"}},
	{model.CategorySubscriptions, []string{"netflix", "spotify", "subscription", "icloud", "youtube", "membership"}},
	{model.CategoryHealth, []string{"pharmacy", "doctor", "medicine", "gym", "dentist", "hospital", "vitamins"}},
	{model.CategoryEntertainment, []string{"movie", "cinema", "concert", "game", "bar", "party", "beer"}},
}

// Rule - правило классификации: предикат и извлечение данных.
// Match получает исходный текст и его копию в нижнем регистре.
type Rule struct {
	Intent  model.Intent
	Match   func(text, lower string) bool
	Extract func(c *Classifier, text, lower string, msg *model.ClassifiedMessage)
}

// DefaultRules возвращает правила в порядке приоритета
func DefaultRules() []Rule {
	return []Rule{
		{
			Intent: model.IntentSetDailyLimit,
			Match: func(text, _ string) bool {
				return dailyLimitPattern.MatchString(text) && amountPattern.MatchString(text)
			},
			Extract: extractAmount,
		},
		{
			Intent: model.IntentBalanceQuery,
			Match: func(_, lower string) bool {
				return containsAny(lower, BalancePhrases)
			},
		},
		{
			Intent: model.IntentIncome,
			Match: func(_, lower string) bool {
				return containsAny(lower, IncomePhrases)
			},
			Extract: func(c *Classifier, text, lower string, msg *model.ClassifiedMessage) {
				extractAmount(c, text, lower, msg)
				msg.Category = model.CategoryIncome
			},
		},
		{
			Intent: model.IntentExpense,
			Match: func(text, lower string) bool {
				return containsAny(lower, ExpensePhrases) || amountPattern.MatchString(text)
			},
			Extract: func(c *Classifier, text, lower string, msg *model.ClassifiedMessage) {
				extractAmount(c, text, lower, msg)
				msg.Category = c.Categorize(lower)
			},
		},
	}
}

func extractAmount(_ *Classifier, text, _ string, msg *model.ClassifiedMessage) {
	msg.Amount = ExtractAmount(text)
}
