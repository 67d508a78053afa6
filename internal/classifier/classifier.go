// Package classifier определяет намерение пользователя по тексту сообщения.
// Это не NLU: только подстроки и регулярные выражения.
package classifier

import (
	"strings"

	"github.com/ivanoskov/budget_bot/internal/model"
	"github.com/shopspring/decimal"
)

// Classifier применяет упорядоченные правила, первое совпадение побеждает
type Classifier struct {
	rules      []Rule
	categories []CategoryKeywords
}

// New создает классификатор с заданными таблицами
func New(rules []Rule, categories []CategoryKeywords) *Classifier {
	return &Classifier{rules: rules, categories: categories}
}

// NewDefault создает классификатор со стандартными правилами и категориями
func NewDefault() *Classifier {
	return New(DefaultRules(), DefaultCategories)
}

// Classify возвращает ровно один ClassifiedMessage для текста
func (c *Classifier) Classify(text string) model.ClassifiedMessage {
	msg := model.ClassifiedMessage{RawText: text, Intent: model.IntentUnrecognized}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return msg
	}
	lower := strings.ToLower(trimmed)

	for _, rule := range c.rules {
		if !rule.Match(trimmed, lower) {
			continue
		}
		msg.Intent = rule.Intent
		if rule.Extract != nil {
			rule.Extract(c, trimmed, lower, &msg)
		}
		return msg
	}
	return msg
}

// Categorize возвращает первую категорию, ключевое слово которой есть в тексте
func (c *Classifier) Categorize(lower string) model.Category {
	for _, ck := range c.categories {
		if containsAny(lower, ck.Keywords) {
			return ck.Category
		}
	}
	return model.CategoryOther
}

// ExtractAmount находит первое число в тексте. Отрицательные числа и
// разделители тысяч не поддерживаются.
func ExtractAmount(text string) decimal.NullDecimal {
	m := amountPattern.FindString(text)
	if m == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
