package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivanoskov/budget_bot/internal/model"
)

func TestClassify_Scenarios(t *testing.T) {
	c := NewDefault()

	tests := []struct {
		name     string
		text     string
		intent   model.Intent
		amount   string
		category model.Category
	}{
		{"expense with food keyword", "Spent 12 on lunch", model.IntentExpense, "12", model.CategoryFood},
		{"daily limit", "Daily limit 60", model.IntentSetDailyLimit, "60", ""},
		{"daily limit no space", "set my DAILYLIMIT to 45.5", model.IntentSetDailyLimit, "45.5", ""},
		{"daily limit extra whitespace", "daily   limit 30", model.IntentSetDailyLimit, "30", ""},
		{"income", "Got paid 800", model.IntentIncome, "800", model.CategoryIncome},
		{"income earned", "earned 120.75 from freelance", model.IntentIncome, "120.75", model.CategoryIncome},
		{"bare number falls back to expense", "uber 23", model.IntentExpense, "23", model.CategoryTransport},
		{"expense other category", "paid 5 for something", model.IntentExpense, "5", model.CategoryOther},
		{"subscription", "netflix cost 15.99", model.IntentExpense, "15.99", model.CategorySubscriptions},
		{"first number wins", "spent 10 and then 20 on coffee", model.IntentExpense, "10", model.CategoryFood},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := c.Classify(tt.text)
			assert.Equal(t, tt.intent, msg.Intent)
			assert.Equal(t, tt.text, msg.RawText)
			require.True(t, msg.Amount.Valid)
			assert.Equal(t, tt.amount, msg.Amount.Decimal.String())
			assert.Equal(t, tt.category, msg.Category)
			assert.False(t, msg.MissingAmount())
		})
	}
}

func TestClassify_Empty(t *testing.T) {
	c := NewDefault()
	for _, text := range []string{"", "   ", "\n\t"} {
		msg := c.Classify(text)
		assert.Equal(t, model.IntentUnrecognized, msg.Intent)
		assert.False(t, msg.Amount.Valid)
	}
}

func TestClassify_Unrecognized(t *testing.T) {
	msg := NewDefault().Classify("hello there")
	assert.Equal(t, model.IntentUnrecognized, msg.Intent)
	assert.False(t, msg.MissingAmount())
}

func TestClassify_BalanceWinsOverOtherContent(t *testing.T) {
	c := NewDefault()
	for _, text := range []string{
		"balance",
		"How much left today?",
		"what's my balance after I spent 40",
		"got paid but what is remaining",
	} {
		msg := c.Classify(text)
		assert.Equal(t, model.IntentBalanceQuery, msg.Intent, text)
		assert.False(t, msg.Amount.Valid, text)
	}
}

func TestClassify_DailyLimitWithoutNumberIsNotALimit(t *testing.T) {
	msg := NewDefault().Classify("what is my daily limit")
	assert.NotEqual(t, model.IntentSetDailyLimit, msg.Intent)
}

func TestClassify_DailyLimitBeatsBalance(t *testing.T) {
	msg := NewDefault().Classify("daily limit 50, balance please")
	assert.Equal(t, model.IntentSetDailyLimit, msg.Intent)
	assert.Equal(t, "50", msg.Amount.Decimal.String())
}

func TestClassify_MissingAmount(t *testing.T) {
	c := NewDefault()

	income := c.Classify("I got paid today")
	assert.Equal(t, model.IntentIncome, income.Intent)
	assert.True(t, income.MissingAmount())

	expense := c.Classify("spent a lot on dinner")
	assert.Equal(t, model.IntentExpense, expense.Intent)
	assert.True(t, expense.MissingAmount())
	assert.Equal(t, model.CategoryFood, expense.Category)
}

func TestCategorize_TableOrderIsPriority(t *testing.T) {
	c := NewDefault()
	// "lunch" (Food) and "uber" (Transport) both match, Food is first
	assert.Equal(t, model.CategoryFood, c.Categorize("uber eats lunch"))
	assert.Equal(t, model.CategoryHousing, c.Categorize("rent and a movie"))
	assert.Equal(t, model.CategoryOther, c.Categorize("random thing"))
}

func TestCategorize_CustomTable(t *testing.T) {
	c := New(DefaultRules(), []CategoryKeywords{
		{model.CategoryHealth, []string{"lunch"}},
	})
	msg := c.Classify("spent 9 on lunch")
	assert.Equal(t, model.CategoryHealth, msg.Category)
}

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		text  string
		want  string
		valid bool
	}{
		{"12", "12", true},
		{"cost 3.50 today", "3.5", true},
		{"-7 dollars", "7", true},
		{"1,200", "1", true},
		{"12.", "12", true},
		{"no numbers", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got := ExtractAmount(tt.text)
		assert.Equal(t, tt.valid, got.Valid, tt.text)
		if tt.valid {
			assert.Equal(t, tt.want, got.Decimal.String(), tt.text)
		}
	}
}

func TestDefaultCategoriesOrder(t *testing.T) {
	want := []model.Category{
		model.CategoryFood,
		model.CategoryHousing,
		model.CategoryTransport,
		model.CategoryShopping,
		model.CategorySubscriptions,
		model.CategoryHealth,
		model.CategoryEntertainment,
	}
	got := make([]model.Category, 0, len(DefaultCategories))
	for _, ck := range DefaultCategories {
		got = append(got, ck.Category)
	}
	assert.Equal(t, want, got)
}
