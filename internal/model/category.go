package model

// Category - метка расхода или дохода, назначаемая по ключевым словам
type Category string

const (
	CategoryFood          Category = "Food"
	CategoryHousing       Category = "Housing"
	CategoryTransport     Category = "Transport"
	CategoryShopping      Category = "Shopping"
	CategorySubscriptions Category = "Subscriptions"
	CategoryHealth        Category = "Health"
	CategoryEntertainment Category = "Entertainment"
	CategoryOther         Category = "Other"
	CategoryIncome        Category = "Income"
)

func (c Category) String() string {
	return string(c)
}
