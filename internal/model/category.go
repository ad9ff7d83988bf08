package model

import "encoding/json"

// Category is the closed set of transaction categories the application
// understands. The upstream API's category field is an open-ended tag, so
// anything unrecognized maps to CategoryUnknown rather than failing.
type Category string

// Known upstream categories.
const (
	CategoryTransport     Category = "transport"
	CategoryEatingOut     Category = "eating_out"
	CategoryGroceries     Category = "groceries"
	CategoryBills         Category = "bills"
	CategoryEntertainment Category = "entertainment"
	CategoryShopping      Category = "shopping"
	CategoryHolidays      Category = "holidays"
	CategoryCash          Category = "cash"
	CategoryExpenses      Category = "expenses"
	CategoryTransfers     Category = "transfers"
	CategorySavings       Category = "savings"
	CategoryGeneral       Category = "general"
	CategoryIncome        Category = "income"
	CategoryUnknown       Category = "unknown"
)

var knownCategories = map[string]Category{
	string(CategoryTransport):     CategoryTransport,
	string(CategoryEatingOut):     CategoryEatingOut,
	string(CategoryGroceries):     CategoryGroceries,
	string(CategoryBills):         CategoryBills,
	string(CategoryEntertainment): CategoryEntertainment,
	string(CategoryShopping):      CategoryShopping,
	string(CategoryHolidays):      CategoryHolidays,
	string(CategoryCash):          CategoryCash,
	string(CategoryExpenses):      CategoryExpenses,
	string(CategoryTransfers):     CategoryTransfers,
	string(CategorySavings):       CategorySavings,
	string(CategoryGeneral):       CategoryGeneral,
	string(CategoryIncome):        CategoryIncome,
}

// ParseCategory maps an upstream category tag onto the closed set,
// falling back to CategoryUnknown for anything it does not recognize.
func ParseCategory(s string) Category {
	if c, ok := knownCategories[s]; ok {
		return c
	}
	return CategoryUnknown
}

// UnmarshalJSON decodes the upstream tag through ParseCategory so new
// upstream categories never break decoding.
func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = ParseCategory(s)
	return nil
}
