// Package breakdown turns the itemized fields of a funding form into a categorized cost view.
package breakdown

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/garyjia/funding-workflow/internal/domain/entity"
)

// Category identifies one of the five cost categories of a funding request
type Category string

const (
	CategoryRegistration Category = "registration"
	CategoryHotel        Category = "hotel"
	CategoryFlight       Category = "flight"
	CategoryMileage      Category = "mileage"
	CategoryMeals        Category = "meals"
)

// Item is one non-zero cost line
type Item struct {
	Category Category        `json:"category"`
	Label    string          `json:"label"`
	Amount   decimal.Decimal `json:"amount"`
	Prepaid  bool            `json:"prepaid"`
}

// Breakdown is the derived cost view of a request. It is never persisted.
type Breakdown struct {
	Categories         map[Category]decimal.Decimal `json:"categories"`
	PrepaidItems       []Item                       `json:"prepaid_items"`
	ReimbursementItems []Item                       `json:"reimbursement_items"`
	PrepaidTotal       decimal.Decimal              `json:"prepaid_total"`
	ReimbursementTotal decimal.Decimal              `json:"reimbursement_total"`
	TotalCost          decimal.Decimal              `json:"total_cost"`
}

// rule describes how one category is read from the form
type rule struct {
	category    Category
	label       string
	amountField string
	// prepayField marks the item prepaid when true; empty means never prepaid
	prepayField string
	// neededField gates the amount entirely; empty means always counted
	neededField string
}

// Order is the display order of categories
var Order = []Category{
	CategoryRegistration,
	CategoryHotel,
	CategoryFlight,
	CategoryMileage,
	CategoryMeals,
}

var rules = []rule{
	{CategoryRegistration, "Registration", entity.FieldRegistrationFee, entity.FieldPayAheadRegistration, ""},
	{CategoryHotel, "Hotel", entity.FieldHotelTotal, entity.FieldPayAheadHotel, ""},
	{CategoryFlight, "Flight", entity.FieldFlightTotal, entity.FieldPayAheadFlight, ""},
	{CategoryMileage, "Mileage", entity.FieldMileageTotal, "", entity.FieldMileageNeeded},
	{CategoryMeals, "Meals", entity.FieldMealsTotal, "", entity.FieldMealsNeeded},
}

// Compute derives the breakdown from raw form data. It never fails:
// absent, non-numeric and negative amounts count as zero.
func Compute(form entity.FormData) Breakdown {
	b := Breakdown{
		Categories:         make(map[Category]decimal.Decimal, len(rules)),
		PrepaidItems:       []Item{},
		ReimbursementItems: []Item{},
		PrepaidTotal:       decimal.Zero,
		ReimbursementTotal: decimal.Zero,
		TotalCost:          decimal.Zero,
	}

	for _, r := range rules {
		amount := ParseAmount(form.String(r.amountField))
		if r.neededField != "" && !form.Bool(r.neededField) {
			amount = decimal.Zero
		}
		b.Categories[r.category] = amount

		if !amount.IsPositive() {
			continue
		}

		item := Item{
			Category: r.category,
			Label:    r.label,
			Amount:   amount,
			Prepaid:  r.prepayField != "" && form.Bool(r.prepayField),
		}
		if item.Prepaid {
			b.PrepaidItems = append(b.PrepaidItems, item)
			b.PrepaidTotal = b.PrepaidTotal.Add(amount)
		} else {
			b.ReimbursementItems = append(b.ReimbursementItems, item)
			b.ReimbursementTotal = b.ReimbursementTotal.Add(amount)
		}
	}

	// Summed from the same decimals as the partition, so the identity is exact
	b.TotalCost = b.PrepaidTotal.Add(b.ReimbursementTotal)
	return b
}

// Amount returns the amount of one category (zero when absent)
func (b Breakdown) Amount(c Category) decimal.Decimal {
	if v, ok := b.Categories[c]; ok {
		return v
	}
	return decimal.Zero
}

// amountPattern bounds accepted amounts to plain decimals. Exponent notation
// is refused: decimal rescales "1e400000000" to a 400-million-digit integer.
var amountPattern = regexp.MustCompile(`^(\d{1,15}(\.\d{1,10})?|\.\d{1,10})$`)

// ParseAmount reads a user-entered money string. Unparseable, negative or
// out-of-range input yields zero.
func ParseAmount(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if !amountPattern.MatchString(s) {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// FormatMoney renders an amount with two decimals, keeping extra precision when present
func FormatMoney(d decimal.Decimal) string {
	if d.Exponent() < -2 {
		return "$" + d.String()
	}
	return "$" + d.StringFixed(2)
}

// Label returns the display label of a category
func (c Category) Label() string {
	for _, r := range rules {
		if r.category == c {
			return r.label
		}
	}
	return string(c)
}
