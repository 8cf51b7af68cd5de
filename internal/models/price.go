package models

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// PriceScale is the number of decimals kept for a price, as in NUMERIC(19,2).
const PriceScale = 2

// MaxPrice is the largest price NUMERIC(19,2) holds.
var MaxPrice = decimal.RequireFromString("99999999999999999.99")

// sortableWidth fits MaxPrice formatted with PriceScale decimals.
const sortableWidth = 20

// Price is a non-negative amount with cent precision. Postgres stores it as
// NUMERIC(19,2). SQLite has no exact decimal type, so there it is stored as
// zero-padded text, whose byte order matches numeric order.
type Price struct {
	decimal.Decimal
}

// NewPrice rounds d to whole cents the way NUMERIC(19,2) does.
func NewPrice(d decimal.Decimal) Price {
	return Price{Decimal: d.Round(PriceScale)}
}

// RequirePrice parses s and panics on malformed input. Meant for literals.
func RequirePrice(s string) Price {
	return NewPrice(decimal.RequireFromString(s))
}

// GormDBDataType picks the column type per dialect.
func (Price) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "sqlite" {
		return "text"
	}
	return "numeric(19,2)"
}

// GormValue encodes the price for the connected dialect. It is used for
// inserts and for query arguments alike.
func (p Price) GormValue(_ context.Context, db *gorm.DB) clause.Expr {
	if db.Dialector.Name() == "sqlite" {
		return clause.Expr{SQL: "?", Vars: []interface{}{p.SortableText()}}
	}
	return clause.Expr{SQL: "?", Vars: []interface{}{p.StringFixed(PriceScale)}}
}

// SortableText formats p with PriceScale decimals, left-padded with zeros to
// a fixed width.
func (p Price) SortableText() string {
	s := p.StringFixed(PriceScale)
	if len(s) < sortableWidth {
		s = strings.Repeat("0", sortableWidth-len(s)) + s
	}
	return s
}

// PriceRange narrows [min, max] to the stored prices it can match. Bounds move
// inward to whole cents and are clamped to [0, MaxPrice]; ok is false when no
// price fits.
func PriceRange(min, max decimal.Decimal) (lo, hi Price, ok bool) {
	lo = Price{Decimal: min.RoundCeil(PriceScale)}
	hi = Price{Decimal: max.RoundFloor(PriceScale)}
	if lo.IsNegative() {
		lo = Price{Decimal: decimal.Zero}
	}
	if hi.GreaterThan(MaxPrice) {
		hi = Price{Decimal: MaxPrice}
	}
	return lo, hi, lo.LessThanOrEqual(hi.Decimal)
}
