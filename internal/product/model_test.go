package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEffectivePrice(t *testing.T) {
	d := func(s string) *decimal.Decimal { v := decimal.RequireFromString(s); return &v }

	cases := []struct {
		name     string
		price    string
		discount *decimal.Decimal
		want     string
	}{
		{"no discount", "100", nil, "100"},
		{"lower discount", "100", d("79.90"), "79.90"},
		{"discount not lower", "100", d("120"), "100"},
		{"zero discount ignored", "100", d("0"), "100"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Product{Price: decimal.RequireFromString(tc.price), DiscountPrice: tc.discount}
			assert.True(t, decimal.RequireFromString(tc.want).Equal(p.EffectivePrice()), "got %s", p.EffectivePrice())
		})
	}
}
