package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_Format(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		cur    Currency
		want   string
	}{
		{"zero", 0, USD, "$0.00"},
		{"cents rounding", 1.005, USD, "$1.01"},
		{"hundreds", 999.994, USD, "$999.99"},
		{"thousands", 12345.678, USD, "$12,345.68"},
		{"millions", 1234567.1, USD, "$1,234,567.10"},
		{"exact group", 100000, USD, "$100,000.00"},
		{"negative", -4321.5, USD, "-$4,321.50"},
		{"euro", 8000, EUR, "€8,000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromFloat(tt.amount, tt.cur).Format())
		})
	}
}

func TestMoney_ClampZero(t *testing.T) {
	neg := FromFloat(-12.5, USD)
	assert.True(t, neg.IsNegative())
	assert.True(t, neg.ClampZero().Amount().IsZero())

	pos := FromFloat(12.5, USD)
	assert.True(t, pos.ClampZero().Amount().Equal(decimal.RequireFromString("12.5")))
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "8240.59 USD", FromFloat(8240.589, USD).String())
}

func TestNewCurrency(t *testing.T) {
	c, err := NewCurrency("CHF")
	require.NoError(t, err)
	assert.Equal(t, "CHF 1.00", FromFloat(1, c).Format())

	_, err = NewCurrency("usd")
	assert.Error(t, err)
}
