// Package currency formats predicted charges as currency amounts.
package currency

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// Currency is an ISO 4217 currency code.
type Currency struct {
	code string
}

// NewCurrency validates that code is exactly 3 uppercase letters.
func NewCurrency(code string) (Currency, error) {
	if !currencyCodeRe.MatchString(code) {
		return Currency{}, fmt.Errorf("invalid currency code %q: must be exactly 3 uppercase letters", code)
	}
	return Currency{code: code}, nil
}

// MustCurrency is NewCurrency for package-level variables.
func MustCurrency(code string) Currency {
	c, err := NewCurrency(code)
	if err != nil {
		panic(err)
	}
	return c
}

// Code returns the ISO 4217 code.
func (c Currency) Code() string { return c.code }

func (c Currency) String() string { return c.code }

// Symbol returns the display prefix for c. Codes without a known symbol use "CODE ".
func (c Currency) Symbol() string {
	switch c.code {
	case "USD":
		return "$"
	case "EUR":
		return "€"
	case "GBP":
		return "£"
	case "INR":
		return "₹"
	default:
		return c.code + " "
	}
}

var (
	USD = MustCurrency("USD")
	EUR = MustCurrency("EUR")
	GBP = MustCurrency("GBP")
	INR = MustCurrency("INR")
)

// Money is an immutable amount in a currency.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// New creates Money from a decimal amount.
func New(amount decimal.Decimal, currency Currency) Money {
	return Money{amount: amount, currency: currency}
}

// FromFloat creates Money from a model output, rounded half away from zero to cents.
func FromFloat(amount float64, currency Currency) Money {
	return Money{amount: decimal.NewFromFloat(amount).Round(2), currency: currency}
}

// Zero returns a zero amount in currency.
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }

func (m Money) Currency() Currency { return m.currency }

func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// Float returns the amount as float64.
func (m Money) Float() float64 {
	f, _ := m.amount.Float64()
	return f
}

// ClampZero returns m, or zero when m is negative.
func (m Money) ClampZero() Money {
	if m.amount.IsNegative() {
		return Zero(m.currency)
	}
	return m
}

// String formats m as "<amount> <code>", e.g. "12345.67 USD".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.currency.Code())
}

// Format renders m with its symbol and thousands separators, e.g. "$12,345.67".
func (m Money) Format() string {
	s := m.amount.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	return sign + m.currency.Symbol() + groupThousands(intPart) + "." + frac
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
