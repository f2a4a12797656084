package money

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
)

const Places = 2

var hundred = decimal.NewFromInt(100)

// Parse accepts an optionally signed decimal with at most two fractional digits.
func Parse(input string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	negative := false
	unsigned := trimmed
	switch unsigned[0] {
	case '-':
		negative = true
		unsigned = unsigned[1:]
	case '+':
		unsigned = unsigned[1:]
	}
	parts := strings.SplitN(unsigned, ".", 2)
	if parts[0] == "" && (len(parts) == 1 || parts[1] == "") {
		return decimal.Zero, ErrInvalidAmount
	}
	if !isDigits(parts[0]) {
		return decimal.Zero, ErrInvalidAmount
	}
	if len(parts) == 2 {
		if !isDigits(parts[1]) {
			return decimal.Zero, ErrInvalidAmount
		}
		if len(parts[1]) > Places {
			return decimal.Zero, ErrTooManyDecimals
		}
	}
	if parts[0] == "" {
		unsigned = "0" + unsigned
	}
	value, err := decimal.NewFromString(unsigned)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if negative {
		return value.Neg(), nil
	}
	return value, nil
}

// ParseJSON accepts both JSON numbers (50.5) and JSON strings ("50.50").
func ParseJSON(raw json.RawMessage) (decimal.Decimal, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(text, `"`) {
		var unquoted string
		if err := json.Unmarshal(raw, &unquoted); err != nil {
			return decimal.Zero, ErrInvalidAmount
		}
		text = unquoted
	}
	return Parse(text)
}

func Format(value decimal.Decimal) string {
	return value.StringFixed(Places)
}

func Round(value decimal.Decimal) decimal.Decimal {
	return value.Round(Places)
}

// Percent returns value * rate / 100 rounded to currency precision.
func Percent(value, rate decimal.Decimal) decimal.Decimal {
	return Round(value.Mul(rate).Div(hundred))
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
