package washspec

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/width"

	"github.com/YashPS24/CAQMS/internal/domain"
)

// Sign selects which side of the nominal value a tolerance sits on.
type Sign int

const (
	Minus Sign = iota
	Plus
)

// Decimal places kept for every parsed measurement.
const decimalPlaces = 4

var (
	exoticSpaces  = regexp.MustCompile(`[\x{00A0}\x{2000}-\x{200B}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}]`)
	whitespaceRun = regexp.MustCompile(`[\s\p{Zs}\x{2028}\x{2029}\x{FEFF}]+`)
	numericText   = regexp.MustCompile(`^-?[\d\s/.]+$`)
	leadingNumber = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)`)
)

// CleanValue trims a cell, collapses whitespace runs and removes no-break and
// ideographic spaces.
func CleanValue(value string) string {
	s := strings.TrimSpace(value)
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = exoticSpaces.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ParseFraction reads integers, decimals, simple fractions ("3/8") and mixed
// fractions ("1 3/8"), optionally signed. A leading minus negates the whole
// value, so "-0 1/4" is -0.25. Text that is not numeric keeps its cleaned form
// as Raw with a nil Decimal.
func ParseFraction(value string) domain.Measurement {
	cleaned := CleanValue(value)
	if cleaned == "" {
		return domain.Measurement{Raw: cleaned}
	}

	s := width.Fold.String(cleaned)
	s = strings.ReplaceAll(s, "⁄", "/")
	if !numericText.MatchString(s) {
		return domain.Measurement{Raw: cleaned}
	}

	d, ok := fractionValue(s)
	if !ok {
		return domain.Measurement{Raw: cleaned}
	}
	f, _ := d.Round(decimalPlaces).Float64()
	return domain.Measurement{Raw: cleaned, Decimal: domain.Float(f)}
}

func fractionValue(s string) (decimal.Decimal, bool) {
	negative := strings.HasPrefix(s, "-")
	body := strings.TrimPrefix(s, "-")

	var total decimal.Decimal
	switch {
	case strings.Contains(body, " ") && strings.Contains(body, "/"):
		parts := strings.Split(body, " ")
		whole, ok := parseNumber(parts[0])
		if !ok {
			return decimal.Decimal{}, false
		}
		frac, ok := simpleFraction(parts[1])
		if !ok {
			return decimal.Decimal{}, false
		}
		total = whole.Add(frac)
	case strings.Contains(body, "/"):
		frac, ok := simpleFraction(body)
		if !ok {
			return decimal.Decimal{}, false
		}
		total = frac
	default:
		n, ok := parseNumber(body)
		if !ok {
			return decimal.Decimal{}, false
		}
		total = n
	}

	if negative {
		total = total.Neg()
	}
	return total, true
}

func simpleFraction(s string) (decimal.Decimal, bool) {
	parts := strings.Split(s, "/")
	if len(parts) < 2 {
		return decimal.Decimal{}, false
	}
	num, ok := parseNumber(parts[0])
	if !ok {
		return decimal.Decimal{}, false
	}
	den, ok := parseNumber(parts[1])
	if !ok || den.IsZero() {
		return decimal.Decimal{}, false
	}
	return num.DivRound(den, 16), true
}

// parseNumber reads the leading unsigned decimal of s, ignoring trailing text.
func parseNumber(s string) (decimal.Decimal, bool) {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(m, "."))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// ParseTolerance parses a tolerance cell and forces its sign: minus tolerances
// are never positive and plus tolerances never negative, whatever the sheet
// says. An empty cell is a zero tolerance.
func ParseTolerance(value string, sign Sign) domain.Measurement {
	cleaned := CleanValue(value)
	if cleaned == "" {
		return domain.Measurement{Raw: "", Decimal: domain.Float(0)}
	}

	body := cleaned
	if strings.HasPrefix(body, "+") || strings.HasPrefix(body, "-") {
		body = body[1:]
	}

	m := ParseFraction(body)
	if m.Decimal == nil {
		return domain.Measurement{Raw: cleaned}
	}

	magnitude := decimal.NewFromFloat(*m.Decimal).Abs()
	if sign == Minus {
		m.Raw = "-" + body
		if !magnitude.IsZero() {
			magnitude = magnitude.Neg()
		}
	} else {
		m.Raw = "+" + body
	}
	f, _ := magnitude.Float64()
	m.Decimal = domain.Float(f)
	return m
}
