package view

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/xenking/instrument-catalog/internal/domain/instrument"
)

// DisplayConfig controls how record fields are turned into text.
type DisplayConfig struct {
	// Locale is a BCP 47 tag used for digit grouping, e.g. "en-IN".
	Locale string
	// CurrencyPrefix is written before every price, e.g. "₹".
	CurrencyPrefix string
	// PlaceholderImage is used for instruments without an image.
	PlaceholderImage string
	// ImageBaseURL is prepended to relative image paths. Absolute URLs and
	// the placeholder are used as is.
	ImageBaseURL string
}

// Formatter renders optional record fields with their fallbacks.
type Formatter struct {
	printer     *message.Printer
	decimalSep  string
	currency    string
	placeholder string
	imageBase   string
}

// NewFormatter creates a Formatter. An unparsable locale falls back to
// English.
func NewFormatter(cfg DisplayConfig) Formatter {
	tag, err := language.Parse(cfg.Locale)
	if err != nil {
		tag = language.English
	}
	printer := message.NewPrinter(tag)
	return Formatter{
		printer:     printer,
		decimalSep:  decimalSeparator(printer),
		currency:    cfg.CurrencyPrefix,
		placeholder: cfg.PlaceholderImage,
		imageBase:   strings.TrimSuffix(cfg.ImageBaseURL, "/"),
	}
}

// Price returns the locale-grouped price with the currency prefix, or "" when
// the price is unknown.
func (f Formatter) Price(p decimal.NullDecimal) string {
	if !p.Valid {
		return ""
	}
	return f.Amount(p.Decimal)
}

// Amount formats d rounded to two fraction digits. The integer part is
// grouped for the locale from the exact value; amounts beyond int64 fall back
// to float formatting.
func (f Formatter) Amount(d decimal.Decimal) string {
	d = d.Round(2)
	abs := d.Abs()
	whole := abs.Truncate(0)
	if whole.GreaterThan(maxWhole) {
		return f.currency + f.printer.Sprint(number.Decimal(d.InexactFloat64(), number.MaxFractionDigits(2)))
	}

	var b strings.Builder
	b.WriteString(f.currency)
	if d.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteString(f.printer.Sprint(number.Decimal(whole.IntPart())))
	if frac := abs.Sub(whole); !frac.IsZero() {
		// "0.89" -> "89", "0.50" -> "5"
		b.WriteString(f.decimalSep)
		b.WriteString(strings.TrimRight(frac.StringFixed(2)[2:], "0"))
	}
	return b.String()
}

var maxWhole = decimal.NewFromInt(math.MaxInt64)

// decimalSeparator extracts the locale's decimal separator from a formatted
// sample.
func decimalSeparator(p *message.Printer) string {
	s := p.Sprint(number.Decimal(1.5))
	s = strings.TrimPrefix(s, "1")
	s = strings.TrimSuffix(s, "5")
	if s == "" {
		return "."
	}
	return s
}

// Rating returns the rating as text, or "N/A" for unrated instruments.
func (f Formatter) Rating(r *float64) string {
	if r == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*r, 'f', -1, 64)
}

// Image returns the image reference of i, falling back to the placeholder.
func (f Formatter) Image(i instrument.Instrument) string {
	if i.Image == "" || f.imageBase == "" || strings.Contains(i.Image, "://") {
		return i.ImageOr(f.placeholder)
	}
	return f.imageBase + "/" + strings.TrimPrefix(i.Image, "/")
}
