// Package money formats amounts for display.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Formatter struct {
	unit    currency.Unit
	printer *message.Printer
}

// NewFormatter builds a formatter for an ISO 4217 code and a BCP 47 locale.
func NewFormatter(code, locale string) (*Formatter, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, err
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, err
	}
	return &Formatter{unit: unit, printer: message.NewPrinter(tag)}, nil
}

func (f *Formatter) Format(amount decimal.Decimal) string {
	scale, _ := currency.Standard.Rounding(f.unit)
	value, _ := amount.Round(int32(scale)).Float64()
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(value)))
}
