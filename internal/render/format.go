package render

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// numberSpec matches the subset of Python format specs accepted for value
// formatting: optional "," grouping, optional ".N" precision, and one of
// f, e, g or %.
var numberSpec = regexp.MustCompile(`^(,)?(?:\.(\d{1,2}))?([fFeEgG%])$`)

// NumberFormat formats legend and label values.
type NumberFormat struct {
	group     bool
	precision int
	verb      byte
}

// DefaultNumberFormat renders two decimal places.
var DefaultNumberFormat = NumberFormat{precision: 2, verb: 'f'}

// ParseNumberFormat parses specs such as ".2f", ",.0f", ".1%" or ".3g".
func ParseNumberFormat(spec string) (NumberFormat, error) {
	m := numberSpec.FindStringSubmatch(spec)
	if m == nil {
		return NumberFormat{}, eris.Errorf("render: unsupported number format %q (want e.g. .2f, ,.0f, .1%%)", spec)
	}
	nf := NumberFormat{group: m[1] == ",", precision: 6, verb: m[3][0]}
	if m[2] != "" {
		p, err := strconv.Atoi(m[2])
		if err != nil {
			return NumberFormat{}, eris.Wrapf(err, "render: number format precision %q", m[2])
		}
		nf.precision = p
	}
	return nf, nil
}

var englishPrinter = message.NewPrinter(language.English)

// Format renders v.
func (f NumberFormat) Format(v float64) string {
	verb, suffix := f.verb, ""
	if verb == '%' {
		v *= 100
		verb, suffix = 'f', "%"
	}
	layout := fmt.Sprintf("%%.%d%c", f.precision, verb)
	if f.group {
		return englishPrinter.Sprintf(layout, v) + suffix
	}
	return fmt.Sprintf(layout, v) + suffix
}
