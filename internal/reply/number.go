package reply

import (
	"strings"

	"github.com/shopspring/decimal"
)

// firstNumber finds the first non-negative number in s.
//
// When both ',' and '.' occur, the one used last is the decimal mark
// ("1,250.75", "1.750.000,00"). A lone comma followed by one or two digits is a
// decimal comma ("1,5", "12,50"); other commas group thousands ("1,250,000").
// A lone dot followed by exactly three digits groups thousands ("35.734"), as
// do repeated dots ("1.250.000"); otherwise it is the decimal point ("1.5").
func firstNumber(s string) (decimal.Decimal, bool) {
	start := strings.IndexAny(s, "0123456789")
	if start < 0 {
		return decimal.Zero, false
	}
	end := start
	for end < len(s) {
		c := s[end]
		if c >= '0' && c <= '9' {
			end++
			continue
		}
		// A separator only belongs to the number if a digit follows it.
		if (c == ',' || c == '.') && end+1 < len(s) && s[end+1] >= '0' && s[end+1] <= '9' {
			end++
			continue
		}
		break
	}
	tok := normalizeSeparators(s[start:end])

	d, err := decimal.NewFromString(tok)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// normalizeSeparators rewrites tok so decimal.NewFromString can read it.
func normalizeSeparators(tok string) string {
	dots := strings.Count(tok, ".")
	commas := strings.Count(tok, ",")
	switch {
	case dots > 0 && commas > 0:
		if strings.LastIndex(tok, ",") > strings.LastIndex(tok, ".") {
			return strings.Replace(strings.ReplaceAll(tok, ".", ""), ",", ".", 1)
		}
		return strings.ReplaceAll(tok, ",", "")
	case commas == 1:
		if frac := tok[strings.Index(tok, ",")+1:]; len(frac) <= 2 {
			return strings.Replace(tok, ",", ".", 1)
		}
		return strings.ReplaceAll(tok, ",", "")
	case commas > 1:
		return strings.ReplaceAll(tok, ",", "")
	case dots > 1:
		return strings.ReplaceAll(tok, ".", "")
	case dots == 1:
		if frac := tok[strings.Index(tok, ".")+1:]; len(frac) == 3 {
			return strings.ReplaceAll(tok, ".", "")
		}
	}
	return tok
}

// Amount parses the first amount in free text such as "35,734,000 AS$" using
// the same separator rules as reply values. A minus sign directly before the
// digits makes it negative.
func Amount(s string) (decimal.Decimal, bool) {
	d, ok := firstNumber(s)
	if !ok {
		return d, false
	}
	if i := strings.IndexAny(s, "0123456789"); i > 0 && s[i-1] == '-' {
		d = d.Neg()
	}
	return d, true
}
