package core

// convert.go turns loosely typed import cells into canonical values.
//
// These functions handle the messy reality of courier and storefront exports:
//   - Amounts with currency symbols and locale-specific separators
//   - Dates as native values, spreadsheet serials, ISO text or day-first triples
//   - Excel formula prefixes (="value") and stray quotes
//
// Nothing here returns an error. Bad amounts become zero and bad dates become
// InvalidDate, so a single malformed cell never stops an import.

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical layout of every normalized date.
const DateLayout = "2006-01-02"

// InvalidDate is stored in place of a date that could not be parsed.
const InvalidDate = "invalid-date"

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// serialEpoch is day zero of spreadsheet date serials.
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

var (
	isoLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		DateLayout,
	}
	textualLayouts = []string{
		"Jan 2, 2006", "2 Jan 2006", "January 2, 2006", "2 January 2006",
	}
)

// ParseAmount converts a cell to a money amount.
//
// Numbers pass through. Text is reduced to digits and separators, commas are
// read as dots, and when several dots remain only the last one is kept as the
// decimal point. A lone separator followed by exactly three digits after a
// non-zero integer part of at most three digits is a thousands separator, so
// "100.000" is one hundred thousand. Anything unparseable is zero.
func ParseAmount(v any) decimal.Decimal {
	switch n := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return n
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(n)
	case float32:
		return ParseAmount(float64(n))
	case int:
		return decimal.NewFromInt(int64(n))
	case int32:
		return decimal.NewFromInt(int64(n))
	case int64:
		return decimal.NewFromInt(n)
	case json.Number:
		return ParseAmount(n.String())
	case string:
		return parseAmountText(n)
	default:
		return decimal.Zero
	}
}

func parseAmountText(s string) decimal.Decimal {
	s = CleanCell(s)

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == ',':
			b.WriteByte('.')
		}
	}
	s = b.String()

	if strings.Count(s, ".") > 1 {
		last := strings.LastIndex(s, ".")
		s = strings.ReplaceAll(s[:last], ".", "") + s[last:]
	}

	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, frac := s[:dot], s[dot+1:]
		if len(frac) == 3 && len(intPart) >= 1 && len(intPart) <= 3 && strings.TrimLeft(intPart, "0") != "" {
			s = intPart + frac
		}
	}

	s = strings.TrimSuffix(s, ".")
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	if s == "" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// hasDigit reports whether a cell carries any numeric content at all.
func hasDigit(v any) bool {
	switch n := v.(type) {
	case nil:
		return false
	case string:
		return strings.ContainsAny(n, "0123456789")
	case json.Number:
		return strings.ContainsAny(n.String(), "0123456789")
	case float64:
		return !math.IsNaN(n) && !math.IsInf(n, 0)
	default:
		return true
	}
}

// ParseDate converts a cell to a "2006-01-02" date string.
// Empty input yields "" and anything unrecognizable yields InvalidDate.
func ParseDate(v any) string {
	switch d := v.(type) {
	case nil:
		return ""
	case time.Time:
		if d.IsZero() {
			return ""
		}
		return d.Format(DateLayout)
	case float64:
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return InvalidDate
		}
		return fromSerial(d)
	case float32:
		return fromSerial(float64(d))
	case int:
		return fromSerial(float64(d))
	case int64:
		return fromSerial(float64(d))
	case json.Number:
		return ParseDate(d.String())
	case string:
		return parseDateText(d)
	default:
		return InvalidDate
	}
}

func fromSerial(days float64) string {
	if days <= 0 {
		return InvalidDate
	}
	return serialEpoch.AddDate(0, 0, int(days)).Format(DateLayout)
}

func parseDateText(s string) string {
	s = CleanCell(s)
	if s == "" {
		return ""
	}

	if isDigits(s) {
		switch {
		case len(s) <= 5:
			n, _ := strconv.Atoi(s)
			return fromSerial(float64(n))
		case len(s) == 8:
			if t, err := time.Parse("20060102", s); err == nil {
				return t.Format(DateLayout)
			}
		}
		return InvalidDate
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout)
		}
	}

	// A trailing time of day ("15/03/2024 10:30") does not affect the date.
	datePart := s
	if i := strings.IndexAny(s, " T"); i > 0 {
		datePart = s[:i]
	}
	if parts := splitTriple(datePart); parts != nil {
		if t, ok := DayFirstTriple(parts[0], parts[1], parts[2]); ok {
			return t.Format(DateLayout)
		}
		return InvalidDate
	}

	for _, layout := range textualLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout)
		}
	}

	return InvalidDate
}

// splitTriple splits "15/03/2024", "15-03-2024" or "2024.03.15" into three
// numbers. Returns nil when s is not exactly three numeric components.
func splitTriple(s string) []int {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '-' || r == '.'
	})
	if len(fields) != 3 {
		return nil
	}

	out := make([]int, 3)
	for i, f := range fields {
		if !isDigits(f) || len(f) > 4 {
			return nil
		}
		out[i], _ = strconv.Atoi(f)
	}
	return out
}

// DayFirstTriple resolves a numeric date triple using the day-first policy of
// the exports: when the first component is at most 31 it is the day of month
// and the triple reads day-month-year, otherwise it reads year-month-day.
// Two-digit years are resolved against TwoDigitYearPivot.
// Returns false for impossible dates such as 31/02/2024 or 03/15/2024.
func DayFirstTriple(first, second, third int) (time.Time, bool) {
	day, month, year := first, second, third
	if first > 31 {
		year, month, day = first, second, third
	}

	if year < 100 {
		year += 2000
		if year > time.Now().Year()+TwoDigitYearPivot {
			year -= 100
		}
	}

	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// textValue renders any cell value as trimmed text.
func textValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return CleanCell(t)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(DateLayout)
	case decimal.Decimal:
		return t.String()
	case []byte:
		return CleanCell(string(t))
	default:
		return ""
	}
}

// CleanCell removes common CSV artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}
