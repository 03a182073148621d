package validate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"smarttrack/internal/domain"
)

var (
	reID    = regexp.MustCompile(`^[1-9][0-9]{0,17}$`)
	reInt   = regexp.MustCompile(`^-?[0-9]{1,9}$`)
	reMoney = regexp.MustCompile(`^[0-9]{1,8}(\.[0-9]{1,2})?$`)
)

// ID validates a positive numeric resource identifier.
func ID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if !reID.MatchString(s) {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

func intOr(s string, def int) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, true
	}
	if !reInt.MatchString(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// Page reads skip/limit query values; blanks fall back to 0 and the default limit.
func Page(skip, limit string) (domain.Page, error) {
	sk, ok := intOr(skip, 0)
	if !ok {
		return domain.Page{}, domain.Invalid("skip must be an integer")
	}
	lim, ok := intOr(limit, domain.DefaultPageLimit)
	if !ok {
		return domain.Page{}, domain.Invalid("limit must be an integer")
	}
	p := domain.Page{Skip: sk, Limit: lim}
	return p, p.Validate()
}

// Date parses an optional YYYY-MM-DD value; blank yields nil.
func Date(s, field string) (*domain.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(s)
	if err != nil {
		return nil, domain.Invalid("%s must be a date (YYYY-MM-DD)", field)
	}
	return &d, nil
}

// Range reads an inclusive start/end date pair.
func Range(start, end string) (domain.DateRange, error) {
	s, err := Date(start, "start_date")
	if err != nil {
		return domain.DateRange{}, err
	}
	e, err := Date(end, "end_date")
	if err != nil {
		return domain.DateRange{}, err
	}
	r := domain.DateRange{Start: s, End: e}
	return r, r.Validate()
}

// Bool accepts the usual true/false spellings; blank yields def.
func Bool(s string, def bool) (bool, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, true
	}
	b, err := strconv.ParseBool(s)
	return b, err == nil
}

// CategoryType validates the optional category_type filter.
func CategoryType(s string) (*domain.CategoryType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil, true
	}
	t := domain.CategoryType(s)
	return &t, t.Valid()
}

// Qty reads a form quantity, clamped to a sane window.
func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if n > 9999 {
		return 9999
	}
	return n
}

// Money reads a non-negative amount with at most two fractional digits; blank is zero.
func Money(s string) (domain.Money, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.Money{}, true
	}
	if !reMoney.MatchString(s) {
		return domain.Money{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return domain.Money{}, false
	}
	return domain.NewMoney(d), true
}

// Name validates an optional free-text name; blank yields nil.
func Name(s string, max int) (*string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	if len(s) > max {
		return nil, false
	}
	return &s, true
}
