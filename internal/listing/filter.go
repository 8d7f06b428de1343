package listing

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

var ErrQuery = errors.New("malformed filter")

type QueryError struct {
	Param string
	Value string
	Msg   string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s=%q: %s", ErrQuery, e.Param, e.Value, e.Msg)
}

func (e *QueryError) Is(target error) bool {
	return target == ErrQuery
}

type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortOldest    SortKey = "oldest"
	SortPriceAsc  SortKey = "price-low"
	SortPriceDesc SortKey = "price-high"
	SortRating    SortKey = "rating"
	SortPopular   SortKey = "popular"
)

var sortAliases = map[string]SortKey{
	"newest":      SortNewest,
	"recent":      SortNewest,
	"oldest":      SortOldest,
	"price-low":   SortPriceAsc,
	"price_asc":   SortPriceAsc,
	"price-high":  SortPriceDesc,
	"price_desc":  SortPriceDesc,
	"rating":      SortRating,
	"rating_desc": SortRating,
	"popular":     SortPopular,
}

// ParseSort resolves a sort parameter. Unrecognised keys fall back to
// SortNewest.
func ParseSort(s string) SortKey {
	if k, ok := sortAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k
	}
	return SortNewest
}

// PriceFilter is either an exact price or a half-open range [Min, Max).
// A nil bound is unbounded.
type PriceFilter struct {
	Exact *float64
	Min   *float64
	Max   *float64
}

func (p PriceFilter) Match(price float64) bool {
	if p.Exact != nil {
		return price == *p.Exact
	}
	if p.Min != nil && price < *p.Min {
		return false
	}
	if p.Max != nil && price >= *p.Max {
		return false
	}
	return true
}

// ParsePrice accepts "n" (exact), "a-b" (a <= price < b) and "a+" (price >= a).
func ParsePrice(s string) (*PriceFilter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	bad := func(msg string) error { return &QueryError{Param: "price", Value: s, Msg: msg} }

	if strings.HasSuffix(s, "+") {
		min, err := parseAmount(strings.TrimSuffix(s, "+"))
		if err != nil {
			return nil, bad("want a number before '+'")
		}
		return &PriceFilter{Min: &min}, nil
	}

	if lo, hi, ok := strings.Cut(s, "-"); ok {
		min, err := parseAmount(lo)
		if err != nil {
			return nil, bad("range start is not a number")
		}
		max, err := parseAmount(hi)
		if err != nil {
			return nil, bad("range end is not a number")
		}
		if max <= min {
			return nil, bad("range end must be greater than start")
		}
		return &PriceFilter{Min: &min, Max: &max}, nil
	}

	exact, err := parseAmount(s)
	if err != nil {
		return nil, bad("want a price, a range a-b, or a+")
	}
	return &PriceFilter{Exact: &exact}, nil
}

// String renders p in the syntax ParsePrice accepts.
func (p PriceFilter) String() string {
	num := func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
	switch {
	case p.Exact != nil:
		return num(*p.Exact)
	case p.Min != nil && p.Max != nil:
		return num(*p.Min) + "-" + num(*p.Max)
	case p.Min != nil:
		return num(*p.Min) + "+"
	case p.Max != nil:
		return "0-" + num(*p.Max)
	}
	return ""
}

func parseAmount(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite amount")
	}
	if f < 0 {
		return 0, fmt.Errorf("negative amount")
	}
	return f, nil
}

// Filter is the caller-facing set of listing constraints. A nil field
// places no constraint on that dimension.
type Filter struct {
	Search   *string
	Category *string
	Location *string
	Price    *PriceFilter
	Sort     *SortKey
	Niche    *string
}

// ParseFilter reads the recognised options from URL query values. Empty
// values are treated as absent.
func ParseFilter(q url.Values) (Filter, error) {
	var f Filter
	opt := func(name string) *string {
		v := strings.TrimSpace(q.Get(name))
		if v == "" {
			return nil
		}
		return &v
	}

	f.Search = opt("search")
	f.Category = opt("category")
	f.Location = opt("location")
	f.Niche = opt("niche")

	if s := opt("sort"); s != nil {
		k := ParseSort(*s)
		f.Sort = &k
	}

	if p := opt("price"); p != nil {
		price, err := ParsePrice(*p)
		if err != nil {
			return Filter{}, err
		}
		f.Price = price
	}
	return f, nil
}

// Values encodes f as URL query values; ParseFilter(f.Values()) yields f.
func (f Filter) Values() url.Values {
	q := url.Values{}
	set := func(name string, v *string) {
		if v != nil && *v != "" {
			q.Set(name, *v)
		}
	}
	set("search", f.Search)
	set("category", f.Category)
	set("location", f.Location)
	set("niche", f.Niche)
	if f.Sort != nil {
		q.Set("sort", string(*f.Sort))
	}
	if f.Price != nil {
		if s := f.Price.String(); s != "" {
			q.Set("price", s)
		}
	}
	return q
}
