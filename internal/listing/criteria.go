package listing

import (
	"slices"
	"strings"
	"time"

	"markethub/marketplace/internal/model"
)

// Criteria is a Filter resolved into the predicates stores evaluate.
type Criteria struct {
	// Search is lower-cased; empty means no text constraint. Stores only
	// agree on case folding for ASCII: Postgres matches with ILIKE.
	Search string
	// Categories nil means any category; non-nil and empty matches nothing.
	Categories []string
	Location   *string
	Price      *PriceFilter
	Sort       SortKey
}

// Criteria resolves niche and category into one category set, intersecting
// them when both are present.
func (f Filter) Criteria() Criteria {
	c := Criteria{Location: f.Location, Price: f.Price, Sort: SortNewest}
	if f.Search != nil {
		c.Search = strings.ToLower(*f.Search)
	}
	if f.Sort != nil {
		c.Sort = *f.Sort
	}

	if f.Category != nil {
		c.Categories = []string{*f.Category}
	}
	if f.Niche != nil {
		nc, ok := NicheCategories(*f.Niche)
		if !ok {
			nc = []string{}
		}
		if c.Categories == nil {
			c.Categories = nc
		} else {
			c.Categories = slices.DeleteFunc(c.Categories, func(cat string) bool {
				return !slices.Contains(nc, cat)
			})
		}
	}
	return c
}

// Empty reports whether the criteria can match no listing at all.
func (c Criteria) Empty() bool {
	return c.Categories != nil && len(c.Categories) == 0
}

func (c Criteria) matchCommon(title, description, category string, price float64) bool {
	if c.Categories != nil && !slices.Contains(c.Categories, category) {
		return false
	}
	if c.Search != "" &&
		!strings.Contains(strings.ToLower(title), c.Search) &&
		!strings.Contains(strings.ToLower(description), c.Search) {
		return false
	}
	if c.Price != nil && !c.Price.Match(price) {
		return false
	}
	return true
}

func (c Criteria) MatchService(s model.Service) bool {
	if c.Location != nil && s.Location != *c.Location {
		return false
	}
	return c.matchCommon(s.Title, s.Description, s.Category, s.Price)
}

// MatchProduct ignores Location, which only constrains services.
func (c Criteria) MatchProduct(p model.Product) bool {
	return c.matchCommon(p.Title, p.Description, p.Category, p.Price)
}

type sortable struct {
	id        string
	price     float64
	rating    *float64
	downloads int32
	createdAt time.Time
}

func compareRating(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a > *b:
		return -1
	case *a < *b:
		return 1
	}
	return 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// compare orders a before b for key, breaking every tie by id so that the
// same data always yields the same sequence.
func compare(key SortKey, a, b sortable) int {
	var c int
	switch key {
	case SortOldest:
		c = a.createdAt.Compare(b.createdAt)
	case SortPriceAsc:
		c = compareFloat(a.price, b.price)
	case SortPriceDesc:
		c = compareFloat(b.price, a.price)
	case SortRating:
		c = compareRating(a.rating, b.rating)
	case SortPopular:
		c = compareFloat(float64(b.downloads), float64(a.downloads))
	default:
		c = b.createdAt.Compare(a.createdAt)
	}
	if c != 0 {
		return c
	}
	return strings.Compare(a.id, b.id)
}

func serviceKey(s model.Service) sortable {
	return sortable{id: s.ID, price: s.Price, rating: s.Rating, createdAt: s.CreatedAt}
}

func productKey(p model.Product) sortable {
	return sortable{id: p.ID, price: p.Price, rating: p.Rating, downloads: p.Downloads, createdAt: p.CreatedAt}
}

// SortServices orders services in place. Services have no download count,
// so SortPopular orders them as SortNewest.
func (c Criteria) SortServices(ss []model.Service) {
	key := c.Sort
	if key == SortPopular {
		key = SortNewest
	}
	slices.SortFunc(ss, func(a, b model.Service) int {
		return compare(key, serviceKey(a), serviceKey(b))
	})
}

func (c Criteria) SortProducts(ps []model.Product) {
	slices.SortFunc(ps, func(a, b model.Product) int {
		return compare(c.Sort, productKey(a), productKey(b))
	})
}
