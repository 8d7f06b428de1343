package listing

import "sort"

var niches = map[string][]string{
	"resume":    {"career", "resume", "cv"},
	"business":  {"business", "invoice", "contract"},
	"student":   {"education", "student", "notes"},
	"creator":   {"creative", "design", "graphics"},
	"developer": {"development", "code", "api"},
}

// NicheCategories returns the product categories grouped under a niche.
func NicheCategories(niche string) ([]string, bool) {
	c, ok := niches[niche]
	if !ok {
		return nil, false
	}
	return append([]string(nil), c...), true
}

// Niches returns the known niche names in lexical order.
func Niches() []string {
	out := make([]string, 0, len(niches))
	for n := range niches {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
