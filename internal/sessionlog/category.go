package sessionlog

import "strings"

// Category labels one classified activity interval. The set is open: users
// may configure arbitrary labels, so only the reserved values below carry
// behavior inside the runtime.
type Category string

const (
	// CategoryAway marks a span of physical absence detected by the webcam.
	CategoryAway Category = "Away"
	// CategoryDistraction marks off-task on-screen activity. Advisory only;
	// it never pauses the run clock.
	CategoryDistraction Category = "Distraction"
)

// DefaultCategories seeds the classifier prompt when the user has not
// configured custom labels.
var DefaultCategories = []Category{
	"Coding",
	"Writing",
	"Reading",
	"Academic Research",
	CategoryDistraction,
}

// ParseCategory normalizes a raw label. Reserved categories are matched
// case-insensitively so classifier output variance does not split them into
// distinct user-defined labels.
func ParseCategory(value string) Category {
	trimmed := strings.TrimSpace(value)
	for _, reserved := range []Category{CategoryAway, CategoryDistraction} {
		if strings.EqualFold(trimmed, string(reserved)) {
			return reserved
		}
	}
	return Category(trimmed)
}

// IsReserved reports whether the category carries runtime semantics.
func (c Category) IsReserved() bool {
	return c == CategoryAway || c == CategoryDistraction
}

// CategoryNames converts categories to plain strings for classifier prompts.
func CategoryNames(categories []Category) []string {
	names := make([]string, 0, len(categories))
	for _, category := range categories {
		if trimmed := strings.TrimSpace(string(category)); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}
