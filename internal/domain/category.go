package domain

import (
	"fmt"
	"strings"
)

// Category is the triage label a user assigns to an entity.
type Category string

const (
	CategoryPlayed        Category = "Played"
	CategoryInteresting   Category = "Interesting"
	CategoryToPlay        Category = "ToPlay"
	CategoryToAnalyze     Category = "ToAnalyze"
	CategoryRejected      Category = "Rejected"
	CategoryUncategorized Category = "Uncategorized"
)

// Categories lists the closed set in display order.
var Categories = []Category{
	CategoryPlayed,
	CategoryInteresting,
	CategoryToPlay,
	CategoryToAnalyze,
	CategoryRejected,
	CategoryUncategorized,
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory accepts the canonical names as well as snake/kebab case
// spellings ("to_play", "to-analyze") in any letter case.
func ParseCategory(raw string) (Category, error) {
	cleaned := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.TrimSpace(raw))
	for _, known := range Categories {
		if strings.EqualFold(cleaned, string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", raw)
}
