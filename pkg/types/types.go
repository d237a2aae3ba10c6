package types

import (
	"strings"

	"golang.org/x/text/cases"
)

// DefaultCategory is the category every library starts with. It always exists
// and can be neither renamed nor deleted.
const DefaultCategory = "المكتبة"

// DefaultVideoFileName is the demonstration clip attached to new clips when the
// caller does not name one.
const DefaultVideoFileName = "avatarr.mp4"

// Clip is a saved unit of recognized content
type Clip struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	VideoFileName string `json:"videoFileName"`
}

// WithDefaults fills fields that older saved records may lack
func (c Clip) WithDefaults() Clip {
	if c.VideoFileName == "" {
		c.VideoFileName = DefaultVideoFileName
	}
	if c.Category == "" {
		c.Category = DefaultCategory
	}
	return c
}

// IsDefaultCategory reports whether name is the permanent default category
func IsDefaultCategory(name string) bool {
	return name == DefaultCategory
}

// NormalizeName trims surrounding whitespace from a user supplied name
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// FoldName returns the case-folded form of a name, used for case-insensitive
// uniqueness checks and search.
func FoldName(name string) string {
	return cases.Fold().String(name)
}

// SameName reports whether two names are equal under case folding
func SameName(a, b string) bool {
	return FoldName(a) == FoldName(b)
}
