package library

import "github.com/menta2k/mudrik/pkg/types"

// View holds the library screen's query state. Results are recomputed on
// every call rather than cached.
type View struct {
	SelectedCategory string
	SearchText       string
}

// NewView selects the category of the most recently added clip, or no
// category when the library is empty.
func NewView(clips []types.Clip) *View {
	v := &View{}
	if n := len(clips); n > 0 {
		v.SelectedCategory = clips[n-1].Category
	}
	return v
}

// Select changes the selected category. An empty name shows all clips.
func (v *View) Select(category string) {
	v.SelectedCategory = category
}

// Search sets the free-text name filter
func (v *View) Search(text string) {
	v.SearchText = text
}

// Results applies the view's filters to clips
func (v *View) Results(clips []types.Clip) []types.Clip {
	return Filter(clips, v.SelectedCategory, v.SearchText)
}

// Reconcile clears a selection that no longer names an existing category,
// as happens after the selected category is renamed or deleted.
func (v *View) Reconcile(categories []string) {
	if v.SelectedCategory == "" {
		return
	}
	for _, c := range categories {
		if c == v.SelectedCategory {
			return
		}
	}
	v.SelectedCategory = ""
}
