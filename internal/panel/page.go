package panel

import (
	"github.com/starford/coursemover/internal/move"
	"github.com/starford/coursemover/internal/navigation"
)

// Page is everything the move picker shows for one session.
type Page struct {
	Title       string       `json:"title"`
	Loading     bool         `json:"loading"`
	Breadcrumbs []Crumb      `json:"breadcrumbs"`
	List        ListView     `json:"list"`
	Eligible    bool         `json:"eligible"`
	InFlight    bool         `json:"in_flight"`
	CanUndo     bool         `json:"can_undo"`
	Banner      *move.Banner `json:"banner,omitempty"`
}

// Title returns the picker heading for the item being moved.
func Title(displayName string) string {
	return "Move: " + displayName
}

// NewPage assembles a ready page from the cursor and controller state.
func NewPage(c *navigation.Cursor, marks Marks, st move.State) Page {
	return Page{
		Title:       Title(st.Source.DisplayName),
		Breadcrumbs: Breadcrumbs(c),
		List:        List(c, marks),
		Eligible:    st.Eligible,
		InFlight:    st.InFlight,
		CanUndo:     st.CanUndo,
		Banner:      st.Banner,
	}
}

// LoadingPage is shown until the outline and the ancestors have both arrived.
func LoadingPage(displayName string) Page {
	return Page{
		Title:       Title(displayName),
		Loading:     true,
		Breadcrumbs: []Crumb{},
		List:        ListView{Rows: []Row{}},
	}
}
