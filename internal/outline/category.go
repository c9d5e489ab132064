package outline

import (
	"slices"
	"strings"
)

// Category identifies one level of the course hierarchy.
type Category string

// Category values, in hierarchy order.
const (
	CategoryCourse     Category = "course"
	CategorySection    Category = "section"
	CategorySubsection Category = "subsection"
	CategoryUnit       Category = "unit"
	CategoryComponent  Category = "component"
)

// hierarchy stores the fixed parent→child order.
var hierarchy = []Category{
	CategoryCourse,
	CategorySection,
	CategorySubsection,
	CategoryUnit,
	CategoryComponent,
}

// xblockCategories maps Studio block types onto structural categories.
var xblockCategories = map[string]Category{
	"course":     CategoryCourse,
	"chapter":    CategorySection,
	"sequential": CategorySubsection,
	"vertical":   CategoryUnit,
}

// pluralLabels holds the list heading for the children of each category.
var pluralLabels = map[Category]string{
	CategorySection:    "Sections",
	CategorySubsection: "Subsections",
	CategoryUnit:       "Units",
	CategoryComponent:  "Components",
}

// Depth returns the category's distance from the course (course=0).
// Unknown categories report -1.
func (c Category) Depth() int {
	return slices.Index(hierarchy, c)
}

// Child returns the category of this category's children, or "" for leaves.
func (c Category) Child() Category {
	d := c.Depth()
	if d < 0 || d+1 >= len(hierarchy) {
		return ""
	}
	return hierarchy[d+1]
}

// Parent returns the category one level up, or "" for the course.
func (c Category) Parent() Category {
	d := c.Depth()
	if d <= 0 {
		return ""
	}
	return hierarchy[d-1]
}

// IsLeaf reports whether nodes of this category never have children.
func (c Category) IsLeaf() bool {
	return c == CategoryComponent
}

// Plural returns the capitalised plural used for list headings ("Units").
func (c Category) Plural() string {
	return pluralLabels[c]
}

// CategoryAtDepth returns the category for a depth, or "" when out of range.
func CategoryAtDepth(depth int) Category {
	if depth < 0 || depth >= len(hierarchy) {
		return ""
	}
	return hierarchy[depth]
}

// NormalizeCategory maps a wire category onto a structural one.
//
// Studio block types (chapter, sequential, vertical) and the structural names
// are accepted. Any other non-empty value is a component type (html, problem,
// video, ...). Empty input yields "".
func NormalizeCategory(raw string) Category {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return ""
	}
	if c, ok := xblockCategories[raw]; ok {
		return c
	}
	if c := Category(raw); c.Depth() >= 0 {
		return c
	}
	return CategoryComponent
}
