// Package testutil provides shared outline fixtures for tests.
package testutil

import (
	"fmt"

	"github.com/starford/coursemover/internal/models"
)

// Fixture locators used throughout the tests.
const (
	CourseID          = "COURSE_ID_101"
	CourseName        = "Demo Course"
	SourceLocator     = "component_ID_0"
	SourceDisplayName = "component_display_name_0"
	SourceParent      = "unit_ID_0"
)

// Options sets how many children each level of a fixture outline gets.
// A zero count stops the outline at that level.
type Options struct {
	Section    int
	Subsection int
	Unit       int
	Component  int
}

var (
	levels     = []string{"section", "subsection", "unit", "component"}
	blockTypes = map[string]string{
		"section":    "chapter",
		"subsection": "sequential",
		"unit":       "vertical",
		"component":  "component",
	}
)

func (o Options) count(level string) int {
	switch level {
	case "section":
		return o.Section
	case "subsection":
		return o.Subsection
	case "unit":
		return o.Unit
	case "component":
		return o.Component
	}
	return 0
}

// CourseOutline builds an outline payload in Studio's shape. Children are named
// "<level>_display_name_<i>" with locator "<level>_ID_<i>", so the same
// locators repeat under every parent.
func CourseOutline(opts Options) *models.XBlockInfo {
	root := &models.XBlockInfo{
		ID:          CourseID,
		Category:    "course",
		DisplayName: CourseName,
	}
	fill(root, opts, 0)
	return root
}

func fill(parent *models.XBlockInfo, opts Options, level int) {
	if level >= len(levels) {
		return
	}
	name := levels[level]
	n := opts.count(name)
	if n == 0 {
		return
	}
	parent.ChildInfo = &models.ChildInfo{
		Category:    blockTypes[name],
		DisplayName: name,
		Children:    make([]*models.XBlockInfo, 0, n),
	}
	for i := 0; i < n; i++ {
		child := &models.XBlockInfo{
			ID:          fmt.Sprintf("%s_ID_%d", name, i),
			Category:    blockTypes[name],
			DisplayName: fmt.Sprintf("%s_display_name_%d", name, i),
		}
		fill(child, opts, level+1)
		parent.ChildInfo.Children = append(parent.ChildInfo.Children, child)
	}
}

// SourceAncestors returns the ancestorInfo payload for SourceLocator, nearest
// first.
func SourceAncestors() *models.AncestorInfo {
	return &models.AncestorInfo{
		Ancestors: []models.Ancestor{
			{Category: "vertical", DisplayName: "unit_display_name_0", ID: "unit_ID_0"},
			{Category: "sequential", DisplayName: "subsection_display_name_0", ID: "subsection_ID_0"},
			{Category: "chapter", DisplayName: "section_display_name_0", ID: "section_ID_0"},
			{Category: "course", DisplayName: CourseName, ID: CourseID},
		},
	}
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
