package panel_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/starford/coursemover/internal/models"
	"github.com/starford/coursemover/internal/move"
	"github.com/starford/coursemover/internal/navigation"
	"github.com/starford/coursemover/internal/outline"
	"github.com/starford/coursemover/internal/panel"
	"github.com/starford/coursemover/internal/testutil"
)

func buildCursor(t *testing.T, opts testutil.Options, chain outline.AncestorChain) (*navigation.Cursor, panel.Marks) {
	t.Helper()
	tree, err := outline.Build(testutil.CourseOutline(opts))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return navigation.New(tree, chain), panel.MarksFromChain(tree, chain)
}

func sourceChain() outline.AncestorChain {
	return outline.ChainFromInfo(testutil.SourceAncestors())
}

func TestList_EmptyCourse(t *testing.T) {
	c, marks := buildCursor(t, testutil.Options{}, nil)
	v := panel.List(c, marks)
	if v.EmptyMessage != "This course has no sections" {
		t.Errorf("empty message = %q", v.EmptyMessage)
	}
	if len(v.Rows) != 0 {
		t.Errorf("rows = %d, want 0", len(v.Rows))
	}

	html, err := panel.HTML(panel.NewPage(c, marks, move.State{}))
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if !bytes.Contains(html, []byte("This course has no sections")) {
		t.Errorf("html missing empty message:\n%s", html)
	}
	if bytes.Contains(html, []byte("button-forward")) {
		t.Error("empty list must not offer forward controls")
	}
}

func TestList_EmptyMessagesPerLevel(t *testing.T) {
	cases := []struct {
		opts  testutil.Options
		depth int
		want  string
	}{
		{testutil.Options{Section: 1}, 1, "This section has no subsections"},
		{testutil.Options{Section: 1, Subsection: 1}, 2, "This subsection has no units"},
		{testutil.Options{Section: 1, Subsection: 1, Unit: 1}, 3, "This unit has no components"},
	}
	for _, tc := range cases {
		c, marks := buildCursor(t, tc.opts, nil)
		for i := 0; i < tc.depth; i++ {
			if err := c.DescendTo(0); err != nil {
				t.Fatalf("DescendTo: %v", err)
			}
		}
		if got := panel.List(c, marks).EmptyMessage; got != tc.want {
			t.Errorf("depth %d: %q, want %q", tc.depth, got, tc.want)
		}
	}
}

func TestList_LabelsAndForwardHints(t *testing.T) {
	c, marks := buildCursor(t, testutil.Options{Section: 2, Subsection: 2, Unit: 2, Component: 2}, nil)
	want := []struct {
		label, category string
	}{
		{"Sections:", "section"},
		{"Subsections:", "subsection"},
		{"Units:", "unit"},
		{"Components:", "component"},
	}
	for depth, w := range want {
		v := panel.List(c, marks)
		if v.Label != w.label {
			t.Errorf("depth %d label = %q, want %q", depth, v.Label, w.label)
		}
		if len(v.Rows) != 2 {
			t.Fatalf("depth %d rows = %d", depth, len(v.Rows))
		}
		for i, r := range v.Rows {
			if r.DisplayName != w.category+"_display_name_"+string(rune('0'+i)) {
				t.Errorf("row %d name = %q", i, r.DisplayName)
			}
			if w.category == "component" {
				if r.Forward || r.ForwardHint != "" {
					t.Errorf("component row %d has a forward control", i)
				}
				continue
			}
			if !r.Forward || r.ForwardHint != "Press button to see "+w.category+" childs" {
				t.Errorf("row %d forward = %v %q", i, r.Forward, r.ForwardHint)
			}
		}
		if depth < 3 {
			if err := c.DescendTo(0); err != nil {
				t.Fatal(err)
			}
		}
	}
}

func TestList_CurrentLocationMarker(t *testing.T) {
	chain := sourceChain()
	c, marks := buildCursor(t, testutil.Options{Section: 2, Subsection: 2, Unit: 2, Component: 2}, chain)
	if err := c.AscendTo(0); err != nil {
		t.Fatal(err)
	}
	v := panel.List(c, marks)
	if !v.Rows[0].CurrentLocation || v.Rows[1].CurrentLocation {
		t.Errorf("section rows marked %v/%v, want true/false", v.Rows[0].CurrentLocation, v.Rows[1].CurrentLocation)
	}

	// section_ID_1 has its own subsection_ID_0, which is not on the chain.
	if err := c.DescendTo(1); err != nil {
		t.Fatal(err)
	}
	for _, r := range panel.List(c, marks).Rows {
		if r.CurrentLocation {
			t.Errorf("row %s under section_ID_1 should not be marked", r.ID)
		}
	}

	// Components are never marked.
	c2, marks2 := buildCursor(t, testutil.Options{Section: 1, Subsection: 1, Unit: 1, Component: 1}, chain)
	for _, r := range panel.List(c2, marks2).Rows {
		if r.CurrentLocation {
			t.Error("component row marked as current location")
		}
	}

	// Without a chain nothing is marked.
	c3, marks3 := buildCursor(t, testutil.Options{Section: 1, Subsection: 1}, nil)
	if panel.List(c3, marks3).Rows[0].CurrentLocation {
		t.Error("marker shown without an ancestor chain")
	}
}

func TestBreadcrumbs(t *testing.T) {
	c, _ := buildCursor(t, testutil.Options{Section: 2, Subsection: 2, Unit: 2, Component: 2}, sourceChain())
	crumbs := panel.Breadcrumbs(c)
	want := []string{"Course Outline", "section_display_name_0", "subsection_display_name_0", "unit_display_name_0"}
	if len(crumbs) != len(want) {
		t.Fatalf("crumbs = %+v", crumbs)
	}
	for i, cr := range crumbs {
		if cr.Label != want[i] || cr.Depth != i {
			t.Errorf("crumb %d = %+v, want %q", i, cr, want[i])
		}
		if cr.Current != (i == len(want)-1) {
			t.Errorf("crumb %d current = %v", i, cr.Current)
		}
	}
	if got := panel.BreadcrumbText(crumbs); !strings.HasPrefix(got, "[0] Course Outline > [1] section_display_name_0") {
		t.Errorf("text = %q", got)
	}
}

func TestRender_Idempotent(t *testing.T) {
	c, marks := buildCursor(t, testutil.Options{Section: 2, Subsection: 2, Unit: 2, Component: 2}, sourceChain())
	st := move.State{Source: move.Source{DisplayName: testutil.SourceDisplayName}}
	p := panel.NewPage(c, marks, st)

	a, err := panel.HTML(p)
	if err != nil {
		t.Fatal(err)
	}
	b, err := panel.HTML(panel.NewPage(c, marks, st))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("HTML renders differ")
	}
	if panel.Text(p) != panel.Text(panel.NewPage(c, marks, st)) {
		t.Error("text renders differ")
	}
	if panel.ListText(p.List, 0) != panel.ListText(panel.List(c, marks), 0) {
		t.Error("list text renders differ")
	}
}

func TestRender_MoveButtonState(t *testing.T) {
	c, marks := buildCursor(t, testutil.Options{Section: 1, Subsection: 1, Unit: 1, Component: 1}, sourceChain())
	st := move.State{Source: move.Source{DisplayName: testutil.SourceDisplayName}}

	html, err := panel.HTML(panel.NewPage(c, marks, st))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(html, []byte("action-move is-disabled")) {
		t.Errorf("ineligible page should disable the move button:\n%s", html)
	}
	if !bytes.Contains(html, []byte("Move: component_display_name_0")) {
		t.Error("missing title")
	}

	st.Eligible = true
	html, err = panel.HTML(panel.NewPage(c, marks, st))
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(html, []byte("is-disabled")) {
		t.Error("eligible page should enable the move button")
	}
}

func TestRender_LoadingPage(t *testing.T) {
	html, err := panel.HTML(panel.LoadingPage("Quiz"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(html, []byte("ui-loading")) || bytes.Contains(html, []byte("xblock-list-container")) {
		t.Errorf("loading page:\n%s", html)
	}
	if got := panel.Text(panel.LoadingPage("Quiz")); got != "Move: Quiz\n\nLoading\n" {
		t.Errorf("text = %q", got)
	}
}

type stubTransport struct{}

func (stubTransport) Move(_ context.Context, req models.MoveRequest) (*models.MoveResponse, error) {
	return &models.MoveResponse{SourceLocator: req.SourceLocator, ParentLocator: req.ParentLocator, TargetIndex: testutil.IntPtr(0)}, nil
}

func TestBannerHTML_UndoAnchor(t *testing.T) {
	c, _ := buildCursor(t, testutil.Options{Section: 2, Subsection: 2, Unit: 2, Component: 2}, sourceChain())
	ctrl := move.NewController(c, move.Source{
		ID:          testutil.SourceLocator,
		DisplayName: testutil.SourceDisplayName,
		Category:    outline.CategoryComponent,
		ParentID:    testutil.SourceParent,
	}, stubTransport{}, nil, nil)
	if err := ctrl.Ascend(2); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.Descend(1); err != nil {
		t.Fatal(err)
	}
	banner, err := ctrl.ConfirmMove(context.Background(), nil)
	if err != nil {
		t.Fatalf("ConfirmMove: %v", err)
	}

	html, err := panel.BannerHTML(banner)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`has been moved. <a href="/container/unit_ID_1">Take me to the new location</a>`,
		`class="action-undo-move"`,
		`data-source-display-name="component_display_name_0"`,
		`data-source-locator="component_ID_0"`,
		`data-source-parent-locator="unit_ID_0"`,
		`data-target-index="0"`,
		`>Undo move</a>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("banner missing %q:\n%s", want, html)
		}
	}

	cancelled, err := ctrl.UndoMove(context.Background())
	if err != nil {
		t.Fatalf("UndoMove: %v", err)
	}
	html, err = panel.BannerHTML(cancelled)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "has been moved back to its original location.") || strings.Contains(html, "action-undo-move") {
		t.Errorf("cancel banner:\n%s", html)
	}
}

func TestMarksFromParent(t *testing.T) {
	c, _ := buildCursor(t, testutil.Options{Section: 1, Subsection: 1, Unit: 2, Component: 1}, nil)
	marks := panel.MarksFromParent(c.Tree(), "unit_ID_1")
	if err := c.DescendTo(0); err != nil {
		t.Fatal(err)
	}
	if err := c.DescendTo(0); err != nil {
		t.Fatal(err)
	}
	rows := panel.List(c, marks).Rows
	if rows[0].CurrentLocation || !rows[1].CurrentLocation {
		t.Errorf("units marked %v/%v, want false/true", rows[0].CurrentLocation, rows[1].CurrentLocation)
	}

	if got := panel.MarksFromParent(c.Tree(), "missing"); got == nil || len(got) != 0 {
		t.Errorf("unknown parent marks = %v, want empty", got)
	}
}
