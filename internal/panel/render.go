package panel

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/starford/coursemover/internal/move"
)

var funcs = template.FuncMap{
	"indexAttr": func(p *int) string {
		if p == nil {
			return ""
		}
		return strconv.Itoa(*p)
	},
}

var pageTmpl = template.Must(template.New("page").Funcs(funcs).Parse(`<div class="move-xblock-modal">
<h2 class="modal-window-title">{{.Title}}</h2>
{{- if .Banner}}{{template "banner" .Banner}}{{end}}
{{- if .Loading}}
<div class="ui-loading"><p><span class="spin"></span> <span class="copy">Loading</span></p></div>
{{- else}}
<nav class="breadcrumbs" aria-label="Course Outline breadcrumb">
{{- range .Breadcrumbs}}
<span class="bc-container{{if .Current}} bc-current{{end}}" data-parent-index="{{.Depth}}">
{{- if .Current}}<span class="parent-displayname">{{.Label}}</span>{{else}}<button class="parent-nav-button" title="{{.Label}}">{{.Label}}</button>{{end -}}
</span>
{{- end}}
</nav>
<div class="xblock-list-container">
<span class="category-text">{{.List.Label}}</span>
{{- if .List.EmptyMessage}}
<p class="xblock-no-child-message">{{.List.EmptyMessage}}</p>
{{- else}}
<ul class="xblock-items-container" data-items-category="{{.List.Category}}">
{{- range .List.Rows}}
<li class="xblock-item" data-item-index="{{.Index}}">
{{- if .Forward}}<button class="button-forward" type="button">{{end -}}
<span class="xblock-displayname">{{.DisplayName}}</span>
{{- if .CurrentLocation}}<span class="current-location">(Current location)</span>{{end}}
{{- if .Forward}}<span class="icon fa fa-arrow-right forward-sr-icon" aria-hidden="true"></span><span class="sr forward-sr-text">{{.ForwardHint}}</span></button>{{end -}}
</li>
{{- end}}
</ul>
{{- end}}
</div>
<div class="modal-actions">
<button class="button action-primary action-move{{if or (not .Eligible) .InFlight}} is-disabled{{end}}"{{if or (not .Eligible) .InFlight}} aria-disabled="true"{{end}}>Move</button>
<button class="button action-cancel">Cancel</button>
</div>
{{- end}}
</div>
{{define "banner"}}
<div class="page-banner banner-{{.Kind}}">
<p class="banner-title">{{.Title}}{{if .LinkURL}} <a href="{{.LinkURL}}">{{.LinkText}}</a>{{end}}</p>
{{- with .Undo}}
<a class="action-undo-move" href="#" data-source-display-name="{{.SourceDisplayName}}" data-source-locator="{{.SourceID}}" data-source-parent-locator="{{.OriginalParentID}}" data-target-index="{{indexAttr .OriginalIndex}}">Undo move</a>
{{- end}}
</div>
{{- end}}
`))

// RenderHTML writes the page as an HTML fragment. Identical pages produce
// identical bytes.
func RenderHTML(w io.Writer, p Page) error {
	if err := pageTmpl.Execute(w, p); err != nil {
		return fmt.Errorf("panel: render html: %w", err)
	}
	return nil
}

// HTML renders the page into a byte slice.
func HTML(p Page) ([]byte, error) {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BannerHTML renders just the banner fragment.
func BannerHTML(b *move.Banner) (string, error) {
	var buf bytes.Buffer
	if err := pageTmpl.ExecuteTemplate(&buf, "banner", b); err != nil {
		return "", fmt.Errorf("panel: render banner: %w", err)
	}
	return buf.String(), nil
}

// ListText renders the list panel as plain text, one row per line. focus
// marks a row with ">"; pass -1 for none.
func ListText(v ListView, focus int) string {
	var b strings.Builder
	b.WriteString(v.Label)
	b.WriteByte('\n')
	if v.EmptyMessage != "" {
		b.WriteString("  ")
		b.WriteString(v.EmptyMessage)
		b.WriteByte('\n')
		return b.String()
	}
	for _, r := range v.Rows {
		prefix := "  "
		if r.Index == focus {
			prefix = "> "
		}
		fmt.Fprintf(&b, "%s%d. %s", prefix, r.Index, r.DisplayName)
		if r.CurrentLocation {
			b.WriteString(" " + CurrentLocationText)
		}
		if r.Forward {
			b.WriteString(" ->")
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// BreadcrumbText joins the trail with " > ", prefixing each segment with its
// depth.
func BreadcrumbText(crumbs []Crumb) string {
	parts := make([]string, len(crumbs))
	for i, c := range crumbs {
		parts[i] = fmt.Sprintf("[%d] %s", c.Depth, c.Label)
	}
	return strings.Join(parts, " > ")
}

// BannerText renders a banner without markup.
func BannerText(b *move.Banner) string {
	if b == nil {
		return ""
	}
	s := b.Title
	if b.LinkURL != "" {
		s += " " + b.LinkText + ": " + b.LinkURL
	}
	if b.Undo != nil {
		s += " (undo available)"
	}
	return s
}

// Text renders the whole page as plain text.
func Text(p Page) string {
	var b strings.Builder
	b.WriteString(p.Title)
	b.WriteString("\n\n")
	if p.Loading {
		b.WriteString("Loading\n")
		return b.String()
	}
	b.WriteString(BreadcrumbText(p.Breadcrumbs))
	b.WriteString("\n\n")
	b.WriteString(ListText(p.List, -1))
	b.WriteByte('\n')
	switch {
	case p.InFlight:
		b.WriteString("Move: in progress\n")
	case p.Eligible:
		b.WriteString("Move: available here\n")
	default:
		b.WriteString("Move: not available here\n")
	}
	if p.Banner != nil {
		b.WriteString("\n")
		b.WriteString(BannerText(p.Banner))
		b.WriteByte('\n')
	}
	return b.String()
}
