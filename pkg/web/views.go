// Package web renders pages from Go templates and serves rendered files,
// with a router that supports a catch-all fallback.
package web

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
)

// ViewDef defines a page by its route, template file and title.
type ViewDef struct {
	Route    string
	Template string
	Title    string
}

// ViewData is passed to page templates during rendering.
// BasePath enables portable URL generation via {{ .BasePath }}.
type ViewData struct {
	Title    string
	BasePath string
	Data     any
}

// TemplateSet holds pre-parsed templates, one layout clone per view.
type TemplateSet struct {
	views    map[string]*template.Template
	basePath string
}

// NewTemplateSet parses the layouts matching layoutGlob and clones them for
// each view found under viewSubdir. Parsing happens once so template errors
// surface at construction.
func NewTemplateSet(fsys fs.FS, layoutGlob, viewSubdir, basePath string, views []ViewDef) (*TemplateSet, error) {
	layouts, err := template.ParseFS(fsys, layoutGlob)
	if err != nil {
		return nil, err
	}

	viewSub, err := fs.Sub(fsys, viewSubdir)
	if err != nil {
		return nil, err
	}

	viewTemplates := make(map[string]*template.Template, len(views))
	for _, v := range views {
		t, err := layouts.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layouts for %s: %w", v.Template, err)
		}
		if _, err := t.ParseFS(viewSub, v.Template); err != nil {
			return nil, fmt.Errorf("parse template: %s: %w", v.Template, err)
		}
		viewTemplates[v.Template] = t
	}

	return &TemplateSet{
		views:    viewTemplates,
		basePath: basePath,
	}, nil
}

// Data builds the ViewData for view with the set's base path.
func (ts *TemplateSet) Data(view ViewDef, data any) ViewData {
	return ViewData{
		Title:    view.Title,
		BasePath: ts.basePath,
		Data:     data,
	}
}

// Render executes the named layout for viewPath into w.
func (ts *TemplateSet) Render(w io.Writer, layoutName, viewPath string, data ViewData) error {
	t, ok := ts.views[viewPath]
	if !ok {
		return fmt.Errorf("template not found: %s", viewPath)
	}
	return t.ExecuteTemplate(w, layoutName, data)
}

// PageHandler returns a handler that renders view with data on each request.
func (ts *TemplateSet) PageHandler(layout string, view ViewDef, data any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := ts.Render(w, layout, view.Template, ts.Data(view, data)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
