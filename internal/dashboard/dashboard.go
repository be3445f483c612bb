// Package dashboard renders the static agent dashboard page and serves the
// rendered file over local HTTP. Content is fixed and does not reflect run
// results.
package dashboard

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/JaimeStill/triage/pkg/web"
)

//go:embed templates
var templateFS embed.FS

// FileName is the rendered file name and its URL path.
const FileName = "dashboard.html"

const layout = "page"

var view = web.ViewDef{
	Route:    "/" + FileName,
	Template: "dashboard.html",
	Title:    "Multi-Intent Agent Dashboard",
}

// Step is one stage of the execution flow section.
type Step struct {
	Icon   string
	Name   string
	Detail string
}

// Link points at a platform resource.
type Link struct {
	Title       string
	Description string
	URL         string
}

// Action is a labelled command shown under quick actions.
type Action struct {
	Label   string
	Command string
}

// Page is the dashboard content.
type Page struct {
	Heading  string
	Subtitle string
	Input    string
	Status   string
	Intents  []string
	Steps    []Step
	Links    []Link
	Actions  []Action
}

// DefaultPlatformURL is the tenant root used for resource links.
const DefaultPlatformURL = "https://cloud.uipath.com/organization/DefaultTenant"

// DefaultPage returns the fixed dashboard content. Resource links are built
// from platformURL, or DefaultPlatformURL when empty.
func DefaultPage(platformURL string) Page {
	if platformURL == "" {
		platformURL = DefaultPlatformURL
	}

	return Page{
		Heading:  "Multi-Intent HR Agent Dashboard",
		Subtitle: "Real-time Intent Detection & Processing",
		Input:    "I want to apply for leave from next Monday to Wednesday",
		Status:   "Successfully Processed",
		Intents: []string{
			"LeaveRequest",
			"AssetRequest",
			"AddressUpdate",
			"ExpenseReimbursement",
		},
		Steps: []Step{
			{Icon: "1", Name: "START", Detail: "Agent initialized"},
			{Icon: "2", Name: "ExtractIntents", Detail: "AI analyzed user prompt"},
			{Icon: "3", Name: "ValidateWithHuman", Detail: "Intents found, proceeding"},
			{Icon: "4", Name: "RouteIntents", Detail: "Processed 4 intents"},
			{Icon: "OK", Name: "END", Detail: "Execution completed successfully"},
		},
		Links: []Link{
			{Title: "Orchestrator Dashboard", Description: "View your tenant overview and services", URL: platformURL + "/orchestrator_/"},
			{Title: "Jobs & Processes", Description: "Monitor running and completed jobs", URL: platformURL + "/orchestrator_/jobs"},
			{Title: "Action Center", Description: "Human validation tasks", URL: platformURL + "/portal_/actioncenter"},
			{Title: "Packages", Description: "Manage agent packages", URL: platformURL + "/orchestrator_/packages"},
		},
		Actions: []Action{
			{Label: "Dispatch the agent job:", Command: "go run ./cmd/dispatch -input input.json"},
			{Label: "Classify a request locally:", Command: `go run ./cmd/intents -text "I need a new laptop"`},
		},
	}
}

// Dashboard renders a Page.
type Dashboard struct {
	templates *web.TemplateSet
	page      Page
}

// New parses the embedded templates for page.
func New(page Page) (*Dashboard, error) {
	ts, err := web.NewTemplateSet(templateFS, "templates/layouts/*.html", "templates/views", "", []web.ViewDef{view})
	if err != nil {
		return nil, fmt.Errorf("parse dashboard templates: %w", err)
	}
	return &Dashboard{templates: ts, page: page}, nil
}

// Render writes the dashboard HTML to w.
func (d *Dashboard) Render(w io.Writer) error {
	return d.templates.Render(w, layout, view.Template, d.templates.Data(view, d.page))
}

// Bytes returns the rendered dashboard.
func (d *Dashboard) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders the dashboard to path, creating parent directories.
func (d *Dashboard) Write(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dashboard dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write dashboard: %w", err)
	}
	return nil
}

// Handler serves FileName from dir at /dashboard.html. Every other path
// redirects to the dashboard.
func Handler(dir string) http.Handler {
	r := web.NewRouter()
	for _, route := range web.PublicFileRoutes(os.DirFS(dir), FileName) {
		r.HandleFunc(route.Method+" "+route.Pattern, route.Handler)
	}
	r.SetFallback(web.Redirect(view.Route))
	return r
}
