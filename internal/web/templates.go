package web

import (
	"bytes"
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/gateway"
	"github.com/erazemk/lostfound/internal/listing"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/posting"
	webembed "github.com/erazemk/lostfound/web"
)

// CardDateLayout is how item dates appear on cards.
const CardDateLayout = "Jan 2, 2006"

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

var (
	markdown  = goldmark.New()
	sanitizer = bluemonday.UGCPolicy()
)

// renderMarkdown turns a description into sanitized HTML. Descriptions are
// stored as typed.
func renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(sanitizer.SanitizeBytes(buf.Bytes()))
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"markdown": renderMarkdown,
		"formatDate": func(t time.Time) string {
			return t.Format(CardDateLayout)
		},
		"inputDate": func(t time.Time) string {
			return t.Format(model.DateLayout)
		},
		"typeName": func(t model.ItemType) string {
			switch t {
			case model.ItemTypeLost:
				return "Lost"
			case model.ItemTypeFound:
				return "Found"
			default:
				return string(t)
			}
		},
		"tabName": func(tab string) string {
			switch tab {
			case listing.TabOpen:
				return "Open"
			case listing.TabLost:
				return "Lost"
			case listing.TabFound:
				return "Found"
			case listing.TabResolved:
				return "Resolved"
			default:
				return tab
			}
		},
		"emptyMessage": emptyMessage,
		"isOpen": func(item model.Item) bool {
			return item.Status == model.ItemStatusOpen
		},
	}
}

// emptyMessage is shown when a tab has no items.
func emptyMessage(tab string, manage bool) string {
	if manage {
		switch tab {
		case listing.TabResolved:
			return "None of your posts are resolved yet."
		case listing.TabOpen:
			return "You have no open posts."
		default:
			return "You haven't posted any " + tab + " items."
		}
	}
	switch tab {
	case listing.TabResolved:
		return "No items have been resolved yet."
	case listing.TabOpen:
		return "No open items match."
	default:
		return "No " + tab + " items match."
	}
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"home.html",
		"login.html",
		"signup.html",
		"items.html",
		"post.html",
		"confirm_delete.html",
		"settings.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	ts.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a template with a non-default status code.
func (ts *Templates) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	User    *auth.Claims
	Error   string
	Success string
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB        *sql.DB
	Gateway   gateway.Gateway
	Posting   *posting.Workflow
	Templates *Templates
	JWTSecret string
	Media     fs.FS
	MaxUpload int64
}
