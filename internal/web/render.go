package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"

	"github.com/soyeahso/agentgallery/internal/detail"
	"github.com/soyeahso/agentgallery/internal/domain"
)

//go:embed templates/*
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// renderer executes the base layout with one page template parsed into a
// clone, so each page can define its own "content" block.
//
// Partials used on their own (live channel updates) come from a separate
// set, since an executed html/template can no longer be cloned.
type renderer struct {
	baseTemplate *template.Template
	partials     *template.Template
	templatesFS  fs.FS
}

func newRenderer() *renderer {
	base := template.Must(template.New("").
		Funcs(templateFuncs()).
		ParseFS(templatesFS, "templates/base.html", "templates/partials.html"))
	partials := template.Must(template.New("").
		Funcs(templateFuncs()).
		ParseFS(templatesFS, "templates/partials.html"))
	return &renderer{baseTemplate: base, partials: partials, templatesFS: templatesFS}
}

// PageData is passed to every page.
type PageData struct {
	Title  string
	Search string
	Data   any
}

// render writes a full page with the given status.
func (r *renderer) render(w http.ResponseWriter, status int, name string, page PageData) error {
	tmpl, err := r.baseTemplate.Clone()
	if err != nil {
		return fmt.Errorf("clone template: %w", err)
	}
	if _, err := tmpl.ParseFS(r.templatesFS, "templates/"+name); err != nil {
		return fmt.Errorf("parse page template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", page); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

// fragment executes a named partial.
func (r *renderer) fragment(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.partials.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("execute fragment %s: %w", name, err)
	}
	return buf.String(), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"marketCap":  displayOrEmpty(domain.DisplayMarketCap),
		"volume":     displayOrEmpty(domain.DisplayVolume),
		"price":      displayOrEmpty(domain.DisplayPrice),
		"agentURL":   agentURL,
		"galleryURL": detail.GalleryURL,
		"card":       newCardView,
	}
}

// cardView is the data of one card partial.
type cardView struct {
	Agent  domain.Agent
	Search string
}

func newCardView(search string, a domain.Agent) cardView {
	return cardView{Agent: a, Search: search}
}

func displayOrEmpty(fn func(domain.Agent) (string, bool)) func(domain.Agent) string {
	return func(a domain.Agent) string {
		s, _ := fn(a)
		return s
	}
}

// agentURL links a card to its detail page, carrying the active search.
func agentURL(id, search string) string {
	u := "/agent/" + url.PathEscape(id)
	if search != "" {
		u += "?" + url.Values{"search": {search}}.Encode()
	}
	return u
}
