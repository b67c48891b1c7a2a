// Package render draws the catalog pages with html/template.
//
// Every page template is parsed together with layout.tmpl and the shared
// partials, so pages only define "title" and "content".
package render

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/xenking/instrument-catalog/internal/view"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page names.
const (
	PageProduct  = "product"
	PageNotFound = "not_found"
	PageCatalog  = "catalog"
	PageCompare  = "compare"
)

var pageNames = []string{PageProduct, PageNotFound, PageCatalog, PageCompare}

// shared are parsed into every page and the fragment set.
var shared = []string{"templates/layout.tmpl", "templates/details.tmpl"}

// ProductPage is the data of the product page.
type ProductPage struct {
	view.Plan
}

// CatalogPage is the data of the listing page.
type CatalogPage struct {
	Cards []view.Card
}

// ComparePage is the data of the comparison page.
type ComparePage struct {
	Cards []view.Card
}

// toggle is the data of the "compare_toggle" partial.
type toggle struct {
	ID     string
	Button view.CompareButton
	Return string
}

func newToggle(id string, b view.CompareButton, ret string) toggle {
	return toggle{ID: id, Button: b, Return: ret}
}

// Renderer executes the embedded templates.
type Renderer struct {
	pages    map[string]*template.Template
	fragment *template.Template
	md       goldmark.Markdown
	policy   *bluemonday.Policy
}

// New parses all templates.
func New() (*Renderer, error) {
	r := &Renderer{
		pages: make(map[string]*template.Template, len(pageNames)),
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		policy: markdownPolicy(),
	}
	funcs := template.FuncMap{
		"markdown": r.Markdown,
		"toggle":   newToggle,
	}

	base, err := template.New("base").Funcs(funcs).ParseFS(templateFS, shared...)
	if err != nil {
		return nil, errors.Wrap(err, "parse shared templates")
	}
	r.fragment = base

	for _, name := range pageNames {
		t, err := base.Clone()
		if err != nil {
			return nil, errors.Wrapf(err, "clone for %s", name)
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name+".tmpl"); err != nil {
			return nil, errors.Wrapf(err, "parse %s", name)
		}
		r.pages[name] = t
	}
	return r, nil
}

func markdownPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Markdown renders src as sanitized HTML.
func (r *Renderer) Markdown(src string) template.HTML {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes()))
}

// Page renders a full page into w. Output is buffered so that a template
// error never leaves a half-written page.
func (r *Renderer) Page(w io.Writer, name string, data any) error {
	t, ok := r.pages[name]
	if !ok {
		return errors.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return errors.Wrapf(err, "execute %s", name)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Details renders the details fragment of a product page.
func (r *Renderer) Details(w io.Writer, p view.Plan) error {
	var buf bytes.Buffer
	if err := r.fragment.ExecuteTemplate(&buf, "details", p); err != nil {
		return errors.Wrap(err, "execute details")
	}
	_, err := buf.WriteTo(w)
	return err
}

// Static serves the embedded assets. Mount it under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServerFS(sub))
}
