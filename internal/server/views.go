package server

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strconv"
	"strings"
	"time"

	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

//go:embed views/*.html views/partials/*.html
var viewFS embed.FS

// Views renders the embedded html/template pages for fiber.
// Every page is parsed together with the layout and the partials.
type Views struct {
	funcs template.FuncMap
	pages map[string]*template.Template
}

var _ fiber.Views = (*Views)(nil)

func NewViews() *Views {
	return &Views{
		funcs: template.FuncMap{
			"pageURL": pageURL,
			"thumb":   thumbURL,
			"media":   mediaURL,
			"date":    formatDate,
			"field":   fieldError,
			"initial": initial,
		},
	}
}

// Load parses the layout, the partials and every page.
func (v *Views) Load() error {
	partials, err := fs.Glob(viewFS, "views/partials/*.html")
	if err != nil {
		return err
	}
	files, err := fs.Glob(viewFS, "views/*.html")
	if err != nil {
		return err
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".html")
		if name == "layout" {
			continue
		}
		patterns := append([]string{"views/layout.html"}, partials...)
		patterns = append(patterns, file)
		t, err := template.New(name).Funcs(v.funcs).ParseFS(viewFS, patterns...)
		if err != nil {
			return fmt.Errorf("parse view %s: %w", name, err)
		}
		pages[name] = t
	}
	v.pages = pages
	return nil
}

// Render executes the layout (or the bare "content" block when no layout is given).
func (v *Views) Render(w io.Writer, name string, binding interface{}, layout ...string) error {
	if v.pages == nil {
		if err := v.Load(); err != nil {
			return err
		}
	}
	t, ok := v.pages[name]
	if !ok {
		return fmt.Errorf("view %q not found", name)
	}
	entry := "content"
	if len(layout) > 0 && layout[0] != "" {
		entry = layout[0]
	}
	return t.ExecuteTemplate(w, entry, binding)
}

func pageURL(n int) string {
	return "?page=" + strconv.Itoa(n)
}

func mediaURL(rel string) string {
	return "/media/" + rel
}

func thumbURL(rel string) string {
	return mediaURL(service.ThumbnailPath(rel))
}

func formatDate(t time.Time) string {
	return t.Format("2 January 2006 15:04")
}

func fieldError(errs map[string]string, name string) string {
	return errs[name]
}

func initial(name string) string {
	for _, r := range name {
		return strings.ToUpper(string(r))
	}
	return ""
}
