package browse

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"

	"github.com/abiosoft/mold"
	"github.com/russross/blackfriday/v2"
)

var (
	//go:embed templates/*
	templateFS embed.FS

	// TemplateFuncMap contains the functions available to every page
	TemplateFuncMap = template.FuncMap{
		"markdown": func(text string) template.HTML {
			return template.HTML(blackfriday.Run([]byte(text)))
		},
	}

	templateManager = mustTemplateManager(templateFS)
)

// TemplateManager renders the pages under templates/pages inside the shared
// layout of templates/layouts.
type TemplateManager struct {
	engine mold.Engine
}

// NewTemplateManager parses every page of fsys, which must hold a templates
// directory.
func NewTemplateManager(fsys fs.FS, funcMap template.FuncMap) (*TemplateManager, error) {
	engine, err := mold.New(fsys, mold.With(
		mold.WithRoot("templates"),
		mold.WithLayout("layouts/layout.html"),
		mold.WithFuncMap(funcMap),
	))
	if err != nil {
		return nil, fmt.Errorf("while loading templates: %w", err)
	}
	return &TemplateManager{engine: engine}, nil
}

func mustTemplateManager(fsys fs.FS) *TemplateManager {
	tm, err := NewTemplateManager(fsys, TemplateFuncMap)
	if err != nil {
		panic(err)
	}
	return tm
}

// Render renders pages/<page> with data.
func (tm *TemplateManager) Render(w io.Writer, page string, data any) error {
	return tm.engine.Render(w, "pages/"+page, data)
}

// ListingPage is the data of pages/listing.html.
type ListingPage struct {
	Title string
	// Parent links one level up; empty at the bucket root.
	Parent  string
	Content string
}

// ErrorPage is the data of pages/error.html.
type ErrorPage struct {
	Title string
	Error string
}

// markdownText escapes s so markdown renders it as literal text.
func markdownText(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune("\\`*_{}[]()#+-.!:|&<>~", r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
