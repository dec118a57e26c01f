package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"sync"

	"alfredoptarigan/cv-analyzer-web/internal/services"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"intake", "results"}

// Page is the binding every template renders from.
type Page struct {
	Title         string
	Identity      services.Identity
	Intake        services.IntakeState
	Dashboard     *services.Dashboard
	MaxFileSizeMB int64
}

// AuthLinks point at the hosted pages of the auth provider. Empty links are
// not rendered.
type AuthLinks struct {
	SignIn string
	SignUp string
}

// Engine renders the embedded templates. It satisfies fiber.Views.
type Engine struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
	links     AuthLinks
}

func NewEngine(links AuthLinks) *Engine {
	return &Engine{
		templates: make(map[string]*template.Template),
		links:     links,
	}
}

// Load parses every page together with the shared layout and header.
func (e *Engine) Load() error {
	parsed := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		tmpl, err := template.New(name).Funcs(e.funcMap()).ParseFS(templateFS,
			"templates/layout.html",
			"templates/header.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		parsed[name] = tmpl
	}

	e.mu.Lock()
	e.templates = parsed
	e.mu.Unlock()
	return nil
}

func (e *Engine) Render(out io.Writer, name string, binding interface{}, _ ...string) error {
	e.mu.RLock()
	tmpl, ok := e.templates[name]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	return tmpl.ExecuteTemplate(out, "layout", binding)
}

func (e *Engine) funcMap() template.FuncMap {
	return template.FuncMap{
		"signInURL": func() string { return e.links.SignIn },
		"signUpURL": func() string { return e.links.SignUp },
		"bandText": func(band services.Band) string {
			switch band {
			case services.BandGood:
				return "text-green-600"
			case services.BandWarn:
				return "text-yellow-600"
			default:
				return "text-red-600"
			}
		},
		"bandBg": func(band services.Band) string {
			switch band {
			case services.BandGood:
				return "bg-green-100"
			case services.BandWarn:
				return "bg-yellow-100"
			default:
				return "bg-red-100"
			}
		},
		"megabytes": func(size float64) string {
			return fmt.Sprintf("%.2f MB", size)
		},
		"filesize": func(size int64) string {
			return fmt.Sprintf("%.2f MB", float64(size)/1024/1024)
		},
		"accept": func() string {
			return strings.Join([]string{
				".pdf", ".docx", ".doc",
				services.MIMETypePDF, services.MIMETypeDOCX, services.MIMETypeDOC,
			}, ",")
		},
	}
}
