package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData - все, что показывает страница workbench.
type PageData struct {
	Session      models.Session
	Controls     models.Controls
	Progress     models.ProgressSnapshot
	Notification *models.Notification
	View         *View
	Comparison   string
	Conversation string
	MaxFiles     int
}

// PageRenderer рисует страницу workbench из встроенного шаблона.
type PageRenderer struct {
	tmpl *template.Template
}

func NewPageRenderer() (*PageRenderer, error) {
	tmpl, err := template.New("page.html").
		Funcs(template.FuncMap{
			// цвет собран из чисел в cell(), экранирование не нужно
			"cssColor": func(c string) template.CSS { return template.CSS(c) },
		}).
		ParseFS(templateFS, "templates/page.html")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return &PageRenderer{tmpl: tmpl}, nil
}

func (r *PageRenderer) Render(w io.Writer, data PageData) error {
	if err := r.tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}
