package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"matatu_manager/internal/reports"
)

//go:embed templates/*.html
var templateFS embed.FS

type HTML struct {
	company string
	tmpl    *template.Template
}

func NewHTML(company string) (*HTML, error) {
	tmpl, err := template.New("reports").Funcs(template.FuncMap{
		"money":   money,
		"percent": percent,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &HTML{company: company, tmpl: tmpl}, nil
}

func (h *HTML) ContentType() string { return "text/html; charset=utf-8" }

func (h *HTML) Extension() string { return "html" }

func (h *HTML) Render(name string, rc reports.ReportContext) ([]byte, error) {
	if _, ok := layouts[name]; !ok || h.tmpl.Lookup(name) == nil {
		return nil, fmt.Errorf("unknown report template %q", name)
	}
	var buf bytes.Buffer
	err := h.tmpl.ExecuteTemplate(&buf, name, struct {
		Company string
		reports.ReportContext
	}{h.company, rc})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
