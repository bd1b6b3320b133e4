package report

import (
	"embed"
	"html/template"
	"strings"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var htmlReport = template.Must(template.New("report.html.tmpl").Funcs(template.FuncMap{
	"join":  strings.Join,
	"lower": strings.ToLower,
}).ParseFS(templateFS, "templates/report.html.tmpl"))
