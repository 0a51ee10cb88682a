package device

import (
	"embed"
	"html/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var frameTemplate = template.Must(template.ParseFS(templateFS, "templates/frame.html.tmpl"))
