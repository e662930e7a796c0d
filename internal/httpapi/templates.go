package httpapi

import (
	_ "embed"
	"html/template"
)

//go:embed templates/inbox.tmpl
var inboxTemplateHTML string

var inboxTemplate = template.Must(template.New("inbox").Parse(inboxTemplateHTML))
