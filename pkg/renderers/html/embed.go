package html

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tmpl templates/partials/*.tmpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the embedded template bundle so callers can start from
// the built-in pages when overriding them.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}
