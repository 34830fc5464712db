package html

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tpl templates/components/*.tpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the embedded template bundle so callers can render
// with the built-in markup or overlay their own files on top.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}
