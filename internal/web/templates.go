package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates/*
var templateFiles embed.FS

func templateFS() fs.FS {
	sub, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("failed to open embedded templates: " + err.Error())
	}
	return sub
}

// parseTemplate parses a page from the embedded templates.
func parseTemplate(name string) (*template.Template, error) {
	return template.New(name).ParseFS(templateFS(), name)
}
