package server

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/abhisek/picwrite/internal/pipeline"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// pageData feeds templates/index.html.
type pageData struct {
	ImageURL  string
	Paragraph string
	Model     string
	Models    []pipeline.Model
	Result    string
	Error     string
}

func newPageData() pageData {
	return pageData{
		Model:  pipeline.KnownModels[0].ID,
		Models: pipeline.KnownModels,
	}
}

func renderPage(data pageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
