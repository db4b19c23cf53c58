package capabilities

import (
	"embed"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry resolves file names and mime types to editor formats.
// It is immutable after construction.
type Registry struct {
	byExtension map[string]*Format
	byMimeType  map[string]*Format
	fallback    *Format
}

// NewRegistry loads the embedded format table
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/formats.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read formats.yaml: %w", err)
	}
	return parseRegistry(data)
}

func parseRegistry(data []byte) (*Registry, error) {
	var file formatsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal formats.yaml: %w", err)
	}

	r := &Registry{
		byExtension: make(map[string]*Format, len(file.Formats)),
		byMimeType:  make(map[string]*Format),
	}

	for ext, f := range file.Formats {
		switch f.DocumentType {
		case DocumentTypeWord, DocumentTypeCell, DocumentTypeSlide:
		default:
			return nil, fmt.Errorf("format %s: unknown document type %q", ext, f.DocumentType)
		}
		ext = strings.ToLower(ext)
		f.Extension = ext
		r.byExtension[ext] = f
		for _, mt := range f.MimeTypes {
			r.byMimeType[strings.ToLower(mt)] = f
		}
	}

	fallback, ok := r.byExtension[file.Default]
	if !ok {
		return nil, fmt.Errorf("default format %q is not defined", file.Default)
	}
	r.fallback = fallback

	return r, nil
}

// Lookup resolves a format by file extension, then by mime type. Unknown
// files fall back to the default format with ok=false.
func (r *Registry) Lookup(filename, mimeType string) (*Format, bool) {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	if f, ok := r.byExtension[ext]; ok {
		return f, true
	}
	if f, ok := r.byMimeType[strings.ToLower(mimeType)]; ok {
		return f, true
	}
	return r.fallback, false
}

// Extensions lists every registered extension
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExtension))
	for ext := range r.byExtension {
		exts = append(exts, ext)
	}
	return exts
}
