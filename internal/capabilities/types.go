package capabilities

// DocumentType selects which editor the document server opens
type DocumentType string

const (
	DocumentTypeWord  DocumentType = "word"
	DocumentTypeCell  DocumentType = "cell"
	DocumentTypeSlide DocumentType = "slide"
)

// Format describes how one file extension is handled by the editor
type Format struct {
	// Extension the format is registered under (set during loading)
	Extension string `yaml:"-" json:"extension"`

	FileType     string       `yaml:"file_type" json:"file_type"`
	DocumentType DocumentType `yaml:"document_type" json:"document_type"`
	Editable     bool         `yaml:"editable" json:"editable"`
	MimeTypes    []string     `yaml:"mime_types" json:"mime_types"`
}

// formatsFile is the YAML layout of config/formats.yaml
type formatsFile struct {
	Default string             `yaml:"default"`
	Formats map[string]*Format `yaml:"formats"`
}
