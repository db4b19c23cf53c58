package editor

// Callback statuses reported by the document server
const (
	StatusEditing       = 1
	StatusReadyToSave   = 2
	StatusSaveError     = 3
	StatusClosedNoEdits = 4
	StatusForceSave     = 6
	StatusForceSaveErr  = 7
)

// Mode values for the editor config
const (
	ModeView = "view"
	ModeEdit = "edit"
)

// Config is the payload handed to the browser-side editor
type Config struct {
	Document     DocumentConfig `json:"document"`
	DocumentType string         `json:"documentType"`
	EditorConfig EditorConfig   `json:"editorConfig"`
	Token        string         `json:"token,omitempty"`

	// DocumentServerURL is not part of the signed payload
	DocumentServerURL string `json:"documentServerUrl,omitempty"`
}

// DocumentConfig describes the file being opened
type DocumentConfig struct {
	FileType    string      `json:"fileType"`
	Key         string      `json:"key"`
	Title       string      `json:"title"`
	URL         string      `json:"url"`
	Permissions Permissions `json:"permissions"`
}

// Permissions toggles editor features
type Permissions struct {
	Edit     bool `json:"edit"`
	Download bool `json:"download"`
	Review   bool `json:"review"`
	Comment  bool `json:"comment"`
}

// EditorConfig carries the session-level settings
type EditorConfig struct {
	Mode        string `json:"mode"`
	CallbackURL string `json:"callbackUrl"`
	Lang        string `json:"lang"`
	User        User   `json:"user"`
}

// User identifies the editing principal
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Callback is the body the document server posts back
type Callback struct {
	Key    string   `json:"key"`
	Status int      `json:"status"`
	URL    string   `json:"url,omitempty"`
	Users  []string `json:"users,omitempty"`
	Token  string   `json:"token,omitempty"`
}

// ShouldSave reports whether the callback carries a finished document
func (c *Callback) ShouldSave() bool {
	return c.Status == StatusReadyToSave || c.Status == StatusForceSave
}

// IsClosed reports whether the editing session ended
func (c *Callback) IsClosed() bool {
	return c.Status == StatusEditing || c.Status == StatusClosedNoEdits
}

// CallbackResponse is the reply the document server expects
type CallbackResponse struct {
	Error   int    `json:"error"`
	Message string `json:"message,omitempty"`
}
