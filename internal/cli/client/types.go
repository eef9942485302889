package client

// Item represents a knowledge item from the API.
type Item struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	SourceURL string   `json:"source_url,omitempty"`
	Tags      []string `json:"tags"`
	Summary   string   `json:"summary,omitempty"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// ItemList represents a paginated list of items from the API.
type ItemList struct {
	Items   []Item `json:"items"`
	Cursor  string `json:"cursor,omitempty"`
	HasMore bool   `json:"has_more"`
}

// Source represents a cited knowledge item in an answer.
type Source struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Attachment represents a file attachment from the API.
type Attachment struct {
	ID        string `json:"id"`
	ItemID    string `json:"item_id"`
	Filename  string `json:"filename"`
	MimeType  string `json:"mime_type"`
	SHA256    string `json:"sha256,omitempty"`
	CreatedAt string `json:"created_at"`
}
