package domain

import (
	"strings"
	"time"
)

// ContentType distinguishes uploaded files from text snippets.
type ContentType string

const (
	ContentFile ContentType = "file"
	ContentText ContentType = "text"
)

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool {
	return t == ContentFile || t == ContentText
}

// Content is a single item stored in the vault.
type Content struct {
	ID           string      `json:"id"`
	ContentType  ContentType `json:"content_type"`
	Title        string      `json:"title,omitempty"`
	Tags         []string    `json:"tags,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	TextContent  string      `json:"text_content,omitempty"`
	Filename     string      `json:"filename,omitempty"`
	OriginalName string      `json:"original_name,omitempty"`
	Bucket       string      `json:"bucket,omitempty"`
	FileSize     int64       `json:"file_size,omitempty"`
	MimeType     string      `json:"mime_type,omitempty"`
	DownloadURL  string      `json:"download_url,omitempty"`
}

// IsFile reports whether the item carries a downloadable file.
func (c Content) IsFile() bool {
	return c.ContentType == ContentFile
}

// DisplayName is the label shown in lists: title, then original file name, then a text preview.
func (c Content) DisplayName() string {
	if c.Title != "" {
		return c.Title
	}
	if c.OriginalName != "" {
		return c.OriginalName
	}
	return strings.Join(strings.Fields(c.TextContent), " ")
}

// ContentList is the paginated response of /content/list.
type ContentList struct {
	Contents   []Content `json:"contents"`
	TotalCount int       `json:"total_count"`
}

// ContentStats summarizes a user's vault.
type ContentStats struct {
	TotalContent    int     `json:"total_content"`
	TextContent     int     `json:"text_content"`
	FileContent     int     `json:"file_content"`
	TotalFileSizeMB float64 `json:"total_file_size_mb"`
	UserPhone       string  `json:"user_phone"`
}
