package domain

import (
	"strings"
	"unicode/utf8"
)

// MaxTextLength bounds extracted text handed to scorers.
const MaxTextLength = 3000

// Marker strings carry extraction failures through the pipeline as ordinary text.
const (
	MarkerPrefix          = "Error"
	MarkerNoInput         = "No valid input provided."
	MarkerUnsupportedFile = "Unsupported file format."
	markerFetchPrefix     = "Error fetching article: "
)

// FileFormat tags an uploaded document.
type FileFormat string

const (
	FormatPDF  FileFormat = "pdf"
	FormatDOCX FileFormat = "docx"
)

// ArticleInput is the request payload; at most one field is populated.
type ArticleInput struct {
	URL      string     `json:"url,omitempty"`
	RawText  string     `json:"raw_text,omitempty"`
	FilePath string     `json:"file_path,omitempty"`
	Format   FileFormat `json:"format,omitempty"`
}

// InputKind enumerates the variants of ArticleInput.
type InputKind string

const (
	InputNone InputKind = "none"
	InputURL  InputKind = "url"
	InputText InputKind = "text"
	InputFile InputKind = "file"
)

// Kind resolves the populated variant. URL wins over text, text over file.
func (in ArticleInput) Kind() InputKind {
	switch {
	case strings.TrimSpace(in.URL) != "":
		return InputURL
	case in.RawText != "":
		return InputText
	case strings.TrimSpace(in.FilePath) != "":
		return InputFile
	default:
		return InputNone
	}
}

// SourceURL returns the URL used for domain reputation, empty for non-URL input.
func (in ArticleInput) SourceURL() string {
	if in.Kind() != InputURL {
		return ""
	}
	return strings.TrimSpace(in.URL)
}

// FormatFromPath guesses the document format from a file extension.
func FormatFromPath(path string) FileFormat {
	lower := strings.ToLower(path)
	idx := strings.LastIndex(lower, ".")
	if idx < 0 {
		return ""
	}
	return FileFormat(lower[idx+1:])
}

// IsMarker reports whether text is an extraction marker rather than content.
func IsMarker(text string) bool {
	return strings.HasPrefix(text, MarkerPrefix) || text == MarkerNoInput || text == MarkerUnsupportedFile
}

// IsBlank reports whether text is empty or a marker; scorers treat both as no content.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == "" || IsMarker(text)
}

// FetchFailure builds the marker for a failed URL fetch.
func FetchFailure(cause error) string {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return Truncate(markerFetchPrefix+msg, MaxTextLength)
}

// ExtractionFailure builds the marker for a parsed file with no text.
func ExtractionFailure(format FileFormat) string {
	return "Error: Could not extract text from " + strings.ToUpper(string(format)) + "."
}

// Truncate cuts text to at most limit characters.
func Truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit])
}
