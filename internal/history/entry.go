package history

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies what a clipboard entry holds.
type Kind string

const (
	KindText  Kind = "text"
	KindURL   Kind = "url"
	KindFile  Kind = "file"
	KindImage Kind = "image" // Data is a reference to a stored image, not the pixels
)

// ParseKind converts a string to a Kind. Aliases accepted by the CLI
// ("path", "img") map onto the canonical kinds.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "txt":
		return KindText, nil
	case "url", "link":
		return KindURL, nil
	case "file", "path":
		return KindFile, nil
	case "image", "img":
		return KindImage, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindURL, KindFile, KindImage:
		return true
	}
	return false
}

// Content is the payload of an entry: a kind tag plus its data.
type Content struct {
	Kind Kind   `json:"kind"`
	Data string `json:"data"`
}

// Text returns a text Content.
func Text(s string) Content { return Content{Kind: KindText, Data: s} }

// URL returns a url Content.
func URL(s string) Content { return Content{Kind: KindURL, Data: s} }

// File returns a file-path Content.
func File(path string) Content { return Content{Kind: KindFile, Data: path} }

// ImageRef returns an image Content pointing at ref.
func ImageRef(ref string) Content { return Content{Kind: KindImage, Data: ref} }

// Entry is one captured clipboard item.
type Entry struct {
	ID          int64     `json:"id"`
	Content     Content   `json:"content"`
	CapturedAt  time.Time `json:"captured_at"`
	Favorite    bool      `json:"favorite"`
	FavoriteSeq int64     `json:"favorite_seq,omitempty"`
}

// Preview returns the entry data shortened to max runes, with "..." appended
// when it was cut. Image entries render as "Image".
func (e Entry) Preview(max int) string {
	if e.Content.Kind == KindImage {
		return "Image"
	}
	s := strings.ReplaceAll(e.Content.Data, "\n", " ")
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
