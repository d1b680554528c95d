package clip

import (
	"net/url"
	"strings"

	"go.klb.dev/qlip/internal/history"
)

// Classify decides the kind of a captured text: http(s) links become URLs,
// file:// URIs and absolute paths become file paths, anything else is text.
func Classify(text string) history.Content {
	s := strings.TrimSpace(text)
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return history.URL(s)
	case strings.HasPrefix(lower, "file://"):
		if p := localPath(s); p != "" {
			return history.File(p)
		}
	case strings.HasPrefix(s, "/") && !strings.Contains(s, "\n"):
		return history.File(s)
	}
	return history.Text(text)
}

// localPath converts a file:// URI to a local path, or "" if it has none.
func localPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Path == "" {
		return ""
	}
	if u.Host != "" && u.Host != "localhost" {
		return ""
	}
	return u.Path
}

// Items converts history content back into clipboard items. Image content
// needs its blob bytes, supplied by the caller.
func Items(c history.Content, image []byte) []Item {
	if c.Kind == history.KindImage {
		if len(image) == 0 {
			return nil
		}
		return []Item{{MIME: MIMEPNG, Data: image}}
	}
	return []Item{{MIME: MIMEText, Data: []byte(c.Data)}}
}
