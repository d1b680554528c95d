package history

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"text", KindText},
		{"URL", KindURL},
		{" path ", KindFile},
		{"img", KindImage},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseKind("video")
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestPreview(t *testing.T) {
	long := strings.Repeat("é", 200)
	tests := []struct {
		name  string
		entry Entry
		max   int
		want  string
	}{
		{"short text unchanged", Entry{Content: Text("hi")}, 180, "hi"},
		{"newlines flattened", Entry{Content: Text("a\nb")}, 180, "a b"},
		{"long text cut on runes", Entry{Content: Text(long)}, 180, strings.Repeat("é", 180) + "..."},
		{"no limit", Entry{Content: Text(long)}, 0, long},
		{"image", Entry{Content: ImageRef("/tmp/x.png")}, 180, "Image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.Preview(tt.max))
		})
	}
}
