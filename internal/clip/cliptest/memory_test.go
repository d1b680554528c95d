package cliptest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/qlip/internal/clip"
)

var _ clip.Backend = (*Memory)(nil)

func TestMemory(t *testing.T) {
	m := NewMemory()
	m.Set(clip.Item{MIME: clip.MIMEText, Data: []byte("a")})
	<-m.Watch()

	items, err := m.Read()
	require.NoError(t, err)
	assert.Equal(t, "a", string(items[0].Data))

	require.NoError(t, m.Write([]clip.Item{{MIME: clip.MIMEText, Data: []byte("b")}}))
	<-m.Watch()
	assert.Len(t, m.Writes(), 1)
	items, err = m.Read()
	require.NoError(t, err)
	assert.Equal(t, "b", string(items[0].Data))
}
