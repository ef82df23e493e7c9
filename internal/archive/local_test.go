package archive

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalPutWritesUnderBase(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	l, err := NewLocal(base)
	require.NoError(t, err)

	uri, err := l.Put(context.Background(), "pages/melon/top_100.html", "text/html", []byte("<html>chart</html>"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "file://"))

	data, err := os.ReadFile(filepath.Join(base, "pages", "melon", "top_100.html"))
	require.NoError(t, err)
	require.Equal(t, []byte("<html>chart</html>"), data)
}

func TestLocalPutRejectsEscapingPath(t *testing.T) {
	t.Parallel()

	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = l.Put(context.Background(), "../outside.html", "text/html", []byte("x"))
	require.Error(t, err)

	_, err = l.Put(context.Background(), "   ", "text/html", []byte("x"))
	require.Error(t, err)
}

func TestNewLocalRequiresBaseDir(t *testing.T) {
	t.Parallel()

	_, err := NewLocal("")
	require.Error(t, err)
}
