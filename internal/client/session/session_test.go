package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nested", ".gophauth"))

	tok, err := s.Load()
	require.NoError(t, err)
	require.Empty(t, tok)

	require.NoError(t, s.Save("abc.def.ghi"))
	tok, err = s.Load()
	require.NoError(t, err)
	require.Equal(t, "abc.def.ghi", tok)

	require.NoError(t, s.Clear())
	tok, err = s.Load()
	require.NoError(t, err)
	require.Empty(t, tok)

	require.NoError(t, s.Clear(), "clearing twice is fine")
}
