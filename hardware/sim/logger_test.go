package sim

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arribada/horizon-core/logentry"
)

func TestFileLogWriteReadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.log")
	l := NewFileLog(path, nil)
	require.NoError(t, l.Create())

	n, err := l.NumEntries()
	require.NoError(t, err)
	assert.Zero(t, n)

	h := logentry.Header{Type: logentry.TypeInfo}
	entry := logentry.Encode(h, []byte("boot"))
	require.NoError(t, l.Write(entry))

	n, err = l.NumEntries()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := l.Read(0)
	require.NoError(t, err)
	gotHeader, payload := logentry.Decode(got)
	assert.Equal(t, logentry.TypeInfo, gotHeader.Type)
	assert.Equal(t, byte('b'), payload[0])
}

func TestFileLogTruncateClearsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.log")
	l := NewFileLog(path, nil)
	require.NoError(t, l.Write(logentry.Encode(logentry.Header{}, nil)))

	require.NoError(t, l.Truncate())

	n, err := l.NumEntries()
	require.NoError(t, err)
	assert.Zero(t, n)
}
