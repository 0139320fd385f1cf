package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_WritesToRotatedFile(t *testing.T) {
	dir := t.TempDir()

	log, err := New(dir, false)
	require.NoError(t, err)

	log.Info("booking admitted")
	_ = log.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "studio-booking.log"))
	require.NoError(t, err)
	require.Contains(t, string(data), "booking admitted")
}

func TestNew_StdoutOnly(t *testing.T) {
	log, err := New("", true)
	require.NoError(t, err)
	require.NotNil(t, log)
}
