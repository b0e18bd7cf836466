package transcode

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conte777/ClipFlow/internal/domain/download/storage"
	pkgerrors "github.com/Conte777/ClipFlow/pkg/errors"
)

func newTestStorage(t *testing.T) *storage.Manager {
	t.Helper()

	m, err := storage.NewManager(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return m
}

func TestExtractMissingSourceFails(t *testing.T) {
	st := newTestStorage(t)
	f := NewFFmpeg("ffmpeg", st, zerolog.Nop())

	_, err := f.Extract(context.Background(), st.NewFile(".mp4"))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.KindTranscodeFailed, pkgerrors.KindOf(err))
}

func TestExtractBinaryFailureFails(t *testing.T) {
	st := newTestStorage(t)
	f := NewFFmpeg("definitely-not-a-real-binary", st, zerolog.Nop())

	video := st.NewFile(".mp4")
	require.NoError(t, os.WriteFile(video, []byte("not a real video"), 0o644))

	_, err := f.Extract(context.Background(), video)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.KindTranscodeFailed, pkgerrors.KindOf(err))
}

func TestExtractEmptyOutputFails(t *testing.T) {
	st := newTestStorage(t)
	// "true" exits cleanly but never writes the output file
	f := NewFFmpeg("true", st, zerolog.Nop())

	video := st.NewFile(".mp4")
	require.NoError(t, os.WriteFile(video, []byte("payload"), 0o644))

	_, err := f.Extract(context.Background(), video)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.KindTranscodeFailed, pkgerrors.KindOf(err))
}
