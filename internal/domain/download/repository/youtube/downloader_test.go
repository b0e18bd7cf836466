package youtube

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/Conte777/ClipFlow/pkg/errors"
)

func TestVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch with extra params", "https://youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short link with query", "https://youtu.be/dQw4w9WgXcQ?si=abc", "dQw4w9WgXcQ"},
		{"shorts", "https://www.youtube.com/shorts/AbCdEf12345", "AbCdEf12345"},
		{"shorts with query", "https://youtube.com/shorts/AbCdEf12345?feature=share", "AbCdEf12345"},
		{"shorts trailing slash", "https://youtube.com/shorts/AbCdEf12345/", "AbCdEf12345"},
		{"embed", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"legacy v path", "https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"home page", "https://www.youtube.com/", ""},
		{"watch without v", "https://www.youtube.com/watch", ""},
		{"unrelated host", "https://example.com/watch?v=dQw4w9WgXcQ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VideoID(tt.url))
		})
	}
}

func testDownloader(maxUpload int64) *Downloader {
	return &Downloader{
		maxUpload: maxUpload,
		logger:    zerolog.Nop(),
	}
}

func progressiveFormat(itag, height int, label string) format {
	return format{
		Itag:         itag,
		URL:          "https://video.example/" + label,
		MimeType:     `video/mp4; codecs="avc1.42001E, mp4a.40.2"`,
		Height:       height,
		Width:        height * 16 / 9,
		QualityLabel: label,
		AudioQuality: "AUDIO_QUALITY_MEDIUM",
	}
}

func videoOnlyFormat(itag, height int, label string, size int64) format {
	f := format{
		Itag:         itag,
		URL:          "https://video.example/only-" + label,
		MimeType:     `video/mp4; codecs="avc1.640028"`,
		Height:       height,
		Width:        height * 16 / 9,
		QualityLabel: label,
	}
	if size > 0 {
		f.ContentLength = strconv.FormatInt(size, 10)
	}
	return f
}

func TestBuildStreamOptions_DedupAndOrder(t *testing.T) {
	d := testDownloader(50 * 1024 * 1024)

	formats := []format{
		progressiveFormat(18, 360, "360p"),
		progressiveFormat(22, 720, "720p"),
		progressiveFormat(59, 480, "480p"),
		// duplicate resolution, later entry must be dropped
		progressiveFormat(99, 720, "720p"),
	}

	options := d.buildStreamOptions(formats, nil)

	require.Len(t, options, 3)
	for _, opt := range options {
		if opt.Resolution == "720p" {
			assert.Equal(t, 22, opt.Itag, "first-seen 720p entry must win")
		}
	}
}

func TestBuildStreamOptions_LabelsCarrySize(t *testing.T) {
	d := testDownloader(50 * 1024 * 1024)

	f := progressiveFormat(22, 720, "720p")
	f.ContentLength = "15728640" // 15 MB

	options := d.buildStreamOptions([]format{f}, nil)

	require.Len(t, options, 1)
	opt, ok := options["720p (15.00 MB)"]
	require.True(t, ok, "label must include resolution and size")
	assert.Equal(t, 22, opt.Itag)
	assert.Equal(t, int64(15728640), opt.Size)
}

func TestBuildStreamOptions_VideoOnlyFallback(t *testing.T) {
	d := testDownloader(50 * 1024 * 1024)

	adaptive := []format{
		videoOnlyFormat(137, 1080, "1080p", 30*1024*1024),
		videoOnlyFormat(136, 720, "720p", 20*1024*1024),
		videoOnlyFormat(135, 480, "480p", 10*1024*1024),
		videoOnlyFormat(134, 360, "360p", 5*1024*1024),
		// over the ceiling, must be skipped
		videoOnlyFormat(138, 2160, "2160p", 200*1024*1024),
		// no reported size, must be skipped
		videoOnlyFormat(133, 240, "240p", 0),
	}

	options := d.buildStreamOptions(nil, adaptive)

	require.Len(t, options, maxVideoOnlyOptions)
	for label := range options {
		assert.Contains(t, label, "muxed")
		assert.NotContains(t, label, "2160p")
		assert.NotContains(t, label, "240p")
	}
}

func TestBuildStreamOptions_ProgressivePreferredOverVideoOnly(t *testing.T) {
	d := testDownloader(50 * 1024 * 1024)

	formats := []format{progressiveFormat(18, 360, "360p")}
	adaptive := []format{videoOnlyFormat(137, 1080, "1080p", 10*1024*1024)}

	options := d.buildStreamOptions(formats, adaptive)

	require.Len(t, options, 1)
	for _, opt := range options {
		assert.Equal(t, 18, opt.Itag)
	}
}

func TestBestProgressive(t *testing.T) {
	ceiling := int64(50 * 1024 * 1024)

	t.Run("highest resolution under ceiling wins", func(t *testing.T) {
		big := progressiveFormat(22, 720, "720p")
		big.ContentLength = "104857600" // 100 MB, over ceiling
		small := progressiveFormat(18, 360, "360p")
		small.ContentLength = "5242880"

		best, ok := bestProgressive([]format{small, big}, ceiling)
		require.True(t, ok)
		assert.Equal(t, 18, best.Itag)
	})

	t.Run("unknown size is acceptable", func(t *testing.T) {
		f := progressiveFormat(22, 720, "720p")
		best, ok := bestProgressive([]format{f}, ceiling)
		require.True(t, ok)
		assert.Equal(t, 22, best.Itag)
	})

	t.Run("no progressive renditions", func(t *testing.T) {
		_, ok := bestProgressive([]format{videoOnlyFormat(137, 1080, "1080p", 1024)}, ceiling)
		assert.False(t, ok)
	})
}

func TestDownloadToFile_RejectsOversizedBody(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.Write(payload)
	}))
	defer srv.Close()

	d := testDownloader(1024)
	d.http = srv.Client()

	_, err := d.downloadToFile(context.Background(), srv.URL, ".mp4")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsTooLarge(err))
}

func TestFindByItag(t *testing.T) {
	resp := &playerResponse{}
	resp.StreamingData.Formats = []format{progressiveFormat(18, 360, "360p")}
	resp.StreamingData.AdaptiveFormats = []format{videoOnlyFormat(137, 1080, "1080p", 1024)}

	t.Run("progressive", func(t *testing.T) {
		f, ok := findByItag(resp, 18)
		require.True(t, ok)
		assert.Equal(t, 360, f.Height)
	})

	t.Run("adaptive", func(t *testing.T) {
		f, ok := findByItag(resp, 137)
		require.True(t, ok)
		assert.Equal(t, 1080, f.Height)
	})

	t.Run("missing", func(t *testing.T) {
		_, ok := findByItag(resp, 251)
		assert.False(t, ok)
	})
}
