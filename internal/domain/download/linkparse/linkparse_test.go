package linkparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conte777/ClipFlow/internal/domain/download/entities"
)

func TestClassifyYouTubeWatch(t *testing.T) {
	link, ok := Classify("check this out https://youtube.com/watch?v=abc123 nice")
	require.True(t, ok)

	assert.Equal(t, entities.PlatformYouTube, link.Platform)
	assert.Equal(t, entities.KindReelOrVideo, link.Kind)
	assert.Equal(t, "https://youtube.com/watch?v=abc123", link.RawURL)
}

func TestClassifyInstagramReel(t *testing.T) {
	link, ok := Classify("https://www.instagram.com/reel/XYZ789/")
	require.True(t, ok)

	assert.Equal(t, entities.PlatformInstagram, link.Platform)
	assert.Equal(t, entities.KindReelOrVideo, link.Kind)
}

func TestClassifyInstagramPost(t *testing.T) {
	link, ok := Classify("look at https://instagram.com/p/Cabc-123/")
	require.True(t, ok)

	assert.Equal(t, entities.PlatformInstagram, link.Platform)
	assert.Equal(t, entities.KindPost, link.Kind)
}

func TestClassifyInstagramStory(t *testing.T) {
	link, ok := Classify("https://www.instagram.com/stories/someuser/3141592653589/")
	require.True(t, ok)

	assert.Equal(t, entities.PlatformInstagram, link.Platform)
	assert.Equal(t, entities.KindPost, link.Kind)
}

func TestClassifyShorts(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"plain", "https://youtube.com/shorts/dQw4w9WgXcQ"},
		{"with query", "https://www.youtube.com/shorts/dQw4w9WgXcQ?feature=share"},
		{"trailing segment", "https://youtube.com/shorts/dQw4w9WgXcQ/extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, ok := Classify(tt.text)
			require.True(t, ok)
			assert.Equal(t, entities.PlatformYouTube, link.Platform)
			assert.Equal(t, entities.KindShortForm, link.Kind)
		})
	}
}

func TestClassifyShortenedYouTube(t *testing.T) {
	link, ok := Classify("https://youtu.be/abc_DEF-12")
	require.True(t, ok)

	assert.Equal(t, entities.PlatformYouTube, link.Platform)
	assert.Equal(t, entities.KindReelOrVideo, link.Kind)
}

func TestClassifyBareDomainPatterns(t *testing.T) {
	link, ok := Classify("saw this on instagram.com/reel/Xk2jf9A cool right")
	require.True(t, ok)
	assert.Equal(t, entities.PlatformInstagram, link.Platform)
	assert.Equal(t, entities.KindReelOrVideo, link.Kind)
	assert.Equal(t, "https://instagram.com/reel/Xk2jf9A", link.RawURL)

	link, ok = Classify("youtu.be/xyz987")
	require.True(t, ok)
	assert.Equal(t, entities.PlatformYouTube, link.Platform)
}

func TestClassifyFirstClassifiableWins(t *testing.T) {
	link, ok := Classify("https://example.com/watch https://youtube.com/watch?v=keeper")
	require.True(t, ok)

	assert.Equal(t, "https://youtube.com/watch?v=keeper", link.RawURL)
}

func TestClassifyRejects(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no url at all", "hello there"},
		{"unsupported host", "https://vimeo.com/12345"},
		{"youtube home page", "https://www.youtube.com/"},
		{"instagram home page", "https://instagram.com"},
		{"instagram profile", "https://instagram.com/someuser"},
		{"watch without id", "https://youtube.com/watch"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Classify(tt.text)
			assert.False(t, ok)
		})
	}
}
