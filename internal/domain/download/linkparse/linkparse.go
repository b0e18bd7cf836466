// Package linkparse extracts and classifies platform links from free-form text
package linkparse

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/Conte777/ClipFlow/internal/domain/download/entities"
)

var (
	urlPattern = regexp.MustCompile(`https?://\S+`)

	// Bare domain patterns users paste without a protocol
	barePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:www\.)?instagram\.com/[\w.-]+/(?:p|reel)/[\w-]+`),
		regexp.MustCompile(`(?:www\.)?instagram\.com/(?:p|reel|tv)/[\w-]+`),
		regexp.MustCompile(`(?:www\.)?instagram\.com/stories/[\w.-]+/\d+`),
		regexp.MustCompile(`(?:www\.)?youtube\.com/watch\?v=[\w-]+`),
		regexp.MustCompile(`youtu\.be/[\w-]+`),
		regexp.MustCompile(`(?:www\.)?youtube\.com/shorts/[\w-]+`),
	}

	shortsIDPattern = regexp.MustCompile(`/shorts/([\w-]+)`)

	instagramHosts = map[string]bool{
		"instagram.com": true,
		"instagr.am":    true,
	}
	youtubeHosts = map[string]bool{
		"youtube.com": true,
		"youtu.be":    true,
	}
)

// Classify scans text for a supported platform link.
// When several URLs are present the first classifiable one wins.
// Returns false when no supported link is found.
func Classify(text string) (*entities.ClassifiedLink, bool) {
	for _, candidate := range urlPattern.FindAllString(text, -1) {
		candidate = strings.TrimRight(candidate, ".,!?;:)")
		if link, ok := classifyURL(candidate); ok {
			return link, true
		}
	}

	// No usable URL with a protocol; try bare domain patterns
	for _, pattern := range barePatterns {
		if match := pattern.FindString(text); match != "" {
			if link, ok := classifyURL("https://" + match); ok {
				return link, true
			}
		}
	}

	return nil, false
}

func classifyURL(raw string) (*entities.ClassifiedLink, bool) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")

	switch {
	case instagramHosts[host]:
		return classifyInstagram(raw, parsed)
	case youtubeHosts[host]:
		return classifyYouTube(raw, parsed, host)
	default:
		return nil, false
	}
}

func classifyInstagram(raw string, parsed *url.URL) (*entities.ClassifiedLink, bool) {
	segments := pathSegments(parsed)

	kind := entities.LinkKind("")
	for i, seg := range segments {
		// An identifier segment must follow the marker
		if i+1 >= len(segments) || segments[i+1] == "" {
			continue
		}
		switch seg {
		case "p", "stories":
			kind = entities.KindPost
		case "reel", "reels", "tv":
			kind = entities.KindReelOrVideo
		}
		if kind != "" {
			break
		}
	}

	// Profile pages and the domain root are not download targets
	if kind == "" {
		return nil, false
	}

	return &entities.ClassifiedLink{
		RawURL:   raw,
		Platform: entities.PlatformInstagram,
		Kind:     kind,
	}, true
}

func classifyYouTube(raw string, parsed *url.URL, host string) (*entities.ClassifiedLink, bool) {
	if host == "youtu.be" {
		if len(pathSegments(parsed)) == 0 {
			return nil, false
		}
		return &entities.ClassifiedLink{
			RawURL:   raw,
			Platform: entities.PlatformYouTube,
			Kind:     entities.KindReelOrVideo,
		}, true
	}

	path := parsed.EscapedPath()

	// Shorts check tolerates trailing segments and query parameters after the id
	if m := shortsIDPattern.FindStringSubmatch(path); m != nil {
		return &entities.ClassifiedLink{
			RawURL:   raw,
			Platform: entities.PlatformYouTube,
			Kind:     entities.KindShortForm,
		}, true
	}

	if strings.Contains(path, "/watch") && parsed.Query().Get("v") != "" {
		return &entities.ClassifiedLink{
			RawURL:   raw,
			Platform: entities.PlatformYouTube,
			Kind:     entities.KindReelOrVideo,
		}, true
	}

	for _, marker := range []string{"/embed/", "/v/"} {
		if idx := strings.Index(path, marker); idx >= 0 && len(path) > idx+len(marker) {
			return &entities.ClassifiedLink{
				RawURL:   raw,
				Platform: entities.PlatformYouTube,
				Kind:     entities.KindReelOrVideo,
			}, true
		}
	}

	// Bare home-page links are rejected, not treated as targets
	return nil, false
}

func pathSegments(parsed *url.URL) []string {
	var segments []string
	for _, seg := range strings.Split(parsed.EscapedPath(), "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}
