package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Conte777/ClipFlow/internal/domain/download/entities"
	pkgerrors "github.com/Conte777/ClipFlow/pkg/errors"
)

var embedVideoURLPattern = regexp.MustCompile(`"video_url"\s*:\s*"([^"]+)"`)

// resolveViaEmbed scrapes the public embed page of a post. The embed page is
// served without a session for public posts and carries a single media item
// plus, for videos, an inline video_url in the bootstrap script.
func (d *Downloader) resolveViaEmbed(ctx context.Context, shortcode string) ([]mediaItem, error) {
	endpoint := fmt.Sprintf("https://www.instagram.com/p/%s/embed/captioned/", url.PathEscape(shortcode))
	if strings.HasPrefix(shortcode, "stories/") {
		endpoint = "https://www.instagram.com/" + shortcode + "/embed/"
	}

	body, err := d.get(ctx, endpoint, "text/html")
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.NewInternal("failed to parse embed page", err)
	}

	if isPrivateEmbed(doc) {
		return nil, pkgerrors.NewAccessDenied("content belongs to a private account", nil)
	}

	// Inline bootstrap script carries the direct video URL when present
	var script string
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if strings.Contains(s.Text(), "video_url") {
			script = s.Text()
		}
	})
	if m := embedVideoURLPattern.FindStringSubmatch(script); m != nil {
		return []mediaItem{{URL: unescapeJSONString(m[1]), Kind: entities.MediaVideo}}, nil
	}

	if src, ok := doc.Find("video").First().Attr("src"); ok && src != "" {
		return []mediaItem{{URL: src, Kind: entities.MediaVideo}}, nil
	}

	if src, ok := doc.Find("img.EmbeddedMediaImage").First().Attr("src"); ok && src != "" {
		return []mediaItem{{URL: src, Kind: entities.MediaPhoto}}, nil
	}

	return nil, nil
}

// isPrivateEmbed detects the login-wall variant of the embed page
func isPrivateEmbed(doc *goquery.Document) bool {
	if doc.Find(".EmbedIsBroken").Length() > 0 {
		return false // removed post, not a private one
	}
	text := doc.Find("body").Text()
	return strings.Contains(text, "This Account is Private") ||
		strings.Contains(text, "Log in to Instagram")
}

// unescapeJSONString undoes the escaping of a URL lifted from inline JSON.
// The bootstrap script escapes slashes and encodes ampersands as \u0026, so
// the captured token is decoded as a JSON string literal.
func unescapeJSONString(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err == nil {
		return out
	}
	s = strings.ReplaceAll(s, `\u0026`, "&")
	s = strings.ReplaceAll(s, `\/`, "/")
	return s
}
