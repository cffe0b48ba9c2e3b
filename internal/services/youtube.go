// YouTube link resolution
//
// Pasted links are parsed locally; no request is made to YouTube.
package services

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

// VideoIDLength is the length of every YouTube video id.
const VideoIDLength = 11

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// pathPrefixes lists the youtube.com path segments that are followed directly by the id.
var pathPrefixes = map[string]bool{
	"embed":  true,
	"shorts": true,
	"live":   true,
	"v":      true,
	"e":      true,
}

// YouTubeLinkService resolves pasted YouTube links into link-embed tracks.
type YouTubeLinkService struct{}

// NewYouTubeLinkService creates a [YouTubeLinkService].
func NewYouTubeLinkService() *YouTubeLinkService {
	return &YouTubeLinkService{}
}

// Kind returns [models.ProviderLinkEmbed].
func (y *YouTubeLinkService) Kind() models.ProviderKind { return models.ProviderLinkEmbed }

// Name returns the service name.
func (y *YouTubeLinkService) Name() string { return "YouTube" }

// ResolveFromInput extracts the video id from a pasted link and builds its track.
//
// Recognized shapes, with or without scheme and with www., m. or music. subdomains:
//
//	youtu.be/<id>
//	youtube.com/watch?v=<id>
//	youtube.com/{embed,shorts,live,v,e}/<id>
//	youtube-nocookie.com/embed/<id>
func (y *YouTubeLinkService) ResolveFromInput(input string) (models.Track, error) {
	id, err := ExtractVideoID(input)
	if err != nil {
		return models.Track{}, err
	}
	return models.LinkEmbedTrack(id), nil
}

// ExtractVideoID returns the 11-character video id in a YouTube link.
func ExtractVideoID(input string) (string, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return "", fmt.Errorf("%w: empty input", shared.ErrInvalidLink)
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w: %q", shared.ErrInvalidLink, input)
	}

	var candidate string
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	switch host := canonicalHost(u.Hostname()); host {
	case "youtu.be":
		candidate = segments[0]
	case "youtube.com", "youtube-nocookie.com":
		switch {
		case segments[0] == "watch":
			candidate = u.Query().Get("v")
		case len(segments) >= 2 && pathPrefixes[segments[0]]:
			if host == "youtube-nocookie.com" && segments[0] != "embed" {
				break
			}
			candidate = segments[1]
		}
	}

	if !videoIDPattern.MatchString(candidate) {
		return "", fmt.Errorf("%w: %q", shared.ErrInvalidLink, input)
	}
	return candidate, nil
}

func canonicalHost(host string) string {
	host = strings.ToLower(host)
	for _, prefix := range []string{"www.", "m.", "music."} {
		if strings.HasPrefix(host, prefix) {
			return strings.TrimPrefix(host, prefix)
		}
	}
	return host
}
