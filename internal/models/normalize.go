package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RawItem is one decoded item from a provider response.
type RawItem map[string]any

const (
	youtubeEmbedURL     = "https://www.youtube.com/embed/%s"
	youtubeThumbnailURL = "https://img.youtube.com/vi/%s/hqdefault.jpg"
	yandexTrackURL      = "https://music.yandex.ru/track/%s"
	yandexCoverSize     = "400x400"
)

// Normalize converts a provider response item into a [Track].
//
// It never fails: unrecognized or missing fields fall back to the model defaults.
// The result has an empty ID when the payload carries no usable identifier; callers drop such items.
func Normalize(kind ProviderKind, raw RawItem) Track {
	switch kind {
	case ProviderLinkEmbed:
		return normalizeLinkEmbed(raw)
	case ProviderCatalogPreview:
		return normalizeCatalogPreview(raw)
	case ProviderCatalogHandoff:
		return normalizeCatalogHandoff(raw)
	default:
		return NewTrack(TrackFields{ID: raw.Text("id"), Kind: kind})
	}
}

// LinkEmbedTrack builds the track for a resolved video id.
func LinkEmbedTrack(videoID string) Track {
	return normalizeLinkEmbed(RawItem{"videoId": videoID})
}

func normalizeLinkEmbed(raw RawItem) Track {
	id := raw.Text("videoId")
	if id == "" {
		id = raw.Text("id")
	}

	f := TrackFields{
		ID:           id,
		Title:        raw.Text("title"),
		Artist:       raw.Text("author_name", "channel", "uploader"),
		ThumbnailURL: raw.Text("thumbnail_url"),
		Kind:         ProviderLinkEmbed,
		Duration:     raw.Seconds("duration", "duration_seconds"),
	}
	if id != "" {
		f.SourceURL = fmt.Sprintf(youtubeEmbedURL, id)
		if f.ThumbnailURL == "" {
			f.ThumbnailURL = fmt.Sprintf(youtubeThumbnailURL, id)
		}
	}
	return NewTrack(f)
}

func normalizeCatalogPreview(raw RawItem) Track {
	return NewTrack(TrackFields{
		ID:           raw.Text("trackId"),
		Title:        raw.Text("trackName"),
		Artist:       raw.Text("artistName"),
		Album:        raw.Text("collectionName"),
		SourceURL:    raw.Text("previewUrl"),
		ThumbnailURL: raw.Text("artworkUrl100", "artworkUrl60"),
		Kind:         ProviderCatalogPreview,
		Duration:     raw.Millis("trackTimeMillis"),
	})
}

func normalizeCatalogHandoff(raw RawItem) Track {
	id := raw.Text("id")

	f := TrackFields{
		ID:           id,
		Title:        raw.Text("title"),
		Artist:       raw.Artists("artists", "artist"),
		Album:        raw.firstAlbum(),
		ThumbnailURL: yandexCover(raw.Text("coverUri", "cover")),
		Kind:         ProviderCatalogHandoff,
		Duration:     raw.Millis("durationMs"),
	}
	if f.Duration == nil {
		f.Duration = raw.Seconds("duration")
	}
	if id != "" {
		f.SourceURL = fmt.Sprintf(yandexTrackURL, id)
	}
	return NewTrack(f)
}

func yandexCover(uri string) string {
	if uri == "" {
		return ""
	}
	uri = strings.ReplaceAll(uri, "%%", yandexCoverSize)
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return uri
	}
	return "https://" + strings.TrimPrefix(uri, "//")
}

// Text returns the first key holding a usable scalar, rendered as a string.
func (r RawItem) Text(keys ...string) string {
	for _, k := range keys {
		if s, ok := scalarString(r[k]); ok && s != "" {
			return s
		}
	}
	return ""
}

// Seconds returns the first key holding a non-negative number of seconds.
func (r RawItem) Seconds(keys ...string) *int {
	for _, k := range keys {
		if n, ok := number(r[k]); ok && n >= 0 {
			v := int(n)
			return &v
		}
	}
	return nil
}

// Millis returns the first key holding a non-negative number of milliseconds, as whole seconds.
func (r RawItem) Millis(keys ...string) *int {
	for _, k := range keys {
		if n, ok := number(r[k]); ok && n >= 0 {
			v := int(n / 1000)
			return &v
		}
	}
	return nil
}

// Artists joins an artist list ([{"name": ...}] or ["..."]) or returns a plain artist string.
func (r RawItem) Artists(keys ...string) string {
	for _, k := range keys {
		switch v := r[k].(type) {
		case []any:
			names := make([]string, 0, len(v))
			for _, item := range v {
				switch a := item.(type) {
				case map[string]any:
					if s := RawItem(a).Text("name"); s != "" {
						names = append(names, s)
					}
				case string:
					if s := strings.TrimSpace(a); s != "" {
						names = append(names, s)
					}
				}
			}
			if len(names) > 0 {
				return strings.Join(names, ", ")
			}
		default:
			if s, ok := scalarString(v); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func (r RawItem) firstAlbum() string {
	albums, ok := r["albums"].([]any)
	if !ok || len(albums) == 0 {
		return ""
	}
	if a, ok := albums[0].(map[string]any); ok {
		return RawItem(a).Text("title")
	}
	return ""
}

func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x), true
	case json.Number:
		return x.String(), true
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return strconv.FormatInt(int64(x), 10), true
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	default:
		return "", false
	}
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
