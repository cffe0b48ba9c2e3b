package models

import (
	"fmt"
	"strings"
)

// UnknownValue is the placeholder for display strings a provider did not supply.
const UnknownValue = "Unknown"

// ProviderKind tags the provider a [Track] came from.
//
// The set is closed: it decides which playback mechanism applies and how [Track.SourceURL] is read.
// Code that branches on a kind should switch over every constant below.
type ProviderKind int

const (
	// ProviderLinkEmbed tracks come from pasted video links and play in an embed surface.
	ProviderLinkEmbed ProviderKind = iota + 1
	// ProviderCatalogPreview tracks come from catalog search and carry a playable preview URL.
	ProviderCatalogPreview
	// ProviderCatalogHandoff tracks come from catalog search and are opened externally.
	ProviderCatalogHandoff
)

// ProviderKinds lists every kind in display order.
var ProviderKinds = []ProviderKind{ProviderLinkEmbed, ProviderCatalogPreview, ProviderCatalogHandoff}

func (k ProviderKind) String() string {
	switch k {
	case ProviderLinkEmbed:
		return "link-embed"
	case ProviderCatalogPreview:
		return "catalog-preview"
	case ProviderCatalogHandoff:
		return "catalog-handoff"
	default:
		return ""
	}
}

// Label is the human-readable provider name used by the UI.
func (k ProviderKind) Label() string {
	switch k {
	case ProviderLinkEmbed:
		return "YouTube"
	case ProviderCatalogPreview:
		return "Catalog"
	case ProviderCatalogHandoff:
		return "Yandex Music"
	default:
		return UnknownValue
	}
}

// Valid reports whether k is one of the known provider kinds.
func (k ProviderKind) Valid() bool {
	return k.String() != ""
}

// ParseProviderKind converts the wire tag back into a [ProviderKind].
//
// Short aliases ("youtube", "catalog", "yandex") are accepted for CLI use.
func ParseProviderKind(s string) (ProviderKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "link-embed", "youtube", "yt", "link":
		return ProviderLinkEmbed, nil
	case "catalog-preview", "catalog", "itunes", "preview":
		return ProviderCatalogPreview, nil
	case "catalog-handoff", "yandex", "handoff":
		return ProviderCatalogHandoff, nil
	default:
		return 0, fmt.Errorf("unknown provider kind %q", s)
	}
}

// Identity is the cross-provider identity of a track.
//
// Two tracks with equal identity are the same track even if their display metadata differs.
type Identity struct {
	Kind ProviderKind
	ID   string
}

func (i Identity) String() string {
	return i.Kind.String() + ":" + i.ID
}

// TrackFields holds the raw values used to build a [Track].
type TrackFields struct {
	ID           string
	Title        string
	Artist       string
	Album        string
	SourceURL    string
	ThumbnailURL string
	Kind         ProviderKind
	Duration     *int // Duration in seconds; nil when unknown
}

// Track is the canonical, provider-agnostic unit of playable media.
//
// A Track is immutable once constructed. Refreshing metadata produces a new value via [Track.WithMetadata].
type Track struct {
	id           string
	title        string
	artist       string
	album        string
	sourceURL    string
	thumbnailURL string
	kind         ProviderKind
	duration     int
	hasDuration  bool
}

// NewTrack builds a [Track], filling placeholder display values and dropping negative durations.
func NewTrack(f TrackFields) Track {
	t := Track{
		id:           strings.TrimSpace(f.ID),
		title:        orUnknown(f.Title),
		artist:       orUnknown(f.Artist),
		album:        strings.TrimSpace(f.Album),
		sourceURL:    strings.TrimSpace(f.SourceURL),
		thumbnailURL: strings.TrimSpace(f.ThumbnailURL),
		kind:         f.Kind,
	}
	if f.Duration != nil && *f.Duration >= 0 {
		t.duration = *f.Duration
		t.hasDuration = true
	}
	return t
}

func (t Track) ID() string           { return t.id }
func (t Track) Title() string        { return t.title }
func (t Track) Artist() string       { return t.artist }
func (t Track) Album() string        { return t.album }
func (t Track) SourceURL() string    { return t.sourceURL }
func (t Track) ThumbnailURL() string { return t.thumbnailURL }
func (t Track) Kind() ProviderKind   { return t.kind }
func (t Track) HasArtwork() bool     { return t.thumbnailURL != "" }
func (t Track) Identity() Identity   { return Identity{Kind: t.kind, ID: t.id} }
func (t Track) SameAs(o Track) bool  { return t.Identity() == o.Identity() }
func (t Track) IsZero() bool         { return t.id == "" && t.kind == 0 }

// FormattedDuration renders the track length for display.
func (t Track) FormattedDuration() string {
	return FormatDuration(t.Duration())
}

// Duration returns the length in seconds and whether it is known.
func (t Track) Duration() (int, bool) {
	return t.duration, t.hasDuration
}

// Fields returns a copy of the values the track was built from.
func (t Track) Fields() TrackFields {
	f := TrackFields{
		ID:           t.id,
		Title:        t.title,
		Artist:       t.artist,
		Album:        t.album,
		SourceURL:    t.sourceURL,
		ThumbnailURL: t.thumbnailURL,
		Kind:         t.kind,
	}
	if t.hasDuration {
		d := t.duration
		f.Duration = &d
	}
	return f
}

// WithMetadata returns a new track with the same identity and the display metadata of other.
func (t Track) WithMetadata(other Track) Track {
	f := other.Fields()
	f.ID = t.id
	f.Kind = t.kind
	return NewTrack(f)
}

// Validate checks that the track can be stored and played.
func (t Track) Validate() error {
	if t.id == "" {
		return fmt.Errorf("track id is required")
	}
	if !t.kind.Valid() {
		return fmt.Errorf("track %s has invalid provider kind", t.id)
	}
	return nil
}

// FormatDuration renders seconds as m:ss or h:mm:ss, and "--:--" when the length is unknown.
func FormatDuration(seconds int, known bool) string {
	if !known || seconds < 0 {
		return "--:--"
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return UnknownValue
	}
	return s
}
