package services

import (
	"errors"
	"testing"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

func TestYouTubeLinkService(t *testing.T) {
	svc := NewYouTubeLinkService()

	t.Run("Name and Kind", func(t *testing.T) {
		if svc.Name() != "YouTube" {
			t.Errorf("expected name to be 'YouTube', got %s", svc.Name())
		}
		if svc.Kind() != models.ProviderLinkEmbed {
			t.Errorf("expected kind link-embed, got %s", svc.Kind())
		}
	})

	t.Run("ResolveFromInput", func(t *testing.T) {
		t.Run("short link", func(t *testing.T) {
			track, err := svc.ResolveFromInput("https://youtu.be/abcdefghijk")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if track.ID() != "abcdefghijk" || len(track.ID()) != VideoIDLength {
				t.Errorf("expected id abcdefghijk, got %s", track.ID())
			}
			if track.Kind() != models.ProviderLinkEmbed {
				t.Errorf("expected kind link-embed, got %s", track.Kind())
			}
			if track.SourceURL() != "https://www.youtube.com/embed/abcdefghijk" {
				t.Errorf("unexpected embed url %s", track.SourceURL())
			}
		})

		t.Run("not a url", func(t *testing.T) {
			_, err := svc.ResolveFromInput("not a url")
			if !errors.Is(err, shared.ErrInvalidLink) {
				t.Errorf("expected ErrInvalidLink, got %v", err)
			}
			if Classify(err) != ResolutionInvalidLink {
				t.Errorf("expected invalid link classification, got %v", Classify(err))
			}
		})
	})
}

func TestExtractVideoID(t *testing.T) {
	valid := []struct {
		name  string
		input string
	}{
		{name: "short link", input: "https://youtu.be/dQw4w9WgXcQ"},
		{name: "short link with timestamp", input: "https://youtu.be/dQw4w9WgXcQ?t=42"},
		{name: "watch", input: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{name: "watch with v later in query", input: "https://www.youtube.com/watch?list=PL123&v=dQw4w9WgXcQ&index=2"},
		{name: "no scheme", input: "youtube.com/watch?v=dQw4w9WgXcQ"},
		{name: "http scheme", input: "http://youtube.com/watch?v=dQw4w9WgXcQ"},
		{name: "mobile", input: "https://m.youtube.com/watch?v=dQw4w9WgXcQ"},
		{name: "music", input: "https://music.youtube.com/watch?v=dQw4w9WgXcQ&feature=share"},
		{name: "embed", input: "https://www.youtube.com/embed/dQw4w9WgXcQ"},
		{name: "shorts", input: "https://youtube.com/shorts/dQw4w9WgXcQ"},
		{name: "live", input: "https://www.youtube.com/live/dQw4w9WgXcQ?si=abc"},
		{name: "v path", input: "https://www.youtube.com/v/dQw4w9WgXcQ"},
		{name: "nocookie embed", input: "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ"},
		{name: "surrounding whitespace", input: "  https://youtu.be/dQw4w9WgXcQ \n"},
		{name: "uppercase host", input: "https://WWW.YOUTUBE.COM/watch?v=dQw4w9WgXcQ"},
	}

	for _, tt := range valid {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ExtractVideoID(tt.input)
			if err != nil {
				t.Fatalf("ExtractVideoID(%q) error = %v", tt.input, err)
			}
			if id != "dQw4w9WgXcQ" {
				t.Errorf("ExtractVideoID(%q) = %s, want dQw4w9WgXcQ", tt.input, id)
			}
		})
	}

	invalid := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "whitespace", input: "   "},
		{name: "plain text", input: "not a url"},
		{name: "short id", input: "https://youtu.be/abc"},
		{name: "long id", input: "https://youtu.be/abcdefghijkl"},
		{name: "bad characters", input: "https://youtu.be/abc$efghijk"},
		{name: "watch without v", input: "https://www.youtube.com/watch?list=PL123"},
		{name: "channel", input: "https://www.youtube.com/@someone"},
		{name: "other host", input: "https://vimeo.com/abcdefghijk"},
		{name: "lookalike host", input: "https://notyoutube.com/watch?v=dQw4w9WgXcQ"},
		{name: "nocookie shorts", input: "https://www.youtube-nocookie.com/shorts/dQw4w9WgXcQ"},
		{name: "ftp scheme", input: "ftp://youtu.be/dQw4w9WgXcQ"},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ExtractVideoID(tt.input); !errors.Is(err, shared.ErrInvalidLink) {
				t.Errorf("ExtractVideoID(%q) error = %v, want ErrInvalidLink", tt.input, err)
			}
		})
	}
}
