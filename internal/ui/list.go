package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/mixtape/internal/models"
)

var _ list.Item = trackItem{}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track   models.Track
	playing bool
}

func (i trackItem) FilterValue() string { return i.track.Title() }
func (i trackItem) Title() string {
	if i.playing {
		return "▶ " + i.track.Title()
	}
	return i.track.Title()
}
func (i trackItem) Description() string {
	desc := i.track.Artist()
	if i.track.Album() != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album())
	}
	return fmt.Sprintf("%s • %s • %s", desc, i.track.FormattedDuration(), i.track.Kind().Label())
}

// newTrackList creates a [list.Model] whose own bindings don't collide with [keyMap].
func newTrackList() list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	l.KeyMap.PrevPage = key.NewBinding(key.WithKeys("left", "pgup"))
	l.KeyMap.NextPage = key.NewBinding(key.WithKeys("right", "pgdown"))
	return l
}

func trackItems(tracks []models.Track, now models.Identity) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t, playing: t.Identity() == now}
	}
	return items
}
