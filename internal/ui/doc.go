// Package ui implements an interactive terminal player using bubbletea's Elm architecture.
//
// The TUI is a set of tabs over one [Controller]:
//  1. Library : the user's saved tracks across every provider
//  2. One tab per search-capable provider, holding that provider's latest results
//
// A now-playing bar under the tabs always shows the single playback session. Searches and
// playback requests run as [tea.Cmd]s so slow providers never block rendering, and playback
// changes arrive through the controller's event channel as [Msg] values.
//
// Keyboard bindings are listed by the contextual help line (charmbracelet/bubbles/help).
package ui
