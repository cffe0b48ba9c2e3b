// Package playback owns the single active playback session.
//
// # Session
//
// A [Controller] holds at most one session: the targeted [models.Track], its [State] and the mechanism [Handle]
// that plays it. States move as follows:
//
//	Idle    -> Loading           play
//	Loading -> Playing | Failed  mechanism ready or failed
//	Playing <-> Paused           pause, resume, or play of the same track
//	Playing | Paused -> Ended    track finished on its own (audio only), then Idle
//	any     -> Idle              stop, removal of the target, acknowledge of a failure
//
// Every state change is published on [Controller.Events] without blocking.
//
// # Mechanisms
//
// The provider kind of the track picks the mechanism:
//   - catalog-preview : [MPV], an audio-only mpv process per session
//   - link-embed : [Embed], a render-only embed target that never reports an end
//   - catalog-handoff : [Handoff], opens the URL externally and leaves the session Idle
//
// Late callbacks are matched against a generation counter, so a stale "ended" from a replaced session
// never touches the current one.
package playback
