package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/catalog"
	"github.com/desertthunder/mixtape/internal/controller"
	"github.com/desertthunder/mixtape/internal/formatter"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/playback"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/session"
	"github.com/desertthunder/mixtape/internal/shared"
)

// MusicFactory builds the music controller for a logged-in user.
type MusicFactory func(sess session.Authenticator) (*controller.Music, error)

// API serves the JSON music API. Every route requires a session stored by [RequireSession].
type API struct {
	factory MusicFactory
	logger  *log.Logger

	mu    sync.Mutex
	music map[string]*controller.Music // keyed by user id
}

// NewAPI creates an [API]. Controllers are built lazily, one per user.
func NewAPI(factory MusicFactory, logger *log.Logger) *API {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &API{factory: factory, logger: logger, music: make(map[string]*controller.Music)}
}

// Register adds the API routes to r.
func (a *API) Register(r Router) {
	r.Handle(http.MethodGet, "/api/library", a.with(a.listLibrary))
	r.Handle(http.MethodPost, "/api/library", a.with(a.addToLibrary))
	r.Handle(http.MethodDelete, "/api/library/{kind}/{id}", a.with(a.removeFromLibrary))
	r.Handle(http.MethodGet, "/api/search", a.with(a.search))
	r.Handle(http.MethodGet, "/api/playback", a.with(a.playback))
	r.Handle(http.MethodPost, "/api/play", a.with(a.play))
	r.Handle(http.MethodPost, "/api/pause", a.with(a.pause))
	r.Handle(http.MethodPost, "/api/stop", a.with(a.stop))
}

// Close stops playback for every user.
func (a *API) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	for id, m := range a.music {
		if err := m.Close(); err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", id, err))
		}
		delete(a.music, id)
	}
	return errors.Join(errs...)
}

type musicHandler func(m *controller.Music, w http.ResponseWriter, r *http.Request)

// with resolves the request's controller before calling h.
func (a *API) with(h musicHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFrom(r.Context())
		if !ok {
			unauthenticated(w, r, shared.ErrNotAuthenticated)
			return
		}

		m, err := a.controllerFor(sess)
		if err != nil {
			a.logger.Error("failed to build music controller", "user", sess.User.ID(), "error", err)
			writeError(w, err)
			return
		}
		h(m, w, r)
	})
}

func (a *API) controllerFor(sess *session.Session) (*controller.Music, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := sess.User.ID()
	if m, ok := a.music[id]; ok {
		return m, nil
	}

	m, err := a.factory(sess)
	if err != nil {
		return nil, err
	}
	a.music[id] = m
	return m, nil
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type loginBody struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

type libraryBody struct {
	Tracks []formatter.TrackRecord `json:"tracks"`
}

type addRequest struct {
	Link  string `json:"link"`
	Kind  string `json:"kind"`
	Index *int   `json:"index"`
}

type addBody struct {
	Track formatter.TrackRecord `json:"track"`
	Added bool                  `json:"added"`
}

type searchBody struct {
	Provider string                  `json:"provider"`
	Status   string                  `json:"status"`
	Query    string                  `json:"query"`
	Results  []formatter.TrackRecord `json:"results"`
	Error    string                  `json:"error,omitempty"`
}

type playRequest struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

type playbackBody struct {
	SessionID string                 `json:"session_id,omitempty"`
	State     string                 `json:"state"`
	Track     *formatter.TrackRecord `json:"track,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

func records(tracks []models.Track) []formatter.TrackRecord {
	out := make([]formatter.TrackRecord, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, formatter.NewTrackRecord(t))
	}
	return out
}

func newPlaybackBody(s playback.Snapshot) playbackBody {
	body := playbackBody{SessionID: s.SessionID, State: s.State.String()}
	if s.HasTrack() {
		rec := formatter.NewTrackRecord(s.Track)
		body.Track = &rec
	}
	if s.Err != nil {
		body.Error = s.Err.Error()
	}
	return body
}

func newSearchBody(kind models.ProviderKind, s catalog.Snapshot) searchBody {
	body := searchBody{
		Provider: kind.String(),
		Status:   s.Status.String(),
		Query:    s.Query,
		Results:  records(s.Results),
	}
	if s.Err != nil {
		body.Error = s.Err.Error()
	}
	return body
}

func (a *API) listLibrary(m *controller.Music, w http.ResponseWriter, r *http.Request) {
	tracks := m.Library()
	if p := r.URL.Query().Get("provider"); p != "" {
		kind, err := models.ParseProviderKind(p)
		if err != nil {
			writeError(w, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err))
			return
		}
		tracks = m.LibraryByProvider(kind)
	}
	writeJSON(w, http.StatusOK, libraryBody{Tracks: records(tracks)})
}

func (a *API) addToLibrary(m *controller.Music, w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	var (
		track models.Track
		added bool
		err   error
	)
	switch {
	case strings.TrimSpace(req.Link) != "":
		track, added, err = m.AddLink(req.Link)
	case req.Kind != "" && req.Index != nil:
		kind, perr := models.ParseProviderKind(req.Kind)
		if perr != nil {
			writeError(w, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, perr))
			return
		}
		track, added, err = m.AddResult(kind, *req.Index)
	default:
		err = fmt.Errorf("%w: link or kind and index", shared.ErrMissingArgument)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
		a.persist(m)
	}
	writeJSON(w, status, addBody{Track: formatter.NewTrackRecord(track), Added: added})
}

func (a *API) removeFromLibrary(m *controller.Music, w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseProviderKind(r.PathValue("kind"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err))
		return
	}
	if err := m.Remove(kind, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	a.persist(m)
	w.WriteHeader(http.StatusNoContent)
}

// persist saves the library after a change. Failures are logged; the in-memory change stands.
func (a *API) persist(m *controller.Music) {
	if err := m.Save(); err != nil && !errors.Is(err, shared.ErrNotImplemented) {
		a.logger.Error("failed to save library", "user", m.User().ID(), "error", err)
	}
}

func (a *API) search(m *controller.Music, w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind, err := models.ParseProviderKind(q.Get("provider"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err))
		return
	}

	if text := strings.TrimSpace(q.Get("q")); text != "" {
		err = m.Search(r.Context(), kind, text)
	} else {
		err = m.Popular(r.Context(), kind)
	}
	if errors.Is(err, shared.ErrSuperseded) || errors.Is(err, shared.ErrInvalidArgument) {
		writeError(w, err)
		return
	}

	// Provider failures are part of the slot and reported in the body.
	snap, err := m.Results(kind)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if snap.Status == catalog.StatusFailed {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, newSearchBody(kind, snap))
}

func (a *API) playback(m *controller.Music, w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newPlaybackBody(m.Playback()))
}

func (a *API) play(m *controller.Music, w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	kind, err := models.ParseProviderKind(req.Kind)
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err))
		return
	}

	if err := m.Play(r.Context(), models.Identity{Kind: kind, ID: req.ID}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPlaybackBody(m.Playback()))
}

func (a *API) pause(m *controller.Music, w http.ResponseWriter, r *http.Request) {
	if err := m.TogglePause(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPlaybackBody(m.Playback()))
}

func (a *API) stop(m *controller.Music, w http.ResponseWriter, r *http.Request) {
	if err := m.Stop(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPlaybackBody(m.Playback()))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps a sentinel error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated),
		errors.Is(err, shared.ErrTokenExpired),
		errors.Is(err, shared.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrTrackNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrSuperseded),
		errors.Is(err, shared.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, shared.ErrInvalidLink),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrMissingArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNetworkFailure):
		return http.StatusBadGateway
	case errors.Is(err, shared.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, shared.ErrNotImplemented):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	body := errorBody{Error: err.Error()}
	if k := services.Classify(err); k != services.ResolutionOK && k != services.ResolutionUnknown {
		body.Kind = k.String()
	}
	writeJSON(w, statusFor(err), body)
}
