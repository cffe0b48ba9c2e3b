// Package server provides HTTP routing, middleware, the JSON API and the OAuth callback used by the CLI.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// Middleware is captured when a route is registered, so routes registered before [BasicRouter.Use] stay public.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("GET /api/library"), so path
// wildcards are available through [http.Request.PathValue].
//
// # Sessions
//
// [RequireSession] verifies the session token carried in the Authorization header or the session cookie.
// Unauthenticated browser requests are redirected to /login; API clients get a JSON 401.
//
// # Music API
//
// [API] serves the library, search and playback operations of one [controller.Music] per logged-in user:
//
//	GET    /api/library                 list the library (?provider= filters by kind)
//	POST   /api/library                 add {"link": ...} or {"kind": ..., "index": ...}
//	DELETE /api/library/{kind}/{id}     remove a track, stopping playback when it is the session's track
//	GET    /api/search?provider=&q=     search a catalog; an empty q loads the popular listing
//	GET    /api/playback                current playback session
//	POST   /api/play                    play or toggle {"kind": ..., "id": ...}
//	POST   /api/pause                   toggle pause
//	POST   /api/stop                    stop playback
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback used by "mixtape auth yandex".
// It validates the state parameter, exchanges the code for a token, and delivers exactly one result.
package server
