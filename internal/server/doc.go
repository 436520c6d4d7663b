// Package server provides HTTP routing, middleware, and the authorization and playlist
// endpoints for the web service and the command-line sign-in flow.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first).
// [RequestID], [RequestLogger] and [Recoverer] are installed by [New].
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns, so a path registered
// for POST answers GET with 405.
//
// # Endpoints
//
//	GET  /health
//	GET  /auth/spotify                  redirect to the Spotify consent page
//	GET  /auth/spotify/callback         exchange the code, hand the credential to the app
//	POST /auth/logout                   drop the session credential
//	POST /api/extract-songs             {text} → {songs, playlist_title}
//	POST /api/search-spotify            {songs, accessToken} → {results}
//	POST /api/create-spotify-playlist   {tracks, accessToken, playlistName} → {playlistUrl, playlist, partial}
//
// Errors are JSON objects {error, kind}. Validation errors are 400, authentication errors 401,
// and upstream service or parse errors 502. A playlist that was created without all of its
// tracks is a 200 with partial set and a warning.
//
// # Token Hand-off
//
// In query mode the callback redirects to the app URL with spotify_access_token and
// spotify_refresh_token parameters. In session mode the credential stays in a [SessionStore]
// and the browser receives an HttpOnly session cookie. Pipeline endpoints accept the token
// from the body, an Authorization bearer header, or the session cookie.
//
// # OAuth Callback Handler
//
// [OAuthHandler] serves a single callback for command-line sign-in: a temporary server
// starts on the redirect URI's host, receives the code, and shuts down once the
// credential arrives on [OAuthHandler.Result].
package server
