// Package services implements the remote collaborators the pipeline depends on: the Spotify
// OAuth provider and catalog, and the language model backends used for song extraction.
//
// # Catalog
//
// [SpotifyService] implements both [OAuthService] and [CatalogService]. Authorization uses
// golang.org/x/oauth2 with client credentials sent in the form body. Catalog calls carry the
// caller's [models.Credential]; the token is wrapped in an [oauth2.Config.Client] per request,
// so an expired token with a refresh token is refreshed transparently.
//
// # Completion backends
//
// [CompletionService] abstracts a single prompt → text call:
//   - [OpenAIService] posts to the chat completions endpoint with a JSON object response format
//   - [GeminiService] uses github.com/google/generative-ai-go with a JSON response MIME type
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrMissingAPIKey] : backend is not configured
//   - [shared.ErrTokenExpired] : catalog rejected the access token (401), or it expired before the request
//   - [shared.ErrAPIRequest] : non-2xx response or an undecodable completion envelope
//   - [shared.ErrUnexpectedResponse] : a catalog body did not have the expected shape
//
// [APIService] is the shared JSON HTTP client; it never treats a status code as an error.
package services
