// Package services implements the HTTP client for the MovieMate REST backend.
//
// [APIService] wraps a [http.Client] with request pacing ([rate.Limiter]), a per-request
// X-Request-ID and bearer authentication from an [oauth2.TokenSource]. Typed calls cover the
// catalog, the user's collection and the auth endpoints.
//
// # Error Handling
//
// Non-2xx responses are returned as [*APIError] with the raw body as payload:
//   - 401 matches [shared.ErrTokenExpired]
//   - 404 matches [shared.ErrNotFound]
//   - every status matches [shared.ErrAPIRequest]
//
// Transport failures are wrapped and returned as-is. No call is retried.
package services
