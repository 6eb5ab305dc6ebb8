// Package repositories implements SQLite persistence for the client session.
//
// The backend owns every catalog and collection record, so the only local state is the
// authenticated session and its audit trail.
//
// Key Implementations:
//   - [SessionRepository] : Key-value rows in session_store
//   - [EventRepository] : Append-only session_events log (login, signup, logout, expiry)
//   - [TokenStore] : In-memory bearer credential mirrored to the session store, usable as an [oauth2.TokenSource]
package repositories
