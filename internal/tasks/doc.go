// Package tasks implements the MovieMate client workflows on top of the API client, the
// session store and the membership registry.
//
// # Core Operations
//
// [Engine] exposes one method per user-facing workflow:
//
//  1. Session: [Engine.Login], [Engine.Signup], [Engine.Logout], [Engine.Me]
//     - Every login and logout starts a new membership session
//     - An unauthorized response clears the stored token and asks for a new login
//
//  2. Optimistic add: [Engine.Begin] then [Engine.Commit], or [Engine.Add] for both
//     - Begin marks the catalog entry pending without touching the network
//     - Commit settles the pending entry exactly once, on every return path
//     - A confirmed add triggers a full re-listing of the collection
//
//  3. Edit: [Editor] is a small state machine (viewing, submitting, conflict, writing)
//     that re-fetches the record before writing and stops on a changed updated_at
//
//  4. Collection upkeep: custom create, delete, progress tracking, review, facets, export
//
// # Progress Reporting
//
// Listing the whole collection reports [ProgressUpdate] values on an optional channel.
// Updates use select with default so a slow reader never blocks a workflow.
package tasks
