// Package membership tracks which catalog entries the signed-in user already owns.
//
// Catalog and collection ids live in unrelated spaces, so both sides are reduced to an
// identity [Key]: "admin:<catalog id>" when the catalog origin is known, otherwise a
// title/platform fallback. Two items with the same key are the same logical title.
//
// [Index] is an immutable snapshot mapping keys to a three-state [State]
// (absent, pending, confirmed). Every mutation returns a new snapshot.
//
// [Registry] owns the current snapshot for a session. It serializes updates, guards
// against two concurrent adds of the same key and discards rebuilds computed for an older
// session (see [Registry.Reset]).
package membership
