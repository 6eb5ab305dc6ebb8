// Package models defines the wire types exchanged with the MovieMate backend and the forms users fill in.
//
// The package contains three categories of types:
//
// 1. Catalog and collection records
//   - [CatalogItem] : admin-curated entry, read-only to users
//   - [CollectionItem] : user-owned copy of a catalog item or a custom entry
//   - [Page] : paginated listing, decoded from either an envelope or a bare array
//
// 2. Session types
//   - [Credentials], [SignupForm] : login and signup input
//   - [Tokens], [User] : backend responses for auth endpoints
//
// 3. Forms and patches
//   - [CollectionForm] : editable fields of a collection item, validated by [FormValidator]
//   - [CollectionPayload], [ProgressPatch] : request bodies
//
// Ratings use one canonical scale configured by [RatingBounds]; ten-point reviews are converted
// with [RatingFromTenPoint] before validation.
package models
