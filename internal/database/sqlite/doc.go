// Package sqlite provides the full-text photo index backed by SQLite FTS5.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. Records live in an FTS5 virtual table so MATCH queries search the image
// path, faces and caption together.
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/ directory.
// Besides the photos FTS table, photo_faces keeps the identity key of every face so
// relabeling rewrites exactly the tokens that belong to an identity, and
// identity_names holds the display names assigned so far.
//
// # Data Location
//
// By default, the database is stored at ~/.photo-index/index.db
package sqlite
