// Package models defines domain entities and persistence interfaces for spotify-tools.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): plain structs converted from Spotify API responses
//   - [User] : the authenticated account
//   - [Playlist] : playlist metadata with its first [TrackPage]
//   - [TrackItem] : one playlist entry, whose [Track] may be missing
//   - [Track] : song metadata with the URI used as a track reference
//
// 2. Persistent Entities: database-backed models with lifecycle management
//   - [ShuffleRun] : a successful shuffle, source and destination
//
// Persistent entities implement the [Model] interface providing ID, timestamps and validation.
// The [Repository] interface defines standard CRUD operations for database access.
package models
