// Package models defines the entities passed between the playlist-assembly pipeline stages.
//
// Each entity is produced by exactly one stage and handed to the next by value:
//   - [Credential] : delegated Spotify access, produced by the credential broker
//   - [SongCandidate] and [ExtractionResult] : produced by the extractor
//   - [MatchedTrack] : produced by the catalog matcher, one per candidate
//   - [PlaylistRequest] : built by the caller from selected matches
//   - [PlaylistDescriptor] : produced by the playlist assembler, never mutated
//
// # Credentials
//
// [Credential] deliberately formats as a redacted value with the fmt verbs so that
// access tokens never end up in log output.
package models
