// Package tasks implements the playlist-assembly pipeline: four stages run in order, each
// consuming the previous stage's output by value.
//
// # Stages
//
//  1. [Broker] : exchanges an authorization code for a [models.Credential]
//     - [Broker.BeginAuthorization] builds the consent URL
//     - [Broker.CompleteAuthorization] fails with [shared.ErrMissingCode] or [shared.ErrExchangeFailed]
//     - [HandoffURL] builds the one-time redirect carrying the tokens
//
//  2. [Extractor] : asks a [services.CompletionService] for songs mentioned in free text
//     - The answer is re-validated by an ordered list of candidate parsers (songs, data, bare array)
//     - A list is accepted only when every element has a string title and artist
//     - Blank titles are dropped; parse failures degrade to an empty result
//
//  3. [Matcher] : resolves each candidate to the top catalog hit
//     - Output has the same length and order as the input
//     - Lookup failures degrade to found=false carrying the candidate's title and artist
//     - Optional [TrackCacher], token bucket limiter and bounded parallel lookups
//
//  4. [Assembler] : creates a private playlist and adds the selected tracks
//     - Identity lookup, playlist creation, then track insertion in batches of 100
//     - A failed insertion returns the descriptor with [shared.ErrPartialSuccess]
//
// # Pipeline
//
// [PlaylistEngine.Run] drives extract → match → select → create for the CLI. Progress is
// reported through a [ProgressUpdate] channel; sends never block, so a slow
// reader only misses updates.
package tasks
