// Package importers turns spreadsheet exports of a reading list into catalog books.
//
// # Flow
//
//	CSV text → ParseCSV → headers + column-keyed rows
//	headers  → DetectFormat, SuggestMapping → Preview (shown to the user)
//	rows + Mapping + Format → Executor.Execute → Result
//
// DetectFormat recognises Goodreads and StoryGraph exports by their header
// names and falls back to generic CSV. SuggestMapping proposes which column
// holds each catalog field; the caller may edit the mapping before executing.
//
// # Execution guarantees
//
// The Executor processes rows strictly in order. A row that cannot be
// extracted or persisted is recorded in Result.Errors with its 1-based row
// number and the batch continues. A row whose normalized ISBN-13 is already in
// the user's catalog, or appeared earlier in the same batch, is counted in
// Result.Duplicates and never written. The batch as a whole is not atomic.
//
// # Goodreads titles
//
// Goodreads embeds series information in the title, for example
// "The Way of Kings (The Stormlight Archive, #1)". For that format the
// Executor strips the parenthetical from the title and uses it to fill
// series fields the mapping left empty.
package importers
