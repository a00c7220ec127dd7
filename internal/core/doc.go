// Package core provides the name reconciliation engine.
//
// The package compares a staff export from 1C against a discount-card client
// export and reports which employees hold a card. It has no UI or transport
// dependencies and is used by the web handlers, the CLI, and tests alike.
//
// # Formats
//
// Two input layouts are supported, see [Format]:
//
//   - [FormatStaff]: one free-text full name per row, column 1 by default.
//   - [FormatClients]: surname, given name and patronym in columns 5, 6 and 7.
//
// Rows arrive as [Row] values from an external parser. Cells keep their
// original type, and anything that is not text counts as empty.
//
// # Pipeline
//
//  1. [Normalize] turns a cell into its canonical key: trimmed and
//     lower-cased with Russian casing rules.
//  2. [ExtractNames] and [ExtractRecords] pull the names out of each format.
//  3. [Match] partitions the staff names into matched and unmatched lists,
//     preserving input order.
//
// # Service
//
// [Service] wraps the pipeline for hosting applications. It bounds
// concurrent parsing with a [ParseLimiter], keeps per-session state in a
// [WorkspaceStore] whose two slots are filled independently, and refuses to
// compare until both are ready ([ErrNotReady]). Every extraction and
// comparison is reported to an [Auditor].
//
// # Error Handling
//
// Technical errors are mapped to Russian user-facing messages with [MapError].
// Each category has a code for support reference:
//
//   - FILE001-FILE005: File errors (size, format, encoding)
//   - SHEET001-SHEET003: Workbook and CSV errors
//   - WS001-WS005: Workspace errors (not ready, expired, busy)
//   - UPL002-UPL005: Upload errors (busy, cancelled, timeout)
package core
