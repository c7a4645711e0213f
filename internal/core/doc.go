// Package core provides the business logic for the ammunition inventory.
//
// This package holds all domain logic independent of any UI or transport
// layer. It is used by the web handlers, the CLI, and tests without
// modification.
//
// # Architecture
//
// The package is organized around a few key concepts:
//
//   - Record: one inventory entry. [Columns] fixes the display and export
//     order, [FieldSpecs] describes the eleven data fields.
//   - Store: the persistence boundary. Backends live in internal/store;
//     the [Service] opens one per operation through an [Opener] and always
//     closes it before returning.
//   - Service: the entry point for every operation (initialize, reset,
//     bulk load, fetch, insert, search, export).
//
// # Bulk Load
//
// CSV files are decoded as UTF-8 (a leading byte-order mark is dropped),
// headers are normalized by trimming and replacing spaces with
// underscores, and unknown columns are ignored:
//
//	Ammo Type , Quantity Box  ->  Ammo_Type, Quantity_Box
//
// The whole file is parsed before anything is written, then inserted in a
// single transaction, so a file or parse error never leaves a partial load.
//
// # Coercion
//
// Quantity fields are coerced with one [CoercionPolicy] for every file
// ingestion path. Lenient coercion turns an absent or non-numeric value into
// 0; strict coercion fails the load. Manual entry is always strict.
//
// # Error Handling
//
// Errors fall into four categories matched with errors.Is: [ErrFile],
// [ErrParse], [ErrValidation] and [ErrStore]. [MapError] turns any error
// into a [UserMessage] with a support code:
//
//   - FILE001-FILE004: file missing, unreadable, too large, empty
//   - PARSE001-PARSE003: malformed CSV, missing column, bad header
//   - VAL001-VAL003: non-numeric or negative quantity, invalid form
//   - STORE001-STORE004: store locked, missing table, connection, generic
//   - REQ001-REQ003: cancelled, timed out, busy
package core
