// Package calendar defines the event model and the storage contract shared by
// every classcal backend.
//
// An Event is a flat record: title, date, time, description and instructor,
// plus store-assigned identity and timestamps. Backends implement EventStore
// and must produce identical observable behavior:
//
//   - IDs are positive, strictly increasing, and never reused within a store's
//     lifetime.
//   - ListAll is ordered by (date, time) ascending, ties broken by id.
//   - ListByDate is the date-filtered subset of ListAll in the same order.
//   - Text fields are normalized and HTML-escaped once, at write time.
//   - Update merges a Patch: supplied fields overwrite, absent fields keep
//     their stored value, updated_at is always refreshed.
//
// Errors returned by a store are *Error values carrying a Code; use
// IsValidation, IsNotFound and IsStorageUnavailable to classify them.
package calendar
