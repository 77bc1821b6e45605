// Package types defines the Store, Session, and ModelHandle interfaces,
// the annotation data model, and the standard errors for the annostore
// versioned annotation store.
//
// An annotation table holds one physical row per *version* of a logical
// record. Edits never mutate in place: an update inserts a new row and
// links the old one to it through SupercededID; a delete stamps a
// tombstone timestamp. The full history of a record is the chain of
// row-versions reachable through SupercededID, oldest to newest.
package types
