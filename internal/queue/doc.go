// Package queue owns the batch job model and its SQLite persistence.
//
// A Job is an ordered list of Items plus a cursor and the auto-enhance flag.
// Status transitions go through Job methods so the invariants hold after
// every mutation: the cursor stays within bounds, Completed items carry an
// output path, Failed items carry an error message, and no item is touched
// while an earlier one is still non-terminal.
//
// The Store keeps exactly one in-flight job in a key/value slot, encoded in
// the JSON record shape shared with earlier releases of the app. Loads
// validate the record explicitly; anything malformed is cleared and reported
// as ErrCorruptedJob instead of being trusted. The same database holds the
// background-export setting and the export history.
package queue
