// Package logs reads the a4print log file for the `logs` command.
//
// Reads are line oriented and tracked by byte offset so a follower can pick
// up exactly where the previous read stopped. A file that shrinks between
// reads is treated as truncated and read again from the start.
package logs
