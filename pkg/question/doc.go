// Package question defines the question record edited by the builder and
// persisted as the form snapshot, together with the partial-update Patch the
// builder applies on every field edit.
package question
