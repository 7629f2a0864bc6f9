// Package catalog runs the program pipelines: adding (validate, persist,
// build, locate, commit), running, listing, deleting and cleaning.
//
// Service returns typed errors from each stage. API wraps a Service for
// untrusted callers and turns every result into a response carrying only
// user-safe text; unclassified errors become "internal error" and are
// logged in full.
//
// Work on one program name is serialized through registry.Locks. Builds of
// different names run concurrently in separate temporary directories.
// Listing and lookups never wait for a build.
package catalog
