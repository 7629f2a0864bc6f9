// Package artifact finds built executables and converts their locations
// to and from the portable references stored in program records.
//
// A stored reference is produced by the first strategy that accepts the
// artifact's absolute path:
//
//  1. relative to the artifacts base directory
//  2. relative to the current working directory
//  3. the absolute path verbatim
//
// Resolution runs the same list backwards in spirit: an absolute reference
// is used directly, and a relative one is tried against the base directory
// and then the working directory. The packager's own output layout is not
// assumed to be stable, so either stored form must keep working.
package artifact
