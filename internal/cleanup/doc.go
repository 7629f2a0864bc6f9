// Package cleanup deletes programs one at a time or all at once. Neither
// operation stops at the first failure: every item is attempted and the
// outcome of each is reported.
package cleanup
