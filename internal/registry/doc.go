// Package registry is the durable catalogue of programs.
//
// Each program owns one directory under the programs root holding its
// normalized source file and a record file written last. There is no
// shared index: a damaged record affects only its own program. A
// directory without a readable record, or with nothing besides the
// record, is stale and may be purged when its name is reused.
//
// Registry is implemented by FSRegistry for production use and by
// MemRegistry for tests that do not care about record persistence.
package registry
