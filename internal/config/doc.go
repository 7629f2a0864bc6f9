// Package config loads launchpad settings from a YAML or TOML file.
//
// The format is chosen by file extension (.yaml, .yml or .toml). The raw
// document is checked against an embedded CUE schema before it is decoded,
// so misspelled keys and wrongly typed values are reported instead of
// silently ignored. Keys missing from the file keep their defaults.
package config
