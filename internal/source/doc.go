// Package source validates and normalizes submitted program source before
// any resource is created for it.
//
// Validation is delegated to a FrontEnd. For Python the front end is the
// same interpreter the packager bundles, so code that passes validation is
// code the packager can compile.
//
// When the submitted code does not parse, a best-effort re-indentation
// pass is tried once. If the re-indented code still does not parse, the
// diagnostic for the code as submitted is returned.
package source
