// Package program defines the catalogue's foundational types: the program
// record, the language enumeration, program-name rules, and the error
// taxonomy shared by every pipeline stage.
//
// This package imports nothing internal. Every other internal package may
// import it.
//
// Key constraints:
//   - Names are NFC-normalized before any check or filesystem use
//   - All JSON tags use snake_case
//   - A Record is only ever built by the add pipeline, after the artifact
//     has been confirmed on disk
package program
