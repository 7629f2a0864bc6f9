// Package launch starts built artifacts as independent processes and
// classifies the platform's result code.
//
// On Windows the artifact is opened through ShellExecuteW, whose return
// value is either a small error code or a value above SuccessThreshold.
// Elsewhere the artifact is started in its own session and start errors
// are translated to the same codes, so callers see one taxonomy on every
// platform. The launched process is never waited on.
package launch
