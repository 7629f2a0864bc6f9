package launch

import "fmt"

// SuccessThreshold is the largest code that still denotes failure.
const SuccessThreshold = 32

// Kind names a class of launch failure.
type Kind string

const (
	FileNotFound            Kind = "file-not-found"
	PathNotFound            Kind = "path-not-found"
	AccessDenied            Kind = "access-denied"
	OutOfMemory             Kind = "out-of-memory"
	InvalidExecutableFormat Kind = "invalid-executable-format"
	ShareViolation          Kind = "share-violation"
	InvalidAssociation      Kind = "incomplete-or-invalid-association"
	NoResponse              Kind = "no-response"
	TransactionTimeout      Kind = "transaction-timeout"
	TransactionAborted      Kind = "transaction-aborted"
	Unknown                 Kind = "unknown"
)

// taxonomy maps ShellExecute result codes to failure kinds. Codes 28
// through 31 follow the SE_ERR_DDETIMEOUT, SE_ERR_DDEFAIL, SE_ERR_DDEBUSY
// and SE_ERR_NOASSOC values ShellExecuteW actually returns.
var taxonomy = map[int]Kind{
	0:  OutOfMemory,
	2:  FileNotFound,
	3:  PathNotFound,
	5:  AccessDenied,
	8:  OutOfMemory,
	11: InvalidExecutableFormat,
	26: ShareViolation,
	27: InvalidAssociation,
	28: TransactionTimeout,
	29: TransactionAborted,
	30: NoResponse,
	31: InvalidAssociation,
	32: ShareViolation,
}

// Classify returns the failure kind for code, or Unknown.
func Classify(code int) Kind {
	if k, ok := taxonomy[code]; ok {
		return k
	}
	return Unknown
}

// Describe returns the meaning of a result code: the kind name for mapped
// codes and "unknown error: code N" for everything else.
func Describe(code int) string {
	if k, ok := taxonomy[code]; ok {
		return string(k)
	}
	return fmt.Sprintf("unknown error: code %d", code)
}

// Succeeded reports whether code denotes a successful launch.
func Succeeded(code int) bool {
	return code > SuccessThreshold
}

// Error is a failed launch.
type Error struct {
	Path    string
	Code    int
	Kind    Kind
	Meaning string
}

func (e *Error) Error() string {
	return fmt.Sprintf("launch %s: %s", e.Path, e.Meaning)
}

// FromCode returns nil for a successful code and an *Error otherwise.
func FromCode(path string, code int) error {
	if Succeeded(code) {
		return nil
	}
	return &Error{Path: path, Code: code, Kind: Classify(code), Meaning: Describe(code)}
}
