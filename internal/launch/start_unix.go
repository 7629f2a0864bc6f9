//go:build !windows

package launch

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"syscall"

	"golang.org/x/sys/unix"
)

// startedCode is reported for a process the kernel accepted.
const startedCode = SuccessThreshold + 10

// errnoCodes translates exec errors to the shared result codes.
var errnoCodes = map[syscall.Errno]int{
	unix.ENOENT:       2,
	unix.ENOTDIR:      3,
	unix.ELOOP:        3,
	unix.ENAMETOOLONG: 3,
	unix.EACCES:       5,
	unix.EPERM:        5,
	unix.ENOMEM:       8,
	unix.ENOEXEC:      11,
	unix.ETXTBSY:      32,
}

// startDetached runs path in a new session with no stdio so it outlives
// the caller. Exit status is collected in the background only to reap it.
func startDetached(path string) (int, error) {
	cmd := exec.Command(path)
	cmd.Dir = filepath.Dir(path)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return startFailure(path, err)
	}
	go cmd.Wait()
	return startedCode, nil
}

// startFailure maps a start error to a result code. Errnos without a
// code are returned as errors so they never alias an unrelated code.
func startFailure(path string, err error) (int, error) {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		if code, ok := errnoCodes[errno]; ok {
			return code, nil
		}
	}
	return 0, fmt.Errorf("start %s: %w", path, err)
}
