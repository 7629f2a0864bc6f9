//go:build windows

package launch

import (
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	shell32          = windows.NewLazySystemDLL("shell32.dll")
	procShellExecute = shell32.NewProc("ShellExecuteW")
)

const swShowNormal = 1

// startDetached opens path with ShellExecuteW and returns its result.
func startDetached(path string) (int, error) {
	if err := procShellExecute.Find(); err != nil {
		return 0, err
	}
	verb, err := windows.UTF16PtrFromString("open")
	if err != nil {
		return 0, err
	}
	file, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	dir, err := windows.UTF16PtrFromString(filepath.Dir(path))
	if err != nil {
		return 0, err
	}
	ret, _, _ := procShellExecute.Call(
		0,
		uintptr(unsafe.Pointer(verb)),
		uintptr(unsafe.Pointer(file)),
		0,
		uintptr(unsafe.Pointer(dir)),
		swShowNormal,
	)
	return int(ret), nil
}
