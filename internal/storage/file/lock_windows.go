//go:build windows

package file

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

// acquireFileLock blocks until it holds an exclusive lock on path.
func acquireFileLock(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}
	var overlapped windows.Overlapped
	err = windows.LockFileEx(windows.Handle(f.Fd()), windows.LOCKFILE_EXCLUSIVE_LOCK, 0, 1, 0, &overlapped)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("LockFileEx failed: %w", err)
	}
	return f, nil
}

// releaseFileLock unlocks and closes f. The lock file stays for the next writer.
func releaseFileLock(f *os.File) error {
	if f == nil {
		return nil
	}
	var overlapped windows.Overlapped
	err1 := windows.UnlockFileEx(windows.Handle(f.Fd()), 0, 1, 0, &overlapped)
	err2 := f.Close()
	return errors.Join(err1, err2)
}
