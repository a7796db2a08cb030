// Package lock keeps two trackly processes from writing the same local
// store at once.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/trackly/internal/constants"
	"github.com/julianstephens/trackly/internal/logger"
)

var (
	// ErrLocked is returned when another live trackly process holds the lock.
	ErrLocked = errors.New("store is in use by another trackly process")

	findProcessFunc = ps.FindProcess
	getpid          = os.Getpid
)

// Lock is a held lockfile. The file holds "pid|executable".
type Lock struct {
	path string
	pid  int
}

// Path returns the lockfile location for a store in dir.
func Path(dir string) string {
	return filepath.Join(dir, constants.LockfileName)
}

// Acquire takes the lock in dir. A lockfile left by a process that is no
// longer running, or by a process that is not trackly, is replaced.
func Acquire(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	path := Path(dir)
	pid := getpid()
	content := fmt.Sprintf("%d|%s", pid, constants.AppName)

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if err == nil {
			_, werr := f.WriteString(content)
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(path)
				return nil, fmt.Errorf("failed to write lockfile: %w", errors.Join(werr, cerr))
			}
			return &Lock{path: path, pid: pid}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to create lockfile: %w", err)
		}

		holder, live := holderAlive(path)
		if live {
			return nil, fmt.Errorf("%w (pid %d)", ErrLocked, holder)
		}
		logger.Debug("Removing stale lockfile", "path", path, "pid", holder)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove stale lockfile: %w", err)
		}
	}
	return nil, ErrLocked
}

// holderAlive reports the PID recorded in the lockfile and whether that
// process is still a running trackly.
func holderAlive(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	parts := strings.SplitN(strings.TrimSpace(string(data)), "|", 2)
	pid, err := strconv.Atoi(parts[0])
	if err != nil || pid <= 0 {
		return 0, false
	}
	if pid == getpid() {
		return pid, false
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return pid, false
	}
	return pid, strings.HasPrefix(process.Executable(), constants.AppName)
}

// Release removes the lockfile if it still belongs to this process.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	parts := strings.SplitN(strings.TrimSpace(string(data)), "|", 2)
	if pid, _ := strconv.Atoi(parts[0]); pid != l.pid {
		return nil
	}
	return os.Remove(l.path)
}
