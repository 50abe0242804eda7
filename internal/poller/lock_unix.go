//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package poller

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// ErrLocked means another process is already polling with the same token.
// Telegram answers concurrent getUpdates calls for one bot with 409.
var ErrLocked = errors.New("another poller is already running for this bot token")

type instanceLock struct {
	file *os.File
	path string
}

// acquireLock takes an exclusive flock on a file named after a hash of the
// token, so the token itself never touches the filesystem.
func acquireLock(dir, token string) (*instanceLock, error) {
	if token == "" {
		return nil, errors.New("poller: bot token is empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("poller: create lock directory: %w", err)
	}

	sum := sha256.Sum256([]byte(token))
	path := filepath.Join(dir, fmt.Sprintf("poll-%x.lock", sum[:8]))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("poller: open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN) {
			if pid, ok := lockOwner(path); ok {
				return nil, fmt.Errorf("%w (owner_pid=%d)", ErrLocked, pid)
			}
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("poller: acquire lock: %w", err)
	}

	if err := f.Truncate(0); err == nil {
		_, _ = f.Seek(0, 0)
		_, _ = fmt.Fprintf(f, "pid=%d\n", os.Getpid())
	}
	return &instanceLock{file: f, path: path}, nil
}

func (l *instanceLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil

	if unlockErr != nil {
		return fmt.Errorf("unlock %s: %w", l.path, unlockErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close %s: %w", l.path, closeErr)
	}
	return nil
}

func lockOwner(path string) (int, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	raw := strings.TrimSpace(string(b))
	pid, err := strconv.Atoi(strings.TrimPrefix(raw, "pid="))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}
