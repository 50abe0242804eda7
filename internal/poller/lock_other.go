//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package poller

import "errors"

var ErrLocked = errors.New("another poller is already running for this bot token")

type instanceLock struct{}

// acquireLock is a no-op where flock is unavailable.
func acquireLock(_, _ string) (*instanceLock, error) { return &instanceLock{}, nil }

func (l *instanceLock) Release() error { return nil }
