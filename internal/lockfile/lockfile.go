// Package lockfile implements mutual exclusion over shared state files via
// an exclusive-create lock file with staleness recovery.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// StaleAfter is how old a lock must be before it is considered abandoned
// when liveness probing is unavailable or inconclusive.
const StaleAfter = 10 * time.Minute

// Lock is a held lock file. Release deletes it.
type Lock struct {
	path string
}

// Acquire attempts to take the lock at lockPath. It returns (nil, nil) when
// the lock is legitimately held by a live process: callers treat that as
// "skip this pass and read existing data", never as an error. A stale lock
// (dead pid, or old enough when liveness is inconclusive) is deleted and
// the create is retried exactly once.
func Acquire(lockPath string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating lock dir: %w", err)
	}

	lock, err := tryCreate(lockPath)
	if err == nil {
		return lock, nil
	}
	if !os.IsExist(err) {
		return nil, fmt.Errorf("creating lock file: %w", err)
	}

	if !isStale(lockPath) {
		return nil, nil
	}

	// Abandoned lock: reclaim it. A racing reclaimer may win the retry,
	// in which case we back off like any other held lock.
	_ = os.Remove(lockPath)
	lock, err = tryCreate(lockPath)
	if err != nil {
		if os.IsExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reclaiming lock file: %w", err)
	}
	return lock, nil
}

// Release deletes the lock file.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("releasing lock: %w", err)
	}
	return nil
}

func tryCreate(lockPath string) (*Lock, error) {
	f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, err
	}
	_, werr := fmt.Fprintf(f, "%d\n%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	cerr := f.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(lockPath)
		if werr != nil {
			return nil, werr
		}
		return nil, cerr
	}
	return &Lock{path: lockPath}, nil
}

// isStale decides whether an existing lock file can be reclaimed.
// Preference order: liveness-probe the recorded pid, then fall back to the
// recorded timestamp's age. A lock with neither is treated as stale.
func isStale(lockPath string) bool {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		// Raced with a release; the retry path sorts it out.
		return os.IsNotExist(err)
	}

	pid, ts, ok := parseLock(string(data))
	if !ok {
		return true
	}

	if pid > 0 {
		switch probe(pid) {
		case probeAlive:
			return false
		case probeDead:
			return true
		}
	}

	if ts.IsZero() {
		return true
	}
	return time.Since(ts) > StaleAfter
}

// parseLock reads the two-line lock format: pid, then an RFC3339 timestamp.
func parseLock(content string) (pid int, ts time.Time, ok bool) {
	lines := strings.SplitN(strings.TrimSpace(content), "\n", 3)
	if len(lines) == 0 || lines[0] == "" {
		return 0, time.Time{}, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return 0, time.Time{}, false
	}
	if len(lines) > 1 {
		ts, _ = time.Parse(time.RFC3339, strings.TrimSpace(lines[1]))
	}
	return pid, ts, true
}

type probeResult int

const (
	probeAlive probeResult = iota
	probeDead
	probeInconclusive
)

// probe signal-checks a pid without delivering a signal. On Windows
// FindProcess cannot distinguish live from dead, so the result is
// inconclusive and the caller falls back to the age threshold.
func probe(pid int) probeResult {
	if runtime.GOOS == "windows" {
		return probeInconclusive
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return probeDead
	}
	err = proc.Signal(syscall.Signal(0))
	switch {
	case err == nil:
		return probeAlive
	case errors.Is(err, syscall.EPERM):
		// The process exists but belongs to someone else.
		return probeAlive
	default:
		return probeDead
	}
}
