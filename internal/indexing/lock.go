package indexing

import (
	"encoding/json"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/sourcelens/semcode/internal/cerr"
)

// lockPayload is the JSON content written into the flocked lock file,
// carrying the liveness information (owner PID + host + TTL) that flock
// itself cannot expose — grounded on the teacher's
// internal/daemon/singleton.go pairing of a socket-bind liveness check
// with a plain file lock, generalized here to a PID+host+TTL payload
// since there is no daemon socket in this design, only a per-collection
// sentinel file (§6 "Lock file layout").
type lockPayload struct {
	OwnerPID   int       `json:"owner_pid"`
	OwnerHost  string    `json:"owner_host"`
	AcquiredAt time.Time `json:"acquired_at"`
	TTL        time.Duration `json:"ttl_nanos"`
}

// collectionLock is the cross-process lock of §4.5/§6: an OS-visible lock
// file held with a non-blocking flock, whose lockPayload (PID, host,
// acquired-at, TTL) is the liveness record; it is reclaimed when the owner
// is dead or the TTL has elapsed. The file is not created with
// exclusive-create and its mtime is not consulted.
type collectionLock struct {
	path string
	ttl  time.Duration
	fl   *flock.Flock
}

func newCollectionLock(stateDir, collection string, ttl time.Duration) *collectionLock {
	return &collectionLock{
		path: filepath.Join(stateDir, collection+".lock"),
		ttl:  ttl,
	}
}

// Acquire implements §4.5 step 1: acquire a per-collection lock, failing
// with CollectionLocked if another live owner holds it, reclaiming it if
// the prior owner is dead or the TTL has elapsed.
func (l *collectionLock) Acquire() error {
	if stale, err := l.isStaleOrAbsent(); err != nil {
		return cerr.Wrap(cerr.IoError, "acquire_lock", "failed to inspect existing lock", err).WithPath(l.path)
	} else if !stale {
		return cerr.New(cerr.CollectionLocked, "acquire_lock", "collection is locked by a live owner").WithPath(l.path)
	}

	fl := flock.New(l.path)
	locked, err := fl.TryLock()
	if err != nil {
		return cerr.Wrap(cerr.IoError, "acquire_lock", "flock failed", err).WithPath(l.path)
	}
	if !locked {
		return cerr.New(cerr.CollectionLocked, "acquire_lock", "another process won the race for this lock").WithPath(l.path)
	}
	l.fl = fl

	payload := lockPayload{
		OwnerPID:   os.Getpid(),
		OwnerHost:  hostname(),
		AcquiredAt: time.Now(),
		TTL:        l.ttl,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		_ = fl.Unlock()
		return cerr.Wrap(cerr.IoError, "acquire_lock", "failed to encode lock payload", err).WithPath(l.path)
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		_ = fl.Unlock()
		return cerr.Wrap(cerr.IoError, "acquire_lock", "failed to write lock payload", err).WithPath(l.path)
	}
	return nil
}

// Release implements §4.5 step 11: release the lock exactly once,
// idempotent if never acquired.
func (l *collectionLock) Release() error {
	if l.fl == nil {
		return nil
	}
	defer func() { l.fl = nil }()
	_ = os.Remove(l.path)
	if err := l.fl.Unlock(); err != nil {
		return cerr.Wrap(cerr.IoError, "release_lock", "failed to release flock", err).WithPath(l.path)
	}
	return nil
}

// isStaleOrAbsent reports whether the lock file is absent, unparsable
// (treated as stale — a prior crash mid-write), owned by a dead process,
// or past its TTL.
func (l *collectionLock) isStaleOrAbsent() (bool, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}

	var payload lockPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return true, nil
	}
	if payload.OwnerHost != hostname() {
		// Can't check liveness of a PID on a different host; fall back
		// purely to the TTL.
		return time.Since(payload.AcquiredAt) > payload.TTL, nil
	}
	if !processAlive(payload.OwnerPID) {
		return true, nil
	}
	if payload.TTL > 0 && time.Since(payload.AcquiredAt) > payload.TTL {
		return true, nil
	}
	return false, nil
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}

// processAlive reports whether pid names a live process, using the
// Unix convention that signal 0 checks for existence/permission without
// actually delivering a signal.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil
}
