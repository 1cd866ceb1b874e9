package indexing

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionLock_AcquireAndRelease(t *testing.T) {
	dir := t.TempDir()
	lock := newCollectionLock(dir, "repo", time.Minute)
	require.NoError(t, lock.Acquire())

	data, err := os.ReadFile(filepath.Join(dir, "repo.lock"))
	require.NoError(t, err)
	var payload lockPayload
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, os.Getpid(), payload.OwnerPID)

	require.NoError(t, lock.Release())
	_, err = os.Stat(filepath.Join(dir, "repo.lock"))
	assert.True(t, os.IsNotExist(err))
}

func TestCollectionLock_SecondAcquireFailsWhileHeld(t *testing.T) {
	dir := t.TempDir()
	first := newCollectionLock(dir, "repo", time.Minute)
	require.NoError(t, first.Acquire())
	defer first.Release()

	second := newCollectionLock(dir, "repo", time.Minute)
	err := second.Acquire()
	require.Error(t, err)
}

func TestCollectionLock_StaleLockIsReclaimed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "repo.lock")
	payload := lockPayload{
		OwnerPID:   99999999, // exceedingly unlikely to be a live pid
		OwnerHost:  hostname(),
		AcquiredAt: time.Now().Add(-time.Hour),
		TTL:        time.Minute,
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	lock := newCollectionLock(dir, "repo", time.Minute)
	require.NoError(t, lock.Acquire())
	require.NoError(t, lock.Release())
}
