package unittest

import (
	"os"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/require"
)

// RequireCloseBefore fails the test unless c closes within duration.
func RequireCloseBefore(t testing.TB, c <-chan struct{}, duration time.Duration, msg string) {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-c:
	case <-timer.C:
		require.Fail(t, "channel not closed in time: "+msg)
	}
}

// TempDir creates a directory the caller removes.
func TempDir(t testing.TB) string {
	dir, err := os.MkdirTemp("", "bft-testing-temp-")
	require.NoError(t, err)
	return dir
}

// BadgerDB opens a quiet badger database in dir.
func BadgerDB(t testing.TB, dir string) *badger.DB {
	db, err := badger.Open(badger.DefaultOptions(dir).WithKeepL0InMemory(true).WithLogger(nil))
	require.NoError(t, err)
	return db
}

// RunWithBadgerDB runs f against a fresh database in a temporary directory
// that is removed afterwards.
func RunWithBadgerDB(t testing.TB, f func(*badger.DB)) {
	dir := TempDir(t)
	defer os.RemoveAll(dir)
	db := BadgerDB(t, dir)
	defer db.Close()
	f(db)
}
