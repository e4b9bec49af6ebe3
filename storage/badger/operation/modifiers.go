package operation

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/sethvargo/go-retry"
)

const (
	conflictRetryBase = 5 * time.Millisecond
	conflictRetryMax  = 200 * time.Millisecond
	conflictRetries   = 10
)

// RetryOnConflict runs op with action and retries with capped exponential
// backoff as long as badger reports a transaction conflict.
func RetryOnConflict(action func(func(*badger.Txn) error) error, op func(tx *badger.Txn) error) error {
	backoff := retry.NewExponential(conflictRetryBase)
	backoff = retry.WithCappedDuration(conflictRetryMax, backoff)
	backoff = retry.WithMaxRetries(conflictRetries, backoff)

	return retry.Do(context.Background(), backoff, func(context.Context) error {
		err := action(op)
		if errors.Is(err, badger.ErrConflict) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// TerminateOnFullDisk panics on a write that failed for lack of disk space.
// A replica that cannot persist its safety state must not keep voting.
func TerminateOnFullDisk(err error) error {
	if errors.Is(err, syscall.ENOSPC) {
		panic(fmt.Sprintf("disk full, terminating replica: %v", err))
	}
	return err
}
