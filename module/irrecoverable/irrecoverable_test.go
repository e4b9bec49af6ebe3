package irrecoverable

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrow_FirstErrorWins(t *testing.T) {
	ctx, errChan := WithSignaler(context.Background())
	first := errors.New("first")

	done := make(chan struct{})
	for _, err := range []error{first, errors.New("second")} {
		err := err
		go func() {
			defer func() { done <- struct{}{} }()
			Throw(ctx, err)
			t.Error("goroutine continued after Throw")
		}()
		<-done
	}

	thrown, ok := <-errChan
	require.True(t, ok)
	assert.ErrorIs(t, thrown, first)
	_, ok = <-errChan
	assert.False(t, ok)
}
