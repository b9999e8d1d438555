package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (c *countingRefresher) RefreshAll(context.Context) (int, error) {
	c.calls.Add(1)
	return 1, c.err
}

func TestRevalueJob_RunsUntilCancelled(t *testing.T) {
	r := &countingRefresher{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewRevalueJob(10*time.Millisecond, r).Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return r.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not stop after cancel")
	}
}

func TestRevalueJob_KeepsRunningAfterFailure(t *testing.T) {
	r := &countingRefresher{err: errors.New("oracle down")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewRevalueJob(5*time.Millisecond, r).Start(ctx)

	assert.Eventually(t, func() bool { return r.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}
