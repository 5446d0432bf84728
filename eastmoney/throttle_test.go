package eastmoney

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThrottleDelay(t *testing.T) {
	base := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	now := base
	th := NewThrottle(60, 100*time.Millisecond, 0)
	th.now = func() time.Time { return now }

	// 首次只有固定休眠
	assert.Equal(t, 100*time.Millisecond, th.delay())

	// 距上次 400ms, 还需补足到 1s
	now = base.Add(500 * time.Millisecond)
	assert.Equal(t, 700*time.Millisecond, th.delay())

	// 间隔已超过 1s
	now = now.Add(5 * time.Second)
	assert.Equal(t, 100*time.Millisecond, th.delay())
}

func TestThrottleConcurrentCallersQueue(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	th := NewThrottle(60, 0, 0)
	th.now = func() time.Time { return now }

	assert.Equal(t, time.Duration(0), th.delay())
	// 同一时刻的第二个调用方排在一个间隔之后
	assert.Equal(t, time.Second, th.delay())
}

func TestThrottleJitterBounds(t *testing.T) {
	th := NewThrottle(0, 10*time.Millisecond, 20*time.Millisecond)
	for i := 0; i < 50; i++ {
		d := th.delay()
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.Less(t, d, 30*time.Millisecond)
	}
}

func TestCooldown(t *testing.T) {
	c := NewCooldown(2, 0)
	ctx := context.Background()
	assert.NoError(t, c.Failure(ctx))
	assert.Equal(t, 1, c.consec)
	c.Success()
	assert.Equal(t, 0, c.consec)

	c = NewCooldown(2, time.Hour)
	assert.NoError(t, c.Failure(ctx))
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, c.Failure(cctx), context.Canceled)
	assert.Equal(t, 0, c.consec)
}
