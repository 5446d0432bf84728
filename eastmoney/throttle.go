package eastmoney

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Throttle 礼貌限速: 两次请求间至少间隔 60/rpm 秒, 另加固定休眠与随机抖动
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	sleep    time.Duration
	jitter   time.Duration
	last     time.Time
	now      func() time.Time
}

// NewThrottle rpm 为 0 时不限制频率, 只保留固定休眠与抖动
func NewThrottle(rpm float64, sleep, jitter time.Duration) *Throttle {
	var interval time.Duration
	if rpm > 0 {
		interval = time.Duration(float64(time.Minute) / rpm)
	}
	return &Throttle{
		interval: interval,
		sleep:    sleep,
		jitter:   jitter,
		now:      time.Now,
	}
}

// delay 计算本次需要等待的时长并预约时间槽, 并发调用方会依次排开
func (t *Throttle) delay() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	var wait time.Duration
	if !t.last.IsZero() && t.interval > 0 {
		if elapsed := now.Sub(t.last); elapsed < t.interval {
			wait = t.interval - elapsed
		}
	}
	wait += t.sleep
	if t.jitter > 0 {
		wait += time.Duration(rand.Float64() * float64(t.jitter))
	}
	t.last = now.Add(wait)
	return wait
}

func (t *Throttle) Wait(ctx context.Context) error {
	return sleepCtx(ctx, t.delay())
}

// Cooldown 连续失败达到阈值后整体休息一段时间
type Cooldown struct {
	mu     sync.Mutex
	after  int
	pause  time.Duration
	consec int
}

func NewCooldown(after int, pause time.Duration) *Cooldown {
	return &Cooldown{after: after, pause: pause}
}

func (c *Cooldown) Success() {
	c.mu.Lock()
	c.consec = 0
	c.mu.Unlock()
}

// Failure 记一次失败, 达到阈值时休眠并清零
func (c *Cooldown) Failure(ctx context.Context) error {
	c.mu.Lock()
	c.consec++
	hit := c.after > 0 && c.consec >= c.after
	if hit {
		c.consec = 0
	}
	c.mu.Unlock()

	if !hit || c.pause <= 0 {
		return nil
	}
	log.Warn().Int("after", c.after).Dur("pause", c.pause).Msg("🧊 连续失败, 冷却中")
	return sleepCtx(ctx, c.pause)
}
