package eastmoney

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

const (
	ListURL  = "https://push2.eastmoney.com/api/qt/clist/get"
	KlineURL = "https://push2his.eastmoney.com/api/qt/stock/kline/get"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var defaultHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0",
	"Referer":    "https://quote.eastmoney.com/",
	"Accept":     "application/json, text/plain, */*",
	"Connection": "keep-alive",
}

// 需要重试的 HTTP 状态码
var retryStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

type Options struct {
	Timeout     time.Duration
	Retries     int
	BackoffBase time.Duration
	Jitter      time.Duration
	Verbose     bool
	PageSize    int
	MaxPages    int

	// 测试时可替换为本地服务
	ListURL  string
	KlineURL string
}

func DefaultOptions() Options {
	return Options{
		Timeout:     4500 * time.Millisecond,
		Retries:     4,
		BackoffBase: 600 * time.Millisecond,
		Jitter:      350 * time.Millisecond,
		PageSize:    100,
		MaxPages:    50,
		ListURL:     ListURL,
		KlineURL:    KlineURL,
	}
}

type Client struct {
	http *http.Client
	opts Options
}

func NewClient(opts Options) *Client {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = def.BackoffBase
	}
	if opts.PageSize <= 0 || opts.PageSize > 100 {
		opts.PageSize = def.PageSize
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = def.MaxPages
	}
	if opts.ListURL == "" {
		opts.ListURL = def.ListURL
	}
	if opts.KlineURL == "" {
		opts.KlineURL = def.KlineURL
	}
	return &Client{
		http: &http.Client{Timeout: opts.Timeout},
		opts: opts,
	}
}

// With 基于当前配置派生一个新客户端, 用于第二轮慢速重试
func (c *Client) With(modify func(*Options)) *Client {
	opts := c.opts
	modify(&opts)
	return NewClient(opts)
}

func (c *Client) Options() Options { return c.opts }

// StatusError 非 200 响应
type StatusError struct {
	Code       int
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected http status %d", e.Code)
}

// 网络错误、超时与解析失败都重试, 状态码只重试限流和网关类错误
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return retryStatus[se.Code]
	}
	return true
}

// get 带退避重试的 GET, decode 失败 (限流时常返回空体或 HTML) 同样计入重试
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, decode func([]byte) error) error {
	var lastErr error
	backoff := c.opts.BackoffBase

	for attempt := 0; attempt <= c.opts.Retries; attempt++ {
		if attempt > 0 {
			wait := backoff
			if c.opts.Jitter > 0 {
				wait += time.Duration(rand.Int64N(int64(c.opts.Jitter)))
			}
			var se *StatusError
			if errors.As(lastErr, &se) && se.RetryAfter > wait {
				wait = se.RetryAfter
			}
			if err := sleepCtx(ctx, wait); err != nil {
				return err
			}
			backoff *= 2
		}

		body, err := c.do(ctx, endpoint, params)
		if err == nil {
			if err = decode(body); err != nil {
				err = fmt.Errorf("failed to decode response: %w", err)
			}
		}
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
		if !retryable(err) {
			return err
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", c.opts.Retries+1, lastErr)
}

func (c *Client) do(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range defaultHeaders {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.trace(req.URL, params, 0, time.Since(start), err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.trace(req.URL, params, resp.StatusCode, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}
	return body, nil
}

func (c *Client) trace(u *url.URL, params url.Values, status int, took time.Duration, err error) {
	if !c.opts.Verbose {
		return
	}
	ev := log.Info().Str("path", u.Path).Int("status", status).Dur("took", took)
	for _, k := range []string{"fs", "secid", "beg", "end", "klt", "lmt", "pn"} {
		if v := params.Get(k); v != "" {
			ev = ev.Str(k, v)
		}
	}
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("🌐 HTTP")
}

// parseRetryAfter 只支持秒数形式
func parseRetryAfter(v string) time.Duration {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
