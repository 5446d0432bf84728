package eastmoney

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jing2uo/bkboard/model"
	jsoniter "github.com/json-iterator/go"
)

const (
	klineFields1 = "f1,f2,f3,f4,f5"
	klineFields2 = "f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61"

	// 上证指数, 用来判断最近交易日
	compositeSecID = "1.000001"
)

// Kline 拉取板块 [beg, end] 区间的日 K
func (c *Client) Kline(ctx context.Context, code string, beg, end time.Time) ([]model.KlineBar, error) {
	params := klineParams("90." + code)
	params.Set("beg", beg.Format("20060102"))
	params.Set("end", end.Format("20060102"))

	bars, err := c.fetchKline(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch kline of %s: %w", code, err)
	}
	return bars, nil
}

// LatestTradeDate 上证指数最近一根日 K 的日期
func (c *Client) LatestTradeDate(ctx context.Context) (time.Time, error) {
	params := klineParams(compositeSecID)
	params.Set("end", "20500101")
	params.Set("lmt", "1")

	bars, err := c.fetchKline(ctx, params)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to fetch latest trade date: %w", err)
	}
	if len(bars) == 0 {
		return time.Time{}, errors.New("no kline returned for composite index")
	}
	return bars[len(bars)-1].Date, nil
}

func klineParams(secid string) url.Values {
	return url.Values{
		"secid":   {secid},
		"fields1": {klineFields1},
		"fields2": {klineFields2},
		"klt":     {"101"},
		"fqt":     {"0"},
	}
}

func (c *Client) fetchKline(ctx context.Context, params url.Values) ([]model.KlineBar, error) {
	var lines []string
	err := c.get(ctx, c.opts.KlineURL, params, func(b []byte) error {
		if !json.Valid(b) {
			return errors.New("response is not json")
		}
		lines = nil
		node := json.Get(b, "data", "klines")
		if node.ValueType() != jsoniter.ArrayValue {
			// data 为 null: 该区间没有数据
			return nil
		}
		node.ToVal(&lines)
		return node.LastError()
	})
	if err != nil {
		return nil, err
	}
	return ParseKlines(lines), nil
}

// ParseKlines 解析逗号分隔的 K 线, 字段不足 11 个或日期无效的行被跳过.
// 字段: 日期,开,收,高,低,量,额,振幅,涨跌幅,涨跌额,换手
func ParseKlines(lines []string) []model.KlineBar {
	bars := make([]model.KlineBar, 0, len(lines))
	for _, line := range lines {
		parts := strings.Split(line, ",")
		if len(parts) < 11 {
			continue
		}
		d, err := time.Parse(model.DateLayout, strings.TrimSpace(parts[0]))
		if err != nil {
			continue
		}
		bars = append(bars, model.KlineBar{
			Date:  d,
			Close: parseNumber(parts[2]),
			Pct:   parseNumber(parts[8]),
		})
	}
	return bars
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
