package eastmoney

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/jing2uo/bkboard/model"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"
)

const (
	listFields     = "f12,f14"
	snapshotFields = "f12,f14,f2,f3,f8,f104,f105,f128"
)

type listPage struct {
	Data *struct {
		Total int              `json:"total"`
		Diff  []map[string]any `json:"diff"`
	} `json:"data"`
}

// paginate 逐页拉取 clist, 空页或累计条数达到 total 时停止
func (c *Client) paginate(ctx context.Context, fs, fields string, visit func(item map[string]any)) error {
	fetched := 0
	for pn := 1; pn <= c.opts.MaxPages; pn++ {
		params := url.Values{
			"pn":     {strconv.Itoa(pn)},
			"pz":     {strconv.Itoa(c.opts.PageSize)},
			"po":     {"1"},
			"np":     {"1"},
			"fltt":   {"2"},
			"invt":   {"2"},
			"fid":    {"f3"},
			"fs":     {fs},
			"fields": {fields},
		}

		var page listPage
		err := c.get(ctx, c.opts.ListURL, params, func(b []byte) error {
			page = listPage{}
			return json.Unmarshal(b, &page)
		})
		if err != nil {
			return fmt.Errorf("failed to fetch board list page %d: %w", pn, err)
		}
		if page.Data == nil || len(page.Data.Diff) == 0 {
			break
		}

		for _, item := range page.Data.Diff {
			visit(item)
		}
		fetched += len(page.Data.Diff)
		log.Debug().Int("page", pn).Int("rows", len(page.Data.Diff)).Int("total", page.Data.Total).Msg("clist page")

		if page.Data.Total > 0 && fetched >= page.Data.Total {
			break
		}
	}
	return nil
}

// ListBoards 获取板块列表, 按 (code, name) 去重并保持接口顺序
func (c *Client) ListBoards(ctx context.Context, fs string) ([]model.Board, error) {
	var boards []model.Board
	seen := make(map[model.Board]bool)

	err := c.paginate(ctx, fs, listFields, func(item map[string]any) {
		b := model.Board{Code: toText(item["f12"]), Name: toText(item["f14"])}
		if b.Code == "" || b.Name == "" || seen[b] {
			return
		}
		seen[b] = true
		boards = append(boards, b)
	})
	if err != nil {
		return nil, err
	}
	return boards, nil
}

// Snapshot 获取所有板块今日行情
func (c *Client) Snapshot(ctx context.Context, fs string) ([]model.BoardQuote, error) {
	var quotes []model.BoardQuote
	seen := make(map[model.Board]bool)

	err := c.paginate(ctx, fs, snapshotFields, func(item map[string]any) {
		b := model.Board{Code: toText(item["f12"]), Name: toText(item["f14"])}
		if b.Code == "" || b.Name == "" || seen[b] {
			return
		}
		seen[b] = true

		q := model.NewBoardQuote(b)
		q.Close = toFloat(item["f2"])
		q.Pct = toFloat(item["f3"])
		q.Turnover = toFloat(item["f8"])
		q.Up = toCount(item["f104"])
		q.Down = toCount(item["f105"])
		q.Leader = toText(item["f128"])
		quotes = append(quotes, q)
	})
	if err != nil {
		return nil, err
	}
	return quotes, nil
}

// 接口里缺失的数值会以 "-"、空串或 null 出现
func toFloat(v any) float64 {
	if v == nil {
		return math.NaN()
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" || s == "-" {
			return math.NaN()
		}
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

func toCount(v any) int {
	f := toFloat(v)
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	return int(f)
}

func toText(v any) string {
	if v == nil {
		return ""
	}
	s := strings.TrimSpace(cast.ToString(v))
	if s == "-" {
		return ""
	}
	return s
}
