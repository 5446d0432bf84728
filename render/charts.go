package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jing2uo/bkboard/analysis"
	"github.com/jing2uo/bkboard/config"
	"github.com/jing2uo/bkboard/widetable"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type job struct {
	name  string
	write func(w io.Writer) error
}

// Charts 按配置从宽表生成全部图表页面, 返回写出的文件路径
func Charts(ctx context.Context, t *widetable.Table, cfg config.Chart) ([]string, error) {
	recs, dates := analysis.Window(t.Melt(t.LastDates(cfg.Days)...), 0)
	if len(dates) == 0 {
		return nil, fmt.Errorf("wide table has no date column")
	}
	navRecs, navDates := analysis.Window(t.Melt(t.LastDates(cfg.NavDays)...), 0)
	filtered := analysis.ExcludeBoards(recs, cfg.Exclude)
	mmdd := dates[len(dates)-1].Format("0102")

	jobs := []job{
		{fmt.Sprintf("bk_top%d_dot.html", cfg.TopK), func(w io.Writer) error {
			return TopKDot(w, recs, dates, cfg.TopK, cfg.MinTimes)
		}},
		{fmt.Sprintf("bk_top%d_bar.html", cfg.BarTopK), func(w io.Writer) error {
			return TopKBar(w, recs, dates, cfg.BarTopK, cfg.BarMin)
		}},
		{"vis_all.html", func(w io.Writer) error {
			return BoardNav(w, navRecs, navDates)
		}},
	}
	for _, lb := range cfg.Lookbacks {
		jobs = append(jobs,
			job{fmt.Sprintf("kcon%d_%s.html", lb, mmdd), func(w io.Writer) error {
				_, err := LookbackRank(w, filtered, dates, lb, cfg.TopRank)
				return err
			}},
			job{fmt.Sprintf("gcon%d_%s.html", lb, mmdd), func(w io.Writer) error {
				_, err := LookbackRange(w, filtered, dates, lb, cfg.TopRange)
				return err
			}},
		)
	}

	var (
		mu      sync.Mutex
		written []string
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			path := filepath.Join(cfg.Dir, j.name)
			err := writeFile(path, j.write)
			if errors.Is(err, ErrNothingToPlot) {
				log.Warn().Str("chart", j.name).Msg("⚠️ 没有满足条件的板块, 跳过")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to render %s: %w", j.name, err)
			}
			log.Info().Str("path", path).Dur("took", time.Since(start)).Msg("📈 图表已生成")
			mu.Lock()
			written = append(written, path)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return written, err
	}
	sort.Strings(written)
	return written, nil
}
