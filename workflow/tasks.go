package workflow

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jing2uo/bkboard/database"
	"github.com/jing2uo/bkboard/eastmoney"
	"github.com/jing2uo/bkboard/model"
	"github.com/jing2uo/bkboard/utils"
	"github.com/jing2uo/bkboard/widetable"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoBoards = errors.New("board list is empty")
	ErrNoData   = errors.New("no kline data fetched for any board")
)

// FetchState 在一次 fetch 的各任务之间传递
type FetchState struct {
	TradeDate time.Time
	Table     *widetable.Table
	Loaded    bool // 已存在非空宽表, 走补丁流程
	Dirty     bool
	Failed    []model.Board
}

var (
	TaskResolveDate *Task
	TaskLoadTable   *Task
	TaskBaseline    *Task
	TaskPatchList   *Task
	TaskPatchHis    *Task
	TaskSaveTable   *Task
	TaskSyncDB      *Task
)

func init() {
	TaskResolveDate = &Task{
		Name:     "resolve_date",
		Executor: executeResolveDate,
	}

	TaskLoadTable = &Task{
		Name:     "load_table",
		Executor: executeLoadTable,
	}

	TaskBaseline = &Task{
		Name:      "baseline",
		DependsOn: []string{"resolve_date", "load_table"},
		SkipIf: func(ctx context.Context, db database.DataRepository, args *TaskArgs) bool {
			return args.State.Loaded
		},
		Executor: executeBaseline,
	}

	TaskPatchList = &Task{
		Name:      "patch_list",
		DependsOn: []string{"resolve_date", "load_table"},
		SkipIf: func(ctx context.Context, db database.DataRepository, args *TaskArgs) bool {
			return !args.State.Loaded || args.Config.TodayMode != "list"
		},
		Executor: executePatchList,
		OnError:  ErrorModeSkip,
	}

	TaskPatchHis = &Task{
		Name:      "patch_his",
		DependsOn: []string{"resolve_date", "load_table"},
		SkipIf: func(ctx context.Context, db database.DataRepository, args *TaskArgs) bool {
			return !args.State.Loaded || args.Config.TodayMode != "his"
		},
		Executor: executePatchHis,
		OnError:  ErrorModeSkip,
	}

	TaskSaveTable = &Task{
		Name:        "save_table",
		DependsOn:   []string{"baseline", "patch_list", "patch_his"},
		Executor:    executeSaveTable,
		RunOnCancel: true,
	}

	TaskSyncDB = &Task{
		Name:      "sync_db",
		DependsOn: []string{"save_table"},
		SkipIf: func(ctx context.Context, db database.DataRepository, args *TaskArgs) bool {
			return db == nil || args.State.Table == nil
		},
		Executor: executeSyncDB,
		OnError:  ErrorModeSkip,
	}
}

func executeResolveDate(ctx context.Context, db database.DataRepository, args *TaskArgs) (*TaskResult, error) {
	st := args.State
	if !args.Date.IsZero() {
		st.TradeDate = args.Date
		log.Info().Str("date", st.TradeDate.Format(model.DateLayout)).Msg("📅 使用指定交易日")
		return &TaskResult{State: StateCompleted, Message: "date given"}, nil
	}

	d, err := args.Client.LatestTradeDate(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		st.TradeDate = args.Today
		log.Warn().Err(err).Str("date", st.TradeDate.Format(model.DateLayout)).Msg("⚠️ 获取最近交易日失败, 使用今天")
		return &TaskResult{State: StateCompleted, Message: "fallback to today"}, nil
	}

	st.TradeDate = d
	if d.Before(args.Today) {
		log.Info().Str("date", d.Format(model.DateLayout)).Msg("ℹ️ 今天非交易日或尚未开盘, 使用最近交易日")
	} else {
		log.Info().Str("date", d.Format(model.DateLayout)).Msg("📅 最近交易日")
	}
	return &TaskResult{State: StateCompleted}, nil
}

func executeLoadTable(ctx context.Context, db database.DataRepository, args *TaskArgs) (*TaskResult, error) {
	st := args.State
	path := args.Config.Output

	t, err := widetable.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info().Str("path", path).Msg("🆕 宽表不存在, 将构建基线")
		return &TaskResult{State: StateCompleted, Message: "no table"}, nil
	}
	if err != nil {
		return nil, err
	}
	if t.Empty() {
		log.Info().Str("path", path).Msg("🆕 宽表为空, 将构建基线")
		return &TaskResult{State: StateCompleted, Message: "empty table"}, nil
	}

	st.Table = t
	st.Loaded = true
	dates := t.Dates()
	last := ""
	if len(dates) > 0 {
		last = dates[len(dates)-1]
	}
	log.Info().Int("rows", len(t.Keys())).Int("dates", len(dates)).Str("last", last).Msg("📂 已加载宽表")
	return &TaskResult{State: StateCompleted, Rows: len(t.Keys())}, nil
}

func executeBaseline(ctx context.Context, db database.DataRepository, args *TaskArgs) (*TaskResult, error) {
	st := args.State

	boards, err := args.Client.ListBoards(ctx, args.FS)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	if len(boards) == 0 {
		return nil, ErrNoBoards
	}
	log.Info().Int("boards", len(boards)).Msg("📋 板块列表获取完成, 开始拉取历史 K 线")

	beg := st.TradeDate.AddDate(0, 0, -2*args.Config.Days)
	series, failed := fetchAll(ctx, args, boards, beg, st.TradeDate)
	st.Failed = failed

	if len(series) == 0 {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrNoData
	}

	st.Table = widetable.BuildBaseline(series, boards, args.Format)
	st.Dirty = true

	msg := fmt.Sprintf("%d/%d boards, %d dates", len(series), len(boards), len(st.Table.Dates()))
	if ctx.Err() != nil {
		log.Warn().Str("progress", msg).Msg("⏹️ 已中断, 保留已抓取的部分")
	} else {
		log.Info().Str("progress", msg).Int("failed", len(failed)).Msg("✅ 基线构建完成")
	}
	return &TaskResult{State: StateCompleted, Rows: len(series), Message: msg}, nil
}

func executePatchList(ctx context.Context, db database.DataRepository, args *TaskArgs) (*TaskResult, error) {
	st := args.State
	date := st.TradeDate.Format(model.DateLayout)

	quotes, err := args.Client.Snapshot(ctx, args.FS)
	if err != nil {
		return nil, fmt.Errorf("snapshot failed, keeping column %s unchanged: %w", date, err)
	}
	if len(quotes) == 0 {
		log.Warn().Str("date", date).Msg("⚠️ 快照为空, 保留原有列")
		return &TaskResult{State: StateSkipped, Message: "empty snapshot"}, nil
	}

	res := st.Table.PatchToday(date, quotes, args.Format)
	logPatch(res)
	st.Dirty = true
	return &TaskResult{State: StateCompleted, Rows: res.Updated}, nil
}

func executePatchHis(ctx context.Context, db database.DataRepository, args *TaskArgs) (*TaskResult, error) {
	st := args.State
	date := st.TradeDate.Format(model.DateLayout)

	boards, err := args.Client.ListBoards(ctx, args.FS)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	if len(boards) == 0 {
		return nil, ErrNoBoards
	}

	series, failed := fetchAll(ctx, args, boards, st.TradeDate, st.TradeDate)
	st.Failed = failed

	bars := make(map[model.Board]model.KlineBar, len(series))
	for _, s := range series {
		for _, b := range s.Bars {
			if b.Date.Equal(st.TradeDate) {
				bars[s.Board] = b
				break
			}
		}
	}

	// 列表中的所有板块都要有行, 没取到数据的留空
	quotes := make([]model.BoardQuote, 0, len(boards))
	for _, b := range boards {
		q := model.NewBoardQuote(b)
		if bar, ok := bars[b]; ok {
			q.Pct = bar.Pct
			q.Close = bar.Close
		}
		quotes = append(quotes, q)
	}

	res := st.Table.PatchToday(date, quotes, args.Format)
	logPatch(res)
	if res.Updated > 0 || len(res.Appended) > 0 {
		st.Dirty = true
	}
	if len(failed) > 0 {
		log.Warn().Int("failed", len(failed)).Msg("⚠️ 部分板块仍未取到, 已保留原值")
	}
	return &TaskResult{State: StateCompleted, Rows: res.Updated}, nil
}

func executeSaveTable(ctx context.Context, db database.DataRepository, args *TaskArgs) (*TaskResult, error) {
	st := args.State
	if st.Table == nil || !st.Dirty {
		return &TaskResult{State: StateSkipped, Message: "nothing to save"}, nil
	}

	path := args.Config.Output
	if err := st.Table.Write(path); err != nil {
		return nil, fmt.Errorf("failed to save wide table: %w", err)
	}
	st.Dirty = false
	log.Info().Str("path", path).Int("rows", len(st.Table.Keys())).Int("dates", len(st.Table.Dates())).Msg("💾 宽表已保存")
	return &TaskResult{State: StateCompleted, Rows: len(st.Table.Keys())}, nil
}

func executeSyncDB(ctx context.Context, db database.DataRepository, args *TaskArgs) (*TaskResult, error) {
	rows, err := SyncToDB(ctx, db, args.State.Table, args.TempDir)
	if err != nil {
		return nil, err
	}
	return &TaskResult{State: StateCompleted, Rows: rows}, nil
}

// SyncToDB 把宽表从库中最新日期起的部分展开后写入 board_daily.
// 今日列可变, 所以先删掉最新日期及之后的数据再导入.
func SyncToDB(ctx context.Context, db database.DataRepository, table *widetable.Table, tempDir string) (int, error) {
	latest, err := db.GetLatestDate(model.TableBoardDaily.TableName, "date")
	if err != nil {
		return 0, fmt.Errorf("failed to get latest date from database: %w", err)
	}

	var dates []string
	for _, d := range table.Dates() {
		if latest.IsZero() || d >= latest.Format(model.DateLayout) {
			dates = append(dates, d)
		}
	}
	recs := widetable.ToBoardDaily(table.Melt(dates...))
	if len(recs) == 0 {
		log.Info().Msg("🌲 数据库无需更新")
		return 0, nil
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	csvPath := filepath.Join(tempDir, "board_daily.csv")
	w, err := utils.NewCSVWriter[model.BoardDaily](csvPath)
	if err != nil {
		return 0, err
	}
	defer os.Remove(csvPath)
	if err := w.Write(recs); err != nil {
		w.Close()
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}

	if err := db.DeleteSince(model.TableBoardDaily, "date", latest); err != nil {
		return 0, err
	}
	if err := db.ImportBoardDaily(csvPath); err != nil {
		return 0, fmt.Errorf("failed to import board csv: %w", err)
	}

	log.Info().Int("rows", len(recs)).Str("from", dates[0]).Msg("📊 数据库同步完成")
	return len(recs), nil
}

func logPatch(res widetable.PatchResult) {
	log.Info().
		Str("date", res.Date).
		Int("quotes", res.Quotes).
		Int("ranked", res.Ranked).
		Int("updated", res.Updated).
		Int("appended", len(res.Appended)).
		Msg("🩹 今日列已更新")
	if len(res.Appended) > 0 {
		log.Info().Strs("boards", head(res.Appended, 10)).Msg("🆕 新增板块")
	}
	if len(res.Kept) > 0 {
		log.Warn().Strs("boards", head(res.Kept, 10)).Int("count", len(res.Kept)).Msg("⚠️ 接口缺失的板块, 已保留今日原值")
	}
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// fetchAll 第一轮按配置并发抓取, 失败的板块再以更长超时、减半频率顺序补抓
func fetchAll(ctx context.Context, args *TaskArgs, boards []model.Board, beg, end time.Time) ([]widetable.Series, []model.Board) {
	cfg := args.Config
	cooldown := eastmoney.NewCooldown(cfg.Throttle.CooldownAfter, cfg.Throttle.Cooldown)

	first := seriesFetch{
		client:   args.Client,
		throttle: eastmoney.NewThrottle(cfg.Throttle.RPM, cfg.Throttle.Sleep, cfg.Throttle.Jitter),
		cooldown: cooldown,
		workers:  cfg.Throttle.Workers,
		beg:      beg,
		end:      end,
		label:    "pass1",
	}
	series, failed := first.run(ctx, boards)

	for round := 1; round <= cfg.Pass2.Rounds && len(failed) > 0 && ctx.Err() == nil; round++ {
		log.Warn().Int("failed", len(failed)).Int("round", round).Msg("🐢 慢速补抓失败板块")
		slow := seriesFetch{
			client: args.Client.With(func(o *eastmoney.Options) {
				o.Timeout = cfg.Pass2.Timeout
				o.Retries++
				o.BackoffBase = time.Second
				o.Jitter = 500 * time.Millisecond
			}),
			throttle: eastmoney.NewThrottle(cfg.Throttle.RPM/2, cfg.Pass2.Sleep, cfg.Pass2.Sleep/2),
			cooldown: cooldown,
			workers:  1,
			beg:      beg,
			end:      end,
			label:    "pass2",
		}
		var more []widetable.Series
		more, failed = slow.run(ctx, failed)
		series = append(series, more...)
	}

	// 排名的同值顺序依赖输入顺序, 与并发完成顺序无关
	pos := make(map[model.Board]int, len(boards))
	for i, b := range boards {
		pos[b] = i
	}
	sort.SliceStable(series, func(i, j int) bool { return pos[series[i].Board] < pos[series[j].Board] })
	sort.SliceStable(failed, func(i, j int) bool { return pos[failed[i]] < pos[failed[j]] })
	return series, failed
}

type seriesFetch struct {
	client   *eastmoney.Client
	throttle *eastmoney.Throttle
	cooldown *eastmoney.Cooldown
	workers  int
	beg, end time.Time
	label    string
}

var errNoBars = errors.New("empty kline")

func (f seriesFetch) run(ctx context.Context, boards []model.Board) ([]widetable.Series, []model.Board) {
	var (
		mu     sync.Mutex
		series []widetable.Series
		failed []model.Board
		done   atomic.Int64
	)
	total := len(boards)

	pipeline := utils.NewPipeline[model.Board, widetable.Series](utils.WithConcurrency(f.workers))
	res, _ := pipeline.Run(ctx, boards,
		func(ctx context.Context, b model.Board) ([]widetable.Series, error) {
			if err := f.throttle.Wait(ctx); err != nil {
				return nil, err
			}

			bars, err := f.client.Kline(ctx, b.Code, f.beg, f.end)
			n := done.Add(1)
			if err == nil && len(bars) == 0 {
				err = errNoBars
			}
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				mu.Lock()
				failed = append(failed, b)
				mu.Unlock()
				log.Warn().Str("pass", f.label).Str("board", b.RowKey()).Err(err).Msgf("⚠️ [%d/%d] 抓取失败", n, total)
				if cerr := f.cooldown.Failure(ctx); cerr != nil {
					return nil, cerr
				}
				return nil, err
			}

			f.cooldown.Success()
			if n%20 == 0 || int(n) == total {
				log.Info().Str("pass", f.label).Msgf("🐢 [%d/%d] 已处理", n, total)
			}
			return []widetable.Series{{Board: b, Bars: bars}}, nil
		},
		func(rows []widetable.Series) error {
			mu.Lock()
			series = append(series, rows...)
			mu.Unlock()
			return nil
		})

	if res != nil && res.SkippedItems > 0 {
		log.Warn().Str("pass", f.label).Int64("skipped", res.SkippedItems).Msg("⏹️ 已中断, 剩余板块未抓取")
	}
	return series, failed
}

func GetRegisteredTasks() map[string]*Task {
	return map[string]*Task{
		"resolve_date": TaskResolveDate,
		"load_table":   TaskLoadTable,
		"baseline":     TaskBaseline,
		"patch_list":   TaskPatchList,
		"patch_his":    TaskPatchHis,
		"save_table":   TaskSaveTable,
		"sync_db":      TaskSyncDB,
	}
}

func GetFetchTaskNames() []string {
	return []string{
		"resolve_date",
		"load_table",
		"baseline",
		"patch_list",
		"patch_his",
		"save_table",
		"sync_db",
	}
}
