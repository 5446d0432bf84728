package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultFile = "bkboard.yaml"
	EnvConfig   = "BKBOARD_CONFIG"
	EnvDB       = "BKBOARD_DB"
)

type HTTP struct {
	Timeout time.Duration `yaml:"timeout"`
	Retries int           `yaml:"retries"`
	Backoff time.Duration `yaml:"backoff"`
	Verbose bool          `yaml:"verbose"`
}

type Throttle struct {
	RPM           float64       `yaml:"rpm"`
	Sleep         time.Duration `yaml:"sleep"`
	Jitter        time.Duration `yaml:"jitter"`
	CooldownAfter int           `yaml:"cooldown_after"`
	Cooldown      time.Duration `yaml:"cooldown"`
	Workers       int           `yaml:"workers"`
}

// Pass2 失败板块的慢速补抓
type Pass2 struct {
	Timeout time.Duration `yaml:"timeout"`
	Sleep   time.Duration `yaml:"sleep"`
	Rounds  int           `yaml:"rounds"`
}

type Chart struct {
	Dir       string   `yaml:"dir"`
	Days      int      `yaml:"days"`
	TopK      int      `yaml:"topk"`
	MinTimes  int      `yaml:"min_times"`
	BarTopK   int      `yaml:"bar_topk"`
	BarMin    int      `yaml:"bar_min_times"`
	Lookbacks []int    `yaml:"lookbacks"`
	TopRank   int      `yaml:"top_rank"`
	TopRange  int      `yaml:"top_range"`
	NavDays   int      `yaml:"nav_days"`
	Exclude   []string `yaml:"exclude"`
}

type Report struct {
	Workbook string `yaml:"workbook"`
	Prefix   string `yaml:"prefix"`
	TopK     int    `yaml:"topk"`
	Heatmap  string `yaml:"heatmap"`
}

type Config struct {
	Kind       string   `yaml:"kind"`
	Output     string   `yaml:"output"`
	Days       int      `yaml:"days"`
	CellFormat string   `yaml:"cell_format"`
	TodayMode  string   `yaml:"today_mode"`
	DB         string   `yaml:"db"`
	LogLevel   string   `yaml:"log_level"`
	HTTP       HTTP     `yaml:"http"`
	Throttle   Throttle `yaml:"throttle"`
	Pass2      Pass2    `yaml:"pass2"`
	Chart      Chart    `yaml:"chart"`
	Report     Report   `yaml:"report"`
}

func Default() *Config {
	return &Config{
		Kind:       "concept",
		Output:     "data/bk_concept.csv",
		Days:       90,
		CellFormat: "triplet",
		TodayMode:  "list",
		LogLevel:   "info",
		HTTP: HTTP{
			Timeout: 4500 * time.Millisecond,
			Retries: 4,
			Backoff: 600 * time.Millisecond,
		},
		Throttle: Throttle{
			RPM:           18,
			Sleep:         time.Second,
			Jitter:        400 * time.Millisecond,
			CooldownAfter: 4,
			Cooldown:      8 * time.Second,
			Workers:       1,
		},
		Pass2: Pass2{
			Timeout: 9 * time.Second,
			Sleep:   2 * time.Second,
			Rounds:  1,
		},
		Chart: Chart{
			Dir:       "html",
			Days:      90,
			TopK:      5,
			MinTimes:  10,
			BarTopK:   1,
			BarMin:    3,
			Lookbacks: []int{1, 5},
			TopRank:   30,
			TopRange:  20,
			NavDays:   60,
			Exclude: []string{
				"昨日涨停", "昨日涨停_含一字", "昨日连板", "昨日连板_含一字",
				"昨日触板", "次新股", "注册制次新股", "最近多板",
			},
		},
		Report: Report{
			Workbook: "html/bk_day.xlsx",
			Prefix:   "Concept",
			TopK:     20,
			Heatmap:  "html/bk_heatmap.xlsx",
		},
	}
}

// Load 依次应用默认值、配置文件与环境变量.
// path 为空时读取 $BKBOARD_CONFIG, 再退回当前目录的 bkboard.yaml (不存在不报错)
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfig)
		explicit = path != ""
	}
	if path == "" {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if db := os.Getenv(EnvDB); db != "" {
		cfg.DB = db
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Days <= 0 {
		return fmt.Errorf("days must be positive, got %d", c.Days)
	}
	if c.TodayMode != "list" && c.TodayMode != "his" {
		return fmt.Errorf("today_mode must be list or his, got %q", c.TodayMode)
	}
	if c.Throttle.RPM < 0 {
		return fmt.Errorf("rpm must not be negative")
	}
	if c.Throttle.Workers <= 0 {
		c.Throttle.Workers = 1
	}
	if c.HTTP.Retries < 0 {
		c.HTTP.Retries = 0
	}
	return nil
}
