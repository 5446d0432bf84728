package cmd

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jing2uo/bkboard/config"
	"github.com/jing2uo/bkboard/database"
	"github.com/jing2uo/bkboard/model"
	"github.com/rs/zerolog/log"
)

// boardRow 接口输出, 缺失值输出为 null
type boardRow struct {
	Date  string   `json:"date"`
	Code  string   `json:"code"`
	Name  string   `json:"name"`
	Rank  *int64   `json:"rank"`
	Pct   *float64 `json:"pct"`
	Value *float64 `json:"value"`
}

func toRows(recs []model.BoardDaily) []boardRow {
	out := make([]boardRow, len(recs))
	for i, r := range recs {
		row := boardRow{Date: r.Date.Format(model.DateLayout), Code: r.Code, Name: r.Name}
		if r.Rank > 0 {
			rank := r.Rank
			row.Rank = &rank
		}
		if !math.IsNaN(r.Pct) {
			pct := r.Pct
			row.Pct = &pct
		}
		if !math.IsNaN(r.Value) {
			v := r.Value
			row.Value = &v
		}
		out[i] = row
	}
	return out
}

func parseDateQuery(c *gin.Context, key string) (*time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	d, err := time.Parse(model.DateLayout, v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("http")
	}
}

// NewRouter 静态图表目录挂在 /html, db 非空时提供查询接口
func NewRouter(dir string, db database.DataRepository) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), accessLog())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/html/")
	})
	router.StaticFS("/html", http.Dir(dir))

	if db == nil {
		return router
	}

	api := router.Group("/api")
	api.GET("/latest", func(c *gin.Context) {
		recs, err := db.QueryLatest()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, toRows(recs))
	})
	api.GET("/board/:code", func(c *gin.Context) {
		from, err := parseDateQuery(c, "from")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
			return
		}
		to, err := parseDateQuery(c, "to")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
			return
		}
		recs, err := db.QueryBoardHistory(c.Param("code"), from, to)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if len(recs) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "board not found"})
			return
		}
		c.JSON(http.StatusOK, toRows(recs))
	})
	return router
}

// Serve 阻塞直到 ctx 取消
func Serve(ctx context.Context, cfg *config.Config, addr string) error {
	var db database.DataRepository
	if cfg.DB != "" {
		conn, err := openDB(cfg.DB)
		if err != nil {
			return err
		}
		defer conn.Close()
		db = conn
	}

	srv := &http.Server{Addr: addr, Handler: NewRouter(cfg.Chart.Dir, db)}

	// 监听失败时也要让关闭协程退出
	ctx, cancel := context.WithCancel(ctx)
	stopped := make(chan struct{})
	defer func() {
		cancel()
		<-stopped
	}()
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("http shutdown")
		}
	}()

	log.Info().Str("addr", addr).Str("dir", cfg.Chart.Dir).Bool("api", db != nil).Msg("🌐 服务已启动")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info().Msg("⏹️ 服务已停止")
	return nil
}
