// Package livehttp 提供最小化的运行时状态 HTTP 服务（健康检查 + 绩效查询）。
package livehttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"argus/internal/logger"
	"argus/internal/risk"
	"argus/internal/types"
)

// PerformanceSource 提供综合绩效快照，由调度器实现。
type PerformanceSource interface {
	Comprehensive() types.ComprehensivePerformance
}

// RiskSource 提供组合风险状态。
type RiskSource interface {
	CheckPortfolio() risk.Status
}

// Server 是只读的运行时状态服务。
type Server struct {
	addr   string
	router *gin.Engine
}

// NewServer 构建状态服务。
func NewServer(addr string, perf PerformanceSource, riskSrc RiskSource) (*Server, error) {
	if perf == nil {
		return nil, errors.New("live http server requires a performance source")
	}
	if addr == "" {
		addr = ":9981"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api := router.Group("/api/live")
	api.GET("/performance", func(c *gin.Context) {
		c.JSON(http.StatusOK, perf.Comprehensive())
	})
	api.GET("/risk", func(c *gin.Context) {
		if riskSrc == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "risk source not configured"})
			return
		}
		c.JSON(http.StatusOK, riskSrc.CheckPortfolio())
	})

	return &Server{addr: addr, router: router}, nil
}

// requestLogger 记录接口调用，便于追踪人工查询。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), c.ClientIP(), time.Since(start))
	}
}

// Addr 返回监听地址。
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start 启动 HTTP 服务，直到 ctx 取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
