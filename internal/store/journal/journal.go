// Package journal 用 Gorm + SQLite 持久化已平仓交易与绩效快照。核心交易
// 路径从不回读这里的数据，它只是盘后复盘的外部记录。
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"argus/internal/types"
)

// closedTradeModel 是已平仓交易的存储模型。金额列使用 decimal 字符串，
// 避免浮点累计误差影响盘后统计。
type closedTradeModel struct {
	ID        uint   `gorm:"primaryKey"`
	Symbol    string `gorm:"index;size:32"`
	Strategy  string `gorm:"index;size:32"`
	Reason    string `gorm:"size:64"`
	PnL       string `gorm:"size:32"`
	ExitPrice string `gorm:"size:32"`
	HoldSecs  float64
	ClosedAt  time.Time `gorm:"index"`
	CreatedAt time.Time
}

func (closedTradeModel) TableName() string { return "closed_trades" }

// snapshotModel 是收盘绩效快照的存储模型。
type snapshotModel struct {
	ID             uint `gorm:"primaryKey"`
	TotalDailyPnL  string
	PortfolioValue string
	TotalPositions int
	RiskState      string `gorm:"size:32"`
	TakenAt        time.Time
	CreatedAt      time.Time
}

func (snapshotModel) TableName() string { return "performance_snapshots" }

// Journal 实现 scheduler.TradeRecorder。
type Journal struct {
	db *gorm.DB
}

// Open 打开或创建交易日志数据库。
func Open(path string) (*Journal, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("journal: path cannot be empty")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&closedTradeModel{}, &snapshotModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL：保留少量并行度，写路径单连接已足够。
	sqlDB.SetMaxOpenConns(2)
	return &Journal{db: db}, nil
}

// RecordClosed 追加一条已平仓交易。
func (j *Journal) RecordClosed(closed types.ClosedPosition) error {
	if j == nil || j.db == nil {
		return nil
	}
	row := closedTradeModel{
		Symbol:    closed.Symbol,
		Strategy:  closed.Strategy,
		Reason:    closed.Reason,
		PnL:       decimal.NewFromFloat(closed.PnL).StringFixed(2),
		ExitPrice: decimal.NewFromFloat(closed.ExitPrice).StringFixed(2),
		HoldSecs:  closed.HoldSecs,
		ClosedAt:  closed.ClosedAt,
	}
	return j.db.Create(&row).Error
}

// RecordSnapshot 追加一条绩效快照。
func (j *Journal) RecordSnapshot(perf types.ComprehensivePerformance) error {
	if j == nil || j.db == nil {
		return nil
	}
	row := snapshotModel{
		TotalDailyPnL:  decimal.NewFromFloat(perf.TotalDailyPnL).StringFixed(2),
		PortfolioValue: decimal.NewFromFloat(perf.PortfolioValue).StringFixed(2),
		TotalPositions: perf.TotalPositions,
		RiskState:      perf.RiskState,
		TakenAt:        perf.Timestamp,
	}
	return j.db.Create(&row).Error
}

// ClosedTradeCount 返回已记录的平仓交易数，供报表接口使用。
func (j *Journal) ClosedTradeCount() (int64, error) {
	if j == nil || j.db == nil {
		return 0, nil
	}
	var count int64
	err := j.db.Model(&closedTradeModel{}).Count(&count).Error
	return count, err
}

// Close 关闭底层数据库连接。
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
