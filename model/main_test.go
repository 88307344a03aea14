package model

import (
	"testing"

	"github.com/gouqi/novelai-bot/common/config"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB 使用内存 SQLite，并重置配置项
func setupTestDB(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库每个连接独立，只保留一个连接
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, migrate(db))

	previousWords := config.SensitiveWords
	DB = db
	InitOptionMap()
	t.Cleanup(func() {
		_ = sqlDB.Close()
		DB = nil
		config.SensitiveWords = previousWords
	})
}
