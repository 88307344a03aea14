package model

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gouqi/novelai-bot/common"
	"github.com/gouqi/novelai-bot/common/config"
	"github.com/gouqi/novelai-bot/common/env"
	"github.com/gouqi/novelai-bot/common/logger"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

func chooseDB(envName string) (*gorm.DB, error) {
	dsn := os.Getenv(envName)
	gormConfig := &gorm.Config{PrepareStmt: true}
	if !config.DebugSQLEnabled {
		gormConfig.Logger = gormlogger.Default.LogMode(gormlogger.Silent)
	}

	switch {
	case strings.HasPrefix(dsn, "postgres://"):
		// Use PostgreSQL
		logger.SysLog("using PostgreSQL as database")
		common.UsingPostgreSQL = true
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true, // disables implicit prepared statement usage
		}), gormConfig)
	case dsn != "":
		// Use MySQL
		logger.SysLog("using MySQL as database")
		common.UsingMySQL = true
		return gorm.Open(mysql.Open(dsn), gormConfig)
	}
	// Use SQLite
	logger.SysLog("SQL_DSN not set, using SQLite as database")
	common.UsingSQLite = true
	dsn = fmt.Sprintf("%s?_busy_timeout=%d", common.SQLitePath, common.SQLiteBusyTimeout)
	return gorm.Open(sqlite.Open(dsn), gormConfig)
}

func InitDB(envName string) (db *gorm.DB, err error) {
	db, err = chooseDB(envName)
	if err != nil {
		logger.FatalLog(err)
		return
	}
	if config.DebugSQLEnabled {
		db = db.Debug()
	}
	if !common.UsingSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxIdleConns(env.Int("SQL_MAX_IDLE_CONNS", 100))
		sqlDB.SetMaxOpenConns(env.Int("SQL_MAX_OPEN_CONNS", 1000))
		sqlDB.SetConnMaxLifetime(time.Second * time.Duration(env.Int("SQL_MAX_LIFETIME", 60)))
	}
	if err = migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func migrate(db *gorm.DB) error {
	logger.SysLog("database migration started")
	if err := db.AutoMigrate(&Option{}); err != nil {
		return err
	}
	if err := db.AutoMigrate(&Log{}); err != nil {
		return err
	}
	logger.SysLog("database migrated")
	return nil
}

func CloseDB() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
