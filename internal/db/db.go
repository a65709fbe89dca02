package db

import (
	"fmt"
	"strings"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Connect opens the database and applies pending migrations.
//
// For sqlite the DSN is a file path (or a "file:" URI); busy_timeout and foreign_keys are
// switched on through _pragma parameters unless the caller already set pragmas, and
// times are written in sqlite's text format.
// For mysql the DSN is a go-sql-driver DSN and must carry parseTime=true.
func Connect(driver, dsn string, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var dialector gorm.Dialector
	switch driver {
	case "", DriverSQLite:
		dialector = gormsqlite.Open(sqliteDSN(dsn))
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: open %s: %w", driver, err)
	}

	if IsSQLite(gdb) {
		// one writer at a time keeps sqlite from returning SQLITE_BUSY under the bot worker pool
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	log.Info("database_ready", zap.String("driver", gdb.Dialector.Name()))
	return gdb, nil
}

func IsSQLite(gdb *gorm.DB) bool {
	name := gdb.Dialector.Name()
	return name == "sqlite" || name == "sqlite3"
}

func sqliteDSN(dsn string) string {
	if dsn == "" {
		dsn = "telegram_bot.db"
	}
	var params []string
	if !strings.Contains(dsn, "_pragma=") {
		params = append(params, "_pragma=busy_timeout(5000)", "_pragma=foreign_keys(1)")
	}
	// store times as "YYYY-MM-DD HH:MM:SS.fff+00:00" so raw SQL and sqlite date functions can filter on them
	if !strings.Contains(dsn, "_time_format=") {
		params = append(params, "_time_format=sqlite")
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}
