package database

import (
	"context"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/rail-seat-booking/internal/config"
)

// DSN renders the driver connection string for cfg.  Times are parsed into
// time.Time in UTC and every session gets a bounded InnoDB lock wait so a
// blocked conditional update fails instead of hanging.
func DSN(cfg config.DBConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Pass
	mc.Net = "tcp"
	mc.Addr = cfg.Host + ":" + cfg.Port
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}
	if cfg.LockWaitTimeout > 0 {
		mc.Params["innodb_lock_wait_timeout"] = strconv.Itoa(cfg.LockWaitTimeout)
	}
	return mc.FormatDSN()
}

// Open connects to MySQL and verifies the connection.
func Open(cfg config.DBConfig) (*sqlx.DB, error) {
	return OpenDSN(DSN(cfg), cfg.MaxOpenConns)
}

// OpenDSN is Open for an already rendered DSN.
func OpenDSN(dsn string, maxOpen int) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	if maxOpen <= 0 {
		maxOpen = 25
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
