package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to a MySQL store and verifies the connection. dsn is a
// driver DSN without query parameters ("user:pass@tcp(host:port)/dbname");
// the standard parameters are appended here so every store in the fleet
// parses DATETIME into time.Time in UTC.
//
// maxConns bounds the pool. The platform store gets a larger bound than
// tenant stores because many tenant pools share one process.
func Open(dsn string, maxConns int) (*sql.DB, error) {
	if !strings.Contains(dsn, "?") {
		dsn += "?charset=utf8mb4&parseTime=true&loc=UTC"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout so an unreachable store fails fast instead of
	// hanging the first request that needed it.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", redactDSN(dsn), err)
	}
	return db, nil
}

// MySQLDSN assembles a parameter-free DSN from its parts, in the shape
// stored in tenant records and read from platform config.
func MySQLDSN(user, pass, host, port, name string) string {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s", auth, host, port, name)
}

// redactDSN strips credentials before a DSN appears in an error message.
func redactDSN(dsn string) string {
	if i := strings.LastIndex(dsn, "@"); i >= 0 {
		return "***" + dsn[i:]
	}
	return dsn
}
