// Package db opens the SQLite metastore and owns its schema
// migrations. Access is split into a single-connection write pool and a
// wider read pool, the standard arrangement for SQLite under a Go HTTP
// server: one writer serializes mutations while WAL lets readers run
// alongside it.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Pragmas applied to every metastore connection.
const (
	busyTimeoutMillis = "5000"
	journalMode       = "WAL"
	synchronousLevel  = "NORMAL"
)

const defaultReadPoolSize = 4

// OpenSQLitePair opens the write pool (one connection, immediate
// transactions) and the read pool for the metastore file at path.
// readMaxOpen of 0 falls back to defaultReadPoolSize.
func OpenSQLitePair(path string, readMaxOpen int) (writeDB, readDB *sql.DB, err error) {
	writeDB, err = openPool(path, true, 1)
	if err != nil {
		return nil, nil, err
	}

	if readMaxOpen <= 0 {
		readMaxOpen = defaultReadPoolSize
	}
	readDB, err = openPool(path, false, readMaxOpen)
	if err != nil {
		_ = writeDB.Close()
		return nil, nil, err
	}
	return writeDB, readDB, nil
}

// openPool opens one pool with the hardened pragmas and verifies the
// file is reachable before handing it out.
func openPool(path string, write bool, maxOpen int) (*sql.DB, error) {
	pool, err := sql.Open("sqlite3", metastoreDSN(path, write))
	if err != nil {
		return nil, fmt.Errorf("open metastore: %w", err)
	}
	pool.SetMaxOpenConns(maxOpen)
	pool.SetMaxIdleConns(maxOpen)
	pool.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping metastore: %w", err)
	}
	return pool, nil
}

// metastoreDSN renders the connection string. Write pools take
// _txlock=immediate so a transaction holds the write lock from its
// first statement instead of upgrading mid-flight and hitting
// SQLITE_BUSY.
func metastoreDSN(path string, write bool) string {
	params := url.Values{}
	params.Set("_journal_mode", journalMode)
	params.Set("_busy_timeout", busyTimeoutMillis)
	params.Set("_synchronous", synchronousLevel)
	params.Set("_foreign_keys", "on")
	if write {
		params.Set("_txlock", "immediate")
	}
	return path + "?" + params.Encode()
}
