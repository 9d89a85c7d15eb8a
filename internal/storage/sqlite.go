package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/danielledeleo/wikicore/wiki"
	"github.com/danielledeleo/wikicore/wiki/repository"
	"github.com/jmoiron/sqlx"
)

// MemoryDatabase opens a private in-memory database.
const MemoryDatabase = ":memory:"

// DefaultBusyTimeoutMS bounds how long a transaction waits for the write
// lock before failing with wiki.ErrStorageUnavailable.
const DefaultBusyTimeoutMS = 5000

// DSN builds the driver data source name for a database file. Write
// transactions take the write lock up front so concurrent writers queue on
// the busy timeout instead of failing mid-transaction.
func DSN(file string, busyTimeoutMS int) string {
	if busyTimeoutMS <= 0 {
		busyTimeoutMS = DefaultBusyTimeoutMS
	}

	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeoutMS))
	params.Add("_pragma", "foreign_keys(1)")
	if file != MemoryDatabase {
		params.Add("_pragma", "journal_mode(WAL)")
	}
	params.Set("_txlock", "immediate")
	params.Set("_time_format", "sqlite")

	return file + "?" + params.Encode()
}

// sqliteDb is the main database struct. Repository methods live on the
// embedded queries value so that the same code runs against the connection
// pool or against one transaction:
//   - article_repo.go: Article operations
//   - revision_repo.go: Revision operations
//   - redirection_repo.go: Redirection and RedirectionLog operations
//   - wikitext_repo.go: content-addressed Wikitext blobs
type sqliteDb struct {
	*queries
	conn *sqlx.DB
}

var _ repository.Store = (*sqliteDb)(nil)

// Open opens the database named in config, applies migrations and returns
// the store.
func Open(config *wiki.Config) (*sqliteDb, error) {
	conn, err := sqlx.Open(driverName, DSN(config.DatabaseFile, config.BusyTimeoutMS))
	if err != nil {
		return nil, unavailable("open database", err)
	}

	// Every connection to :memory: is a separate database.
	if config.DatabaseFile == MemoryDatabase {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, unavailable("connect to database", err)
	}

	if err := RunMigrations(conn, config.WikiName); err != nil {
		conn.Close()
		return nil, err
	}

	return Init(conn), nil
}

// Init wraps an existing database connection. The database should already
// have migrations applied via RunMigrations.
func Init(db *sqlx.DB) *sqliteDb {
	return &sqliteDb{
		queries: &queries{ext: db},
		conn:    db,
	}
}

func (db *sqliteDb) Close() error {
	return db.conn.Close()
}

func (db *sqliteDb) WithTx(ctx context.Context, fn func(q repository.Queries) error) error {
	return db.inTx(ctx, nil, fn)
}

// WithReadTx runs fn in a deferred read transaction, so a multi-step read
// observes one consistent snapshot without taking the write lock.
func (db *sqliteDb) WithReadTx(ctx context.Context, fn func(q repository.Queries) error) error {
	return db.inTx(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

func (db *sqliteDb) inTx(ctx context.Context, opts *sql.TxOptions, fn func(q repository.Queries) error) (err error) {
	var tx *sqlx.Tx
	tx, err = db.conn.BeginTxx(ctx, opts)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		return unavailable("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("transaction rollback failed", "error", rbErr)
			}
			return
		}
		if commitErr := tx.Commit(); commitErr != nil {
			slog.Error("transaction commit failed", "error", commitErr)
			err = unavailable("commit transaction", commitErr)
		}
	}()

	return fn(&queries{ext: tx})
}

func (db *sqliteDb) SelectNamespaces(ctx context.Context) ([]*repository.NamespaceRow, error) {
	var rows []*repository.NamespaceRow
	err := db.conn.SelectContext(ctx, &rows, `SELECT id, name FROM Namespace ORDER BY id`)
	if err != nil {
		return nil, unavailable("select namespaces", err)
	}
	return rows, nil
}

// queries implements repository.Queries on top of either the connection
// pool or a transaction.
type queries struct {
	ext sqlx.ExtContext
}
