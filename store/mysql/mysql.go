// Package mysql stores a chain in a MySQL table, one row per block.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-sql-driver/mysql"

	"github.com/luca-patrignani/agriblock/ledger"
	"github.com/luca-patrignani/agriblock/store"
)

const createTable = `CREATE TABLE IF NOT EXISTS blocks (
	idx BIGINT UNSIGNED NOT NULL PRIMARY KEY,
	hash CHAR(64) NOT NULL,
	payload LONGTEXT NOT NULL
) DEFAULT CHARSET = utf8mb4`

// errDuplicateEntry is the MySQL error number for a primary key collision.
const errDuplicateEntry = 1062

// DSN builds a TCP data source name for the driver.
func DSN(user, password, addr, database string) string {
	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = password
	cfg.Net = "tcp"
	cfg.Addr = addr
	cfg.DBName = database
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	log    *slog.Logger
	height uint64
}

// Open connects to dsn and creates the blocks table if needed.
func Open(ctx context.Context, dsn string, log *slog.Logger) (*Store, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("could not parse dsn: %w", err)
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not ping database: %w", err)
	}
	s, err := New(ctx, db, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New uses an already open database handle.
func New(ctx context.Context, db *sql.DB, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		return nil, fmt.Errorf("could not create blocks table: %w", err)
	}
	var height uint64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blocks`).Scan(&height); err != nil {
		return nil, fmt.Errorf("could not count blocks: %w", err)
	}
	log.Info("mysql chain opened", slog.Uint64("height", height))
	return &Store{db: db, log: log, height: height}, nil
}

func (s *Store) Append(ctx context.Context, b ledger.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := store.CheckOrder(s.height, b); err != nil {
		return err
	}
	payload, err := json.Marshal(b)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO blocks (idx, hash, payload) VALUES (?, ?, ?)`,
		b.Index, b.Hash, string(payload),
	)
	var merr *mysql.MySQLError
	if errors.As(err, &merr) && merr.Number == errDuplicateEntry {
		return fmt.Errorf("%w: block %d already stored", store.ErrOutOfOrder, b.Index)
	}
	if err != nil {
		return fmt.Errorf("could not insert block %d: %w", b.Index, err)
	}
	s.height++
	return nil
}

func (s *Store) Load(ctx context.Context) ([]ledger.Block, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM blocks ORDER BY idx`)
	if err != nil {
		return nil, fmt.Errorf("could not query blocks: %w", err)
	}
	defer rows.Close()

	var blocks []ledger.Block
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var b ledger.Block
		if err := json.Unmarshal([]byte(payload), &b); err != nil {
			return nil, fmt.Errorf("block row %d: %w", len(blocks), err)
		}
		if err := store.CheckOrder(uint64(len(blocks)), b); err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

func (s *Store) Height() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.height
}

func (s *Store) Close() error {
	return s.db.Close()
}

var _ store.Store = (*Store)(nil)
