package mysql

import (
	"context"
	"os"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luca-patrignani/agriblock/store"
	"github.com/luca-patrignani/agriblock/store/storetest"
)

func TestDSN(t *testing.T) {
	dsn := DSN("agri", "s3cret", "db.local:3306", "chain")
	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "agri", cfg.User)
	assert.Equal(t, "s3cret", cfg.Passwd)
	assert.Equal(t, "tcp", cfg.Net)
	assert.Equal(t, "db.local:3306", cfg.Addr)
	assert.Equal(t, "chain", cfg.DBName)
	assert.True(t, cfg.ParseTime)
}

func TestOpenRejectsBadDSN(t *testing.T) {
	_, err := Open(context.Background(), "not a dsn", nil)
	assert.ErrorContains(t, err, "could not parse dsn")
}

// TestMySQLStore needs a disposable database, for example
// AGRIBLOCK_MYSQL_DSN="root:root@tcp(127.0.0.1:3306)/agriblock_test".
func TestMySQLStore(t *testing.T) {
	dsn := os.Getenv("AGRIBLOCK_MYSQL_DSN")
	if dsn == "" {
		t.Skip("AGRIBLOCK_MYSQL_DSN not set")
	}
	open := func(t *testing.T) *Store {
		s, err := Open(context.Background(), dsn, nil)
		require.NoError(t, err)
		return s
	}
	storetest.Run(t, storetest.Backend{
		Open: func(t *testing.T) store.Store {
			s := open(t)
			_, err := s.db.Exec(`DELETE FROM blocks`)
			require.NoError(t, err)
			s.height = 0
			return s
		},
		Reopen: func(t *testing.T) store.Store { return open(t) },
	})
}
