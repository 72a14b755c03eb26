package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
)

// SQLRepository stores records in the credentials table. The same queries
// serve PostgreSQL (pgx) and SQLite; only the placeholder syntax differs.
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
	closer  func() error
}

// NewSQLRepository binds the repository to db. If db is a *sql.DB it is
// closed by Close.
func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	r := &SQLRepository{db: db, dialect: dialect}
	if c, ok := db.(*sql.DB); ok {
		r.closer = c.Close
	}
	return r
}

func (r *SQLRepository) Get(ctx context.Context, key string) ([]byte, error) {
	query :=
		`SELECT record FROM credentials
		 WHERE login = $1
		 `

	var record string
	err := r.db.QueryRowContext(ctx, dbx.Rebind(r.dialect, query), key).Scan(&record)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return []byte(record), nil
}

func (r *SQLRepository) Set(ctx context.Context, key string, value []byte) error {
	query :=
		`INSERT INTO credentials (login, record)
		 VALUES ($1, $2)
		 ON CONFLICT (login) DO UPDATE SET record = excluded.record
		 `

	if _, err := r.db.ExecContext(ctx, dbx.Rebind(r.dialect, query), key, string(value)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *SQLRepository) SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	query :=
		`INSERT INTO credentials (login, record)
		 VALUES ($1, $2)
		 ON CONFLICT (login) DO NOTHING
		 `

	res, err := r.db.ExecContext(ctx, dbx.Rebind(r.dialect, query), key, string(value))
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return n == 1, nil
}

func (r *SQLRepository) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}
