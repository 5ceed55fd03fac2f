package executor

import (
	"context"
	"database/sql"
	"fmt"

	// Registered drivers for the two SQL-speaking backends.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"pairbench/internal/loadtest"
)

// pageSize matches the row cap of the select-style query shapes.
const pageSize = 100

// SQLProvider hands out per-worker connections from one database/sql
// pool. Each Acquire pins a dedicated *sql.Conn so workers never share
// a handle.
type SQLProvider struct {
	db     *sql.DB
	driver string
	table  string
}

// NewSQLProvider opens a pool for the given driver ("postgres" or
// "mysql") and target table. maxConns caps the pool; 0 means
// unbounded, which large user counts need.
func NewSQLProvider(driver, dsn, table string, maxConns int) (*SQLProvider, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s pool: %w", driver, err)
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	return &SQLProvider{db: db, driver: driver, table: table}, nil
}

func (p *SQLProvider) Acquire(ctx context.Context) (loadtest.QueryExecutor, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire %s connection: %w", p.driver, err)
	}
	return &sqlExecutor{conn: conn, table: p.quoteIdent(p.table)}, nil
}

func (p *SQLProvider) Close() error {
	return p.db.Close()
}

func (p *SQLProvider) quoteIdent(name string) string {
	if p.driver == "mysql" {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}

type sqlExecutor struct {
	conn  *sql.Conn
	table string
	tmpl  *StatementTemplate
}

func (e *sqlExecutor) Execute(ctx context.Context, q loadtest.Query) (int64, error) {
	switch q.Type {
	case loadtest.QueryCount:
		var n int64
		err := e.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+e.table).Scan(&n)
		if err != nil {
			return 0, err
		}
		return n, nil

	case loadtest.QuerySelectAll:
		return e.countRows(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", e.table, pageSize))

	case loadtest.QuerySelectPaginated:
		return e.countRows(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d OFFSET 0", e.table, pageSize))

	case loadtest.QueryCustom:
		stmt := q.Statement
		if HasPlaceholders(stmt) {
			if e.tmpl == nil {
				t, err := ParseStatement(stmt)
				if err != nil {
					return 0, fmt.Errorf("parse statement: %w", err)
				}
				e.tmpl = t
			}
			expanded, err := e.tmpl.Expand()
			if err != nil {
				return 0, fmt.Errorf("expand statement: %w", err)
			}
			stmt = expanded
		}
		return e.countRows(ctx, stmt)
	}
	return 0, fmt.Errorf("unsupported query type %q", q.Type)
}

func (e *sqlExecutor) countRows(ctx context.Context, query string) (int64, error) {
	rows, err := e.conn.QueryContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var n int64
	for rows.Next() {
		n++
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	return n, nil
}

func (e *sqlExecutor) Close() error {
	return e.conn.Close()
}
