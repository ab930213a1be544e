package ledger

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/lib/pq"

	id "idattest/pkg/domain"
	dErrors "idattest/pkg/domain-errors"
	"idattest/pkg/platform/sentinel"
	txcontext "idattest/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

//go:embed migrations/*.sql
var migrations embed.FS

// PostgresStore keeps accounts in a single table keyed by base58 address.
// Transactions lock the rows they read with SELECT ... FOR UPDATE and create
// accounts with INSERT ... ON CONFLICT DO NOTHING.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithTxTimeout bounds transactions started without a deadline.
func WithTxTimeout(d time.Duration) PostgresOption {
	return func(s *PostgresStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func NewPostgresStore(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db, timeout: defaultTxTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Migrate applies the embedded schema. Statements are idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)
	for _, name := range files {
		stmt, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(stmt)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Get(ctx context.Context, addr id.Pubkey) ([]byte, error) {
	return getAccount(ctx, s.execer(ctx), addr, false)
}

func (s *PostgresStore) GetMany(ctx context.Context, addrs []id.Pubkey) (map[id.Pubkey][]byte, error) {
	return getAccounts(ctx, s.execer(ctx), addrs, false)
}

func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context, accts Accounts) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	ctx = txcontext.WithTx(ctx, tx)
	if err := fn(ctx, &postgresTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}
	return nil
}

type postgresTx struct {
	tx *sql.Tx
}

func (t *postgresTx) Get(ctx context.Context, addr id.Pubkey) ([]byte, error) {
	return getAccount(ctx, t.tx, addr, true)
}

func (t *postgresTx) GetMany(ctx context.Context, addrs []id.Pubkey) (map[id.Pubkey][]byte, error) {
	return getAccounts(ctx, t.tx, addrs, true)
}

func (t *postgresTx) Create(ctx context.Context, addr id.Pubkey, data []byte) error {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO accounts (address, data)
		VALUES ($1, $2)
		ON CONFLICT (address) DO NOTHING
	`, addr.String(), data)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	if n == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (t *postgresTx) Update(ctx context.Context, addr id.Pubkey, data []byte) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE accounts SET data = $2, updated_at = now()
		WHERE address = $1
	`, addr.String(), data)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func getAccount(ctx context.Context, q queryer, addr id.Pubkey, lock bool) ([]byte, error) {
	query := `SELECT data FROM accounts WHERE address = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	var data []byte
	err := q.QueryRowContext(ctx, query, addr.String()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return data, nil
}

func getAccounts(ctx context.Context, q queryer, addrs []id.Pubkey, lock bool) (map[id.Pubkey][]byte, error) {
	out := make(map[id.Pubkey][]byte, len(addrs))
	if len(addrs) == 0 {
		return out, nil
	}
	keys := make([]string, len(addrs))
	byKey := make(map[string]id.Pubkey, len(addrs))
	for i, addr := range addrs {
		keys[i] = addr.String()
		byKey[keys[i]] = addr
	}
	query := `SELECT address, data FROM accounts WHERE address = ANY($1)`
	if lock {
		query += ` FOR UPDATE`
	}
	rows, err := q.QueryContext(ctx, query, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("get accounts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var data []byte
		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		if addr, ok := byKey[key]; ok {
			out[addr] = data
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get accounts: %w", err)
	}
	return out, nil
}
