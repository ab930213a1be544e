package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	id "idattest/pkg/domain"
	"idattest/pkg/platform/sentinel"
)

const (
	accountKeyPrefix      = "idattest:acct:"
	defaultRedisTxRetries = 3
)

// RedisStore keeps each account under its own key. Transactions are
// optimistic: every key read is WATCHed, writes are staged and flushed in one
// MULTI/EXEC, and the callback is re-run when a watched key changed.
type RedisStore struct {
	client  *redis.Client
	retries int
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithTxRetries sets how many times a conflicting transaction is re-run.
func WithTxRetries(n int) RedisOption {
	return func(s *RedisStore) {
		if n > 0 {
			s.retries = n
		}
	}
}

func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, retries: defaultRedisTxRetries}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func accountKey(addr id.Pubkey) string {
	return accountKeyPrefix + addr.String()
}

func (s *RedisStore) Get(ctx context.Context, addr id.Pubkey) ([]byte, error) {
	return redisGet(ctx, s.client, addr)
}

func (s *RedisStore) GetMany(ctx context.Context, addrs []id.Pubkey) (map[id.Pubkey][]byte, error) {
	return redisGetMany(ctx, s.client, addrs)
}

func (s *RedisStore) RunInTx(ctx context.Context, fn func(ctx context.Context, accts Accounts) error) error {
	for range s.retries {
		err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
			tx := &redisTx{rtx: rtx, staged: make(map[id.Pubkey][]byte)}
			if err := fn(ctx, tx); err != nil {
				return err
			}
			if len(tx.staged) == 0 {
				return nil
			}
			_, err := rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for _, addr := range tx.order {
					pipe.Set(ctx, accountKey(addr), tx.staged[addr], 0)
				}
				return nil
			})
			return err
		})
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("ledger tx: %w", sentinel.ErrConflict)
}

type redisTx struct {
	rtx    *redis.Tx
	staged map[id.Pubkey][]byte
	order  []id.Pubkey
}

func (t *redisTx) stage(addr id.Pubkey, data []byte) {
	if _, ok := t.staged[addr]; !ok {
		t.order = append(t.order, addr)
	}
	t.staged[addr] = bytes.Clone(data)
}

func (t *redisTx) Get(ctx context.Context, addr id.Pubkey) ([]byte, error) {
	if data, ok := t.staged[addr]; ok {
		return bytes.Clone(data), nil
	}
	if err := t.rtx.Watch(ctx, accountKey(addr)).Err(); err != nil {
		return nil, fmt.Errorf("watch account: %w", err)
	}
	return redisGet(ctx, t.rtx, addr)
}

func (t *redisTx) GetMany(ctx context.Context, addrs []id.Pubkey) (map[id.Pubkey][]byte, error) {
	var remote []id.Pubkey
	out := make(map[id.Pubkey][]byte, len(addrs))
	for _, addr := range addrs {
		if data, ok := t.staged[addr]; ok {
			out[addr] = bytes.Clone(data)
			continue
		}
		remote = append(remote, addr)
	}
	if len(remote) == 0 {
		return out, nil
	}
	keys := make([]string, len(remote))
	for i, addr := range remote {
		keys[i] = accountKey(addr)
	}
	if err := t.rtx.Watch(ctx, keys...).Err(); err != nil {
		return nil, fmt.Errorf("watch accounts: %w", err)
	}
	found, err := redisGetMany(ctx, t.rtx, remote)
	if err != nil {
		return nil, err
	}
	for addr, data := range found {
		out[addr] = data
	}
	return out, nil
}

func (t *redisTx) Create(ctx context.Context, addr id.Pubkey, data []byte) error {
	_, err := t.Get(ctx, addr)
	switch {
	case err == nil:
		return sentinel.ErrAlreadyUsed
	case !errors.Is(err, sentinel.ErrNotFound):
		return err
	}
	t.stage(addr, data)
	return nil
}

func (t *redisTx) Update(ctx context.Context, addr id.Pubkey, data []byte) error {
	if _, err := t.Get(ctx, addr); err != nil {
		return err
	}
	t.stage(addr, data)
	return nil
}

func redisGet(ctx context.Context, c redis.Cmdable, addr id.Pubkey) ([]byte, error) {
	data, err := c.Get(ctx, accountKey(addr)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return data, nil
}

func redisGetMany(ctx context.Context, c redis.Cmdable, addrs []id.Pubkey) (map[id.Pubkey][]byte, error) {
	out := make(map[id.Pubkey][]byte, len(addrs))
	if len(addrs) == 0 {
		return out, nil
	}
	keys := make([]string, len(addrs))
	for i, addr := range addrs {
		keys[i] = accountKey(addr)
	}
	vals, err := c.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get accounts: %w", err)
	}
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[addrs[i]] = []byte(s)
		}
	}
	return out, nil
}
