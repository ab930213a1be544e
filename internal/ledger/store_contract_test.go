package ledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/stretchr/testify/suite"

	id "idattest/pkg/domain"
	"idattest/pkg/platform/sentinel"
)

// storeSuite is the behaviour every backend must share. Backend suites embed
// it and set store in SetupTest.
type storeSuite struct {
	suite.Suite
	store Store
}

var errAbort = errors.New("abort")

func addr(b byte) id.Pubkey { return id.Pubkey{b, 0xaa} }

func (s *storeSuite) TestCreateIfAbsent() {
	ctx := context.Background()

	err := s.store.RunInTx(ctx, func(ctx context.Context, accts Accounts) error {
		return accts.Create(ctx, addr(1), []byte("first"))
	})
	s.Require().NoError(err)

	err = s.store.RunInTx(ctx, func(ctx context.Context, accts Accounts) error {
		return accts.Create(ctx, addr(1), []byte("second"))
	})
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	got, err := s.store.Get(ctx, addr(1))
	s.Require().NoError(err)
	s.Equal([]byte("first"), got)
}

func (s *storeSuite) TestGetMissing() {
	_, err := s.store.Get(context.Background(), addr(2))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *storeSuite) TestUpdateRequiresAccount() {
	ctx := context.Background()
	err := s.store.RunInTx(ctx, func(ctx context.Context, accts Accounts) error {
		return accts.Update(ctx, addr(3), []byte("x"))
	})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *storeSuite) TestAbortDiscardsAllWrites() {
	ctx := context.Background()
	s.Require().NoError(s.store.RunInTx(ctx, func(ctx context.Context, accts Accounts) error {
		return accts.Create(ctx, addr(4), []byte("v1"))
	}))

	err := s.store.RunInTx(ctx, func(ctx context.Context, accts Accounts) error {
		if err := accts.Update(ctx, addr(4), []byte("v2")); err != nil {
			return err
		}
		if err := accts.Create(ctx, addr(5), []byte("new")); err != nil {
			return err
		}
		return errAbort
	})
	s.ErrorIs(err, errAbort)

	got, err := s.store.Get(ctx, addr(4))
	s.Require().NoError(err)
	s.Equal([]byte("v1"), got)
	_, err = s.store.Get(ctx, addr(5))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *storeSuite) TestReadsSeeOwnWrites() {
	ctx := context.Background()
	err := s.store.RunInTx(ctx, func(ctx context.Context, accts Accounts) error {
		if err := accts.Create(ctx, addr(6), []byte("a")); err != nil {
			return err
		}
		got, err := accts.Get(ctx, addr(6))
		if err != nil {
			return err
		}
		s.Equal([]byte("a"), got)
		if err := accts.Update(ctx, addr(6), []byte("b")); err != nil {
			return err
		}
		many, err := accts.GetMany(ctx, []id.Pubkey{addr(6), addr(7)})
		if err != nil {
			return err
		}
		s.Equal(map[id.Pubkey][]byte{addr(6): []byte("b")}, many)
		return nil
	})
	s.Require().NoError(err)
}

func (s *storeSuite) TestGetManyOmitsMissing() {
	ctx := context.Background()
	s.Require().NoError(s.store.RunInTx(ctx, func(ctx context.Context, accts Accounts) error {
		if err := accts.Create(ctx, addr(8), []byte("eight")); err != nil {
			return err
		}
		return accts.Create(ctx, addr(9), []byte("nine"))
	}))

	got, err := s.store.GetMany(ctx, []id.Pubkey{addr(8), addr(9), addr(10)})
	s.Require().NoError(err)
	s.Equal(map[id.Pubkey][]byte{addr(8): []byte("eight"), addr(9): []byte("nine")}, got)

	empty, err := s.store.GetMany(ctx, nil)
	s.Require().NoError(err)
	s.Empty(empty)
}

// Many writers race to create the same address; exactly one wins.
func (s *storeSuite) TestConcurrentCreateSingleWinner() {
	ctx := context.Background()
	const writers = 20

	var wg sync.WaitGroup
	var won, lost atomic.Int32
	for i := range writers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.store.RunInTx(ctx, func(ctx context.Context, accts Accounts) error {
				return accts.Create(ctx, addr(11), []byte{byte(i)})
			})
			switch {
			case err == nil:
				won.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyUsed), errors.Is(err, sentinel.ErrConflict):
				lost.Add(1)
			default:
				s.Failf("unexpected error", "%v", err)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), won.Load())
	s.Equal(int32(writers-1), lost.Load())
}
