package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
)

type InMemoryStoreSuite struct {
	storeSuite
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
}

func (s *InMemoryStoreSuite) TestReturnedBytesAreCopies() {
	ctx := context.Background()
	data := []byte("orig")
	s.Require().NoError(s.store.RunInTx(ctx, func(ctx context.Context, accts Accounts) error {
		return accts.Create(ctx, addr(20), data)
	}))
	data[0] = 'X'

	got, err := s.store.Get(ctx, addr(20))
	s.Require().NoError(err)
	s.Equal([]byte("orig"), got)
	got[0] = 'Y'

	again, err := s.store.Get(ctx, addr(20))
	s.Require().NoError(err)
	s.Equal([]byte("orig"), again)
}

func (s *InMemoryStoreSuite) TestCancelledContextDoesNotCommit() {
	ctx, cancel := context.WithCancel(context.Background())
	err := s.store.RunInTx(ctx, func(ctx context.Context, accts Accounts) error {
		cancel()
		return accts.Create(ctx, addr(21), []byte("late"))
	})
	s.ErrorIs(err, context.Canceled)
	s.Equal(0, s.store.(*InMemoryStore).Len())
}
