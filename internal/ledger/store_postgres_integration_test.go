//go:build integration

package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	id "idattest/pkg/domain"
	txcontext "idattest/pkg/platform/tx"
	"idattest/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	storeSuite
	postgres *containers.PostgresContainer
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.Require().NoError(NewPostgresStore(s.postgres.DB).Migrate(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "accounts"))
	s.store = NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) TestMigrateIsIdempotent() {
	s.NoError(NewPostgresStore(s.postgres.DB).Migrate(context.Background()))
}

// Store reads inside RunInTx join the open transaction through the context.
func (s *PostgresStoreSuite) TestStoreReadsJoinOpenTx() {
	ctx := context.Background()
	err := s.store.RunInTx(ctx, func(ctx context.Context, accts Accounts) error {
		_, ok := txcontext.From(ctx)
		s.True(ok)
		if err := accts.Create(ctx, addr(30), []byte("pending")); err != nil {
			return err
		}
		got, err := s.store.GetMany(ctx, []id.Pubkey{addr(30)})
		s.Require().NoError(err)
		s.Equal([]byte("pending"), got[addr(30)])
		return nil
	})
	s.Require().NoError(err)
}
