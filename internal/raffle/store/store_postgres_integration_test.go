//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tombola/internal/raffle/models"
	"tombola/internal/raffle/store"
	"tombola/pkg/platform/sentinel"
	"tombola/pkg/testutil/containers"
)

type PostgresArchiveSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	archive  *store.PostgresArchive
}

func TestPostgresArchiveSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresArchiveSuite))
}

func (s *PostgresArchiveSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.archive = store.NewPostgresArchive(s.postgres.Pool)
}

func (s *PostgresArchiveSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "raffle_rounds")
	s.Require().NoError(err)
}

func record(epoch uint64) models.RoundRecord {
	return models.RoundRecord{
		Epoch:       epoch,
		Winner:      "alice",
		Entrants:    4,
		PoolAtClose: 400,
		WinnerShare: 320,
		FeeShare:    80,
		DrawnAt:     time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC),
	}
}

func (s *PostgresArchiveSuite) TestSaveAndFind() {
	ctx := context.Background()
	want := record(1)

	s.Require().NoError(s.archive.Save(ctx, want))

	got, err := s.archive.FindByEpoch(ctx, 1)
	s.Require().NoError(err)
	s.Equal(want.Winner, got.Winner)
	s.Equal(want.PoolAtClose, got.PoolAtClose)
	s.Equal(want.WinnerShare, got.WinnerShare)
	s.Equal(want.FeeShare, got.FeeShare)
	s.True(want.DrawnAt.Equal(got.DrawnAt))
}

func (s *PostgresArchiveSuite) TestFindNotFound() {
	_, err := s.archive.FindByEpoch(context.Background(), 404)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresArchiveSuite) TestSaveConflictKeepsFirstRecord() {
	ctx := context.Background()
	first := record(7)
	s.Require().NoError(s.archive.Save(ctx, first))

	second := record(7)
	second.Winner = "mallory"
	s.Require().NoError(s.archive.Save(ctx, second))

	got, err := s.archive.FindByEpoch(ctx, 7)
	s.Require().NoError(err)
	s.Equal(first.Winner, got.Winner)
}

func (s *PostgresArchiveSuite) TestListRecentNewestFirst() {
	ctx := context.Background()
	for epoch := uint64(1); epoch <= 5; epoch++ {
		s.Require().NoError(s.archive.Save(ctx, record(epoch)))
	}

	records, err := s.archive.ListRecent(ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal(uint64(5), records[0].Epoch)
	s.Equal(uint64(4), records[1].Epoch)
}
