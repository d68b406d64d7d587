package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tombola/internal/raffle/models"
	"tombola/pkg/platform/sentinel"
)

type InMemoryArchiveSuite struct {
	suite.Suite
	archive *InMemoryArchive
}

func TestInMemoryArchiveSuite(t *testing.T) {
	suite.Run(t, new(InMemoryArchiveSuite))
}

func (s *InMemoryArchiveSuite) SetupTest() {
	s.archive = NewInMemoryArchive()
}

func (s *InMemoryArchiveSuite) record(epoch uint64) models.RoundRecord {
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

func (s *InMemoryArchiveSuite) TestSaveAndFind() {
	ctx := context.Background()
	want := s.record(1)

	s.Require().NoError(s.archive.Save(ctx, want))

	got, err := s.archive.FindByEpoch(ctx, 1)
	s.Require().NoError(err)
	s.Equal(want, *got)
}

func (s *InMemoryArchiveSuite) TestFindNotFound() {
	_, err := s.archive.FindByEpoch(context.Background(), 99)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryArchiveSuite) TestSaveIgnoresDuplicateEpoch() {
	ctx := context.Background()
	first := s.record(1)
	s.Require().NoError(s.archive.Save(ctx, first))

	second := s.record(1)
	second.Winner = "mallory"
	s.Require().NoError(s.archive.Save(ctx, second))

	got, err := s.archive.FindByEpoch(ctx, 1)
	s.Require().NoError(err)
	s.Equal(first.Winner, got.Winner, "first archived record wins")
}

func (s *InMemoryArchiveSuite) TestListRecentNewestFirst() {
	ctx := context.Background()
	for epoch := uint64(1); epoch <= 5; epoch++ {
		s.Require().NoError(s.archive.Save(ctx, s.record(epoch)))
	}

	records, err := s.archive.ListRecent(ctx, 3)
	s.Require().NoError(err)
	s.Require().Len(records, 3)
	s.Equal(uint64(5), records[0].Epoch)
	s.Equal(uint64(4), records[1].Epoch)
	s.Equal(uint64(3), records[2].Epoch)
}

func (s *InMemoryArchiveSuite) TestListRecentUnlimitedWhenZero() {
	ctx := context.Background()
	for epoch := uint64(1); epoch <= 3; epoch++ {
		s.Require().NoError(s.archive.Save(ctx, s.record(epoch)))
	}

	records, err := s.archive.ListRecent(ctx, 0)
	s.Require().NoError(err)
	s.Len(records, 3)
}
