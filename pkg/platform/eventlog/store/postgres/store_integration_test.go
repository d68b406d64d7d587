//go:build integration

package postgres_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"tombola/pkg/domain"
	"tombola/pkg/platform/eventlog"
	"tombola/pkg/platform/eventlog/store/postgres"
	"tombola/pkg/testutil/containers"
)

type OutboxStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestOutboxStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(OutboxStoreSuite))
}

func (s *OutboxStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = postgres.New(s.postgres.DB)
}

func (s *OutboxStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "raffle_outbox", "raffle_events")
	s.Require().NoError(err)
}

func (s *OutboxStoreSuite) TestAppendLandsInOutboxOldestFirst() {
	ctx := context.Background()
	now := time.Now().UTC()

	first := eventlog.New(eventlog.KindEntryAccepted, 1, now)
	second := eventlog.New(eventlog.KindRefundIssued, 1, now.Add(time.Millisecond))
	s.Require().NoError(s.store.Append(ctx, first))
	s.Require().NoError(s.store.Append(ctx, second))

	entries, err := s.store.NextUnpublished(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal("entry_accepted", entries[0].Kind)
	s.Equal("refund_issued", entries[1].Kind)

	var payload struct {
		ID    string `json:"ID"`
		Epoch uint64 `json:"Epoch"`
	}
	s.Require().NoError(json.Unmarshal(entries[0].Payload, &payload))
	s.Equal(first.ID.String(), payload.ID)
	s.Equal(uint64(1), payload.Epoch)
}

func (s *OutboxStoreSuite) TestMarkPublishedRemovesFromBacklog() {
	ctx := context.Background()

	ev := eventlog.New(eventlog.KindWinnerSelected, 3, time.Now().UTC())
	s.Require().NoError(s.store.Append(ctx, ev))

	entries, err := s.store.NextUnpublished(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)

	s.Require().NoError(s.store.MarkPublished(ctx, []uuid.UUID{entries[0].ID}))

	remaining, err := s.store.NextUnpublished(ctx, 10)
	s.Require().NoError(err)
	s.Empty(remaining)
}

func (s *OutboxStoreSuite) TestNextUnpublishedHonorsLimit() {
	ctx := context.Background()
	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		ev := eventlog.New(eventlog.KindEntryAccepted, 1, now.Add(time.Duration(i)*time.Millisecond))
		s.Require().NoError(s.store.Append(ctx, ev))
	}

	entries, err := s.store.NextUnpublished(ctx, 3)
	s.Require().NoError(err)
	s.Len(entries, 3)
}

func (s *OutboxStoreSuite) TestMaterializedEventsQueryByEpoch() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	entry := eventlog.New(eventlog.KindEntryAccepted, 2, now)
	entry.Actor = domain.Identity("addr-alice")
	entry.Subjects = []domain.Identity{"addr-alice", "addr-bob"}
	entry.Slot = 0
	entry.Amount = 200

	winner := eventlog.New(eventlog.KindWinnerSelected, 2, now.Add(time.Millisecond))
	winner.Subjects = []domain.Identity{"addr-bob"}
	winner.Amount = 180

	other := eventlog.New(eventlog.KindEntryAccepted, 3, now.Add(2*time.Millisecond))

	for _, ev := range []eventlog.Event{entry, winner, other} {
		s.Require().NoError(s.store.AppendMaterialized(ctx, ev))
	}

	events, err := s.store.ListByEpoch(ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(events, 2)

	s.Equal(entry.ID, events[0].ID)
	s.Equal(eventlog.KindEntryAccepted, events[0].Kind)
	s.Equal(domain.Identity("addr-alice"), events[0].Actor)
	s.Equal([]domain.Identity{"addr-alice", "addr-bob"}, events[0].Subjects)
	s.Equal(uint64(200), events[0].Amount)
	s.Equal(winner.ID, events[1].ID)
}

func (s *OutboxStoreSuite) TestAppendMaterializedIsIdempotent() {
	ctx := context.Background()

	ev := eventlog.New(eventlog.KindFeesWithdrawn, 4, time.Now().UTC())
	s.Require().NoError(s.store.AppendMaterialized(ctx, ev))
	s.Require().NoError(s.store.AppendMaterialized(ctx, ev))

	events, err := s.store.ListByEpoch(ctx, 4)
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *OutboxStoreSuite) TestListRecentNewestFirst() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < 4; i++ {
		ev := eventlog.New(eventlog.KindEntryAccepted, uint64(i+1), now.Add(time.Duration(i)*time.Second))
		s.Require().NoError(s.store.AppendMaterialized(ctx, ev))
	}

	events, err := s.store.ListRecent(ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(uint64(4), events[0].Epoch)
	s.Equal(uint64(3), events[1].Epoch)
}
