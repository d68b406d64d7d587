//go:build integration

package kafka_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"tombola/internal/platform/kafka"
	"tombola/pkg/testutil/containers"
)

type ProducerSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
	logger   *slog.Logger
}

func TestProducerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProducerSuite))
}

func (s *ProducerSuite) SetupSuite() {
	s.redpanda = containers.GetManager().GetRedpanda(s.T())
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

// uniqueTopic isolates each test from records produced by the others.
func uniqueTopic(prefix string) string {
	return fmt.Sprintf("%s.%d", prefix, time.Now().UnixNano())
}

func (s *ProducerSuite) consume(topic string, want int) []*kgo.Record {
	s.T().Helper()

	client, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer client.Close()

	deadline := time.Now().Add(15 * time.Second)
	var records []*kgo.Record
	for len(records) < want && time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		fetches := client.PollFetches(ctx)
		cancel()
		fetches.EachRecord(func(r *kgo.Record) {
			records = append(records, r)
		})
	}
	s.Require().Len(records, want, "expected %d records on %s", want, topic)
	return records
}

func (s *ProducerSuite) TestPublishRoundTrip() {
	ctx := context.Background()
	topic := uniqueTopic("tombola.events")

	producer, err := kafka.NewProducer(ctx, s.redpanda.Brokers, topic, s.logger)
	s.Require().NoError(err)
	defer producer.Close()

	s.Require().NoError(producer.Publish(ctx, "entry_accepted", []byte(`{"seq":1}`)))
	s.Require().NoError(producer.Publish(ctx, "refund_issued", []byte(`{"seq":2}`)))

	records := s.consume(topic, 2)
	s.Equal("entry_accepted", string(records[0].Key))
	s.JSONEq(`{"seq":1}`, string(records[0].Value))
	s.Equal("refund_issued", string(records[1].Key))
}

func (s *ProducerSuite) TestTopicCreationIsIdempotent() {
	ctx := context.Background()
	topic := uniqueTopic("tombola.events")

	first, err := kafka.NewProducer(ctx, s.redpanda.Brokers, topic, s.logger)
	s.Require().NoError(err)
	first.Close()

	second, err := kafka.NewProducer(ctx, s.redpanda.Brokers, topic, s.logger)
	s.Require().NoError(err)
	defer second.Close()

	s.NoError(second.Publish(ctx, "winner_selected", []byte(`{}`)))
}

func (s *ProducerSuite) TestHealth() {
	ctx := context.Background()
	topic := uniqueTopic("tombola.events")

	producer, err := kafka.NewProducer(ctx, s.redpanda.Brokers, topic, s.logger)
	s.Require().NoError(err)
	defer producer.Close()

	s.NoError(producer.Health(ctx))
}

func (s *ProducerSuite) TestRejectsEmptyBrokerList() {
	_, err := kafka.NewProducer(context.Background(), nil, "tombola.events", s.logger)
	s.Error(err)
}
