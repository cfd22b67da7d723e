//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/shark-hsi-service/internal/adapter/griddata"
	"github.com/couchcryptid/shark-hsi-service/internal/domain"
	"github.com/couchcryptid/shark-hsi-service/internal/fixture"
	"github.com/couchcryptid/shark-hsi-service/internal/grid"
	"github.com/couchcryptid/shark-hsi-service/internal/observability"
	"github.com/couchcryptid/shark-hsi-service/internal/pipeline"
	"github.com/couchcryptid/shark-hsi-service/internal/species"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

var (
	targetDay   = time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)
	fixtureBox  = grid.Spec{South: -36, North: -34, West: 18, East: 20, Step: 0.5}
	requestArea = domain.Bounds{South: -36, North: -34, West: 18, East: 20}
)

// startKafka runs a single-node KRaft broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("shark-hsi-test"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "find controller")

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic %s", topic)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeFixture generates a month of synthetic grids in a temporary directory.
func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	gen, err := fixture.New(fixtureBox)
	require.NoError(t, err)
	_, err = gen.Write(griddata.NewDir(dir), targetDay, fixture.DefaultHistory)
	require.NoError(t, err)
	return dir
}

func newTransformer(dir string) *pipeline.HSITransformer {
	return pipeline.NewTransformer(species.Defaults(), griddata.NewDir(dir), pipeline.TransformerConfig{
		Resolution:   fixtureBox.Step,
		HotspotLimit: 10,
	}, discardLogger(), observability.NewMetricsForTesting())
}

// requestPayload encodes a request over the fixture area. An empty date
// leaves the target to the message timestamp.
func requestPayload(t *testing.T, speciesKey, date string) []byte {
	t.Helper()
	area := requestArea
	payload, err := json.Marshal(domain.Request{Species: speciesKey, TargetDate: date, Bounds: &area})
	require.NoError(t, err)
	return payload
}
