//go:build integration

package alerting_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"logdata/internal/alerting"
	"logdata/internal/platform/config"
	"logdata/internal/platform/kafka/producer"
	"logdata/pkg/testutil/containers"
)

func TestKafkaNotifierFanOut(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	kafka := containers.GetManager().GetKafka(t)
	topic := "test-alert-fanout"
	require.NoError(t, kafka.CreateTopic(ctx, topic, 1, 1))

	prod, err := producer.New(config.KafkaConfig{Brokers: []string{kafka.Brokers}, Acks: "all"}, nil)
	require.NoError(t, err)
	defer prod.Close()

	dispatcher := alerting.NewDispatcher(alerting.NewKafkaNotifier(prod, topic), alerting.WithTimeout(10*time.Second))
	require.NoError(t, dispatcher.Dispatch(ctx, []string{"ops@acme.io", "dev@acme.io"}, "[Acme] ERROR alert from api", "{}"))

	consumer, err := kafka.NewConsumer(topic)
	require.NoError(t, err)
	defer consumer.Close()

	seen := map[string]alerting.Message{}
	record := kafka.WaitForMessage(ctx, consumer, 10*time.Second, func(r *kgo.Record) bool {
		var msg alerting.Message
		if json.Unmarshal(r.Value, &msg) == nil {
			seen[string(r.Key)] = msg
		}
		return len(seen) == 2
	})
	require.NotNil(t, record, "expected one record per recipient, saw %v", seen)
	require.Equal(t, "[Acme] ERROR alert from api", seen["ops@acme.io"].Subject)
	require.Equal(t, "[Acme] ERROR alert from api", seen["dev@acme.io"].Subject)
}
