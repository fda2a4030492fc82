package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/radar-archive-locator/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMessageToRawMessage(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("key-1"),
		Value:     []byte(`{"id":"req-1","kind":"files"}`),
		Topic:     "radar-locate-requests",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("scheduler")},
		},
	}

	raw := mapMessageToRawMessage(msg)

	assert.Equal(t, []byte("key-1"), raw.Key)
	assert.JSONEq(t, `{"id":"req-1","kind":"files"}`, string(raw.Value))
	assert.Equal(t, "radar-locate-requests", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "scheduler", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	res := domain.LocateResult{
		ID:   "req-1",
		Kind: domain.KindForecast,
		Path: "/data/cosmo/HZT/21152/HZT2115203000L.802",
		Run: &domain.ForecastRun{
			RunTime:   time.Date(2021, 6, 1, 3, 0, 0, 0, time.UTC),
			LeadHours: 2,
		},
		ProcessedAt: now,
	}

	msg, err := serializeToMessage(res)
	require.NoError(t, err)

	assert.Equal(t, []byte("req-1"), msg.Key)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "kind", msg.Headers[0].Key)
	assert.Equal(t, []byte("forecast"), msg.Headers[0].Value)
	assert.Equal(t, "processed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "forecast", decoded["kind"])
	assert.Equal(t, res.Path, decoded["path"])
	assert.NotContains(t, decoded, "files")
	assert.NotContains(t, decoded, "error")
}
