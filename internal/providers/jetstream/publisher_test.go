package jetstream_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	jsdriver "github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeternalx123/agropulseAI/internal/logger"
	"github.com/codeternalx123/agropulseAI/internal/messaging"
	"github.com/codeternalx123/agropulseAI/internal/mocks"
	"github.com/codeternalx123/agropulseAI/internal/providers/jetstream"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

func testConfig() jetstream.Config {
	return jetstream.Config{
		URL:            "nats://localhost:4222",
		StreamName:     "MARKETPLACE_EVENTS",
		MaxReconnects:  3,
		ReconnectWait:  time.Second,
		ConnectionName: "test-publisher",
	}
}

func TestNewPublisher_EnsuresStream(t *testing.T) {
	ctrl := gomock.NewController(t)
	natsJS := mocks.NewMockNatsJetStream(ctrl)
	nc := mocks.NewMockNatsConn(ctrl)
	js := mocks.NewMockJetStream(ctrl)
	jsonAdapter := mocks.NewMockJSON(ctrl)

	natsJS.EXPECT().
		Connect("nats://localhost:4222", gomock.Any()).
		Return(nc, js, nil)
	js.EXPECT().
		CreateOrUpdateStream(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cfg jsdriver.StreamConfig) (jsdriver.Stream, error) {
			assert.Equal(t, "MARKETPLACE_EVENTS", cfg.Name)
			assert.Equal(t, []string{"marketplace.>"}, cfg.Subjects)
			return nil, nil
		})

	pub, err := jetstream.NewPublisher(testConfig(), natsJS, jsonAdapter)
	require.NoError(t, err)
	require.NotNil(t, pub)

	nc.EXPECT().Close()
	pub.Close()
}

func TestNewPublisher_StreamFailureClosesConnection(t *testing.T) {
	ctrl := gomock.NewController(t)
	natsJS := mocks.NewMockNatsJetStream(ctrl)
	nc := mocks.NewMockNatsConn(ctrl)
	js := mocks.NewMockJetStream(ctrl)
	jsonAdapter := mocks.NewMockJSON(ctrl)

	natsJS.EXPECT().
		Connect(gomock.Any(), gomock.Any()).
		Return(nc, js, nil)
	js.EXPECT().
		CreateOrUpdateStream(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("stream rejected"))
	nc.EXPECT().Close()

	pub, err := jetstream.NewPublisher(testConfig(), natsJS, jsonAdapter)
	require.Error(t, err)
	assert.Nil(t, pub)
	assert.Contains(t, err.Error(), "failed to create or update stream")
}

func TestNewPublisher_ConnectFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	natsJS := mocks.NewMockNatsJetStream(ctrl)
	jsonAdapter := mocks.NewMockJSON(ctrl)

	natsJS.EXPECT().
		Connect(gomock.Any(), gomock.Any()).
		Return(nil, nil, errors.New("connection refused"))

	pub, err := jetstream.NewPublisher(testConfig(), natsJS, jsonAdapter)
	require.Error(t, err)
	assert.Nil(t, pub)
}

func TestPublisher_PublishEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	natsJS := mocks.NewMockNatsJetStream(ctrl)
	nc := mocks.NewMockNatsConn(ctrl)
	js := mocks.NewMockJetStream(ctrl)
	jsonAdapter := mocks.NewMockJSON(ctrl)

	natsJS.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(nc, js, nil)
	js.EXPECT().CreateOrUpdateStream(gomock.Any(), gomock.Any()).Return(nil, nil)

	pub, err := jetstream.NewPublisher(testConfig(), natsJS, jsonAdapter)
	require.NoError(t, err)

	event := &messaging.MarketplaceEvent{
		EventID:       "01J8ZQ4X5E",
		EventType:     "transaction.completed",
		TransactionID: "tx-1",
		OccurredAt:    time.Now().UTC(),
	}

	jsonAdapter.EXPECT().
		Marshal(event).
		DoAndReturn(func(v interface{}) ([]byte, error) {
			return json.Marshal(v)
		})
	js.EXPECT().
		Publish(gomock.Any(), "marketplace.transaction.completed", gomock.Any()).
		Return(&jsdriver.PubAck{Stream: "MARKETPLACE_EVENTS"}, nil)

	require.NoError(t, pub.PublishEvent(context.Background(), event))
}
