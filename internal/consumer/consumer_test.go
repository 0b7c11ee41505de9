package consumer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/taskpipe/internal/config"
	"github.com/phrazzld/taskpipe/internal/mocks"
	"github.com/phrazzld/taskpipe/internal/platform/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

func startConsumer(t *testing.T, c *Consumer) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	t.Cleanup(cancel)
	return cancel, done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(waitFor):
		t.Fatal("consumer did not stop")
		return nil
	}
}

func newRunConsumer(t *testing.T, broker config.BrokerConfig, dialer *mocks.MockDialer, tasks *mocks.MockTaskStore) *Consumer {
	t.Helper()
	log, _ := logger.NewTestLogger(t)
	c, err := New(broker, config.ConsumerConfig{}, dialer.Dial, tasks, log)
	require.NoError(t, err)
	return c
}

func TestRunConsumesAndAcks(t *testing.T) {
	ch := mocks.NewMockChannel()
	dialer := mocks.NewMockDialer(mocks.NewMockConnection(ch))
	tasks := &mocks.MockTaskStore{}
	c := newRunConsumer(t, testBrokerConfig(), dialer, tasks)
	assert.Equal(t, StateDisconnected, c.State())

	cancel, done := startConsumer(t, c)
	require.Eventually(t, func() bool { return c.State() == StateIdle }, waitFor, time.Millisecond)

	declared, consumes, _ := ch.Snapshot()
	require.Len(t, declared, 1)
	assert.Equal(t, mocks.DeclaredQueue{Name: "taskQueue"}, declared[0])
	assert.Equal(t, []int{1}, ch.QosCalls)
	require.Len(t, consumes, 1)
	assert.Equal(t, "taskQueue", consumes[0].Queue)
	assert.False(t, consumes[0].AutoAck, "manual acknowledgement")
	assert.True(t, strings.HasPrefix(consumes[0].Consumer, "task-consumer-"))

	ack := &mocks.MockAcknowledger{}
	ch.Deliveries <- ack.Delivery(1, validBody(t), nil)
	ch.Deliveries <- ack.Delivery(2, []byte("null"), nil)

	require.Eventually(t, func() bool { return ack.Settled() == 2 }, waitFor, time.Millisecond)
	assert.Equal(t, mocks.OutcomeAck, ack.Outcome(1))
	assert.Equal(t, mocks.OutcomeNackNoRequeue, ack.Outcome(2))
	assert.Equal(t, 1, tasks.CallCount("Add"))

	cancel()
	assert.NoError(t, waitDone(t, done))
	assert.Equal(t, StateDisconnected, c.State())
}

func TestRunRetriesInitialConnection(t *testing.T) {
	dialer := mocks.NewMockDialer(nil, nil, mocks.NewMockConnection())
	c := newRunConsumer(t, testBrokerConfig(), dialer, &mocks.MockTaskStore{})

	startConsumer(t, c)

	require.Eventually(t, func() bool { return c.State() == StateIdle }, waitFor, time.Millisecond)
	assert.Equal(t, 3, dialer.Calls())
}

func TestRunReconnectsAfterClosure(t *testing.T) {
	tests := []struct {
		name  string
		close func(conn *mocks.MockConnection, ch *mocks.MockChannel)
	}{
		{
			name: "channel closed by broker",
			close: func(_ *mocks.MockConnection, ch *mocks.MockChannel) {
				ch.Fail(&amqp.Error{Code: amqp.PreconditionFailed, Reason: "PRECONDITION_FAILED"})
			},
		},
		{
			name: "connection dropped",
			close: func(conn *mocks.MockConnection, _ *mocks.MockChannel) {
				conn.Fail(&amqp.Error{Code: amqp.ConnectionForced, Reason: "CONNECTION_FORCED"})
			},
		},
		{
			name: "delivery stream closed",
			close: func(_ *mocks.MockConnection, ch *mocks.MockChannel) {
				close(ch.Deliveries)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			firstCh, secondCh := mocks.NewMockChannel(), mocks.NewMockChannel()
			firstConn := mocks.NewMockConnection(firstCh)
			dialer := mocks.NewMockDialer(firstConn, mocks.NewMockConnection(secondCh))
			c := newRunConsumer(t, testBrokerConfig(), dialer, &mocks.MockTaskStore{})

			startConsumer(t, c)
			require.Eventually(t, func() bool { return c.State() == StateIdle }, waitFor, time.Millisecond)

			tt.close(firstConn, firstCh)

			require.Eventually(t, func() bool {
				return dialer.Calls() == 2 && c.State() == StateIdle
			}, waitFor, time.Millisecond)
			assert.True(t, firstConn.IsClosed())

			ack := &mocks.MockAcknowledger{}
			secondCh.Deliveries <- ack.Delivery(1, validBody(t), nil)
			require.Eventually(t, func() bool { return ack.Outcome(1) == mocks.OutcomeAck }, waitFor, time.Millisecond)
		})
	}
}

func TestRunReconnectsAfterSetupFailure(t *testing.T) {
	broken := mocks.NewMockChannel()
	broken.DeclareErr = errors.New("ACCESS_REFUSED")
	dialer := mocks.NewMockDialer(mocks.NewMockConnection(broken), mocks.NewMockConnection())
	c := newRunConsumer(t, testBrokerConfig(), dialer, &mocks.MockTaskStore{})

	startConsumer(t, c)

	require.Eventually(t, func() bool {
		return dialer.Calls() == 2 && c.State() == StateIdle
	}, waitFor, time.Millisecond)
}

func TestRunBoundedReconnectGivesUp(t *testing.T) {
	broker := testBrokerConfig()
	broker.MaxReconnectAttempts = 3
	dialer := mocks.NewMockDialer()
	c := newRunConsumer(t, broker, dialer, &mocks.MockTaskStore{})

	_, done := startConsumer(t, c)

	err := waitDone(t, done)
	assert.ErrorIs(t, err, mocks.ErrDialRefused)
	assert.Equal(t, 3, dialer.Calls())
	assert.Equal(t, StateDisconnected, c.State())
}

func TestRunStopsWhileConnecting(t *testing.T) {
	dialer := mocks.NewMockDialer()
	c := newRunConsumer(t, testBrokerConfig(), dialer, &mocks.MockTaskStore{})

	cancel, done := startConsumer(t, c)
	require.Eventually(t, func() bool { return dialer.Calls() >= 2 }, waitFor, time.Millisecond)
	assert.Equal(t, StateConnecting, c.State())

	cancel()
	assert.NoError(t, waitDone(t, done))
	assert.Equal(t, StateDisconnected, c.State())
}
