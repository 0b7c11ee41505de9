package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/phrazzld/taskpipe/internal/platform/rabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DeclaredQueue records a QueueDeclare call.
type DeclaredQueue struct {
	Name       string
	Durable    bool
	AutoDelete bool
	Exclusive  bool
	NoWait     bool
	Args       amqp.Table
}

// ConsumeCall records a Consume call.
type ConsumeCall struct {
	Queue     string
	Consumer  string
	AutoAck   bool
	Exclusive bool
	NoLocal   bool
	NoWait    bool
}

// PublishedMessage records a successful PublishWithContext call.
type PublishedMessage struct {
	Exchange string
	Key      string
	Msg      amqp.Publishing
}

// closeNotifier mimics amqp close notification: receivers get the error,
// if any, and are then closed. Receivers registered after closure are
// closed immediately.
type closeNotifier struct {
	mu        sync.Mutex
	receivers []chan *amqp.Error
	closed    bool
}

func (n *closeNotifier) register(r chan *amqp.Error) chan *amqp.Error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		close(r)
		return r
	}
	n.receivers = append(n.receivers, r)
	return r
}

func (n *closeNotifier) shutdown(err *amqp.Error) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return false
	}
	n.closed = true
	for _, r := range n.receivers {
		if err != nil {
			select {
			case r <- err:
			default:
			}
		}
		close(r)
	}
	n.receivers = nil
	return true
}

func (n *closeNotifier) isClosed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
}

// MockChannel implements rabbitmq.Channel for testing.
type MockChannel struct {
	// Deliveries is returned by Consume. Tests send on it.
	Deliveries chan amqp.Delivery

	QosErr     error
	DeclareErr error
	ConsumeErr error
	// PublishErr, when set, decides the result of each publish attempt.
	PublishErr func(msg amqp.Publishing) error

	mu        sync.Mutex
	QosCalls  []int
	Declared  []DeclaredQueue
	Consumes  []ConsumeCall
	Published []PublishedMessage

	notify closeNotifier
}

var _ rabbitmq.Channel = (*MockChannel)(nil)

// NewMockChannel creates a MockChannel with a buffered delivery channel.
func NewMockChannel() *MockChannel {
	return &MockChannel{Deliveries: make(chan amqp.Delivery, 16)}
}

// Qos implements rabbitmq.Channel.
func (c *MockChannel) Qos(prefetchCount, _ int, _ bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.QosCalls = append(c.QosCalls, prefetchCount)
	return c.QosErr
}

// QueueDeclare implements rabbitmq.Channel.
func (c *MockChannel) QueueDeclare(
	name string,
	durable, autoDelete, exclusive, noWait bool,
	args amqp.Table,
) (amqp.Queue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.DeclareErr != nil {
		return amqp.Queue{}, c.DeclareErr
	}
	c.Declared = append(c.Declared, DeclaredQueue{
		Name: name, Durable: durable, AutoDelete: autoDelete,
		Exclusive: exclusive, NoWait: noWait, Args: args,
	})
	return amqp.Queue{Name: name}, nil
}

// Consume implements rabbitmq.Channel.
func (c *MockChannel) Consume(
	queue, consumer string,
	autoAck, exclusive, noLocal, noWait bool,
	_ amqp.Table,
) (<-chan amqp.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ConsumeErr != nil {
		return nil, c.ConsumeErr
	}
	c.Consumes = append(c.Consumes, ConsumeCall{
		Queue: queue, Consumer: consumer, AutoAck: autoAck,
		Exclusive: exclusive, NoLocal: noLocal, NoWait: noWait,
	})
	return c.Deliveries, nil
}

// PublishWithContext implements rabbitmq.Channel.
func (c *MockChannel) PublishWithContext(
	ctx context.Context,
	exchange, key string,
	_, _ bool,
	msg amqp.Publishing,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.notify.isClosed() {
		return amqp.ErrClosed
	}
	if c.PublishErr != nil {
		if err := c.PublishErr(msg); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Published = append(c.Published, PublishedMessage{Exchange: exchange, Key: key, Msg: msg})
	return nil
}

// NotifyClose implements rabbitmq.Channel.
func (c *MockChannel) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	return c.notify.register(receiver)
}

// Close implements rabbitmq.Channel.
func (c *MockChannel) Close() error {
	c.notify.shutdown(nil)
	return nil
}

// Fail simulates the broker closing the channel with err.
func (c *MockChannel) Fail(err *amqp.Error) {
	c.notify.shutdown(err)
}

// Closed reports whether the channel has been closed or failed.
func (c *MockChannel) Closed() bool {
	return c.notify.isClosed()
}

// Snapshot returns copies of the recorded calls.
func (c *MockChannel) Snapshot() (declared []DeclaredQueue, consumes []ConsumeCall, published []PublishedMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]DeclaredQueue(nil), c.Declared...),
		append([]ConsumeCall(nil), c.Consumes...),
		append([]PublishedMessage(nil), c.Published...)
}

// MockConnection implements rabbitmq.Connection for testing. Each call to
// Channel hands out the next entry of Channels, or a fresh MockChannel
// once they run out.
type MockConnection struct {
	ChannelErr error

	mu       sync.Mutex
	Channels []*MockChannel
	opened   []*MockChannel

	notify closeNotifier
}

var _ rabbitmq.Connection = (*MockConnection)(nil)

// NewMockConnection creates a MockConnection that will hand out channels.
func NewMockConnection(channels ...*MockChannel) *MockConnection {
	return &MockConnection{Channels: channels}
}

// Channel implements rabbitmq.Connection.
func (c *MockConnection) Channel() (rabbitmq.Channel, error) {
	if c.notify.isClosed() {
		return nil, amqp.ErrClosed
	}
	if c.ChannelErr != nil {
		return nil, c.ChannelErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var ch *MockChannel
	if len(c.Channels) > 0 {
		ch = c.Channels[0]
		c.Channels = c.Channels[1:]
	} else {
		ch = NewMockChannel()
	}
	c.opened = append(c.opened, ch)
	return ch, nil
}

// Opened returns the channels handed out so far.
func (c *MockConnection) Opened() []*MockChannel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*MockChannel(nil), c.opened...)
}

// NotifyClose implements rabbitmq.Connection.
func (c *MockConnection) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	return c.notify.register(receiver)
}

// IsClosed implements rabbitmq.Connection.
func (c *MockConnection) IsClosed() bool {
	return c.notify.isClosed()
}

// Close implements rabbitmq.Connection.
func (c *MockConnection) Close() error {
	if !c.notify.shutdown(nil) {
		return amqp.ErrClosed
	}
	c.closeChannels(nil)
	return nil
}

// Fail simulates the broker dropping the connection with err.
func (c *MockConnection) Fail(err *amqp.Error) {
	if c.notify.shutdown(err) {
		c.closeChannels(err)
	}
}

func (c *MockConnection) closeChannels(err *amqp.Error) {
	for _, ch := range c.Opened() {
		ch.notify.shutdown(err)
	}
}

// ErrDialRefused is returned by MockDialer when it runs out of connections.
var ErrDialRefused = errors.New("dial tcp: connection refused")

// MockDialer hands out connections in order. A nil entry, or running out
// of entries, makes that dial fail with ErrDialRefused.
type MockDialer struct {
	mu    sync.Mutex
	Conns []*MockConnection
	calls int
	urls  []string
}

// NewMockDialer creates a MockDialer over conns.
func NewMockDialer(conns ...*MockConnection) *MockDialer {
	return &MockDialer{Conns: conns}
}

// Dial satisfies rabbitmq.Dialer.
func (d *MockDialer) Dial(url string) (rabbitmq.Connection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	d.urls = append(d.urls, url)
	if len(d.Conns) == 0 {
		return nil, ErrDialRefused
	}
	conn := d.Conns[0]
	d.Conns = d.Conns[1:]
	if conn == nil {
		return nil, ErrDialRefused
	}
	return conn, nil
}

// Calls returns the number of dial attempts.
func (d *MockDialer) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// URLs returns the dialed URLs.
func (d *MockDialer) URLs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.urls...)
}
