// Package mq 把购物车/心愿单变更事件发布到 RabbitMQ。
package mq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ConnectionState 连接状态
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnected
	StateReconnecting
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Channel 发布者使用的通道操作，由 *amqp.Channel 实现
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// amqpConnection *amqp.Connection 中用到的部分
type amqpConnection interface {
	Channel() (*amqp.Channel, error)
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	IsClosed() bool
	Close() error
}

type dialFunc func(url string) (amqpConnection, error)

func dialAMQP(url string) (amqpConnection, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// ReconnectPolicy 断线重连策略，间隔从 Interval 开始翻倍直到 MaxInterval
// MaxAttempts 为 0 表示一直重试
type ReconnectPolicy struct {
	Interval    time.Duration
	MaxInterval time.Duration
	MaxAttempts int
}

func (p ReconnectPolicy) withDefaults() ReconnectPolicy {
	if p.Interval <= 0 {
		p.Interval = time.Second
	}
	if p.MaxInterval < p.Interval {
		p.MaxInterval = 30 * time.Second
		if p.MaxInterval < p.Interval {
			p.MaxInterval = p.Interval
		}
	}
	return p
}

// Connection RabbitMQ 连接，意外断开后在后台重连
type Connection struct {
	url    string
	logger *zap.Logger
	dial   dialFunc
	policy ReconnectPolicy

	mu    sync.Mutex
	conn  amqpConnection
	state int32

	stopCh     chan struct{}
	stopOnce   sync.Once
	reconnects atomic.Int64
}

// Dial 建立连接
func Dial(url string, logger *zap.Logger) (*Connection, error) {
	return dialWith(url, logger, dialAMQP, ReconnectPolicy{})
}

func dialWith(url string, logger *zap.Logger, dial dialFunc, policy ReconnectPolicy) (*Connection, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	c := &Connection{
		url:    url,
		logger: logger,
		dial:   dial,
		policy: policy.withDefaults(),
		conn:   conn,
		state:  int32(StateConnected),
		stopCh: make(chan struct{}),
	}
	go c.watch(conn.NotifyClose(make(chan *amqp.Error, 1)))
	logger.Info("rabbitmq connected")
	return c, nil
}

func (c *Connection) watch(closed <-chan *amqp.Error) {
	var err *amqp.Error
	select {
	case err = <-closed:
	case <-c.stopCh:
		return
	}
	if !atomic.CompareAndSwapInt32(&c.state, int32(StateConnected), int32(StateReconnecting)) {
		return
	}
	if err != nil {
		c.logger.Warn("rabbitmq connection lost, reconnecting", zap.Error(err))
	} else {
		c.logger.Warn("rabbitmq connection closed, reconnecting")
	}
	c.reconnect()
}

// reconnect 按退避间隔重新拨号，成功后重新开始监听断开事件
func (c *Connection) reconnect() {
	delay := c.policy.Interval
	for attempt := 1; ; attempt++ {
		select {
		case <-time.After(delay):
		case <-c.stopCh:
			return
		}

		conn, err := c.dial(c.url)
		if err != nil {
			c.logger.Warn("rabbitmq reconnect failed",
				zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(err))
			if c.policy.MaxAttempts > 0 && attempt >= c.policy.MaxAttempts {
				c.logger.Error("rabbitmq reconnect gave up", zap.Int("attempts", attempt))
				atomic.CompareAndSwapInt32(&c.state, int32(StateReconnecting), int32(StateDisconnected))
				return
			}
			delay *= 2
			if delay > c.policy.MaxInterval {
				delay = c.policy.MaxInterval
			}
			continue
		}

		c.mu.Lock()
		if !atomic.CompareAndSwapInt32(&c.state, int32(StateReconnecting), int32(StateConnected)) {
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		old := c.conn
		c.conn = conn
		closed := conn.NotifyClose(make(chan *amqp.Error, 1))
		c.mu.Unlock()

		if old != nil && !old.IsClosed() {
			_ = old.Close()
		}
		c.reconnects.Add(1)
		c.logger.Info("rabbitmq reconnected", zap.Int("attempts", attempt))
		go c.watch(closed)
		return
	}
}

// State 当前连接状态
func (c *Connection) State() ConnectionState {
	return ConnectionState(atomic.LoadInt32(&c.state))
}

// Reconnects 成功重连的次数
func (c *Connection) Reconnects() int64 {
	return c.reconnects.Load()
}

// Channel 在当前连接上打开新通道，重连期间返回错误
func (c *Connection) Channel() (Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s := c.State(); s != StateConnected || c.conn == nil || c.conn.IsClosed() {
		return nil, fmt.Errorf("rabbitmq connection is %s", s)
	}
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if ch == nil {
		return nil, errors.New("failed to open channel: nil channel")
	}
	return ch, nil
}

// Close 关闭连接并停止重连，重复调用安全
func (c *Connection) Close() error {
	if atomic.SwapInt32(&c.state, int32(StateClosed)) == int32(StateClosed) {
		return nil
	}
	c.stopOnce.Do(func() { close(c.stopCh) })

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.conn.IsClosed() {
		return nil
	}
	c.logger.Info("closing rabbitmq connection")
	return c.conn.Close()
}
