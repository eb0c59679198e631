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

	"github.com/MorseWayne/storefront/internal/basket"
)

// ErrPublisherClosed 发布者已关闭
var ErrPublisherClosed = errors.New("publisher is closed")

// PublisherConfig 发布者配置
type PublisherConfig struct {
	Exchange       string
	RoutingKey     string
	Source         string
	BufferSize     int
	MaxRetries     int
	RetryInterval  time.Duration
	PublishTimeout time.Duration
}

func (c PublisherConfig) withDefaults() PublisherConfig {
	if c.Source == "" {
		c.Source = "storefront"
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 256
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 500 * time.Millisecond
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = 5 * time.Second
	}
	return c
}

// ChannelSource 提供发布通道，*Connection 实现该接口
// 连接重建后再次调用会得到新连接上的通道
type ChannelSource interface {
	Channel() (Channel, error)
}

// BasketEventPublisher 实现 basket.Observer，把变更事件异步投递到 topic 交换机
// 购物车操作不会因为消息队列不可用而失败：队列满时丢弃并记录日志
type BasketEventPublisher struct {
	src    ChannelSource
	cfg    PublisherConfig
	logger *zap.Logger

	queue chan *BasketMessage
	done  chan struct{}

	chMu sync.Mutex
	ch   Channel

	mu     sync.RWMutex
	closed bool

	published atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
}

// NewBasketEventPublisher 打开通道、声明交换机并启动发送协程
func NewBasketEventPublisher(src ChannelSource, cfg PublisherConfig, logger *zap.Logger) (*BasketEventPublisher, error) {
	if src == nil {
		return nil, errors.New("mq channel source is required")
	}
	if cfg.Exchange == "" {
		return nil, errors.New("mq exchange is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	p := &BasketEventPublisher{
		src:    src,
		cfg:    cfg,
		logger: logger,
		queue:  make(chan *BasketMessage, cfg.BufferSize),
		done:   make(chan struct{}),
	}
	if _, err := p.channel(); err != nil {
		return nil, err
	}
	go p.loop()
	return p, nil
}

// channel 返回当前通道，没有时从 src 重新打开并声明交换机
func (p *BasketEventPublisher) channel() (Channel, error) {
	p.chMu.Lock()
	defer p.chMu.Unlock()
	if p.ch != nil {
		return p.ch, nil
	}

	ch, err := p.src.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(p.cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", p.cfg.Exchange, err)
	}
	p.ch = ch
	return ch, nil
}

// discard 丢弃发布失败的通道，下次发布时重新打开
func (p *BasketEventPublisher) discard(ch Channel) {
	p.chMu.Lock()
	defer p.chMu.Unlock()
	if p.ch != ch {
		return
	}
	p.ch = nil
	_ = ch.Close()
}

// BasketChanged 实现 basket.Observer
func (p *BasketEventPublisher) BasketChanged(ev basket.ChangeEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}

	msg := NewBasketMessage(p.cfg.Source, ev)
	select {
	case p.queue <- msg:
	default:
		p.dropped.Add(1)
		p.logger.Warn("basket event dropped, publish queue full",
			zap.String("basket", ev.Basket), zap.String("action", ev.Action))
	}
}

func (p *BasketEventPublisher) loop() {
	defer close(p.done)
	for msg := range p.queue {
		if err := p.Publish(context.Background(), msg); err != nil {
			p.logger.Error("failed to publish basket event",
				zap.String("message_id", msg.ID), zap.Error(err))
		}
	}
}

// Publish 同步发布一条消息，失败时按配置重试
func (p *BasketEventPublisher) Publish(ctx context.Context, msg *BasketMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	publishing := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Timestamp:    msg.Timestamp,
		Type:         string(msg.Type),
		AppId:        msg.Source,
		Body:         body,
	}
	key := msg.RoutingKey(p.cfg.RoutingKey)

	var lastErr error
	attempts := p.cfg.MaxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		var ch Channel
		ch, lastErr = p.channel()
		if lastErr == nil {
			pubCtx, cancel := context.WithTimeout(ctx, p.cfg.PublishTimeout)
			lastErr = ch.PublishWithContext(pubCtx, p.cfg.Exchange, key, false, false, publishing)
			cancel()
			if lastErr == nil {
				p.published.Add(1)
				return nil
			}
			p.discard(ch)
		}

		p.logger.Warn("publish attempt failed",
			zap.String("exchange", p.cfg.Exchange),
			zap.String("routing_key", key),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))
		if attempt == attempts {
			break
		}
		select {
		case <-time.After(p.cfg.RetryInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	p.failed.Add(1)
	return fmt.Errorf("failed to publish message after %d attempts: %w", attempts, lastErr)
}

// PublisherStats 发布统计
type PublisherStats struct {
	Published int64 `json:"published"`
	Dropped   int64 `json:"dropped"`
	Failed    int64 `json:"failed"`
}

// Stats 返回发布统计
func (p *BasketEventPublisher) Stats() PublisherStats {
	return PublisherStats{
		Published: p.published.Load(),
		Dropped:   p.dropped.Load(),
		Failed:    p.failed.Load(),
	}
}

// Close 停止接收事件，等待队列中的消息发送完毕后关闭通道
func (p *BasketEventPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPublisherClosed
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done

	p.chMu.Lock()
	defer p.chMu.Unlock()
	if p.ch == nil {
		return nil
	}
	err := p.ch.Close()
	p.ch = nil
	return err
}
