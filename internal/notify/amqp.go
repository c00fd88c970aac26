package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nextmyth84-stack/road-auto/internal/config"
	"github.com/nextmyth84-stack/road-auto/pkg/logger"
)

// channel amqp.Channel 中用到的方法
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher 通过 RabbitMQ 发布事件
type AMQPPublisher struct {
	conn       *amqp.Connection
	ch         channel
	exchange   string
	routingKey string
	timeout    time.Duration
}

// DialAMQP 连接 RabbitMQ 并声明交换机与队列
func DialAMQP(cfg config.RabbitMQConfig) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("连接 RabbitMQ 失败: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("打开 RabbitMQ 通道失败: %w", err)
	}

	if err := declare(ch, cfg.Exchange, cfg.RoutingKey); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logger.Info().
		Str("exchange", cfg.Exchange).
		Str("routing_key", cfg.RoutingKey).
		Msg("RabbitMQ 连接成功")

	p := NewAMQPPublisher(ch, cfg.Exchange, cfg.RoutingKey, cfg.PublishTimeout)
	p.conn = conn
	return p, nil
}

// declare 声明 topic 交换机和同名持久队列
func declare(ch *amqp.Channel, exchange, routingKey string) error {
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("声明交换机失败: %w", err)
	}
	q, err := ch.QueueDeclare(routingKey, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("声明队列失败: %w", err)
	}
	if err := ch.QueueBind(q.Name, routingKey, exchange, false, nil); err != nil {
		return fmt.Errorf("绑定队列失败: %w", err)
	}
	return nil
}

// NewAMQPPublisher 使用已打开的通道创建发布者
func NewAMQPPublisher(ch channel, exchange, routingKey string, timeout time.Duration) *AMQPPublisher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AMQPPublisher{ch: ch, exchange: exchange, routingKey: routingKey, timeout: timeout}
}

// Publish 发布事件
func (p *AMQPPublisher) Publish(ctx context.Context, ev *Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.ch.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.RunID,
		Type:         ev.Event,
		Timestamp:    ev.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("发布事件失败: %w", err)
	}
	return nil
}

// Close 关闭通道与连接
func (p *AMQPPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		return err
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
