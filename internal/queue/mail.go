package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
)

// Channel 是 *amqp.Channel 中发布消息所需的部分
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type MailPublisher struct {
	channel        Channel
	queue          string
	publishTimeout time.Duration
}

func NewMailPublisher(ch Channel, queue string, publishTimeout time.Duration) *MailPublisher {
	return &MailPublisher{
		channel:        ch,
		queue:          queue,
		publishTimeout: publishTimeout,
	}
}

// DeclareMailQueue 声明持久化的邮件队列，api 和 mail worker 都会调用
func DeclareMailQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,  // 队列名称
		true,  // 是否持久化
		false, // 是否自动删除，设置为 false 可以避免没有消费者的时候自动删除队列
		false, // 是否独占
		false, // 是否不等待
		nil,   // 额外参数
	)
}

func (p *MailPublisher) PublishMail(ctx context.Context, msg domain.MailMessage) error {
	// 序列化邮件
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.publishTimeout)
	defer cancel()

	return p.channel.PublishWithContext(
		ctx,
		"",
		p.queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
