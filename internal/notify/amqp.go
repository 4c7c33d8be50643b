package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// publisher - то, что нужно форвардеру от *amqp.Channel.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPForwarder публикует уведомления в exchange с ключом workbench.notification.<level>.
type AMQPForwarder struct {
	channel  publisher
	exchange string
	timeout  time.Duration
	logger   zerolog.Logger
	closeFn  func() error
}

type notificationMessage struct {
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func NewAMQPForwarder(channel publisher, exchange string, logger zerolog.Logger) *AMQPForwarder {
	return &AMQPForwarder{
		channel:  channel,
		exchange: exchange,
		timeout:  5 * time.Second,
		logger:   logger,
	}
}

// DialAMQP подключается к RabbitMQ и объявляет topic exchange для уведомлений.
func DialAMQP(url, exchange string, logger zerolog.Logger) (*AMQPForwarder, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	f := NewAMQPForwarder(channel, exchange, logger)
	f.closeFn = func() error {
		channel.Close()
		return conn.Close()
	}
	return f, nil
}

func (f *AMQPForwarder) Notify(n models.Notification) {
	body, err := json.Marshal(notificationMessage{
		Level:     n.Level.String(),
		Message:   n.Message,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		f.logger.Error().Err(err).Msg("Failed to encode notification")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	err = f.channel.PublishWithContext(
		ctx,
		f.exchange,
		"workbench.notification."+n.Level.String(),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
	if err != nil {
		// уведомление пользователю уже показано, очередь не критична
		f.logger.Warn().Err(err).Str("exchange", f.exchange).Msg("Failed to publish notification")
	}
}

func (f *AMQPForwarder) Close() error {
	if f.closeFn == nil {
		return nil
	}
	f.logger.Info().Msg("RabbitMQ forwarder closed")
	return f.closeFn()
}
