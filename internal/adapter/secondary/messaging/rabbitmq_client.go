package messaging

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/cashflow/bkm-gateway/internal/core"
	"github.com/cashflow/bkm-gateway/internal/port/output"
)

const (
	ExchangeName  = "bkm"
	QueueName     = "bkm_nonce_processing"
	RoutingKey    = "nonce.received"
	PrefetchCount = 1

	// Failed deliveries wait in RetryQueueName until their TTL expires and are then
	// routed back to QueueName. Messages that exhaust MaxDeliveryAttempts, or that
	// cannot be decoded, end up in DeadLetterQueueName for inspection.
	DeadLetterExchange  = "bkm.dlx"
	DeadLetterQueueName = "bkm_nonce_dead"
	RetryQueueName      = "bkm_nonce_retry"
	RetryCountHeader    = "x-retry-count"
	MaxDeliveryAttempts = 5
	RetryBaseDelay      = 5 * time.Second
	RetryMaxDelay       = 2 * time.Minute
)

type deliveryAction int

const (
	actionAck deliveryAction = iota
	actionRetry
	actionDeadLetter
)

// NonceMessage is the queued form of a gateway nonce
type NonceMessage struct {
	MessageID uuid.UUID `json:"message_id"`
	TicketID  string    `json:"ticket_id"`
	Path      string    `json:"path"`
	Token     string    `json:"token"`
	OrderID   string    `json:"order_id"`
	Signature string    `json:"signature"`
	Timestamp time.Time `json:"timestamp"`
}

// Nonce converts the message back to the domain nonce
func (m NonceMessage) Nonce() core.Nonce {
	return core.Nonce{
		TicketID:  m.TicketID,
		Path:      m.Path,
		Token:     m.Token,
		OrderID:   m.OrderID,
		Signature: m.Signature,
	}
}

func newNonceMessage(nonce core.Nonce) NonceMessage {
	return NonceMessage{
		MessageID: uuid.New(),
		TicketID:  nonce.TicketID,
		Path:      nonce.Path,
		Token:     nonce.Token,
		OrderID:   nonce.OrderID,
		Signature: nonce.Signature,
		Timestamp: time.Now(),
	}
}

// RabbitMQClient is a secondary adapter that implements NonceMessaging output port
type RabbitMQClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *zap.Logger
}

// NewRabbitMQClient creates a new RabbitMQ client (returns interface for ports)
func NewRabbitMQClient(amqpURL string, logger *zap.Logger) (output.NonceMessaging, error) {
	return NewRabbitMQClientConcrete(amqpURL, logger)
}

// NewRabbitMQClientConcrete creates a new RabbitMQ client (returns concrete type for workers)
func NewRabbitMQClientConcrete(amqpURL string, logger *zap.Logger) (*RabbitMQClient, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(channel); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	return &RabbitMQClient{
		conn:    conn,
		channel: channel,
		logger:  logger,
	}, nil
}

func declareTopology(channel *amqp.Channel) error {
	for _, name := range []string{ExchangeName, DeadLetterExchange} {
		err := channel.ExchangeDeclare(
			name,
			"direct",
			true,  // durable
			false, // auto-deleted
			false, // internal
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("failed to declare exchange %s: %w", name, err)
		}
	}

	queues := []struct {
		name     string
		args     amqp.Table
		exchange string
	}{
		{
			name:     QueueName,
			args:     amqp.Table{"x-dead-letter-exchange": DeadLetterExchange},
			exchange: ExchangeName,
		},
		{
			name:     DeadLetterQueueName,
			exchange: DeadLetterExchange,
		},
		{
			// no binding: fed through the default exchange, expired messages go back to ExchangeName
			name: RetryQueueName,
			args: amqp.Table{
				"x-dead-letter-exchange":    ExchangeName,
				"x-dead-letter-routing-key": RoutingKey,
			},
		},
	}

	for _, q := range queues {
		_, err := channel.QueueDeclare(
			q.name,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			q.args,
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", q.name, err)
		}
		if q.exchange == "" {
			continue
		}
		if err := channel.QueueBind(q.name, RoutingKey, q.exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s: %w", q.name, err)
		}
	}
	return nil
}

// PublishNonce publishes a nonce for asynchronous confirmation
func (c *RabbitMQClient) PublishNonce(nonce core.Nonce) error {
	message := newNonceMessage(nonce)

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = c.channel.Publish(
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    message.MessageID.String(),
			Body:         body,
			Timestamp:    message.Timestamp,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.logger.Info("published nonce message",
		zap.String("ticket_id", nonce.TicketID),
		zap.String("message_id", message.MessageID.String()),
	)
	return nil
}

// ConsumeNonceMessages starts consuming nonce messages
func (c *RabbitMQClient) ConsumeNonceMessages(handler func(NonceMessage) error) error {
	if err := c.channel.Qos(PrefetchCount, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := c.channel.Consume(
		QueueName,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("started consuming nonce messages")

	go func() {
		for msg := range msgs {
			var nonceMsg NonceMessage
			if err := json.Unmarshal(msg.Body, &nonceMsg); err != nil {
				// A body that does not decode never will; drop it.
				c.logger.Error("error unmarshaling message", zap.Error(err))
				msg.Nack(false, false)
				continue
			}

			err := handler(nonceMsg)
			if err == nil {
				msg.Ack(false)
				continue
			}

			attempts := retryCount(msg.Headers) + 1
			fields := []zap.Field{
				zap.String("ticket_id", nonceMsg.TicketID),
				zap.Int("attempt", attempts),
				zap.Error(err),
			}
			switch nextAction(err, attempts) {
			case actionAck:
				c.logger.Info("skipping nonce", fields...)
				msg.Ack(false)
			case actionDeadLetter:
				c.logger.Error("nonce retries exhausted, dead-lettering", fields...)
				msg.Nack(false, false)
			case actionRetry:
				c.logger.Warn("error processing nonce, scheduling retry",
					append(fields, zap.Duration("delay", retryDelay(attempts)))...)
				if pubErr := c.scheduleRetry(msg, attempts); pubErr != nil {
					c.logger.Error("failed to schedule retry", zap.Error(pubErr))
					msg.Nack(false, true)
					continue
				}
				msg.Ack(false)
			}
		}
	}()

	return nil
}

// scheduleRetry parks a copy of the delivery in the retry queue with its attempt count recorded
func (c *RabbitMQClient) scheduleRetry(msg amqp.Delivery, attempts int) error {
	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[RetryCountHeader] = int32(attempts)

	return c.channel.Publish(
		"", // default exchange routes by queue name
		RetryQueueName,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  msg.ContentType,
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.MessageId,
			Timestamp:    msg.Timestamp,
			Headers:      headers,
			Expiration:   strconv.FormatInt(retryDelay(attempts).Milliseconds(), 10),
			Body:         msg.Body,
		},
	)
}

// Close closes the RabbitMQ connection
func (c *RabbitMQClient) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// isTerminalError reports whether redelivering the message cannot succeed.
// A nonce another worker is processing is answered by that worker's own delivery.
func isTerminalError(err error) bool {
	return errors.Is(err, core.ErrNonceAlreadyProcessed) || errors.Is(err, core.ErrNonceInProgress)
}

// nextAction decides what happens to a delivery whose handler failed on the given attempt
func nextAction(err error, attempts int) deliveryAction {
	switch {
	case isTerminalError(err):
		return actionAck
	case attempts >= MaxDeliveryAttempts:
		return actionDeadLetter
	default:
		return actionRetry
	}
}

// retryCount reads how many times the delivery was already retried
func retryCount(headers amqp.Table) int {
	n, err := cast.ToIntE(headers[RetryCountHeader])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// retryDelay doubles from RetryBaseDelay per attempt, capped at RetryMaxDelay
func retryDelay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	delay := RetryBaseDelay
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= RetryMaxDelay {
			return RetryMaxDelay
		}
	}
	return delay
}
