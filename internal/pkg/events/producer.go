package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// Routing keys for credit-ledger events consumed by the notification
// service.
const (
	RouteWalletLowBalance = "wallet.low_balance"
	RoutePoolLow          = "pool.low"
)

// LowBalanceEvent signals a wallet that crossed the low-balance threshold.
type LowBalanceEvent struct {
	OwnerID   string    `json:"owner_id"`
	OwnerType string    `json:"owner_type"`
	Balance   int       `json:"balance"`
	Threshold int       `json:"threshold"`
	At        time.Time `json:"at"`
}

// PoolLowEvent signals the admin credit pool dropping to its alert threshold.
type PoolLowEvent struct {
	AvailableCredits int       `json:"available_credits"`
	LowThreshold     int       `json:"low_threshold"`
	At               time.Time `json:"at"`
}

// Producer publishes ledger events to a RabbitMQ topic exchange. A nil
// Producer is valid and drops events, so the ledger works without a broker.
type Producer struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

// NewProducer connects to RabbitMQ and declares the topic exchange.
// Returns nil if amqpURL is empty.
func NewProducer(amqpURL, exchange string) (*Producer, error) {
	if amqpURL == "" {
		log.Warn().Msg("AMQP URL not configured, ledger events disabled")
		return nil, nil
	}

	conn, err := amqp091.Dial(amqpURL)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := channel.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	log.Info().Str("exchange", exchange).Msg("Connected to RabbitMQ")
	return &Producer{conn: conn, channel: channel, exchange: exchange}, nil
}

// Publish marshals body to JSON and sends it with the given routing key.
// Nil receiver is a no-op.
func (p *Producer) Publish(ctx context.Context, routingKey string, body interface{}) error {
	if p == nil {
		return nil
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        jsonBody,
		})
	if err != nil {
		return err
	}

	log.Debug().Str("exchange", p.exchange).Str("routing_key", routingKey).Msg("Event published")
	return nil
}

// Close gracefully closes the channel and connection. Nil receiver is a no-op.
func (p *Producer) Close() {
	if p == nil {
		return
	}
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
