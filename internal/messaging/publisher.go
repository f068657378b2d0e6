// Package messaging publishes rebalance-completed events to RabbitMQ
// so downstream consumers (order execution, notifications) can act on
// a RebalanceResult without polling the API. Grounded on the
// teacher's internal/messaging/balance_publisher.go (amqp.Dial,
// idempotent exchange declare, correlation ID per message).
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	amqp "github.com/streadway/amqp"

	"github.com/fintual/rebalancer/internal/model"
)

// RebalanceCompletedMessage is the event body published after a
// rebalance call produces a result.
type RebalanceCompletedMessage struct {
	CorrelationID  string         `json:"correlation_id"`
	GoalID         string         `json:"goal_id"`
	TradeCount     int            `json:"trade_count"`
	TotalBuyValue  string         `json:"total_buy_value"`
	TotalSellValue string         `json:"total_sell_value"`
	EstimatedCost  string         `json:"estimated_cost"`
	Warnings       []string       `json:"warnings"`
	Metrics        map[string]any `json:"metrics"`
	Timestamp      time.Time      `json:"timestamp"`
}

// Publisher publishes RebalanceCompletedMessages to one exchange.
type Publisher struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *logrus.Logger
}

// NewPublisher dials rabbitURL and declares exchange idempotently.
func NewPublisher(rabbitURL, exchange, routingKey string, logger *logrus.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(rabbitURL)
	if err != nil {
		return nil, fmt.Errorf("messaging: connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("messaging: open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("messaging: declare exchange %s: %w", exchange, err)
	}

	logger.Infof("rebalance-completed publisher ready (exchange: %s, routing_key: %s)", exchange, routingKey)

	return &Publisher{
		conn:       conn,
		channel:    channel,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}, nil
}

// PublishRebalanceCompleted publishes one event and returns its
// correlation ID.
func (p *Publisher) PublishRebalanceCompleted(ctx context.Context, goalID string, result *model.RebalanceResult) (string, error) {
	correlationID := uuid.New().String()

	msg := RebalanceCompletedMessage{
		CorrelationID:  correlationID,
		GoalID:         goalID,
		TradeCount:     len(result.Trades),
		TotalBuyValue:  result.TotalBuyValue.String(),
		TotalSellValue: result.TotalSellValue.String(),
		EstimatedCost:  result.EstimatedCost.String(),
		Warnings:       result.Warnings,
		Metrics:        result.Metrics,
		Timestamp:      time.Now(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("messaging: marshal rebalance-completed event: %w", err)
	}

	err = p.channel.Publish(
		p.exchange,
		p.routingKey,
		false,
		false,
		amqp.Publishing{
			CorrelationId: correlationID,
			ContentType:   "application/json",
			Body:          body,
			Timestamp:     time.Now(),
			DeliveryMode:  amqp.Persistent,
		},
	)
	if err != nil {
		return "", fmt.Errorf("messaging: publish rebalance-completed event: %w", err)
	}

	p.logger.Debugf("published rebalance-completed event (correlation_id: %s, goal_id: %s, trades: %d)", correlationID, goalID, len(result.Trades))
	return correlationID, nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.logger.Warnf("messaging: error closing channel: %v", err)
	}
	if err := p.conn.Close(); err != nil {
		p.logger.Warnf("messaging: error closing connection: %v", err)
		return err
	}
	p.logger.Info("rebalance-completed publisher closed")
	return nil
}
