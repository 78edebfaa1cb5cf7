package kafka

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	kafka_config "stayd/pkg/kafka/config"
)

type Consumer struct {
	reader     *kafka.Reader
	dlq        *Producer
	handler    MessageHandler
	middleware []ConsumerMiddleware
	maxRetries int
	closed     bool
	mu         sync.RWMutex
	wg         sync.WaitGroup
	cancel     context.CancelFunc
}

// ConsumerMiddleware intercepts message handling.
type ConsumerMiddleware func(ctx context.Context, msg Message, next MessageHandler) error

func NewConsumer(cfg *kafka_config.Config, topic string, groupID string, handler MessageHandler, dlq *Producer) (*Consumer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	if groupID == "" {
		return nil, fmt.Errorf("group ID cannot be empty")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          topic,
		GroupID:        groupID,
		StartOffset:    cfg.ConsumerStartOffset,
		MinBytes:       cfg.ConsumerMinBytes,
		MaxBytes:       cfg.ConsumerMaxBytes,
		MaxWait:        cfg.ConsumerMaxWait,
		CommitInterval: cfg.ConsumerCommitInterval,
		Logger:         kafka.LoggerFunc(func(msg string, args ...any) {}),
		ErrorLogger:    kafka.LoggerFunc(log.Printf),
	})

	return &Consumer{
		reader:     reader,
		dlq:        dlq,
		handler:    handler,
		middleware: make([]ConsumerMiddleware, 0),
		maxRetries: cfg.ConsumerMaxRetries,
	}, nil
}

func (c *Consumer) Use(middleware ConsumerMiddleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middleware = append(c.middleware, middleware)
}

// Start runs the fetch loop until Stop is called or the context is
// cancelled. It blocks; run it in a goroutine.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrConsumerClosed
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	c.wg.Add(1)
	defer c.wg.Done()

	for {
		fetched, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			log.Printf("kafka: fetch failed on %s: %v", c.reader.Config().Topic, err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(1 * time.Second):
			}
			continue
		}

		msg := convertMessage(fetched)
		if err := c.processMessage(ctx, msg); err != nil {
			log.Printf("kafka: giving up on message %s from %s: %v", msg.GetEventID(), msg.Topic, err)
		}

		if err := c.reader.CommitMessages(ctx, fetched); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			log.Printf("kafka: commit failed on %s: %v", msg.Topic, err)
		}
	}
}

// processMessage runs the middleware chain and handler, retrying up to
// maxRetries before routing the message to the DLQ.
func (c *Consumer) processMessage(ctx context.Context, msg Message) error {
	c.mu.RLock()
	chain := c.middleware
	c.mu.RUnlock()

	handle := c.handler
	for i := len(chain) - 1; i >= 0; i-- {
		mw := chain[i]
		next := handle
		handle = func(ctx context.Context, msg Message) error {
			return mw(ctx, msg, next)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
			msg.IncrementRetryCount()
		}

		if lastErr = handle(ctx, msg); lastErr == nil {
			return nil
		}
	}

	if c.dlq != nil {
		if dlqErr := c.dlq.PublishToDLQ(ctx, msg); dlqErr != nil {
			return fmt.Errorf("handler failed (%w) and DLQ publish failed: %v", lastErr, dlqErr)
		}
		return nil
	}
	return lastErr
}

func (c *Consumer) Stop() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()

	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("failed to close consumer: %w", err)
	}
	return nil
}

func convertMessage(msg kafka.Message) Message {
	headers := make(map[string]string, len(msg.Headers))
	for _, header := range msg.Headers {
		headers[header.Key] = string(header.Value)
	}

	return Message{
		Key:       string(msg.Key),
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
	}
}
