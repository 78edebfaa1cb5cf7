package middleware

import (
	"context"
	"log"
	"time"

	"stayd/pkg/kafka"
)

// ProducerLogging logs each publish with event metadata and latency.
func ProducerLogging() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		elapsed := time.Since(start)

		if err != nil {
			log.Printf("kafka publish failed topic=%s event_type=%s event_id=%s took=%s err=%v",
				msg.Topic, msg.GetEventType(), msg.GetEventID(), elapsed, err)
			return err
		}
		log.Printf("kafka publish topic=%s event_type=%s event_id=%s took=%s",
			msg.Topic, msg.GetEventType(), msg.GetEventID(), elapsed)
		return nil
	}
}

// ConsumerLogging logs each handled message, including the retry count
// when a delivery is a re-attempt.
func ConsumerLogging() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		elapsed := time.Since(start)

		if err != nil {
			log.Printf("kafka consume failed topic=%s partition=%d offset=%d event_type=%s retries=%d took=%s err=%v",
				msg.Topic, msg.Partition, msg.Offset, msg.GetEventType(), msg.GetRetryCount(), elapsed, err)
			return err
		}
		log.Printf("kafka consume topic=%s partition=%d offset=%d event_type=%s retries=%d took=%s",
			msg.Topic, msg.Partition, msg.Offset, msg.GetEventType(), msg.GetRetryCount(), elapsed)
		return nil
	}
}
