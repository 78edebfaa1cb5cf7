package kafka_config

import "time"

const (
	DefaultKafkaBrokers = "localhost:9092"

	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 100 * time.Millisecond
	DefaultProducerRequireAcks  = -1 // all
	DefaultProducerCompression  = "snappy"
	DefaultProducerAsync        = false

	DefaultConsumerStartOffset    int64 = -2 // oldest
	DefaultConsumerMinBytes             = 1
	DefaultConsumerMaxBytes             = 10 * 1024 * 1024
	DefaultConsumerMaxWait              = 500 * time.Millisecond
	DefaultConsumerCommitInterval       = 0 * time.Second // synchronous commits
	DefaultConsumerMaxRetries           = 3
)
