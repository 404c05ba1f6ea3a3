// Package events publishes completed-tick summaries to Kafka for external
// consumers (dashboards, reporting). Publishing is best-effort: the tick
// pipeline never fails because a broker is down.
package events

import (
	"context"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"github.com/YOUR-BIGWINGS/quickbuck-beta-sub001/internal/econ"
)

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *KafkaPublisher) PublishTick(ctx context.Context, summary econ.TickSummary) error {
	msg, err := tickMessage(summary)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// tickMessage keys by tick number so a compacted topic retains the latest
// write per tick.
func tickMessage(summary econ.TickSummary) (kafka.Message, error) {
	value, err := json.Marshal(summary)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(summary.TickNumber, 10)),
		Value: value,
	}, nil
}
