package notify

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaSender publishes appointment events for downstream consumers.
type KafkaSender struct {
	writer *kafka.Writer
}

type appointmentEvent struct {
	EventID       string    `json:"event_id"`
	Type          Kind      `json:"type"`
	AppointmentID uint      `json:"appointment_id"`
	BarberID      uint      `json:"barber_id"`
	CustomerID    uint      `json:"customer_id"`
	Status        string    `json:"status"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	TotalPrice    string    `json:"total_price"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func NewKafkaSender(brokers []string, topic string) *KafkaSender {
	return &KafkaSender{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (s *KafkaSender) Name() string { return "kafka" }

func (s *KafkaSender) Send(ctx context.Context, n Notification) error {
	ap := n.Appointment

	payload, err := json.Marshal(appointmentEvent{
		EventID:       n.EventID,
		Type:          n.Kind,
		AppointmentID: ap.ID,
		BarberID:      ap.BarberID,
		CustomerID:    ap.CustomerID,
		Status:        string(ap.Status),
		StartTime:     ap.StartTime,
		EndTime:       ap.EndTime,
		TotalPrice:    ap.TotalPrice.StringFixed(2),
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	// keyed by barber so one barber's events stay ordered
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(ap.BarberID), 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(n.EventID)},
			{Key: "event_type", Value: []byte(n.Kind)},
		},
	})
}

func (s *KafkaSender) Close() error {
	return s.writer.Close()
}

var _ Sender = (*KafkaSender)(nil)
