package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rentwheel/service-rental/internal/common/kafka"
	bookingDomain "github.com/rentwheel/service-rental/internal/domain/booking"
)

// Source identifies this service in published CloudEvents.
const Source = "service-rental"

// Booking event types.
const (
	BookingCreated       = "rental.booking.created"
	BookingStatusChanged = "rental.booking.status_changed"
)

// BookingCreatedEvent is the payload of BookingCreated.
type BookingCreatedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	CarID      uuid.UUID `json:"car_id"`
	UserID     uuid.UUID `json:"user_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	PickupDate time.Time `json:"pickup_date"`
	ReturnDate time.Time `json:"return_date"`
	PriceCents int64     `json:"price_cents"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingStatusChangedEvent is the payload of BookingStatusChanged.
type BookingStatusChangedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	CarID      uuid.UUID `json:"car_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	ChangedBy  uuid.UUID `json:"changed_by"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventWriter is the part of kafka.Producer the publisher needs.
type EventWriter interface {
	PublishEvent(ctx context.Context, topic string, ce kafka.CloudEvent) error
}

// BookingPublisher publishes booking lifecycle events to a Kafka topic.
// Failures are logged and never returned to the caller.
type BookingPublisher struct {
	writer EventWriter
	topic  string
	logger *zap.Logger
}

// NewBookingPublisher creates a BookingPublisher writing to topic.
func NewBookingPublisher(writer EventWriter, topic string, logger *zap.Logger) *BookingPublisher {
	return &BookingPublisher{writer: writer, topic: topic, logger: logger}
}

func (p *BookingPublisher) BookingCreated(ctx context.Context, bk *bookingDomain.Booking) {
	p.publish(ctx, BookingCreated, bk.ID(), BookingCreatedEvent{
		BookingID:  bk.ID(),
		CarID:      bk.CarID(),
		UserID:     bk.UserID(),
		OwnerID:    bk.OwnerID(),
		PickupDate: bk.PickupDate(),
		ReturnDate: bk.ReturnDate(),
		PriceCents: bk.PriceCents(),
		Status:     bk.Status().String(),
		OccurredAt: time.Now().UTC(),
	})
}

func (p *BookingPublisher) BookingStatusChanged(ctx context.Context, bk *bookingDomain.Booking, previous bookingDomain.BookingStatus, actorID uuid.UUID) {
	p.publish(ctx, BookingStatusChanged, bk.ID(), BookingStatusChangedEvent{
		BookingID:  bk.ID(),
		CarID:      bk.CarID(),
		From:       previous.String(),
		To:         bk.Status().String(),
		ChangedBy:  actorID,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *BookingPublisher) publish(ctx context.Context, eventType string, bookingID uuid.UUID, data interface{}) {
	ce, err := kafka.NewCloudEvent(Source, eventType, bookingID.String(), data)
	if err != nil {
		p.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := p.writer.PublishEvent(ctx, p.topic, ce); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("topic", p.topic),
			zap.String("event_type", eventType),
			zap.String("booking_id", bookingID.String()),
			zap.Error(err),
		)
	}
}

// NopPublisher drops every event. It stands in when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) BookingCreated(context.Context, *bookingDomain.Booking) {}

func (NopPublisher) BookingStatusChanged(context.Context, *bookingDomain.Booking, bookingDomain.BookingStatus, uuid.UUID) {
}
