//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rentwheel/service-rental/internal/application"
	"github.com/rentwheel/service-rental/internal/common/auth"
	"github.com/rentwheel/service-rental/internal/common/database"
	"github.com/rentwheel/service-rental/internal/common/kafka"
	bookingDomain "github.com/rentwheel/service-rental/internal/domain/booking"
	carDomain "github.com/rentwheel/service-rental/internal/domain/car"
	userDomain "github.com/rentwheel/service-rental/internal/domain/user"
	"github.com/rentwheel/service-rental/internal/events"
	"github.com/rentwheel/service-rental/internal/repository"
)

const bookingTopic = "rental.booking.events"

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// rentalStack holds the wired booking engine backed by PostgreSQL and Kafka.
type rentalStack struct {
	Service  *application.BookingService
	Bookings *repository.GormBookingRepository
	Cars     *repository.GormCarRepository
	Users    *repository.GormUserRepository
	Close    func()
}

// setupContainers starts PostgreSQL and Kafka, applies the SQL migrations and
// returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()
	log := zap.NewNop()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_rental",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := database.PostgresConfig{
		Host:     pgHost,
		Port:     pgPort.Port(),
		User:     "test",
		Password: "test",
		DBName:   "test_rental",
		SSLMode:  "disable",
	}

	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = database.Connect(cfg, log)
		return err == nil
	}, 30*time.Second, time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, database.RunMigrations(cfg.DatabaseURL(), "migrations", log))

	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, bookingTopic)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{DB: db, KafkaBrokers: kafkaBrokers, Cleanup: cleanup}
}

// setupRentalStack wires the booking service to the real repositories and a
// Kafka publisher.
func setupRentalStack(t *testing.T, db *gorm.DB, brokers []string) *rentalStack {
	t.Helper()
	log, _ := zap.NewDevelopment()

	producer := kafka.NewProducer(brokers, log)
	bookings := repository.NewGormBookingRepository(db)
	cars := repository.NewGormCarRepository(db)

	svc := application.NewBookingService(
		bookings,
		cars,
		bookingDomain.NewDailyPricingStrategy(),
		events.NewBookingPublisher(producer, bookingTopic, log),
		log,
	)

	return &rentalStack{
		Service:  svc,
		Bookings: bookings,
		Cars:     cars,
		Users:    repository.NewGormUserRepository(db),
		Close:    func() { _ = producer.Close() },
	}
}

// seedUser stores a user, promoted to owner when owner is set.
func seedUser(t *testing.T, stack *rentalStack, owner bool) *userDomain.User {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	u, err := userDomain.NewUser("Test User", fmt.Sprintf("%s@example.com", uuid.NewString()[:8]), hash)
	require.NoError(t, err)
	if owner {
		u.PromoteToOwner()
	}
	require.NoError(t, stack.Users.Save(context.Background(), u))
	return u
}

// seedCar stores a bookable car owned by ownerID.
func seedCar(t *testing.T, stack *rentalStack, ownerID uuid.UUID, pricePerDayCents int64) *carDomain.Car {
	t.Helper()
	c, err := carDomain.NewCar(ownerID, carDomain.Listing{
		Brand:            "Volkswagen",
		Model:            "Golf",
		Year:             2021,
		Category:         "Hatchback",
		ImageURL:         "https://ik.example.com/cars/golf.webp",
		Location:         "Porto",
		Description:      "Compact and economical",
		PricePerDayCents: pricePerDayCents,
		Transmission:     "Manual",
		FuelType:         "Petrol",
		SeatingCapacity:  5,
	})
	require.NoError(t, err)
	require.NoError(t, stack.Cars.Save(context.Background(), c))
	return c
}

// consumeEvent reads from a Kafka topic until it finds an event of the
// expected type about subject.
func consumeEvent(t *testing.T, brokers []string, topic, expectedType, subject string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     fmt.Sprintf("test-assert-%s", uuid.NewString()[:8]),
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType && ce.Subject == subject {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	configs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		configs[i] = kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}
	}
	require.NoError(t, controllerConn.CreateTopics(configs...), "failed to create Kafka topics")

	time.Sleep(time.Second)
}
