package email

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"gymbeta/internal/catalog"
	"gymbeta/internal/logger"
	"gymbeta/internal/membership"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()

	code := m.Run()
	os.Exit(code)
}

func newTestService(rdb *redis.Client) *Service {
	s := newService(rdb, "noreply@gymbeta.vn", "GYM Beta", "smtp.test.com", "587", "test@example.com", "password")
	s.retryDelay = 0
	return s
}

func TestSend(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.Regexp().ExpectLPush(queueKey, `.*`).SetVal(1)

	err := newTestService(db).Send(context.Background(), "welcome", "user@example.com", "User", "Hello", "Test body")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.Regexp().ExpectLPush(queueKey, `.*`).SetErr(assert.AnError)

	err := newTestService(db).Send(context.Background(), "welcome", "user@example.com", "User", "Hello", "Test body")

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendRegistrationConfirmation(t *testing.T) {
	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 30)

	tests := []struct {
		name       string
		start, end *time.Time
		active     bool
	}{
		{"active gym", &start, &end, true},
		{"queued gym", &start, &end, false},
		{"pending pt", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := redismock.NewClientMock()
			mock.Regexp().ExpectLPush(queueKey, `registration_confirmation`).SetVal(1)

			err := newTestService(db).SendRegistrationConfirmation(context.Background(), "m@example.com", "Mai", "Gym 1 month", tt.start, tt.end, tt.active)

			assert.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestQueueLength(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectLLen(queueKey).SetVal(5)

	length := newTestService(db).QueueLength(context.Background())

	assert.Equal(t, int64(5), length)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func queuedJob(t *testing.T, tries int) string {
	data, err := json.Marshal(EmailJob{Kind: "welcome", To: "user@example.com", Subject: "Hi", Tries: tries})
	require.NoError(t, err)
	return string(data)
}

func TestProcessNext_Delivers(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectBRPop(2*time.Second, queueKey).SetVal([]string{queueKey, queuedJob(t, 0)})

	svc := newTestService(db)
	var delivered []EmailJob
	svc.deliver = func(job EmailJob) error {
		delivered = append(delivered, job)
		return nil
	}

	svc.processNext(context.Background())

	require.Len(t, delivered, 1)
	assert.Equal(t, 1, delivered[0].Tries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNext_RequeuesOnFailure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectBRPop(2*time.Second, queueKey).SetVal([]string{queueKey, queuedJob(t, 0)})
	mock.Regexp().ExpectLPush(queueKey, `"tries":1`).SetVal(1)

	svc := newTestService(db)
	svc.deliver = func(EmailJob) error { return errors.New("smtp unavailable") }

	svc.processNext(context.Background())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNext_MovesToFailedQueue(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectBRPop(2*time.Second, queueKey).SetVal([]string{queueKey, queuedJob(t, maxTries-1)})
	mock.Regexp().ExpectLPush(failedQueueKey, `smtp unavailable`).SetVal(1)

	svc := newTestService(db)
	svc.deliver = func(EmailJob) error { return errors.New("smtp unavailable") }

	svc.processNext(context.Background())

	assert.NoError(t, mock.ExpectationsWereMet())
}

type stubContacts struct {
	address, name string
	err           error
}

func (s stubContacts) FindMemberContact(ctx context.Context, memberID int) (string, string, error) {
	return s.address, s.name, s.err
}

func TestRegistrationNotifier(t *testing.T) {
	start := time.Now().UTC()
	end := start.AddDate(0, 0, 30)
	entry := &membership.LedgerEntry{ID: 1, StartDate: &start, EndDate: &end, Active: true}
	pkg := &catalog.Package{ID: 2, Name: "Gym 1 month", Type: catalog.TypeGym}

	t.Run("queues email", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.Regexp().ExpectLPush(queueKey, `Gym 1 month`).SetVal(1)

		n := NewRegistrationNotifier(newTestService(db), stubContacts{address: "m@example.com", name: "Mai"})

		assert.NoError(t, n.NotifyRegistration(context.Background(), 1, entry, pkg))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no address", func(t *testing.T) {
		db, mock := redismock.NewClientMock()

		n := NewRegistrationNotifier(newTestService(db), stubContacts{})

		assert.NoError(t, n.NotifyRegistration(context.Background(), 1, entry, pkg))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lookup fails", func(t *testing.T) {
		db, _ := redismock.NewClientMock()

		n := NewRegistrationNotifier(newTestService(db), stubContacts{err: errors.New("db down")})

		assert.Error(t, n.NotifyRegistration(context.Background(), 1, entry, pkg))
	})
}
