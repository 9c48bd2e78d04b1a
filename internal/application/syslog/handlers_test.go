package syslog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	syslogapp "github.com/chiragkoyande/audit-project/internal/application/syslog"
	"github.com/chiragkoyande/audit-project/internal/domain/shared"
	"github.com/chiragkoyande/audit-project/internal/domain/syslog"
)

// MockRepository is a mock implementation of syslog.Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, entry *syslog.Entry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockRepository) ListByLevel(ctx context.Context, level syslog.Level, limit int) ([]*syslog.Entry, error) {
	args := m.Called(ctx, level, limit)
	return args.Get(0).([]*syslog.Entry), args.Error(1)
}

func (m *MockRepository) ListByModule(ctx context.Context, module string, limit int) ([]*syslog.Entry, error) {
	args := m.Called(ctx, module, limit)
	return args.Get(0).([]*syslog.Entry), args.Error(1)
}

func (m *MockRepository) ListByRequest(ctx context.Context, requestID string) ([]*syslog.Entry, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).([]*syslog.Entry), args.Error(1)
}

func (m *MockRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func TestWriter(t *testing.T) {
	t.Run("success - request id from context and error as stack trace", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*syslog.Entry")).Return(nil)
		w := syslogapp.NewWriter(repo)

		ctx := shared.WithRequestContext(context.Background(), "req-42", "", "")
		entry, err := w.Error(ctx, "notifications", "smtp failed", errors.New("dial tcp: timeout"),
			syslogapp.WithData(map[string]interface{}{"channel": "email"}))

		require.NoError(t, err)
		assert.Equal(t, syslog.LevelError, entry.Level())
		assert.Equal(t, "req-42", entry.RequestID())
		assert.Equal(t, "dial tcp: timeout", entry.StackTrace())
		assert.Equal(t, "email", entry.AdditionalData()["channel"])
	})

	t.Run("success - info without context metadata", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Create", mock.Anything, mock.Anything).Return(nil)

		entry, err := syslogapp.NewWriter(repo).Info(context.Background(), "server", "started")
		require.NoError(t, err)
		assert.Empty(t, entry.RequestID())
	})

	t.Run("error - empty module", func(t *testing.T) {
		_, err := syslogapp.NewWriter(new(MockRepository)).Warning(context.Background(), "", "x")
		assert.ErrorIs(t, err, syslog.ErrEmptyModule)
	})
}

func TestWriteHandler_Handle(t *testing.T) {
	t.Run("success - explicit request id wins", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Create", mock.Anything, mock.Anything).Return(nil)

		ctx := shared.WithRequestContext(context.Background(), "ctx-req", "", "")
		entry, err := syslogapp.NewWriteHandler(repo).Handle(ctx, syslogapp.WriteCommand{
			Level: "warn", Module: "compliance", Message: "rule skipped", RequestID: "explicit",
		})
		require.NoError(t, err)
		assert.Equal(t, syslog.LevelWarning, entry.Level())
		assert.Equal(t, "explicit", entry.RequestID())
	})

	t.Run("error - invalid level", func(t *testing.T) {
		_, err := syslogapp.NewWriteHandler(new(MockRepository)).Handle(context.Background(), syslogapp.WriteCommand{
			Level: "fatal", Module: "m", Message: "x",
		})
		assert.ErrorIs(t, err, syslog.ErrInvalidLevel)
	})
}

func TestListHandler_Handle(t *testing.T) {
	t.Run("success - by level with default limit", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("ListByLevel", mock.Anything, syslog.LevelError, syslog.DefaultLimit).Return([]*syslog.Entry{}, nil)

		_, err := syslogapp.NewListHandler(repo).Handle(context.Background(), syslogapp.ListQuery{Level: "error"})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("success - by request", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("ListByRequest", mock.Anything, "req-1").Return([]*syslog.Entry{}, nil)

		_, err := syslogapp.NewListHandler(repo).Handle(context.Background(), syslogapp.ListQuery{RequestID: "req-1"})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("error - no selector", func(t *testing.T) {
		_, err := syslogapp.NewListHandler(new(MockRepository)).Handle(context.Background(), syslogapp.ListQuery{})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("error - two selectors", func(t *testing.T) {
		_, err := syslogapp.NewListHandler(new(MockRepository)).Handle(context.Background(), syslogapp.ListQuery{Level: "info", Module: "x"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestPurgeHandler_Handle(t *testing.T) {
	t.Run("success - deletes before cutoff", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("DeleteOlderThan", mock.Anything, mock.MatchedBy(func(cutoff time.Time) bool {
			return time.Since(cutoff) > 29*24*time.Hour && time.Since(cutoff) < 31*24*time.Hour
		})).Return(int64(12), nil)

		res, err := syslogapp.NewPurgeHandler(repo).Handle(context.Background(), syslogapp.PurgeCommand{OlderThanDays: 30})
		require.NoError(t, err)
		assert.Equal(t, int64(12), res.Deleted)
	})

	t.Run("error - retention below one day", func(t *testing.T) {
		_, err := syslogapp.NewPurgeHandler(new(MockRepository)).Handle(context.Background(), syslogapp.PurgeCommand{})
		assert.ErrorIs(t, err, syslog.ErrInvalidRetention)
	})
}
