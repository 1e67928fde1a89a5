package flashdeck_test

import (
	"context"
	"database/sql"

	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"

	"github.com/flashdeck/flashdeck"
)

// MockIdentity implements flashdeck.Identity for testing
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) ID() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

func (m *MockIdentity) Username() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Email() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Role() flashdeck.UserRole {
	args := m.Called()
	return args.Get(0).(flashdeck.UserRole)
}

// MockLogger implements flashdeck.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// MockUserTracker implements flashdeck.UserTracker for testing
type MockUserTracker struct {
	mock.Mock
}

func (m *MockUserTracker) GetByIdentifier(ctx context.Context, identifier string) (*flashdeck.User, error) {
	args := m.Called(ctx, identifier)
	if u := args.Get(0); u != nil {
		return u.(*flashdeck.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserTracker) TrackAttemptedLogin(ctx context.Context, user *flashdeck.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserTracker) TrackSuccessfulLogin(ctx context.Context, user *flashdeck.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockUsers implements flashdeck.Users for testing. CreateTx echoes the
// record back when the expectation returns nil for the first value.
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetByID(ctx context.Context, id int64) (*flashdeck.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*flashdeck.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) GetByIdentifier(ctx context.Context, identifier string) (*flashdeck.User, error) {
	args := m.Called(ctx, identifier)
	if u := args.Get(0); u != nil {
		return u.(*flashdeck.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) UsernameExists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) List(ctx context.Context) ([]*flashdeck.User, error) {
	args := m.Called(ctx)
	if u := args.Get(0); u != nil {
		return u.([]*flashdeck.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) Create(ctx context.Context, record *flashdeck.User) (*flashdeck.User, error) {
	args := m.Called(ctx, record)
	if u := args.Get(0); u != nil {
		return u.(*flashdeck.User), args.Error(1)
	}
	return record, args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *flashdeck.User) (*flashdeck.User, error) {
	args := m.Called(ctx, tx, record)
	if u := args.Get(0); u != nil {
		return u.(*flashdeck.User), args.Error(1)
	}
	if args.Error(1) != nil {
		return nil, args.Error(1)
	}
	return record, nil
}

func (m *MockUsers) Update(ctx context.Context, record *flashdeck.User) (*flashdeck.User, error) {
	args := m.Called(ctx, record)
	if u := args.Get(0); u != nil {
		return u.(*flashdeck.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUsers) TrackAttemptedLogin(ctx context.Context, user *flashdeck.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUsers) TrackSuccessfulLogin(ctx context.Context, user *flashdeck.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUsers) ResetPassword(ctx context.Context, id int64, passwordHash, salt string) error {
	args := m.Called(ctx, id, passwordHash, salt)
	return args.Error(0)
}

func (m *MockUsers) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	args := m.Called(ctx, id, isAdmin)
	return args.Error(0)
}

// stubRepoManager backs command tests with a users repository and a
// transaction runner that invokes the callback directly.
type stubRepoManager struct {
	users flashdeck.Users
}

func (s *stubRepoManager) Validate() error { return nil }
func (s *stubRepoManager) MustValidate()   {}

func (s *stubRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (s *stubRepoManager) Users() flashdeck.Users            { return s.users }
func (s *stubRepoManager) Sets() flashdeck.FlashcardSets     { return nil }
func (s *stubRepoManager) Flashcards() flashdeck.Flashcards  { return nil }
func (s *stubRepoManager) Friends() flashdeck.Friends        { return nil }
func (s *stubRepoManager) Views() flashdeck.SetViews         { return nil }
