package authgate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/nvoss/authgate/password"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func newTestHasher(t *testing.T) *password.Argon2 {
	t.Helper()

	h, err := password.NewArgon2(testConfig().passwordConfig())
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	return h
}

func (c Config) passwordConfig() password.Config {
	return password.Config{
		Memory:      c.Password.Memory,
		Time:        c.Password.Time,
		Parallelism: c.Password.Parallelism,
		SaltLength:  c.Password.SaltLength,
		KeyLength:   c.Password.KeyLength,
	}
}

// testConfig lowers the argon2 cost so the suite stays fast.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Password.SaltLength = 16
	cfg.Password.KeyLength = 16
	return cfg
}

func newTestEngine(t *testing.T, rdb *redis.Client, store UserStore, mailer MailDispatcher) *Engine {
	t.Helper()

	engine, err := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithUserStore(store).
		WithMailer(mailer).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine
}

func seedUser(t *testing.T, store *mockUserStore, id, username, email, passwd string) {
	t.Helper()

	hasher := newTestHasher(t)
	hash, err := hasher.Hash(passwd)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	store.PutUser(User{
		ID:           id,
		Username:     username,
		Email:        email,
		FullName:     "Test User",
		PasswordHash: hash,
		Status:       UserActive,
	})
}

type mockUserStore struct {
	mu      sync.RWMutex
	users   map[string]User
	byIdent map[string]string

	findErr       error
	lastLoginAt   map[string]time.Time
	lastLoginErr  error
	updatePwdErr  error
	profileUpdErr error
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		users:       make(map[string]User),
		byIdent:     make(map[string]string),
		lastLoginAt: make(map[string]time.Time),
	}
}

func (m *mockUserStore) PutUser(u User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	m.byIdent[u.Username] = u.ID
	m.byIdent[u.Email] = u.ID
}

func (m *mockUserStore) FindUserByIdentifier(_ context.Context, identifier string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.findErr != nil {
		return User{}, m.findErr
	}
	id, ok := m.byIdent[identifier]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return m.users[id], nil
}

func (m *mockUserStore) FindUserByID(_ context.Context, userID string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.findErr != nil {
		return User{}, m.findErr
	}
	u, ok := m.users[userID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserStore) UpdatePassword(_ context.Context, userID, newHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updatePwdErr != nil {
		return m.updatePwdErr
	}
	u, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = newHash
	m.users[userID] = u
	return nil
}

func (m *mockUserStore) UpdateProfile(_ context.Context, userID, fullName, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.profileUpdErr != nil {
		return m.profileUpdErr
	}
	u, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	if other, taken := m.byIdent[email]; taken && other != userID {
		return ErrEmailInUse
	}

	delete(m.byIdent, u.Email)
	u.FullName = fullName
	u.Email = email
	m.users[userID] = u
	m.byIdent[email] = userID
	return nil
}

func (m *mockUserStore) UpdateLastLogin(_ context.Context, userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastLoginErr != nil {
		return m.lastLoginErr
	}
	m.lastLoginAt[userID] = at
	return nil
}

func (m *mockUserStore) setStatus(userID string, status UserStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[userID]
	u.Status = status
	m.users[userID] = u
}

func (m *mockUserStore) passwordHash(userID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[userID].PasswordHash
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type mockMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *mockMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return m.err
}

func (m *mockMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *mockMailer) last(t *testing.T) sentMail {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("expected at least one sent mail")
	}
	return m.sent[len(m.sent)-1]
}

// fakeVerifier implements captcha.Verifier.
type fakeVerifier struct {
	mu    sync.Mutex
	ok    bool
	err   error
	calls int
}

func (f *fakeVerifier) Verify(context.Context, string, string, string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.ok, nil
}

func (f *fakeVerifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var errBackendDown = errors.New("backend down")
