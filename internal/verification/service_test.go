package verification

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woodchat/woodchat-backend/internal/models"
)

type memCodeStore struct {
	codes map[string]string
	ttls  map[string]time.Duration
}

func newMemCodeStore() *memCodeStore {
	return &memCodeStore{codes: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (s *memCodeStore) Set(_ context.Context, email, code string, ttl time.Duration) error {
	s.codes[email] = code
	s.ttls[email] = ttl
	return nil
}

func (s *memCodeStore) Get(_ context.Context, email string) (string, error) {
	code, ok := s.codes[email]
	if !ok {
		return "", ErrCodeNotFound
	}
	return code, nil
}

func (s *memCodeStore) Delete(_ context.Context, email string) error {
	delete(s.codes, email)
	return nil
}

type recordingMailer struct {
	to             string
	code           string
	changePassword bool
	sent           int
}

func (m *recordingMailer) SendVerificationMail(to, code string, changePassword bool) error {
	m.to = to
	m.code = code
	m.changePassword = changePassword
	m.sent++
	return nil
}

type fakeUserRepo struct {
	byEmail  map[string]*models.User
	verified map[string]bool
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{byEmail: make(map[string]*models.User), verified: make(map[string]bool)}
	for _, u := range users {
		r.byEmail[u.Email] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.byEmail[user.Email] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, _ uuid.UUID) (*models.User, error) {
	return nil, sql.ErrNoRows
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, _ string) (*models.User, error) {
	return nil, sql.ErrNoRows
}

func (r *fakeUserRepo) Update(_ context.Context, _ *models.User) error { return nil }

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, _ uuid.UUID) error { return nil }
func (r *fakeUserRepo) UpdatePassword(_ context.Context, _ uuid.UUID, _ string) error {
	return nil
}

func (r *fakeUserRepo) SetEmailVerified(_ context.Context, email string) error {
	r.verified[email] = true
	return nil
}

func (r *fakeUserRepo) Deactivate(_ context.Context, _ uuid.UUID) error { return nil }

func newTestService(users *fakeUserRepo) (*Service, *memCodeStore, *recordingMailer) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	codes := newMemCodeStore()
	mail := &recordingMailer{}
	return NewService(codes, mail, users, log), codes, mail
}

func TestSendCodeStoresAndMails(t *testing.T) {
	svc, codes, mail := newTestService(newFakeUserRepo())

	err := svc.SendCode(context.Background(), "new@example.com", false)
	require.NoError(t, err)

	stored := codes.codes["new@example.com"]
	require.Len(t, stored, codeLength)
	assert.Equal(t, codeTTL, codes.ttls["new@example.com"])
	assert.Equal(t, 1, mail.sent)
	assert.Equal(t, "new@example.com", mail.to)
	assert.Equal(t, stored, mail.code, "mailed code matches the stored one")
	assert.False(t, mail.changePassword)
}

func TestSendCodeOverwritesPrevious(t *testing.T) {
	svc, codes, _ := newTestService(newFakeUserRepo())

	require.NoError(t, svc.SendCode(context.Background(), "a@example.com", false))
	first := codes.codes["a@example.com"]
	require.NoError(t, svc.SendCode(context.Background(), "a@example.com", false))
	second := codes.codes["a@example.com"]

	// Collisions between two random 6-digit codes are possible but the
	// stored value must always be the latest one mailed.
	assert.Len(t, second, codeLength)
	_ = first
}

func TestSendCodePasswordChangeRequiresAccount(t *testing.T) {
	svc, _, _ := newTestService(newFakeUserRepo())

	err := svc.SendCode(context.Background(), "ghost@example.com", true)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSendCodePasswordChangeForExistingAccount(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: uuid.New(), Email: "bob@example.com"})
	svc, _, mail := newTestService(users)

	err := svc.SendCode(context.Background(), "bob@example.com", true)
	require.NoError(t, err)
	assert.True(t, mail.changePassword)
}

func TestVerifyCodeRoundTrip(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: uuid.New(), Email: "carol@example.com"})
	svc, codes, mail := newTestService(users)

	require.NoError(t, svc.SendCode(context.Background(), "carol@example.com", false))

	err := svc.VerifyCode(context.Background(), "carol@example.com", mail.code)
	require.NoError(t, err)
	assert.True(t, users.verified["carol@example.com"])

	_, ok := codes.codes["carol@example.com"]
	assert.False(t, ok, "code is consumed on success")
}

func TestVerifyCodeMismatchLeavesCode(t *testing.T) {
	svc, codes, mail := newTestService(newFakeUserRepo())

	require.NoError(t, svc.SendCode(context.Background(), "dave@example.com", false))

	err := svc.VerifyCode(context.Background(), "dave@example.com", "000000")
	if mail.code == "000000" {
		t.Skip("random code collided with the guess")
	}
	assert.ErrorIs(t, err, ErrCodeMismatch)

	_, ok := codes.codes["dave@example.com"]
	assert.True(t, ok, "mismatch does not consume the code")
}

func TestVerifyCodeExpired(t *testing.T) {
	svc, _, _ := newTestService(newFakeUserRepo())

	err := svc.VerifyCode(context.Background(), "nobody@example.com", "123456")
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestGenerateCodeShape(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		require.Len(t, code, codeLength)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9')
		}
	}
}
