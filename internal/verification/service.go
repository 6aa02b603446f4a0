package verification

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/woodchat/woodchat-backend/internal/repository"
)

var (
	// ErrUserNotFound is returned when a password-change code is requested
	// for an email with no account.
	ErrUserNotFound = errors.New("no account for this email")
	// ErrCodeMismatch is returned when the submitted code does not match the
	// stored one.
	ErrCodeMismatch = errors.New("verification code does not match")
)

// codeTTL is how long a verification code stays valid.
const codeTTL = 5 * time.Minute

const codeLength = 6

// Service issues and checks email verification codes. Codes live in the
// CodeStore under the email for codeTTL; verifying a code consumes it and
// marks the account's email verified.
type Service struct {
	codes CodeStore
	mail  Mailer
	users repository.UserRepository
	log   *logrus.Logger
}

// NewService creates a verification service
func NewService(codes CodeStore, mail Mailer, users repository.UserRepository, log *logrus.Logger) *Service {
	return &Service{codes: codes, mail: mail, users: users, log: log}
}

// SendCode generates a fresh code for the email, stores it and mails it out.
// Requesting a new code overwrites any previous one. For password changes
// the account must already exist.
func (s *Service) SendCode(ctx context.Context, email string, changePassword bool) error {
	if changePassword {
		if _, err := s.users.GetByEmail(ctx, email); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to look up user: %w", err)
		}
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	if err := s.codes.Set(ctx, email, code, codeTTL); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}

	if err := s.mail.SendVerificationMail(email, code, changePassword); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	s.log.WithField("email", email).Info("verification code sent")
	return nil
}

// VerifyCode checks the submitted code against the stored one, consumes it
// and marks the email verified. A mismatching code is left in place so the
// user can retry until it expires.
func (s *Service) VerifyCode(ctx context.Context, email, code string) error {
	stored, err := s.codes.Get(ctx, email)
	if err != nil {
		return err
	}
	if stored != code {
		return ErrCodeMismatch
	}

	if err := s.codes.Delete(ctx, email); err != nil {
		s.log.WithError(err).WithField("email", email).Warn("failed to delete consumed code")
	}

	if err := s.users.SetEmailVerified(ctx, email); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	s.log.WithField("email", email).Info("email verified")
	return nil
}

// generateCode returns a random numeric code with codeLength digits.
func generateCode() (string, error) {
	code := make([]byte, codeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}
