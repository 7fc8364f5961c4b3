package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	ResetTokenTTL = 2 * time.Hour
	mfaIssuer     = "HRIS"
)

// SecretSealer encrypts MFA secrets at rest.
type SecretSealer interface {
	Configured() bool
	SealString(value string) (string, error)
	OpenString(value string) (string, error)
}

type Service struct {
	store  StoreAPI
	sealer SecretSealer
	secret string
	now    func() time.Time
}

func NewService(store StoreAPI, sealer SecretSealer, jwtSecret string) *Service {
	return &Service{store: store, sealer: sealer, secret: jwtSecret, now: time.Now}
}

// Login verifies credentials (and TOTP when enabled), opens a session row and
// signs a token bound to it.
func (s *Service) Login(ctx context.Context, email, password, mfaCode string) (LoginResult, error) {
	user, err := s.store.FindActiveUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	if user.MFAEnabled {
		if strings.TrimSpace(mfaCode) == "" {
			return LoginResult{}, ErrMFARequired
		}
		secret, err := s.openSecret(user.MFASecretSealed)
		if err != nil || secret == "" || !totp.Validate(mfaCode, secret) {
			return LoginResult{}, ErrMFAInvalid
		}
	}

	sessionID, err := RandomToken()
	if err != nil {
		return LoginResult{}, fmt.Errorf("session token: %w", err)
	}
	expires := s.now().Add(SessionTTL)
	if err := s.store.CreateSession(ctx, user.ID, HashToken(sessionID), expires); err != nil {
		return LoginResult{}, fmt.Errorf("create session: %w", err)
	}
	token, err := GenerateToken(s.secret, Claims{
		UserID:    user.ID,
		TenantID:  user.TenantID,
		RoleID:    user.RoleID,
		RoleName:  user.RoleName,
		SessionID: sessionID,
	}, SessionTTL)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign token: %w", err)
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("update last login failed", "userId", user.ID, "err", err)
	}

	return LoginResult{
		Token:              token,
		ExpiresAt:          expires,
		MustChangePassword: user.MustChangePassword,
		User: UserSummary{
			ID:       user.ID,
			TenantID: user.TenantID,
			Email:    user.Email,
			RoleID:   user.RoleID,
			Role:     user.RoleName,
		},
	}, nil
}

func (s *Service) Logout(ctx context.Context, user UserContext) error {
	if user.SessionID == "" {
		return nil
	}
	return s.store.RevokeSession(ctx, user.UserID, HashToken(user.SessionID))
}

// SessionActive satisfies the auth middleware's session check.
func (s *Service) SessionActive(ctx context.Context, userID, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	return s.store.SessionValid(ctx, userID, HashToken(sessionID))
}

func (s *Service) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	return s.store.HasPermission(ctx, roleID, permission)
}

func (s *Service) SetupMFA(ctx context.Context, user UserContext) (MFASetup, error) {
	if s.sealer == nil || !s.sealer.Configured() {
		return MFASetup{}, ErrMFAUnavailable
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      mfaIssuer,
		AccountName: user.UserID,
		Period:      30,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		return MFASetup{}, fmt.Errorf("generate totp: %w", err)
	}
	sealed, err := s.sealer.SealString(key.Secret())
	if err != nil {
		return MFASetup{}, fmt.Errorf("seal totp secret: %w", err)
	}
	if err := s.store.UpdateMFASecret(ctx, user.UserID, sealed); err != nil {
		return MFASetup{}, err
	}
	return MFASetup{Secret: key.Secret(), OTPAuthURL: key.URL()}, nil
}

// SetMFA enables or disables MFA after verifying a current code.
func (s *Service) SetMFA(ctx context.Context, user UserContext, code string, enabled bool) error {
	if s.sealer == nil || !s.sealer.Configured() {
		return ErrMFAUnavailable
	}
	sealed, err := s.store.MFASecret(ctx, user.UserID)
	if err != nil {
		return err
	}
	if sealed == "" {
		return ErrMFANotConfigured
	}
	secret, err := s.openSecret(sealed)
	if err != nil || !totp.Validate(code, secret) {
		return ErrMFAInvalid
	}
	return s.store.SetMFAEnabled(ctx, user.UserID, enabled)
}

// RequestReset returns nil without error for unknown emails so callers cannot
// probe which accounts exist.
func (s *Service) RequestReset(ctx context.Context, email string) (*PasswordReset, error) {
	user, err := s.store.FindActiveUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	token, err := RandomToken()
	if err != nil {
		return nil, err
	}
	expires := s.now().Add(ResetTokenTTL)
	if err := s.store.CreatePasswordReset(ctx, user.ID, HashToken(token), expires); err != nil {
		return nil, err
	}
	return &PasswordReset{UserID: user.ID, Email: user.Email, Token: token, ExpiresAt: expires}, nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	userID, err := s.store.ConsumePasswordReset(ctx, HashToken(token))
	if err != nil {
		return err
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.store.UpdateUserPassword(ctx, userID, hash)
}

// ChangePassword replaces the caller's password and clears the forced-change
// flag set on imported accounts.
func (s *Service) ChangePassword(ctx context.Context, user UserContext, current, next string) error {
	hash, err := s.store.PasswordHash(ctx, user.UserID)
	if err != nil {
		return err
	}
	if CheckPassword(hash, current) != nil {
		return ErrInvalidCredentials
	}
	if err := ValidatePassword(next); err != nil {
		return err
	}
	newHash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return s.store.UpdateUserPassword(ctx, user.UserID, newHash)
}

func ValidatePassword(password string) error {
	if len(password) < 10 {
		return ErrWeakPassword
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return ErrWeakPassword
	}
	return nil
}

func (s *Service) openSecret(sealed string) (string, error) {
	if s.sealer == nil {
		return sealed, nil
	}
	return s.sealer.OpenString(sealed)
}
