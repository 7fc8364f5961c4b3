package auth

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	users       map[string]User
	sessions    map[string]string
	resets      map[string]string
	passwords   map[string]string
	mfaSecret   map[string]string
	mfaEnabled  map[string]bool
	permissions map[string][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       map[string]User{},
		sessions:    map[string]string{},
		resets:      map[string]string{},
		passwords:   map[string]string{},
		mfaSecret:   map[string]string{},
		mfaEnabled:  map[string]bool{},
		permissions: map[string][]string{},
	}
}

func (f *fakeStore) FindActiveUserByEmail(_ context.Context, email string) (User, error) {
	user, ok := f.users[email]
	if !ok {
		return User{}, ErrUserNotFound
	}
	user.MFAEnabled = f.mfaEnabled[user.ID]
	user.MFASecretSealed = f.mfaSecret[user.ID]
	return user, nil
}

func (f *fakeStore) CreateSession(_ context.Context, userID, tokenHash string, _ time.Time) error {
	f.sessions[tokenHash] = userID
	return nil
}

func (f *fakeStore) RevokeSession(_ context.Context, _ string, tokenHash string) error {
	delete(f.sessions, tokenHash)
	return nil
}

func (f *fakeStore) SessionValid(_ context.Context, userID, tokenHash string) (bool, error) {
	return f.sessions[tokenHash] == userID, nil
}

func (f *fakeStore) UpdateLastLogin(context.Context, string) error { return nil }

func (f *fakeStore) UpdateMFASecret(_ context.Context, userID, sealed string) error {
	f.mfaSecret[userID] = sealed
	f.mfaEnabled[userID] = false
	return nil
}

func (f *fakeStore) MFASecret(_ context.Context, userID string) (string, error) {
	return f.mfaSecret[userID], nil
}

func (f *fakeStore) SetMFAEnabled(_ context.Context, userID string, enabled bool) error {
	f.mfaEnabled[userID] = enabled
	return nil
}

func (f *fakeStore) CreatePasswordReset(_ context.Context, userID, tokenHash string, _ time.Time) error {
	f.resets[tokenHash] = userID
	return nil
}

func (f *fakeStore) ConsumePasswordReset(_ context.Context, tokenHash string) (string, error) {
	userID, ok := f.resets[tokenHash]
	if !ok {
		return "", ErrResetTokenInvalid
	}
	delete(f.resets, tokenHash)
	return userID, nil
}

func (f *fakeStore) UpdateUserPassword(_ context.Context, userID, hash string) error {
	f.passwords[userID] = hash
	return nil
}

func (f *fakeStore) PasswordHash(_ context.Context, userID string) (string, error) {
	if hash, ok := f.passwords[userID]; ok {
		return hash, nil
	}
	for _, user := range f.users {
		if user.ID == userID {
			return user.PasswordHash, nil
		}
	}
	return "", ErrUserNotFound
}

func (f *fakeStore) HasPermission(_ context.Context, roleID, permission string) (bool, error) {
	for _, p := range f.permissions[roleID] {
		if p == permission {
			return true, nil
		}
	}
	return false, nil
}

type plainSealer struct{}

func (plainSealer) Configured() bool { return true }
func (plainSealer) SealString(v string) (string, error) { return "sealed:" + v, nil }
func (plainSealer) OpenString(v string) (string, error) { return v[len("sealed:"):], nil }

func seededStore(t *testing.T) *fakeStore {
	t.Helper()
	hash, err := HashPassword("Password123")
	require.NoError(t, err)
	store := newFakeStore()
	store.users["hr@example.com"] = User{ID: "u1", TenantID: "t1", Email: "hr@example.com", RoleID: "r1", RoleName: RoleHR, PasswordHash: hash}
	return store
}

func TestLoginIssuesSessionBoundToken(t *testing.T) {
	store := seededStore(t)
	svc := NewService(store, plainSealer{}, "secret")

	result, err := svc.Login(context.Background(), "hr@example.com", "Password123", "")
	require.NoError(t, err)
	assert.Equal(t, "u1", result.User.ID)

	claims, err := ParseToken("secret", result.Token)
	require.NoError(t, err)
	active, err := svc.SessionActive(context.Background(), claims.UserID, claims.SessionID)
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, svc.Logout(context.Background(), UserContext{UserID: claims.UserID, SessionID: claims.SessionID}))
	active, err = svc.SessionActive(context.Background(), claims.UserID, claims.SessionID)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := NewService(seededStore(t), plainSealer{}, "secret")

	_, err := svc.Login(context.Background(), "hr@example.com", "wrong", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "nobody@example.com", "Password123", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMFAFlow(t *testing.T) {
	store := seededStore(t)
	svc := NewService(store, plainSealer{}, "secret")
	user := UserContext{UserID: "u1", TenantID: "t1"}

	setup, err := svc.SetupMFA(context.Background(), user)
	require.NoError(t, err)
	assert.NotEmpty(t, setup.OTPAuthURL)

	assert.ErrorIs(t, svc.SetMFA(context.Background(), user, "000000x", true), ErrMFAInvalid)

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.SetMFA(context.Background(), user, code, true))

	_, err = svc.Login(context.Background(), "hr@example.com", "Password123", "")
	assert.ErrorIs(t, err, ErrMFARequired)

	code, err = totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	_, err = svc.Login(context.Background(), "hr@example.com", "Password123", code)
	assert.NoError(t, err)
}

func TestMFAUnavailableWithoutKey(t *testing.T) {
	svc := NewService(seededStore(t), nil, "secret")
	_, err := svc.SetupMFA(context.Background(), UserContext{UserID: "u1"})
	assert.ErrorIs(t, err, ErrMFAUnavailable)
}

func TestPasswordResetIsSingleUse(t *testing.T) {
	store := seededStore(t)
	svc := NewService(store, nil, "secret")

	unknown, err := svc.RequestReset(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.Nil(t, unknown)

	reset, err := svc.RequestReset(context.Background(), "hr@example.com")
	require.NoError(t, err)
	require.NotNil(t, reset)

	require.NoError(t, svc.ResetPassword(context.Background(), reset.Token, "Newpassword1"))
	require.NoError(t, CheckPassword(store.passwords["u1"], "Newpassword1"))

	assert.ErrorIs(t, svc.ResetPassword(context.Background(), reset.Token, "Another1pass"), ErrResetTokenInvalid)
}

func TestChangePassword(t *testing.T) {
	store := seededStore(t)
	svc := NewService(store, nil, "secret")
	user := UserContext{UserID: "u1", TenantID: "t1"}

	assert.ErrorIs(t, svc.ChangePassword(context.Background(), user, "wrong", "Stronger123"), ErrInvalidCredentials)
	assert.ErrorIs(t, svc.ChangePassword(context.Background(), user, "Password123", "short"), ErrWeakPassword)
	require.NoError(t, svc.ChangePassword(context.Background(), user, "Password123", "Stronger123"))
	require.NoError(t, CheckPassword(store.passwords["u1"], "Stronger123"))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "valid password", password: "Stronger123"},
		{name: "too short", password: "S1hort", wantErr: true},
		{name: "missing uppercase", password: "longpassword1", wantErr: true},
		{name: "missing lowercase", password: "LONGPASSWORD1", wantErr: true},
		{name: "missing number", password: "LongPassword", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePassword(tc.password)
			if tc.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}
