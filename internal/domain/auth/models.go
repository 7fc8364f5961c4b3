package auth

import "time"

const UserStatusActive = "active"

type User struct {
	ID                 string
	TenantID           string
	Email              string
	RoleID             string
	RoleName           string
	PasswordHash       string
	MustChangePassword bool
	MFAEnabled         bool
	MFASecretSealed    string
}

type LoginResult struct {
	Token              string      `json:"token"`
	ExpiresAt          time.Time   `json:"expiresAt"`
	MustChangePassword bool        `json:"mustChangePassword"`
	User               UserSummary `json:"user"`
}

type UserSummary struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`
	Email    string `json:"email"`
	RoleID   string `json:"roleId"`
	Role     string `json:"role"`
}

type MFASetup struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
}

// PasswordReset is returned to the caller so it can deliver the raw token.
type PasswordReset struct {
	UserID    string
	Email     string
	Token     string
	ExpiresAt time.Time
}
