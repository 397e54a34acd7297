package domain

import "time"

// Role represents the user's permission level in the system.
type Role string

const (
	// RoleAdmin grants full administrative access.
	RoleAdmin Role = "admin"
	// RoleMember grants standard user access.
	RoleMember Role = "member"
)

// User represents an authenticated user account in the system.
// Every screen, content item, and playlist belongs to exactly one user;
// users only ever see and manage their own signage.
type User struct {
	Timestamps
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	IsRoot       bool      `json:"is_root"`
	Role         Role      `json:"role"` // admin or member
	DisplayName  string    `json:"display_name"`
	LastLoginAt  time.Time `json:"last_login_at"`
}

// IsAdmin returns true if the user has administrative privileges.
// Root users are automatically admins, regardless of their role field.
func (u *User) IsAdmin() bool {
	return u.IsRoot || u.Role == RoleAdmin
}

// Name returns the best available name to display for the user.
// Prefers DisplayName, falls back to email.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

// Session represents an active user session with refresh token.
// Each device gets its own session - you can see what's connected.
type Session struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"refresh_token_hash,omitempty"` // Stored hashed, filter from API responses
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	LastSeenAt       time.Time `json:"last_seen_at"`
	IPAddress        string    `json:"ip_address,omitempty"`

	// Device information - structured data from client
	DeviceType    string `json:"device_type"`            // mobile, tablet, desktop, web, tv
	Platform      string `json:"platform"`               // iOS, Android, Windows, macOS, Linux, Web
	ClientName    string `json:"client_name"`            // WebSign Web, WebSign Player
	ClientVersion string `json:"client_version"`         // 1.0.0
	DeviceName    string `json:"device_name,omitempty"`  // Front desk iPad (optional, user-set)
	DeviceModel   string `json:"device_model,omitempty"` // iPhone 15 Pro, Pixel 8 (optional)
}

// Touch updates the session's last seen timestamp.
func (s *Session) Touch() {
	s.LastSeenAt = time.Now()
}

// IsExpired checks if the session has passed its expiration time.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// DisplayName returns a human-readable description of the device.
func (s *Session) DisplayName() string {
	if s.DeviceName != "" {
		return s.DeviceName
	}

	if s.DeviceModel != "" {
		if s.Platform != "" {
			return s.DeviceModel + " - " + s.Platform
		}
		return s.DeviceModel
	}

	if s.Platform != "" {
		return s.Platform
	}

	if s.ClientVersion != "" {
		return s.ClientName + " " + s.ClientVersion
	}

	if s.ClientName != "" {
		return s.ClientName
	}

	return "Unknown Device"
}
