package domain

// User is the authenticated account as returned by /auth/me.
type User struct {
	ID                int64   `json:"id"`
	Name              *string `json:"name,omitempty"`
	Email             *string `json:"email,omitempty"`
	PhoneNumber       string  `json:"phone_number"`
	IsEmailVerified   bool    `json:"is_email_verified"`
	IsPhoneVerified   bool    `json:"is_phone_verified"`
	IsActive          bool    `json:"is_active"`
	ProfilePictureURL *string `json:"profile_picture_url,omitempty"`
	// IsProfileComplete is nil when the server does not report it; treat as complete.
	IsProfileComplete *bool `json:"is_profile_complete,omitempty"`
}

// DisplayName returns the user's name, falling back to the phone number.
func (u User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	return u.PhoneNumber
}

// ProfileComplete reports whether the profile is complete.
func (u User) ProfileComplete() bool {
	return u.IsProfileComplete == nil || *u.IsProfileComplete
}
