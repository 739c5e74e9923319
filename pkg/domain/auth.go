package domain

// RequestOTPRequest registers the device and asks the server to send an OTP.
type RequestOTPRequest struct {
	DeviceName  string `json:"device_name"`
	DeviceType  string `json:"device_type"`
	PhoneNumber string `json:"phone_number"`
	DeviceID    string `json:"device_id,omitempty"`
}

// VerifyOTPRequest exchanges a phone number and OTP for a token pair.
type VerifyOTPRequest struct {
	PhoneNumber string `json:"phone_number"`
	OTP         string `json:"otp"`
}

// RefreshRequest exchanges a refresh token for a new access token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse is returned by verify-otp and refresh.
// Refresh responses carry a refresh token only when the server rotates it.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
}

// StatusResponse is the generic {status, message} envelope used by the auth endpoints.
type StatusResponse struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}
