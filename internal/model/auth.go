package model

import "github.com/golang-jwt/jwt/v5"

// AdminClaims are JWT claims for the event operator.
type AdminClaims struct {
	AdminID string `json:"adminId"`
	jwt.RegisteredClaims
}

// ParticipantClaims are JWT claims for event-scoped participant tokens.
type ParticipantClaims struct {
	EventID     string `json:"eventId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for admin login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token   string `json:"token"`
	AdminID string `json:"adminId"`
}
