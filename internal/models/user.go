package models

import (
	"time"
)

// UserType is the marketplace role of a user
type UserType string

const (
	UserTypeBuyer  UserType = "buyer"
	UserTypeSeller UserType = "seller"
	UserTypeAgent  UserType = "agent"
	UserTypeAdmin  UserType = "admin"
)

// Valid reports whether t is one of the known roles
func (t UserType) Valid() bool {
	switch t {
	case UserTypeBuyer, UserTypeSeller, UserTypeAgent, UserTypeAdmin:
		return true
	}
	return false
}

// User represents a marketplace account
type User struct {
	ID           string    `json:"$id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never send to client
	UserType     UserType  `json:"userType"`
	Avatar       string    `json:"avatar,omitempty"`
	CreatedAt    time.Time `json:"$createdAt"`
	LastSeen     time.Time `json:"lastSeen"`
}

// Agent is an entry of the agent directory, keyed by the agent's user id
type Agent struct {
	ID          string    `json:"$id"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Agency      string    `json:"agency,omitempty"`
	CreatedAt   time.Time `json:"$createdAt"`
}

// UserRegistration contains data needed for user registration
type UserRegistration struct {
	Name     string   `json:"name" binding:"required,min=2,max=80"`
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=5"`
	UserType UserType `json:"userType"`
	Avatar   string   `json:"avatar"`
	Agency   string   `json:"agency"`
}

// UserLogin contains data needed for user login
type UserLogin struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is what we return to the client
type UserResponse struct {
	ID        string    `json:"$id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	UserType  UserType  `json:"userType"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"$createdAt"`
}

// Response strips private fields from u
func (u *User) Response() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		UserType:  u.UserType,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

// SenderProfile is the identity of the caller stamped on outgoing messages
type SenderProfile struct {
	ID       string   `json:"$id"`
	Name     string   `json:"name"`
	UserType UserType `json:"userType"`
}
