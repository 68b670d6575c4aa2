package models

import "time"

const (
	RoleUser      = "user"
	RoleDecorator = "decorator"
	RoleAdmin     = "admin"
)

type User struct {
	Username      string    `json:"username" bson:"username"`
	Email         string    `json:"email" bson:"email"`
	Password      string    `json:"-" bson:"password"`
	Role          string    `json:"role" bson:"role"`
	Blocked       bool      `json:"blocked" bson:"blocked"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	LastLogin     time.Time `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
	RefreshToken  string    `json:"-" bson:"refreshToken,omitempty"`
	RefreshExpiry time.Time `json:"-" bson:"refreshExpiry,omitempty"`
}
