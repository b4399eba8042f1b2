package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleClient        Role = "cliente"
	RoleAdministrator Role = "administrador"
)

// DiscountEligibility is cached on the session and recomputed only when the
// underlying profile fields change (login, registration, profile patch), never
// per cart read.
type DiscountEligibility struct {
	AgeDiscount   bool `json:"age_discount"`
	PromoDiscount bool `json:"promo_discount"`
}

// UserSession is the gateway's durable record of an authenticated customer.
// Token is the upstream bearer token; the gateway hands the client its own JWT.
type UserSession struct {
	RUN           string              `json:"run"`
	Email         string              `json:"email"`
	Name          string              `json:"name"`
	Surname       string              `json:"surname"`
	Role          Role                `json:"role"`
	Token         string              `json:"token"`
	Region        string              `json:"region,omitempty"`
	Commune       string              `json:"commune,omitempty"`
	Address       string              `json:"address,omitempty"`
	BirthDate     string              `json:"birth_date,omitempty"`
	PromoCode     string              `json:"promo_code,omitempty"`
	Eligibility   DiscountEligibility `json:"eligibility"`
	CreatedAt     time.Time           `json:"created_at"`
	LastValidated time.Time           `json:"last_validated"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
	Token       string `json:"token,omitempty"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
	Role        Role   `json:"role,omitempty"`
	IdentityKey string `json:"identity_key,omitempty"`
}

type RegisterRequest struct {
	RUN       string `json:"run" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Surname   string `json:"surname" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Region    string `json:"region,omitempty"`
	Commune   string `json:"commune,omitempty"`
	Address   string `json:"address,omitempty"`
	BirthDate string `json:"birth_date,omitempty"`
	PromoCode string `json:"promo_code,omitempty"`
}

// ProfilePatch merge-patches the session; nil fields are left untouched.
type ProfilePatch struct {
	Name      *string `json:"name,omitempty"`
	Surname   *string `json:"surname,omitempty"`
	Region    *string `json:"region,omitempty"`
	Commune   *string `json:"commune,omitempty"`
	Address   *string `json:"address,omitempty"`
	BirthDate *string `json:"birth_date,omitempty"`
	PromoCode *string `json:"promo_code,omitempty"`
}

// Claims is the gateway-issued JWT payload.
type Claims struct {
	RUN   string `json:"run"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	jwt.RegisteredClaims
}
