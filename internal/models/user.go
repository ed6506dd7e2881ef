package models

import "github.com/golang-jwt/jwt/v5"

// Claims is the token payload issued by the external identity provider.
type Claims struct {
	Handle string `json:"handle"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
