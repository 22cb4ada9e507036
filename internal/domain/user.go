package domain

import "time"

// User represents a registered user. Token is the opaque bearer
// credential resolved by the auth middleware; real token validation
// lives outside this service.
type User struct {
	ID        string
	Username  string
	Token     string
	CreatedAt time.Time
}
