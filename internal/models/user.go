package models

// User is an API account for the server mode. Reports themselves carry no
// user identity; accounts only gate the HTTP surface.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // never serialized
}
