package models

// Operator is an account allowed to read the API when auth is enabled.
type Operator struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}
