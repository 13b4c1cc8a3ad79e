package model

import "time"

// User is an identity record from the credential store.  The ID is assigned
// by the store: a decimal auto-increment value for MySQL or an ObjectID hex
// string for MongoDB.  Email is unique across all users and is stored
// normalised (trimmed, lower-cased).
//
// PasswordHash holds the bcrypt digest of the user's password.  The
// plaintext is never persisted, and the hash never leaves the service layer.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	PhoneNumber  *string        // optional E.164 number
	Metadata     map[string]any // optional free-form JSON object
	CreatedAt    time.Time
}
