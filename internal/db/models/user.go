// Package models defines the database entity structs for the capturelog auth core.
// Models are plain structs with no behavior beyond small derived accessors;
// all persistence logic lives in internal/db/repositories.
package models

import "time"

// User represents an account identity. Every user owns exactly one personal
// organization, created at signup by the user service.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
