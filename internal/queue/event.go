// Package queue defines message payloads exchanged over the message broker
// and the background consumer that processes them.
package queue

// RegistrationQueueName is the queue carrying UserRegisteredEvent messages.
const RegistrationQueueName = "user.registered"

// UserRegisteredEvent is published when a new account is created. It carries
// enough information for downstream consumers to notify admins of pending
// approvals without querying the primary database.
type UserRegisteredEvent struct {
	UserID       uint64 `json:"user_id"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	RegisteredAt string `json:"registered_at"`
}
