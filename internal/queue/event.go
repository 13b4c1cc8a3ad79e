// Package queue carries domain events over RabbitMQ: the payload types, a
// publisher used by the request path and the background consumer that
// writes them to the audit log.
package queue

// UserRegisteredQueue is the durable queue signup events are routed to.
const UserRegisteredQueue = "user.registered"

// UserRegisteredEvent is published after a signup has been persisted.  It
// holds enough for downstream consumers to log or notify without querying
// the credential store.  It never carries the password hash.
type UserRegisteredEvent struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	RegisteredAt string `json:"registered_at"`
}
