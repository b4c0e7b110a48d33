package ports

import "errors"

// AnyTopic subscribes a webhook to every audit event.
const AnyTopic = "*"

// ErrSubscriptionNotFound is returned when unsubscribing an unknown webhook.
var ErrSubscriptionNotFound = errors.New("webhook not found")

// Subscription is a registered webhook endpoint for some audit topic.
type Subscription interface {
	Topic() string
	Id() string
	IsSecured() bool
	NotifyAt() string
}

// PubSubStore defines the methods to manage the internal store of a
// SecurePubSub service.
type PubSubStore interface {
	// Init initializes the store with an optional encryption password.
	Init(password string) error
	// IsLocked returns whether the store is locked.
	IsLocked() bool
	// Lock locks the store.
	Lock()
	// Unlock unlocks the internal store.
	Unlock(password string) error
	// ChangePassword allows to change the encryption password.
	ChangePassword(oldPwd, newPwd string) error
	// Close should be used to gracefully close the connection with the store.
	Close() error
}

// SecurePubSub defines the methods of the audit notification service. The
// service persists its subscriptions in an internal optionally encrypted
// storage.
type SecurePubSub interface {
	// Store returns the internal store.
	Store() PubSubStore
	// Subscribe adds a new subscription for the requested topic.
	Subscribe(topic, endpoint, secret string) (string, error)
	// Unsubscribe removes the subscription with the given id for a topic.
	Unsubscribe(topic, id string) error
	// ListSubscriptionsForTopic returns the info of all endpoints subscribed
	// for a certain topic.
	ListSubscriptionsForTopic(topic string) []Subscription
	// Publish delivers a message to every endpoint subscribed for the topic.
	Publish(topic string, message string) error
}
