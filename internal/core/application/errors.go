package application

import "errors"

var (
	// ErrUnknownTopic ...
	ErrUnknownTopic = errors.New("unknown audit event topic")
	// ErrMissingRepoManager ...
	ErrMissingRepoManager = errors.New("missing repository manager")
	// ErrMissingCryptoEngine ...
	ErrMissingCryptoEngine = errors.New("missing crypto engine")
	// ErrMissingPubSubService ...
	ErrMissingPubSubService = errors.New("missing pubsub service")
)
