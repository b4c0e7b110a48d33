package application

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vigil-network/vigil-daemon/internal/core/ports"
)

// Topics of the audit events published to the registered webhooks.
// Payloads carry public facts only, ids, parties and timestamps, never a
// plaintext nor a ciphertext handle.
const (
	TopicCuratorAdded         = "access.curator_added"
	TopicCuratorRemoved       = "access.curator_removed"
	TopicOwnershipTransferred = "access.ownership_transferred"
	TopicEntityAdded          = "watchlist.entity_added"
	TopicEntityDeactivated    = "watchlist.entity_deactivated"
	TopicEntityReactivated    = "watchlist.entity_reactivated"
	TopicCheckCreated         = "screening.check_created"
	TopicAccessGranted        = "screening.access_granted"
	TopicAccessRevoked        = "screening.access_revoked"
)

var eventTopics = map[string]struct{}{
	TopicCuratorAdded:         {},
	TopicCuratorRemoved:       {},
	TopicOwnershipTransferred: {},
	TopicEntityAdded:          {},
	TopicEntityDeactivated:    {},
	TopicEntityReactivated:    {},
	TopicCheckCreated:         {},
	TopicAccessGranted:        {},
	TopicAccessRevoked:        {},
}

// Topics returns the sorted list of topics webhooks can subscribe to.
func Topics() []string {
	topics := make([]string, 0, len(eventTopics))
	for topic := range eventTopics {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

func isValidTopic(topic string) bool {
	if topic == ports.AnyTopic {
		return true
	}
	_, ok := eventTopics[topic]
	return ok
}

func publishEvent(
	pubsub ports.SecurePubSub, topic string, payload map[string]interface{},
) {
	payload["id"] = uuid.NewString()
	payload["event"] = topic
	payload["timestamp"] = time.Now().Unix()
	message, _ := json.Marshal(payload)

	if err := pubsub.Publish(topic, string(message)); err != nil {
		log.WithError(err).Warnf(
			"an error occured while publishing message for topic %s", topic,
		)
	}
}
