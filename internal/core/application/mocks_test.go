package application_test

import (
	"github.com/stretchr/testify/mock"
	"github.com/vigil-network/vigil-daemon/internal/core/ports"
)

// **** SecurePubSub ****

type mockSecurePubSub struct {
	mock.Mock
}

func newMockSecurePubSub() *mockSecurePubSub {
	m := &mockSecurePubSub{}
	m.On("Publish", mock.Anything, mock.Anything).Return(nil)
	return m
}

func (m *mockSecurePubSub) Store() ports.PubSubStore {
	args := m.Called()

	var res ports.PubSubStore
	if a := args.Get(0); a != nil {
		res = a.(ports.PubSubStore)
	}
	return res
}

func (m *mockSecurePubSub) Subscribe(topic, endpoint, secret string) (string, error) {
	args := m.Called(topic, endpoint, secret)

	var res string
	if a := args.Get(0); a != nil {
		res = a.(string)
	}
	return res, args.Error(1)
}

func (m *mockSecurePubSub) Unsubscribe(topic, id string) error {
	args := m.Called(topic, id)
	return args.Error(0)
}

func (m *mockSecurePubSub) ListSubscriptionsForTopic(topic string) []ports.Subscription {
	args := m.Called(topic)

	var res []ports.Subscription
	if a := args.Get(0); a != nil {
		res = a.([]ports.Subscription)
	}
	return res
}

func (m *mockSecurePubSub) Publish(topic string, message string) error {
	args := m.Called(topic, message)
	return args.Error(0)
}
