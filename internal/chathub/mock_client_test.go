package chathub_test

import (
	"sync/atomic"

	"chatgogo/store/internal/views"
)

type MockClient struct {
	id          string
	RecvChannel chan views.Snapshot
	closed      atomic.Bool
}

func newMockClient(id string, buffer int) *MockClient {
	return &MockClient{
		id:          id,
		RecvChannel: make(chan views.Snapshot, buffer),
	}
}

func (c *MockClient) GetID() string {
	return c.id
}

func (c *MockClient) GetSendChannel() chan<- views.Snapshot {
	return c.RecvChannel
}

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	c.closed.Store(true)
}

func (c *MockClient) Closed() bool {
	return c.closed.Load()
}
