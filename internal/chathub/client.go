package chathub

import "chatgogo/store/internal/views"

// Client is the interface for any subscriber of session views (e.g., a
// WebSocket connection of the UI shell). It abstracts the underlying
// connection so the hub can manage different client types uniformly.
type Client interface {
	// GetID returns the unique identifier of the subscription.
	GetID() string

	// GetSendChannel returns the channel to which the hub sends snapshots
	// intended for this specific client. It is a send-only channel.
	GetSendChannel() chan<- views.Snapshot

	// Run starts the client's read and write pumps.
	Run()
	// Close gracefully shuts down the client's connection and associated channels.
	Close()
}
