package entities

import "time"

// Connection is a WebSocket client subscribed to code change notifications.
type Connection struct {
	ConnectionID string    `json:"connectionId" dynamodbav:"ConnectionID"`
	Username     string    `json:"username" dynamodbav:"Username"`
	ConnectedAt  time.Time `json:"connectedAt" dynamodbav:"ConnectedAt"`
	ExpiresAt    int64     `json:"-" dynamodbav:"ExpiresAt"`
}
