package realtime

import (
	"github.com/google/uuid"
)

// HubPublisher adapts the Hub to the attendance service's publisher
// interface. Publishing never blocks and never reports delivery
// failure for individual clients.
type HubPublisher struct {
	hub *Hub
}

func NewHubPublisher(hub *Hub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) Publish(tenantID uuid.UUID, topic string, payload any) error {
	p.hub.Broadcast(tenantID, topic, payload)
	return nil
}
