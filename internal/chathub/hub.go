package chathub

import (
	"context"
	"log"

	"chatgogo/store/internal/views"
)

// Run dispatches snapshots to registered clients until ctx is done. A new
// client receives the current snapshot right away.
func (m *Manager) Run(ctx context.Context) {
	defer close(m.done)
	log.Println("INFO: View hub started.")

	for {
		select {
		case <-ctx.Done():
			for id, client := range m.Clients {
				delete(m.Clients, id)
				client.Close()
			}
			log.Println("INFO: View hub stopped.")
			return

		case client := <-m.RegisterCh:
			m.Clients[client.GetID()] = client
			log.Printf("INFO: Client %s subscribed (%d total).", client.GetID(), len(m.Clients))
			m.deliver(client, m.Snapshot())

		case client := <-m.UnregisterCh:
			if _, ok := m.Clients[client.GetID()]; ok {
				delete(m.Clients, client.GetID())
				client.Close()
				log.Printf("INFO: Client %s unsubscribed.", client.GetID())
			}

		case snap := <-m.broadcastCh:
			for _, client := range m.Clients {
				m.deliver(client, snap)
			}
		}
	}
}

// Done is closed once Run has returned.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// deliver hands snap to the client without blocking. A client that cannot
// keep up is dropped.
func (m *Manager) deliver(client Client, snap views.Snapshot) {
	select {
	case client.GetSendChannel() <- snap:
	default:
		log.Printf("WARNING: Client %s is not reading, dropping it.", client.GetID())
		delete(m.Clients, client.GetID())
		client.Close()
	}
}

// publish queues snap for broadcast. Only the newest snapshot matters, so a
// pending one that was not yet dispatched is replaced. Callers hold m.mu.
func (m *Manager) publish(snap views.Snapshot) {
	select {
	case m.broadcastCh <- snap:
		return
	default:
	}
	select {
	case <-m.broadcastCh:
	default:
	}
	m.broadcastCh <- snap
}
