/*
Package relay contains the core presence-tracking and event-relay logic.

This file defines the Router, the stateless dispatch layer that translates one
inbound event into zero or more outbound deliveries. Every delivery is a
fire-and-forget enqueue on the Transport; the router never learns whether a
send succeeded and never reports delivery results to its callers.
*/
package relay

import (
	"github.com/rs/zerolog"

	"relaychat/internal/pkg/logx"
)

// Transport is the outbound half of the bidirectional event channel: a
// best-effort, non-blocking unicast to one live connection. Sends to ids the
// transport no longer knows are silently discarded.
type Transport interface {
	Send(connID string, kind EventKind, payload any)
}

// RouterOptions controls relay policy choices that vary between deployments.
type RouterOptions struct {
	// EchoChat selects whether chat relay includes the sender. Off by
	// default: clients render their own messages optimistically and must
	// not receive an echo.
	EchoChat bool
}

// Router fans events out to the connections resolved from registry snapshots.
// It holds no state of its own.
type Router struct {
	registry  *Registry
	transport Transport
	opts      RouterOptions
	logger    zerolog.Logger
}

// NewRouter constructs a Router over the given registry and transport.
func NewRouter(registry *Registry, transport Transport, opts RouterOptions) *Router {
	routerLogger := logx.Logger().With().Str("component", "Router").Logger()

	return &Router{
		registry:  registry,
		transport: transport,
		opts:      opts,
		logger:    routerLogger,
	}
}

// BroadcastAll delivers to every currently connected connection, including
// the sender.
func (rt *Router) BroadcastAll(kind EventKind, payload any) {
	for _, connID := range rt.registry.ConnectionIDs() {
		rt.transport.Send(connID, kind, payload)
	}
}

// BroadcastOthers delivers to every currently connected connection except
// senderID. With a single connection this is zero deliveries.
func (rt *Router) BroadcastOthers(senderID string, kind EventKind, payload any) {
	for _, connID := range rt.registry.ConnectionIDs() {
		if connID == senderID {
			continue
		}
		rt.transport.Send(connID, kind, payload)
	}
}

// ToGroup delivers to every member of the named group, including the sender.
// An unknown group is an empty delivery set, not an error.
func (rt *Router) ToGroup(groupID string, kind EventKind, payload any) {
	members := rt.registry.SnapshotGroup(groupID, "")
	if len(members) == 0 {
		rt.logger.Debug().Str("group_id", groupID).Msg("Relay to empty or unknown group dropped.")
		return
	}

	for _, connID := range members {
		rt.transport.Send(connID, kind, payload)
	}
}

// ToConnection unicasts to one connection id. If the target disconnected
// between the caller learning the id and the relay attempt, the delivery is
// silently dropped; that race is expected in a best-effort relay.
func (rt *Router) ToConnection(targetConnID string, kind EventKind, payload any) {
	if !rt.registry.Has(targetConnID) {
		rt.logger.Debug().
			Str("target_id", targetConnID).
			Str("kind", string(kind)).
			Msg("Unicast to unknown connection dropped.")
		return
	}

	rt.transport.Send(targetConnID, kind, payload)
}

// RelayChat forwards a chat message according to the echo policy: to everyone
// when EchoChat is set, otherwise to everyone but the sender.
func (rt *Router) RelayChat(senderID string, payload any) {
	if rt.opts.EchoChat {
		rt.BroadcastAll(KindChatMessage, payload)
		return
	}
	rt.BroadcastOthers(senderID, KindChatMessage, payload)
}

// PresenceChanged rebroadcasts the full identity snapshot to every
// connection. Called after every registry mutation that affects presence;
// full rebroadcast on each mutation trades bandwidth for consistency, which
// is acceptable at chat-room scale.
func (rt *Router) PresenceChanged() {
	rt.BroadcastAll(KindActiveUsers, rt.registry.SnapshotAll())
}
