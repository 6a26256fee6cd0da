/*
Package relay contains the core presence-tracking and event-relay logic.

This file defines the Hub, the transport-side coordinator. It owns the set of
live Sessions, runs the single event loop that serializes all registry
mutations and relay fan-out, and implements Transport by enqueueing marshaled
envelopes onto per-session send channels.
*/
package relay

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"relaychat/internal/pkg/logx"
)

const inboundChannelBuffer = 1024

// inboundEvent pairs a parsed envelope with the session that produced it.
type inboundEvent struct {
	session  *Session
	envelope Envelope
}

// Hub coordinates all live sessions. Every inbound event is handled to
// completion on the Run goroutine before the next one is processed, so
// registry readers always observe a consistent post-mutation state.
type Hub struct {
	registry *Registry
	router   *Router

	// sessions maps connection id to its Session. Guarded by mu because
	// Send may be called while the loop mutates the map.
	sessions map[string]*Session
	mu       sync.RWMutex

	inbound    chan inboundEvent
	register   chan *Session
	unregister chan *Session
	stopChan   chan struct{}

	// wg waits for the Run loop to exit during shutdown.
	wg sync.WaitGroup

	logger zerolog.Logger
}

// NewHub constructs a Hub over the given registry. The Hub is its own
// Transport; the Router is created here so both share one delivery path.
func NewHub(registry *Registry, routerOpts RouterOptions) *Hub {
	hubLogger := logx.Logger().With().Str("component", "Hub").Logger()

	h := &Hub{
		registry:   registry,
		sessions:   make(map[string]*Session),
		inbound:    make(chan inboundEvent, inboundChannelBuffer),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		stopChan:   make(chan struct{}),
		logger:     hubLogger,
	}
	h.router = NewRouter(registry, h, routerOpts)

	// Shutdown waits on wg; the count is taken here so a shutdown racing a
	// just-started Run loop still waits for it.
	h.wg.Add(1)

	return h
}

// Registry exposes the hub's registry, mainly for handlers and tests.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Run starts the hub event loop. It must be called exactly once; it returns
// when Shutdown is called.
func (h *Hub) Run() {
	defer h.wg.Done()

	h.logger.Info().Msg("Hub event loop started.")

	for {
		select {
		case session := <-h.register:
			h.addSession(session)

		case session := <-h.unregister:
			h.removeSession(session)

		case event := <-h.inbound:
			h.dispatch(event.session, event.envelope)

		case <-h.stopChan:
			h.logger.Info().Msg("Hub event loop stopping.")
			h.closeAllSessions()
			return
		}
	}
}

// Shutdown stops the event loop and closes every session send channel.
func (h *Hub) Shutdown() {
	select {
	case <-h.stopChan:
	default:
		close(h.stopChan)
	}
	h.wg.Wait()

	h.logger.Info().Msg("Hub shutdown complete.")
}

// RegisterSession queues a session for registration with the event loop.
func (h *Hub) RegisterSession(session *Session) {
	select {
	case h.register <- session:
	case <-h.stopChan:
		session.closeSend()
	}
}

// UnregisterSession queues a session for removal with the event loop.
func (h *Hub) UnregisterSession(session *Session) {
	select {
	case h.unregister <- session:
	case <-h.stopChan:
	}
}

// Send implements Transport. The envelope is marshaled once per delivery and
// enqueued without blocking; a full session queue drops the event.
func (h *Hub) Send(connID string, kind EventKind, payload any) {
	h.mu.RLock()
	session, ok := h.sessions[connID]
	h.mu.RUnlock()

	if !ok {
		return
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error().Err(err).Str("kind", string(kind)).Msg("Error marshaling outbound payload.")
		return
	}

	envelopeBytes, err := json.Marshal(Envelope{Kind: kind, Payload: payloadBytes})
	if err != nil {
		h.logger.Error().Err(err).Str("kind", string(kind)).Msg("Error marshaling outbound envelope.")
		return
	}

	if !session.enqueue(envelopeBytes) {
		h.logger.Warn().
			Str("conn_id", connID).
			Str("kind", string(kind)).
			Msg("Session send queue full, dropping event.")
	}
}

// addSession registers the session with the registry and announces presence.
func (h *Hub) addSession(session *Session) {
	h.mu.Lock()
	h.sessions[session.ID] = session
	h.mu.Unlock()

	h.registry.Register(session.ID)
	h.router.PresenceChanged()

	h.logger.Info().
		Str("conn_id", session.ID).
		Int("total_sessions", h.sessionCount()).
		Msg("Session connected.")
}

// removeSession tears the session down: transport map, registry entry, group
// memberships. Safe to call twice for the same session.
func (h *Hub) removeSession(session *Session) {
	h.mu.Lock()
	current, ok := h.sessions[session.ID]
	if ok && current == session {
		delete(h.sessions, session.ID)
	}
	h.mu.Unlock()

	if !ok || current != session {
		return
	}

	session.closeSend()

	h.registry.Unregister(session.ID)
	h.router.PresenceChanged()

	h.logger.Info().
		Str("conn_id", session.ID).
		Int("total_sessions", h.sessionCount()).
		Msg("Session disconnected.")
}

func (h *Hub) closeAllSessions() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, session := range h.sessions {
		session.closeSend()
	}
	h.sessions = make(map[string]*Session)
}

func (h *Hub) sessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.sessions)
}

// dispatch routes one inbound envelope per the event vocabulary. Payloads the
// relay only forwards (chat, typing, generic signals) are passed through as
// raw bytes; only routing-relevant fields are decoded.
func (h *Hub) dispatch(session *Session, env Envelope) {
	switch env.Kind {
	case KindSetIdentity:
		var p SetIdentityPayload
		if !h.decode(session, env, &p) {
			return
		}
		h.registry.SetIdentity(session.ID, p.DisplayName)
		h.router.PresenceChanged()

	case KindUpdateAvatar:
		h.handleUpdateAvatar(session, env)

	case KindChatMessage:
		h.router.RelayChat(session.ID, env.Payload)

	case KindTyping:
		h.router.BroadcastOthers(session.ID, KindTyping, env.Payload)

	case KindJoinGroup:
		var p JoinGroupPayload
		if !h.decode(session, env, &p) {
			return
		}
		h.registry.JoinGroup(p.GroupID, session.ID)
		h.router.ToConnection(session.ID, KindUsersInGroup, UsersInGroupPayload{
			GroupID:       p.GroupID,
			ConnectionIDs: h.registry.SnapshotGroup(p.GroupID, session.ID),
		})

	case KindLeaveGroup:
		var p LeaveGroupPayload
		if !h.decode(session, env, &p) {
			return
		}
		h.registry.LeaveGroup(p.GroupID, session.ID)

	case KindSendGroupMsg:
		var p GroupMessagePayload
		if !h.decode(session, env, &p) {
			return
		}
		h.router.ToGroup(p.GroupID, KindGroupMessage, env.Payload)

	case KindCallOffer:
		var p CallOfferPayload
		if !h.decode(session, env, &p) {
			return
		}
		from := p.From
		if from == "" {
			from = session.ID
		}
		h.router.ToConnection(p.To, KindIncomingCall, IncomingCallPayload{
			Signal: p.Signal,
			From:   from,
			Name:   p.Name,
		})

	case KindCallAnswer:
		var p CallAnswerPayload
		if !h.decode(session, env, &p) {
			return
		}
		h.router.ToConnection(p.To, KindCallAccepted, p.Signal)

	case KindICECandidate:
		var p ICECandidatePayload
		if !h.decode(session, env, &p) {
			return
		}
		h.router.ToConnection(p.To, KindICECandidate, ICECandidateNotice{Candidate: p.Candidate})

	case KindGenericSignal:
		h.router.BroadcastOthers(session.ID, KindGenericSignal, env.Payload)

	default:
		session.logger.Warn().Str("kind", string(env.Kind)).Msg("Client sent unsupported event kind.")
	}
}

// handleUpdateAvatar binds the avatar, rebroadcasts presence, and emits the
// system chat notice announcing the change.
func (h *Hub) handleUpdateAvatar(session *Session, env Envelope) {
	var p UpdateAvatarPayload
	if !h.decode(session, env, &p) {
		return
	}

	h.registry.SetAvatar(session.ID, p.AvatarRef, p.DisplayName)
	h.router.PresenceChanged()

	// SetAvatar already resolved the display name fallback chain.
	displayName := DefaultDisplayName
	if id, ok := h.registry.IdentityOf(session.ID); ok {
		displayName = id.DisplayName
	}

	h.router.BroadcastAll(KindChatMessage, ChatMessagePayload{
		Username:  displayName,
		Message:   "updated their avatar",
		AvatarRef: p.AvatarRef,
	})
}

// decode unmarshals an inbound payload, logging and dropping the event on
// malformed JSON. Relay errors are never surfaced back to the sender.
func (h *Hub) decode(session *Session, env Envelope, dst any) bool {
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		session.logger.Warn().
			Err(err).
			Str("kind", string(env.Kind)).
			Msg("Client sent invalid payload.")
		return false
	}
	return true
}
