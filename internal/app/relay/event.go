/*
Package relay contains the core presence-tracking and event-relay logic.

This file defines the event vocabulary exchanged with clients: the envelope
framing every WebSocket message and the payload structures for each event kind.
Call-signaling payloads are carried as json.RawMessage so the relay forwards
them byte-for-byte without interpreting their structure.
*/
package relay

import "encoding/json"

// EventKind identifies the type of an event envelope.
type EventKind string

// Inbound event kinds (client -> server).
const (
	KindSetIdentity   EventKind = "setIdentity"
	KindUpdateAvatar  EventKind = "updateAvatar"
	KindChatMessage   EventKind = "chatMessage"
	KindTyping        EventKind = "typing"
	KindJoinGroup     EventKind = "joinGroup"
	KindLeaveGroup    EventKind = "leaveGroup"
	KindSendGroupMsg  EventKind = "sendGroupMessage"
	KindCallOffer     EventKind = "callOffer"
	KindCallAnswer    EventKind = "callAnswer"
	KindICECandidate  EventKind = "iceCandidate"
	KindGenericSignal EventKind = "genericSignal"
)

// Outbound event kinds (server -> client). KindChatMessage, KindTyping,
// KindICECandidate, and KindGenericSignal are reused in both directions.
const (
	KindActiveUsers  EventKind = "activeUsers"
	KindUsersInGroup EventKind = "usersInGroup"
	KindGroupMessage EventKind = "groupMessage"
	KindIncomingCall EventKind = "incomingCall"
	KindCallAccepted EventKind = "callAccepted"
)

// Envelope is the wire framing for every event in both directions.
type Envelope struct {
	Kind    EventKind       `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SetIdentityPayload announces or updates the sender's display name.
type SetIdentityPayload struct {
	DisplayName string `json:"displayName"`
}

// UpdateAvatarPayload updates the sender's avatar reference. DisplayName is a
// fallback used when the avatar upload races the identity announcement.
type UpdateAvatarPayload struct {
	DisplayName string `json:"displayName"`
	AvatarRef   string `json:"avatarRef"`
}

// ChatMessagePayload is a chat message as relayed between clients. The relay
// does not validate or normalize any of these fields.
type ChatMessagePayload struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	AvatarRef string `json:"avatarRef,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// TypingPayload carries the display name of a user currently typing.
type TypingPayload struct {
	DisplayName string `json:"displayName"`
}

// JoinGroupPayload requests membership in a named group.
type JoinGroupPayload struct {
	GroupID     string `json:"groupId"`
	DisplayName string `json:"displayName"`
}

// LeaveGroupPayload requests removal from a named group.
type LeaveGroupPayload struct {
	GroupID string `json:"groupId"`
}

// GroupMessagePayload is a chat message scoped to a group.
type GroupMessagePayload struct {
	GroupID string `json:"groupId"`
	Sender  string `json:"sender"`
	Text    string `json:"text"`
}

// UsersInGroupPayload tells a newly joined client who else is in the group.
type UsersInGroupPayload struct {
	GroupID       string   `json:"groupId"`
	ConnectionIDs []string `json:"connectionIds"`
}

// CallOfferPayload initiates a call toward a specific connection id.
// Signal is the opaque session description produced by the caller.
type CallOfferPayload struct {
	To     string          `json:"to"`
	Signal json.RawMessage `json:"signal"`
	From   string          `json:"from,omitempty"`
	Name   string          `json:"name,omitempty"`
}

// IncomingCallPayload is delivered to the callee for a CallOfferPayload.
type IncomingCallPayload struct {
	Signal json.RawMessage `json:"signal"`
	From   string          `json:"from"`
	Name   string          `json:"name,omitempty"`
}

// CallAnswerPayload answers a call. The Signal blob is forwarded to the
// original caller unmodified as a callAccepted event.
type CallAnswerPayload struct {
	To     string          `json:"to"`
	Signal json.RawMessage `json:"signal"`
}

// ICECandidatePayload relays one ICE candidate to a specific connection id.
type ICECandidatePayload struct {
	To        string          `json:"to"`
	Candidate json.RawMessage `json:"candidate"`
}

// ICECandidateNotice is the outbound form of an ICE candidate relay.
type ICECandidateNotice struct {
	Candidate json.RawMessage `json:"candidate"`
}
