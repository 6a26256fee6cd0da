/*
Package relay contains the core presence-tracking and event-relay logic.

This file defines the Registry, the single source of truth for which
connections are live, the identity bound to each one, and named group
membership. All state lives in memory for the lifetime of the process.
*/
package relay

import (
	"sync"

	"github.com/rs/zerolog"

	"relaychat/internal/pkg/logx"
)

// Identity is the human-readable identity bound to a connection.
type Identity struct {
	DisplayName string `json:"displayName"`
	AvatarRef   string `json:"avatarRef,omitempty"`
}

// DefaultDisplayName is bound when an avatar update arrives with no display
// name available from either the payload or a prior identity announcement.
const DefaultDisplayName = "User"

// RegistryOptions controls registry snapshot policy.
type RegistryOptions struct {
	// IncludeUnnamed selects whether SnapshotAll lists connections that have
	// not yet announced an identity, with an empty display name. When false
	// such connections are omitted until their first setIdentity.
	IncludeUnnamed bool
}

// Registry tracks live connections, their identities, and group membership.
// The Hub serializes all mutations onto a single goroutine, but the registry
// carries its own lock so the contract also holds under concurrent access.
type Registry struct {
	mu sync.RWMutex

	// identities maps connection id to the bound identity, nil until the
	// first setIdentity or updateAvatar for that connection.
	identities map[string]*Identity

	// groups maps group id to its member connection ids. A group with zero
	// members is removed immediately, never stored empty.
	groups map[string]map[string]struct{}

	opts   RegistryOptions
	logger zerolog.Logger
}

// NewRegistry constructs an empty Registry.
func NewRegistry(opts RegistryOptions) *Registry {
	registryLogger := logx.Logger().With().Str("component", "Registry").Logger()

	return &Registry{
		identities: make(map[string]*Identity),
		groups:     make(map[string]map[string]struct{}),
		opts:       opts,
		logger:     registryLogger,
	}
}

// Register records a new live connection with no identity bound yet.
// Registering an id twice resets its entry rather than duplicating it.
func (r *Registry) Register(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.identities[connID] = nil
}

// SetIdentity binds or updates the display name for a connection. The entry
// is created if the connection was never registered. An already-bound avatar
// reference is preserved.
func (r *Registry) SetIdentity(connID, displayName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id := r.identities[connID]; id != nil {
		id.DisplayName = displayName
		return
	}
	r.identities[connID] = &Identity{DisplayName: displayName}
}

// SetAvatar updates the avatar reference for a connection. Avatar uploads may
// race the identity announcement client-side, so a missing display name is
// never an error: displayNameFallback takes precedence when non-empty, then
// any previously bound name, then DefaultDisplayName.
func (r *Registry) SetAvatar(connID, avatarRef, displayNameFallback string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.identities[connID]
	if id == nil {
		id = &Identity{}
		r.identities[connID] = id
	}

	id.AvatarRef = avatarRef

	switch {
	case displayNameFallback != "":
		id.DisplayName = displayNameFallback
	case id.DisplayName != "":
		// keep the existing name
	default:
		id.DisplayName = DefaultDisplayName
	}
}

// Unregister removes a connection entirely: identity, avatar, and all group
// memberships. Safe to call for an unknown or already removed id.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.identities, connID)

	for groupID, members := range r.groups {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.groups, groupID)
		}
	}
}

// IdentityOf returns the identity bound to a connection. The second return
// is false when the connection is unknown or has not announced itself yet.
func (r *Registry) IdentityOf(connID string) (Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id := r.identities[connID]
	if id == nil {
		return Identity{}, false
	}
	return *id, true
}

// Has reports whether the connection id is currently registered.
func (r *Registry) Has(connID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.identities[connID]
	return ok
}

// ConnectionIDs returns the ids of all currently registered connections,
// identified or not. Order is unspecified.
func (r *Registry) ConnectionIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.identities))
	for connID := range r.identities {
		ids = append(ids, connID)
	}
	return ids
}

// SnapshotAll returns the identities of all registered connections for a
// presence broadcast. Connections with no identity bound yet are included
// with an empty display name only when IncludeUnnamed is set.
func (r *Registry) SnapshotAll() []Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make([]Identity, 0, len(r.identities))
	for _, id := range r.identities {
		if id == nil {
			if r.opts.IncludeUnnamed {
				snapshot = append(snapshot, Identity{})
			}
			continue
		}
		snapshot = append(snapshot, *id)
	}
	return snapshot
}

// JoinGroup adds a connection to the named group, creating the group lazily
// on first join.
func (r *Registry) JoinGroup(groupID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.groups[groupID]
	if !ok {
		members = make(map[string]struct{})
		r.groups[groupID] = members
	}
	members[connID] = struct{}{}
}

// LeaveGroup removes a connection from the named group. The group is removed
// as soon as its member set becomes empty. No-op for unknown groups.
func (r *Registry) LeaveGroup(groupID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.groups[groupID]
	if !ok {
		return
	}

	delete(members, connID)
	if len(members) == 0 {
		delete(r.groups, groupID)
	}
}

// SnapshotGroup returns the connection ids currently in the named group,
// excluding excludeConnID. Returns an empty slice for unknown groups.
func (r *Registry) SnapshotGroup(groupID, excludeConnID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.groups[groupID]

	ids := make([]string, 0, len(members))
	for connID := range members {
		if connID == excludeConnID {
			continue
		}
		ids = append(ids, connID)
	}
	return ids
}

// GroupIDs returns the ids of all groups that currently have members.
func (r *Registry) GroupIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.groups))
	for groupID := range r.groups {
		ids = append(ids, groupID)
	}
	return ids
}
