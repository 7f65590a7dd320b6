// Package selection owns the session's shared client/entity selection state.
// Every read of "which entity am I working in" flows through a Store snapshot,
// and every mutation flows through the Store's setters. Nothing else in the
// program writes this state.
package selection

import "errors"

// ErrInconsistentSelection reports an entity that does not belong to the
// current client. This is a programmer error: the selector UI only offers
// entities already scoped to the current client.
var ErrInconsistentSelection = errors.New("selection: entity does not belong to the current client")

// ErrNoCurrentClient reports an entity selection before any client is chosen.
var ErrNoCurrentClient = errors.New("selection: no client selected")

// Client is a top-level tenant in the accounting hierarchy.
type Client struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// Entity is a legal/accounting unit belonging to exactly one client.
type Entity struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ClientID string `json:"client_id"`
}

// State is a point-in-time snapshot of the selection. Loading true means the
// client or entity list is still unknown; consumers must not treat the
// Entities slice as empty while it is set.
type State struct {
	Clients       []Client
	Entities      []Entity
	CurrentClient *Client
	CurrentEntity *Entity
	Loading       bool
}

// ChangedEvent is emitted after every accepted mutation.
type ChangedEvent struct {
	CurrentClient *Client
	CurrentEntity *Entity
}

// Store holds the selection for a session. It is written only from the UI
// update loop, so it carries no lock of its own; async fetch results re-enter
// through ApplyClients/ApplyEntities on that same loop.
type Store struct {
	state State

	// client id the in-flight entity fetch was issued for; results for any
	// other id are stale and must be discarded
	fetchingFor string

	subs []func(ChangedEvent)
}

// NewStore starts in the loading state: lists unknown, nothing selected.
func NewStore() *Store {
	return &Store{state: State{Loading: true}}
}

// Subscribe registers an observer for accepted selection changes.
func (s *Store) Subscribe(fn func(ChangedEvent)) {
	if fn != nil {
		s.subs = append(s.subs, fn)
	}
}

// State returns a snapshot. The slices are shared and must be treated as
// read-only by consumers.
func (s *Store) State() State { return s.state }

// ApplyClients installs the loaded client list and ends the initial loading
// window when no entity fetch is pending.
func (s *Store) ApplyClients(clients []Client) {
	s.state.Clients = clients
	if s.fetchingFor == "" {
		s.state.Loading = false
	}
	s.emit()
}

// SetCurrentClient selects a client. The previously selected entity survives
// only if it belongs to the new client; otherwise it is cleared. The returned
// id names the client whose entity list must now be fetched; the store stays
// in the loading state until ApplyEntities delivers it.
func (s *Store) SetCurrentClient(c Client) (refetchFor string) {
	client := c
	s.state.CurrentClient = &client
	if s.state.CurrentEntity != nil && s.state.CurrentEntity.ClientID != c.ID {
		s.state.CurrentEntity = nil
	}
	s.state.Entities = nil
	s.state.Loading = true
	s.fetchingFor = c.ID
	s.emit()
	return c.ID
}

// SetCurrentEntity selects an entity under the current client. A mismatched
// entity is rejected without mutating state.
func (s *Store) SetCurrentEntity(e Entity) error {
	if s.state.CurrentClient == nil {
		return ErrNoCurrentClient
	}
	if e.ClientID != s.state.CurrentClient.ID {
		return ErrInconsistentSelection
	}
	entity := e
	s.state.CurrentEntity = &entity
	s.emit()
	return nil
}

// ClearCurrentEntity drops the entity selection, keeping the client.
func (s *Store) ClearCurrentEntity() {
	if s.state.CurrentEntity == nil {
		return
	}
	s.state.CurrentEntity = nil
	s.emit()
}

// ApplyEntities installs an entity list fetched for clientID. Results for a
// client that is no longer current are discarded; the caller learns this from
// the return value. A current entity that vanished from the list is cleared.
func (s *Store) ApplyEntities(clientID string, entities []Entity) (applied bool) {
	if s.state.CurrentClient == nil || s.state.CurrentClient.ID != clientID {
		return false
	}
	if s.fetchingFor == clientID {
		s.fetchingFor = ""
	}
	s.state.Entities = entities
	s.state.Loading = false
	if s.state.CurrentEntity != nil && !containsEntity(entities, s.state.CurrentEntity.ID) {
		s.state.CurrentEntity = nil
	}
	s.emit()
	return true
}

func containsEntity(entities []Entity, id string) bool {
	for _, e := range entities {
		if e.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) emit() {
	ev := ChangedEvent{CurrentClient: s.state.CurrentClient, CurrentEntity: s.state.CurrentEntity}
	for _, fn := range s.subs {
		fn(ev)
	}
}
