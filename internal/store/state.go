// Package store holds the in-memory workspace aggregate.
//
// State is not safe for concurrent use; the service layer serialises every
// operation behind one mutex. Persistence goes through Snapshot and
// Restore, never through State directly.
package store

import (
	"slices"

	"github.com/lalith-99/echohub/internal/models"
)

// Snapshot is the serialisable form of the whole workspace.
type Snapshot struct {
	Users        []*models.User        `json:"users"`
	Channels     []*models.Channel     `json:"channels"`
	DMs          []*models.DM          `json:"dms"`
	Workspace    models.WorkspaceStats `json:"workspaceStats"`
	MaxMessageID int                   `json:"maxId"`
	LastDMID     int                   `json:"lastDmId"`
}

type State struct {
	data Snapshot

	usersByID map[int]*models.User
	tokens    map[string]*models.User
	channels  map[int]*models.Channel
	dms       map[int]*models.DM
	messages  map[int]models.ContainerRef
}

func New() *State {
	return Restore(nil)
}

// Restore builds a State around snap and rebuilds every index from it.
// A nil snapshot yields an empty workspace. The State takes ownership of
// snap.
func Restore(snap *Snapshot) *State {
	if snap == nil {
		snap = &Snapshot{}
	}
	s := &State{data: *snap}
	s.reindex()
	return s
}

// Snapshot returns the live data. Callers must finish encoding it before
// the State is mutated again.
func (s *State) Snapshot() *Snapshot {
	return &s.data
}

// Reset discards everything.
func (s *State) Reset() {
	s.data = Snapshot{}
	s.reindex()
}

func (s *State) reindex() {
	s.usersByID = make(map[int]*models.User, len(s.data.Users))
	s.tokens = make(map[string]*models.User)
	s.channels = make(map[int]*models.Channel, len(s.data.Channels))
	s.dms = make(map[int]*models.DM, len(s.data.DMs))
	s.messages = make(map[int]models.ContainerRef)

	for _, u := range s.data.Users {
		s.usersByID[u.ID] = u
		for _, digest := range u.Tokens {
			s.tokens[digest] = u
		}
	}
	for _, c := range s.data.Channels {
		s.channels[c.ID] = c
		for _, m := range c.Messages {
			s.messages[m.ID] = c.Ref()
		}
	}
	for _, d := range s.data.DMs {
		s.dms[d.ID] = d
		for _, m := range d.Messages {
			s.messages[m.ID] = d.Ref()
		}
	}
}

// ---------------------------------------------------------------
// Users and sessions
// ---------------------------------------------------------------

func (s *State) Users() []*models.User { return s.data.Users }

func (s *State) UserCount() int { return len(s.data.Users) }

func (s *State) User(id int) (*models.User, bool) {
	u, ok := s.usersByID[id]
	return u, ok
}

func (s *State) UserByEmail(email string) (*models.User, bool) {
	for _, u := range s.data.Users {
		if u.Email == email {
			return u, true
		}
	}
	return nil, false
}

func (s *State) UserByHandle(handle string) (*models.User, bool) {
	for _, u := range s.data.Users {
		if u.Handle == handle {
			return u, true
		}
	}
	return nil, false
}

func (s *State) UserByResetCode(digest string) (*models.User, bool) {
	if digest == "" {
		return nil, false
	}
	for _, u := range s.data.Users {
		if u.ResetCode == digest {
			return u, true
		}
	}
	return nil, false
}

func (s *State) AddUser(u *models.User) {
	s.data.Users = append(s.data.Users, u)
	s.usersByID[u.ID] = u
	for _, digest := range u.Tokens {
		s.tokens[digest] = u
	}
}

// UserByToken resolves a session token digest.
func (s *State) UserByToken(digest string) (*models.User, bool) {
	u, ok := s.tokens[digest]
	return u, ok
}

func (s *State) TokenExists(digest string) bool {
	_, ok := s.tokens[digest]
	return ok
}

func (s *State) AddToken(u *models.User, digest string) {
	u.Tokens = append(u.Tokens, digest)
	s.tokens[digest] = u
}

// RemoveToken invalidates one session. It reports whether the digest was
// known.
func (s *State) RemoveToken(digest string) bool {
	u, ok := s.tokens[digest]
	if !ok {
		return false
	}
	delete(s.tokens, digest)
	u.Tokens = slices.DeleteFunc(u.Tokens, func(t string) bool { return t == digest })
	return true
}

// ClearTokens invalidates every session of u.
func (s *State) ClearTokens(u *models.User) {
	for _, digest := range u.Tokens {
		delete(s.tokens, digest)
	}
	u.Tokens = []string{}
}

// ---------------------------------------------------------------
// Channels and DMs
// ---------------------------------------------------------------

func (s *State) Channels() []*models.Channel { return s.data.Channels }

func (s *State) Channel(id int) (*models.Channel, bool) {
	c, ok := s.channels[id]
	return c, ok
}

// AddChannel assigns the next channel id and stores c.
func (s *State) AddChannel(c *models.Channel) {
	c.ID = len(s.data.Channels) + 1
	s.data.Channels = append(s.data.Channels, c)
	s.channels[c.ID] = c
}

func (s *State) DMs() []*models.DM { return s.data.DMs }

func (s *State) DM(id int) (*models.DM, bool) {
	d, ok := s.dms[id]
	return d, ok
}

// AddDM assigns the next DM id and stores d.
func (s *State) AddDM(d *models.DM) {
	s.data.LastDMID++
	d.ID = s.data.LastDMID
	s.data.DMs = append(s.data.DMs, d)
	s.dms[d.ID] = d
}

// RemoveDM hard-deletes a DM together with its messages.
func (s *State) RemoveDM(id int) (*models.DM, bool) {
	d, ok := s.dms[id]
	if !ok {
		return nil, false
	}
	for _, m := range d.Messages {
		delete(s.messages, m.ID)
	}
	delete(s.dms, id)
	s.data.DMs = slices.DeleteFunc(s.data.DMs, func(x *models.DM) bool { return x.ID == id })
	return d, true
}

func (s *State) Container(ref models.ContainerRef) (models.Container, bool) {
	switch ref.Kind {
	case models.KindChannel:
		if c, ok := s.channels[ref.ID]; ok {
			return c, true
		}
	case models.KindDM:
		if d, ok := s.dms[ref.ID]; ok {
			return d, true
		}
	}
	return nil, false
}

// ---------------------------------------------------------------
// Messages
// ---------------------------------------------------------------

// NextMessageID hands out the next id of the global message counter.
func (s *State) NextMessageID() int {
	s.data.MaxMessageID++
	return s.data.MaxMessageID
}

func (s *State) AppendMessage(c models.Container, m *models.Message) {
	list := c.MessageList()
	*list = append(*list, m)
	s.messages[m.ID] = c.Ref()
}

// FindMessage returns the message with id and the container holding it.
func (s *State) FindMessage(id int) (*models.Message, models.Container, bool) {
	ref, ok := s.messages[id]
	if !ok {
		return nil, nil, false
	}
	c, ok := s.Container(ref)
	if !ok {
		return nil, nil, false
	}
	for _, m := range *c.MessageList() {
		if m.ID == id {
			return m, c, true
		}
	}
	return nil, nil, false
}

func (s *State) RemoveMessage(id int) bool {
	_, c, ok := s.FindMessage(id)
	if !ok {
		return false
	}
	list := c.MessageList()
	*list = slices.DeleteFunc(*list, func(m *models.Message) bool { return m.ID == id })
	delete(s.messages, id)
	return true
}

func (s *State) TotalMessages() int {
	return len(s.messages)
}

// ---------------------------------------------------------------
// Workspace statistics
// ---------------------------------------------------------------

func (s *State) Workspace() *models.WorkspaceStats { return &s.data.Workspace }
