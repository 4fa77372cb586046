package core

import (
	"slices"
	"sync"

	"github.com/dkeye/fastcall/internal/domain"
	"github.com/rs/zerolog/log"
)

type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"client_count"`
}

// room keeps members in join order so snapshots are deterministic.
type room struct {
	order   []domain.SessionID
	members map[domain.SessionID]MemberSession
}

func newRoom() *room {
	return &room{members: make(map[domain.SessionID]MemberSession)}
}

func (r *room) add(ms MemberSession) {
	r.order = append(r.order, ms.ID())
	r.members[ms.ID()] = ms
}

func (r *room) remove(sid domain.SessionID) bool {
	if _, ok := r.members[sid]; !ok {
		return false
	}
	delete(r.members, sid)
	if i := slices.Index(r.order, sid); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	return true
}

func (r *room) snapshot() []MemberSession {
	out := make([]MemberSession, 0, len(r.order))
	for _, sid := range r.order {
		out = append(out, r.members[sid])
	}
	return out
}

// Registry maps room names to their member sessions. Rooms exist only
// while they have at least one member, and a session is in at most one
// room at a time. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomName]*room
	where map[domain.SessionID]domain.RoomName
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[domain.RoomName]*room),
		where: make(map[domain.SessionID]domain.RoomName),
	}
}

// Join adds ms to the named room, creating the room if absent. Joining a
// room the session is already in is a no-op and reports false. A session
// that is in another room is moved out of it first.
func (g *Registry) Join(name domain.RoomName, ms MemberSession) bool {
	sid := ms.ID()
	g.mu.Lock()
	defer g.mu.Unlock()

	if cur, ok := g.where[sid]; ok {
		if cur == name {
			return false
		}
		g.leaveLocked(cur, sid)
		log.Info().Str("module", "core.registry").Str("sid", string(sid)).Str("from_room", string(cur)).Msg("moved out of room")
	}

	rm, ok := g.rooms[name]
	if !ok {
		rm = newRoom()
		g.rooms[name] = rm
		log.Info().Str("module", "core.registry").Str("room", string(name)).Msg("room created")
	}
	rm.add(ms)
	g.where[sid] = name
	log.Debug().Str("module", "core.registry").Str("room", string(name)).Str("sid", string(sid)).Int("members", len(rm.members)).Msg("member joined")
	return true
}

// Leave removes sid from the named room and reports whether it was a
// member. The room is deleted when its last member leaves.
func (g *Registry) Leave(name domain.RoomName, sid domain.SessionID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.leaveLocked(name, sid)
}

func (g *Registry) leaveLocked(name domain.RoomName, sid domain.SessionID) bool {
	rm, ok := g.rooms[name]
	if !ok || !rm.remove(sid) {
		return false
	}
	if g.where[sid] == name {
		delete(g.where, sid)
	}
	log.Debug().Str("module", "core.registry").Str("room", string(name)).Str("sid", string(sid)).Int("members", len(rm.members)).Msg("member left")
	if len(rm.members) == 0 {
		delete(g.rooms, name)
		log.Info().Str("module", "core.registry").Str("room", string(name)).Msg("room closed")
	}
	return true
}

// Members returns a copy of the room's members in join order, or nil if
// the room does not exist.
func (g *Registry) Members(name domain.RoomName) []MemberSession {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rm, ok := g.rooms[name]
	if !ok {
		return nil
	}
	return rm.snapshot()
}

func (g *Registry) Exists(name domain.RoomName) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.rooms[name]
	return ok
}

func (g *Registry) RoomOf(sid domain.SessionID) (domain.RoomName, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	name, ok := g.where[sid]
	return name, ok
}

func (g *Registry) RoomCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// List returns every live room sorted by name.
func (g *Registry) List() []RoomInfo {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]RoomInfo, 0, len(g.rooms))
	for name, rm := range g.rooms {
		out = append(out, RoomInfo{Name: name, MemberCount: len(rm.members)})
	}
	slices.SortFunc(out, func(a, b RoomInfo) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return out
}
