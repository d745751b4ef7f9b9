package ws

import (
	"sort"

	"parley/internal/models"
)

// Registry indexes live connections by user identity and owns the online set.
// A user is online while at least one of their connections is registered.
// All methods are called only from the hub goroutine.
type Registry struct {
	userConns map[string]map[*Client]struct{}
	online    map[string]models.OnlineUser
}

func NewRegistry() *Registry {
	return &Registry{
		userConns: make(map[string]map[*Client]struct{}),
		online:    make(map[string]models.OnlineUser),
	}
}

// AddConn indexes c under its bound user id.
func (r *Registry) AddConn(c *Client) {
	if c.userID == "" {
		return
	}
	conns, ok := r.userConns[c.userID]
	if !ok {
		conns = make(map[*Client]struct{})
		r.userConns[c.userID] = conns
	}
	conns[c] = struct{}{}
}

// RemoveConn drops c from the index. When it was the user's last connection
// the online entry is removed too and true is returned, signalling that an
// offline presence broadcast is due.
func (r *Registry) RemoveConn(c *Client) bool {
	if c.userID == "" {
		return false
	}
	conns, ok := r.userConns[c.userID]
	if !ok {
		return false
	}
	delete(conns, c)
	if len(conns) > 0 {
		return false
	}
	delete(r.userConns, c.userID)
	delete(r.online, c.userID)
	return true
}

// EnsureOnline records the user's presence entry. Returns true when the user
// just transitioned Offline -> Online.
func (r *Registry) EnsureOnline(u models.OnlineUser) bool {
	if _, ok := r.online[u.UserID]; ok {
		return false
	}
	r.online[u.UserID] = u
	return true
}

func (r *Registry) IsOnline(userID string) bool {
	_, ok := r.online[userID]
	return ok
}

// Conns returns the user's live connections.
func (r *Registry) Conns(userID string) []*Client {
	conns := r.userConns[userID]
	if len(conns) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(conns))
	for c := range conns {
		out = append(out, c)
	}
	return out
}

// OnlineList returns the full presence snapshot, ordered by user id so
// repeated snapshots are stable.
func (r *Registry) OnlineList() []models.OnlineUser {
	out := make([]models.OnlineUser, 0, len(r.online))
	for _, u := range r.online {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}
