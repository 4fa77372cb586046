package domain

import "time"

// Member represents a connection's participation meta for a room.
// No transport or lifecycle logic here.
type Member struct {
	SID      SessionID `json:"sid"`
	Client   ClientID  `json:"client"`
	JoinedAt time.Time `json:"joined_at"`
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(sid SessionID, client ClientID) *Member {
	return &Member{SID: sid, Client: client, JoinedAt: time.Now().UTC()}
}
