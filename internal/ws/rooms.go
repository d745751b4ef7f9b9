package ws

import "sort"

// RoomState tracks who is in which scope: display names per public room and
// user ids per private channel. Fan-out itself walks client subscriptions;
// these sets back the join/leave notices and the "both participants present"
// check for private delivery. Hub-goroutine only.
type RoomState struct {
	publicMembers  map[string]map[string]struct{}
	privateMembers map[string]map[string]struct{}
}

func NewRoomState() *RoomState {
	return &RoomState{
		publicMembers:  make(map[string]map[string]struct{}),
		privateMembers: make(map[string]map[string]struct{}),
	}
}

// PrivateRoomID computes the canonical channel id for a user pair. Both
// participants derive the same id regardless of argument order.
func PrivateRoomID(userID1, userID2 string) string {
	ids := []string{userID1, userID2}
	sort.Strings(ids)
	return "private_" + ids[0] + "_" + ids[1]
}

func (s *RoomState) AddPublic(room, fullName string) {
	members, ok := s.publicMembers[room]
	if !ok {
		members = make(map[string]struct{})
		s.publicMembers[room] = members
	}
	members[fullName] = struct{}{}
}

func (s *RoomState) RemovePublic(room, fullName string) {
	if members, ok := s.publicMembers[room]; ok {
		delete(members, fullName)
		if len(members) == 0 {
			delete(s.publicMembers, room)
		}
	}
}

func (s *RoomState) InPublic(room, fullName string) bool {
	_, ok := s.publicMembers[room][fullName]
	return ok
}

// members returns the display names currently joined to a room, sorted.
func (s *RoomState) members(room string) []string {
	members := s.publicMembers[room]
	out := make([]string, 0, len(members))
	for name := range members {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s *RoomState) AddPrivate(channelID, userID string) {
	members, ok := s.privateMembers[channelID]
	if !ok {
		members = make(map[string]struct{})
		s.privateMembers[channelID] = members
	}
	members[userID] = struct{}{}
}

func (s *RoomState) RemovePrivate(channelID, userID string) {
	if members, ok := s.privateMembers[channelID]; ok {
		delete(members, userID)
		if len(members) == 0 {
			delete(s.privateMembers, channelID)
		}
	}
}

// HasPrivate reports whether any participant is subscribed to the channel.
func (s *RoomState) HasPrivate(channelID string) bool {
	return len(s.privateMembers[channelID]) > 0
}

func (s *RoomState) InPrivate(channelID, userID string) bool {
	_, ok := s.privateMembers[channelID][userID]
	return ok
}
