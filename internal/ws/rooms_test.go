package ws

import "testing"

func TestPrivateRoomIDCanonical(t *testing.T) {
	a := PrivateRoomID("u2", "u1")
	b := PrivateRoomID("u1", "u2")
	if a != b {
		t.Errorf("channel id must not depend on argument order: %q vs %q", a, b)
	}
	if a != "private_u1_u2" {
		t.Errorf("unexpected channel id %q", a)
	}
}

func TestPublicMembership(t *testing.T) {
	s := NewRoomState()
	s.AddPublic("general", "Ada Lovelace")
	s.AddPublic("general", "Alan Turing")

	if !s.InPublic("general", "Ada Lovelace") {
		t.Error("Ada should be in general")
	}
	members := s.members("general")
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %v", members)
	}

	s.RemovePublic("general", "Ada Lovelace")
	if s.InPublic("general", "Ada Lovelace") {
		t.Error("Ada should have left general")
	}
	s.RemovePublic("general", "Alan Turing")
	if s.InPublic("general", "Alan Turing") {
		t.Error("room should be empty")
	}
}

func TestPrivateMembership(t *testing.T) {
	s := NewRoomState()
	ch := PrivateRoomID("u1", "u2")

	if s.HasPrivate(ch) {
		t.Error("channel should start empty")
	}
	s.AddPrivate(ch, "u1")
	if !s.HasPrivate(ch) || !s.InPrivate(ch, "u1") {
		t.Error("u1 should be subscribed")
	}
	s.RemovePrivate(ch, "u1")
	if s.HasPrivate(ch) {
		t.Error("channel should be empty after the only member left")
	}
}
