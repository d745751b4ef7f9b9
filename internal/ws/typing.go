package ws

import "sort"

// TypingState is the ephemeral set of display names composing per scope
// (public room name or private channel id). There is no server-side TTL;
// entries are cleared by stopTyping, by sending, by leaving the scope, or by
// disconnect. Hub-goroutine only.
type TypingState struct {
	scopes map[string]map[string]struct{}
}

func NewTypingState() *TypingState {
	return &TypingState{scopes: make(map[string]map[string]struct{})}
}

func (t *TypingState) Add(scope, fullName string) {
	names, ok := t.scopes[scope]
	if !ok {
		names = make(map[string]struct{})
		t.scopes[scope] = names
	}
	names[fullName] = struct{}{}
}

// Remove clears the entry and reports whether the scope had any typing state
// at all, mirroring the notify-on-known-scope behavior of the wire contract.
func (t *TypingState) Remove(scope, fullName string) bool {
	names, ok := t.scopes[scope]
	if !ok {
		return false
	}
	delete(names, fullName)
	if len(names) == 0 {
		delete(t.scopes, scope)
	}
	return true
}

func (t *TypingState) typists(scope string) []string {
	names := t.scopes[scope]
	out := make([]string, 0, len(names))
	for name := range names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
