package ws

import (
	"encoding/json"
	"errors"
	"log"

	"parley/internal/models"
	"parley/internal/store"
)

// Hub owns every piece of shared messaging state: the client set, the
// connection registry and online map, room and private-channel membership,
// and typing sets. A single Run goroutine processes one event at a time, so
// none of that state needs locking and disconnect cleanup is atomic with
// respect to other events.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	presenceQ  chan chan []models.OnlineUser

	clients  map[*Client]bool
	registry *Registry
	rooms    *RoomState
	typing   *TypingState

	store store.Store
}

func NewHub(store store.Store) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound),
		presenceQ:  make(chan chan []models.OnlineUser),
		clients:    make(map[*Client]bool),
		registry:   NewRegistry(),
		rooms:      NewRoomState(),
		typing:     NewTypingState(),
		store:      store,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			log.Printf("client %s connected (%d total)", client.id, len(h.clients))
		case client := <-h.unregister:
			h.handleDisconnect(client)
		case in := <-h.inbound:
			h.dispatch(in)
		case reply := <-h.presenceQ:
			reply <- h.registry.OnlineList()
		}
	}
}

// OnlineUsers returns the current presence snapshot. Safe to call from any
// goroutine; the request is answered by the hub loop.
func (h *Hub) OnlineUsers() []models.OnlineUser {
	reply := make(chan []models.OnlineUser, 1)
	h.presenceQ <- reply
	return <-reply
}

func (h *Hub) dispatch(in inbound) {
	c, env := in.client, in.env
	if !h.clients[c] {
		return
	}

	switch env.Event {
	case "registerUser":
		var args registerUserArgs
		if json.Unmarshal(env.Data, &args) != nil {
			h.errorTo(c, "Invalid registration data: userId, firstName, and lastName are required")
			return
		}
		h.handleRegisterUser(c, args)
	case "joinRoom":
		var args joinRoomArgs
		if json.Unmarshal(env.Data, &args) != nil {
			h.errorTo(c, "Invalid join data: room, userId, firstName, and lastName are required")
			return
		}
		h.handleJoinRoom(c, args)
	case "joinPrivateRoom":
		var args joinPrivateRoomArgs
		if json.Unmarshal(env.Data, &args) != nil {
			h.ack(c, env.Ack, joinAck{Success: false, Error: "Invalid private room data"})
			return
		}
		h.handleJoinPrivateRoom(c, env.Ack, args)
	case "leavePrivateRoom":
		var args leavePrivateRoomArgs
		if json.Unmarshal(env.Data, &args) != nil {
			h.errorTo(c, "Invalid leave data")
			return
		}
		h.handleLeavePrivateRoom(c, args)
	case "sendMessage":
		var args sendMessageArgs
		if json.Unmarshal(env.Data, &args) != nil {
			h.messageErrorTo(c, "Failed to send message.")
			return
		}
		h.handleSendMessage(c, args)
	case "privateMessage":
		var args privateMessageArgs
		if json.Unmarshal(env.Data, &args) != nil {
			h.ack(c, env.Ack, messageAck{Success: false, Error: "Invalid message data."})
			return
		}
		h.handlePrivateMessage(c, env.Ack, args)
	case "getPrivateMessages":
		var args getPrivateMessagesArgs
		if json.Unmarshal(env.Data, &args) != nil {
			h.messageErrorTo(c, "Invalid user IDs")
			return
		}
		h.handleGetPrivateMessages(c, args)
	case "editMessage":
		var args editMessageArgs
		if json.Unmarshal(env.Data, &args) != nil {
			h.messageErrorTo(c, "Failed to edit message.")
			return
		}
		h.handleEditMessage(c, args)
	case "deleteMessage":
		var args deleteMessageArgs
		if json.Unmarshal(env.Data, &args) != nil {
			h.messageErrorTo(c, "Failed to delete message.")
			return
		}
		h.handleDeleteMessage(c, args)
	case "typing":
		var args typingArgs
		if json.Unmarshal(env.Data, &args) == nil {
			h.handleTyping(c, args, true)
		}
	case "stopTyping":
		var args typingArgs
		if json.Unmarshal(env.Data, &args) == nil {
			h.handleTyping(c, args, false)
		}
	default:
		log.Printf("client %s sent unknown event %q", c.id, env.Event)
	}
}

// lookupActiveUser re-validates an identity against the persistence gateway.
// Every state-changing action goes through it so banned accounts are cut off
// immediately, not just at registration.
func (h *Hub) lookupActiveUser(userID string) (*models.User, error) {
	user, err := h.store.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user.Banned {
		return nil, errUserBanned
	}
	return user, nil
}

var errUserBanned = errors.New("user banned")

func (h *Hub) handleRegisterUser(c *Client, args registerUserArgs) {
	if args.UserID == "" || args.UserID == "undefined" || args.FirstName == "" || args.LastName == "" {
		h.errorTo(c, "Invalid registration data: userId, firstName, and lastName are required")
		return
	}

	user, err := h.lookupActiveUser(args.UserID)
	if err != nil {
		h.errorTo(c, verifyErrorText(err))
		return
	}

	h.bindIdentity(c, args.UserID, args.FirstName, args.LastName)

	avatar := args.ProfilePicture
	if avatar == "" {
		avatar = user.ProfilePicture
	}
	if avatar == "" {
		avatar = models.DefaultAvatar
	}

	if h.registry.EnsureOnline(models.OnlineUser{
		UserID:         args.UserID,
		FullName:       c.fullName(),
		ProfilePicture: avatar,
	}) {
		h.broadcastAll("onlineUsers", h.registry.OnlineList())
	}
	h.emit(c, "onlineUsers", h.registry.OnlineList())
	log.Printf("user %s (%s) registered on client %s", c.fullName(), args.UserID, c.id)
}

func (h *Hub) handleJoinRoom(c *Client, args joinRoomArgs) {
	if args.Room == "" || args.UserID == "" || args.UserID == "undefined" || args.FirstName == "" || args.LastName == "" {
		h.errorTo(c, "Invalid join data: room, userId, firstName, and lastName are required")
		return
	}

	user, err := h.lookupActiveUser(args.UserID)
	if err != nil {
		h.errorTo(c, verifyErrorText(err))
		return
	}

	h.bindIdentity(c, args.UserID, args.FirstName, args.LastName)
	fullName := c.fullName()

	// At most one public room per connection: joining implies leaving.
	if prev := c.currentRoom; prev != "" && prev != args.Room {
		h.leavePublicRoom(c, prev)
	}

	c.currentRoom = args.Room
	c.scopes[args.Room] = struct{}{}
	h.rooms.AddPublic(args.Room, fullName)

	h.toScopeExcept(args.Room, c, "userJoined", userEvent{Username: fullName, Room: args.Room})
	log.Printf("%s (%s) joined room %s", fullName, args.UserID, args.Room)

	if h.registry.EnsureOnline(models.OnlineUser{
		UserID:         args.UserID,
		FullName:       fullName,
		ProfilePicture: user.ProfilePicture,
	}) {
		h.broadcastAll("onlineUsers", h.registry.OnlineList())
	}
	h.emit(c, "onlineUsers", h.registry.OnlineList())
}

// leavePublicRoom emits the departure notices and clears room-scoped state
// for c. The caller updates c.currentRoom.
func (h *Hub) leavePublicRoom(c *Client, room string) {
	fullName := c.fullName()
	delete(c.scopes, room)
	h.rooms.RemovePublic(room, fullName)
	h.toScopeExcept(room, c, "userLeft", userEvent{Username: fullName, Room: room})
	if h.typing.Remove(room, fullName) {
		h.toScopeExcept(room, c, "userStoppedTyping", typingEvent{Username: fullName, Room: room})
	}
}

func (h *Hub) handleJoinPrivateRoom(c *Client, ackID int64, args joinPrivateRoomArgs) {
	if args.SenderID == "" || args.ReceiverID == "" || args.SenderFirstName == "" || args.SenderLastName == "" {
		h.ack(c, ackID, joinAck{Success: false, Error: "Invalid private room data"})
		return
	}

	sender, senderErr := h.store.GetUserByID(args.SenderID)
	receiver, receiverErr := h.store.GetUserByID(args.ReceiverID)
	if errors.Is(senderErr, store.ErrNotFound) || errors.Is(receiverErr, store.ErrNotFound) {
		h.ack(c, ackID, joinAck{Success: false, Error: "User not found"})
		return
	}
	if senderErr != nil || receiverErr != nil {
		h.ack(c, ackID, joinAck{Success: false, Error: "Failed to validate users"})
		return
	}
	if sender.Banned || receiver.Banned {
		h.ack(c, ackID, joinAck{Success: false, Error: "One or both users are banned"})
		return
	}

	channelID := PrivateRoomID(args.SenderID, args.ReceiverID)

	// Idempotent: a connection may hold many private channels at once.
	if !c.inScope(channelID) {
		c.scopes[channelID] = struct{}{}
		h.bindIdentity(c, args.SenderID, args.SenderFirstName, args.SenderLastName)
		h.rooms.AddPrivate(channelID, args.SenderID)
		log.Printf("%s (%s) joined private channel %s", c.fullName(), args.SenderID, channelID)
	}

	// Pull the receiver's live sockets into the channel so an online peer
	// gets the conversation immediately.
	for _, rc := range h.registry.Conns(args.ReceiverID) {
		if !rc.inScope(channelID) {
			rc.scopes[channelID] = struct{}{}
			h.rooms.AddPrivate(channelID, args.ReceiverID)
		}
	}

	h.ack(c, ackID, joinAck{Success: true, Message: "Joined private room", Room: channelID, UserID: args.SenderID})
}

func (h *Hub) handleLeavePrivateRoom(c *Client, args leavePrivateRoomArgs) {
	if args.SenderID == "" || args.ReceiverID == "" {
		h.errorTo(c, "Invalid leave data")
		return
	}

	channelID := PrivateRoomID(args.SenderID, args.ReceiverID)
	if c.inScope(channelID) {
		delete(c.scopes, channelID)
		h.dropPrivateMember(channelID, args.SenderID, c)
	}
}

// dropPrivateMember removes userID from the channel member set, unless another
// of their connections is still subscribed. Membership means "at least one
// connection joined", so one socket leaving must not evict a multi-socket user.
func (h *Hub) dropPrivateMember(channelID, userID string, leaving *Client) {
	for _, rc := range h.registry.Conns(userID) {
		if rc != leaving && rc.inScope(channelID) {
			return
		}
	}
	h.rooms.RemovePrivate(channelID, userID)
}

func (h *Hub) handleTyping(c *Client, args typingArgs, start bool) {
	fullName := args.FirstName + " " + args.LastName

	var scope string
	var payload typingEvent
	switch {
	case args.Room != "":
		scope = args.Room
		payload = typingEvent{Username: fullName, Room: args.Room}
	case args.SenderID != "" && args.ReceiverID != "":
		scope = PrivateRoomID(args.SenderID, args.ReceiverID)
		payload = typingEvent{Username: fullName, SenderID: args.SenderID, ReceiverID: args.ReceiverID}
	default:
		return
	}

	if start {
		h.typing.Add(scope, fullName)
		h.toScopeExcept(scope, c, "userTyping", payload)
	} else if h.typing.Remove(scope, fullName) {
		h.toScopeExcept(scope, c, "userStoppedTyping", payload)
	}
}

// handleDisconnect removes the client from every index it participated in,
// all within one loop turn so no stale presence or typing entries survive.
func (h *Hub) handleDisconnect(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)

	fullName := c.fullName()
	if room := c.currentRoom; room != "" {
		h.rooms.RemovePublic(room, fullName)
		h.toScope(room, "userLeft", userEvent{Username: fullName, Room: room})
		if h.typing.Remove(room, fullName) {
			h.toScope(room, "userStoppedTyping", typingEvent{Username: fullName, Room: room})
		}
	}

	for scope := range c.scopes {
		if scope == c.currentRoom {
			continue
		}
		h.dropPrivateMember(scope, c.userID, c)
		if h.typing.Remove(scope, fullName) {
			h.toScope(scope, "userStoppedTyping", typingEvent{Username: fullName, Room: scope})
		}
	}

	if h.registry.RemoveConn(c) {
		h.broadcastAll("onlineUsers", h.registry.OnlineList())
		log.Printf("user %s (%s) is offline", fullName, c.userID)
	}
	log.Printf("client %s disconnected (%d total)", c.id, len(h.clients))
}

// bindIdentity attaches a user identity to the connection and indexes it.
// Rebinding to a different user first releases the old binding so the
// previous user's presence cannot leak.
func (h *Hub) bindIdentity(c *Client, userID, firstName, lastName string) {
	if c.userID == userID {
		c.firstName = firstName
		c.lastName = lastName
		return
	}
	if c.userID != "" {
		if h.registry.RemoveConn(c) {
			h.broadcastAll("onlineUsers", h.registry.OnlineList())
		}
	}
	c.userID = userID
	c.firstName = firstName
	c.lastName = lastName
	h.registry.AddConn(c)
}

// emit marshals and queues one event for a single client. A client whose send
// buffer is full is considered dead and is cleaned up immediately.
func (h *Hub) emit(c *Client, event string, data any) {
	h.emitEnvelope(c, envelope{Event: event}, data)
}

// ack answers a request/response-shaped event on its correlation id.
func (h *Hub) ack(c *Client, ackID int64, data any) {
	h.emitEnvelope(c, envelope{Event: "ack", Ack: ackID}, data)
}

func (h *Hub) emitEnvelope(c *Client, env envelope, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("marshal %s payload: %v", env.Event, err)
		return
	}
	env.Data = raw
	frame, err := json.Marshal(env)
	if err != nil {
		log.Printf("marshal %s envelope: %v", env.Event, err)
		return
	}

	if !h.clients[c] {
		return
	}
	select {
	case c.send <- frame:
	default:
		h.handleDisconnect(c)
	}
}

func (h *Hub) errorTo(c *Client, text string) {
	h.emit(c, "error", text)
}

func (h *Hub) messageErrorTo(c *Client, text string) {
	h.emit(c, "messageError", text)
}

func (h *Hub) broadcastAll(event string, data any) {
	for c := range h.clients {
		h.emit(c, event, data)
	}
}

// toScope fans an event out to every connection subscribed to the scope.
func (h *Hub) toScope(scope, event string, data any) {
	for c := range h.clients {
		if c.inScope(scope) {
			h.emit(c, event, data)
		}
	}
}

func (h *Hub) toScopeExcept(scope string, except *Client, event string, data any) {
	for c := range h.clients {
		if c != except && c.inScope(scope) {
			h.emit(c, event, data)
		}
	}
}

func verifyErrorText(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "User not found"
	case errors.Is(err, errUserBanned):
		return "User is banned"
	default:
		return "Failed to verify user"
	}
}
