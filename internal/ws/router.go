package ws

import (
	"errors"
	"log"
	"strings"

	"parley/internal/models"
	"parley/internal/store"
)

// snippetMaxLen caps the preview text carried by privateMessageNotification.
const snippetMaxLen = 100

func (h *Hub) handleSendMessage(c *Client, args sendMessageArgs) {
	if args.Text == "" && args.FileURL == "" {
		h.messageErrorTo(c, "Message cannot be empty.")
		return
	}

	if _, err := h.lookupActiveUser(args.UserID); err != nil {
		h.errorTo(c, verifyErrorText(err))
		return
	}

	replyTo, err := h.replySnapshot(args.ReplyTo)
	if err != nil {
		h.messageErrorTo(c, replyErrorText(err))
		return
	}

	msg := &models.Message{
		SenderID:  args.UserID,
		FirstName: args.FirstName,
		LastName:  args.LastName,
		Room:      args.Room,
		Text:      args.Text,
		ChatType:  models.ChatTypeRoom,
		FileURL:   args.FileURL,
		FileType:  args.FileType,
		FileName:  args.FileName,
		ReplyTo:   replyTo,
	}
	if _, err := h.store.SaveMessage(msg); err != nil {
		log.Printf("save room message: %v", err)
		h.messageErrorTo(c, "Failed to send message.")
		return
	}

	// Sending implies no longer composing.
	fullName := msg.SenderName()
	if h.typing.Remove(args.Room, fullName) {
		h.toScopeExcept(args.Room, c, "userStoppedTyping", typingEvent{Username: fullName, Room: args.Room})
	}

	h.toScope(args.Room, "receiveMessage", roomWire(msg, args.ID))
	log.Printf("message %s sent to room %s by %s", msg.ID, args.Room, fullName)
}

func (h *Hub) handlePrivateMessage(c *Client, ackID int64, args privateMessageArgs) {
	if args.Text == "" && args.FileURL == "" {
		h.ack(c, ackID, messageAck{Success: false, Error: "Private message cannot be empty."})
		return
	}
	if args.SenderID == "" || args.ReceiverID == "" || args.SenderFirstName == "" || args.SenderLastName == "" {
		h.ack(c, ackID, messageAck{Success: false, Error: "Invalid message data."})
		return
	}

	sender, senderErr := h.store.GetUserByID(args.SenderID)
	receiver, receiverErr := h.store.GetUserByID(args.ReceiverID)
	if errors.Is(senderErr, store.ErrNotFound) || errors.Is(receiverErr, store.ErrNotFound) {
		h.ack(c, ackID, messageAck{Success: false, Error: "User not found"})
		return
	}
	if senderErr != nil || receiverErr != nil {
		h.ack(c, ackID, messageAck{Success: false, Error: "Failed to verify users"})
		return
	}
	if sender.Banned || receiver.Banned {
		h.ack(c, ackID, messageAck{Success: false, Error: "One or both users are banned"})
		return
	}

	// The client may omit the receiver's name; the stored document is the
	// authoritative fallback.
	receiverFirst, receiverLast := args.ReceiverFirstName, args.ReceiverLastName
	if receiverFirst == "" || receiverLast == "" {
		receiverFirst, receiverLast = receiver.FirstName, receiver.LastName
	}

	replyTo, err := h.replySnapshot(args.ReplyTo)
	if err != nil {
		h.ack(c, ackID, messageAck{Success: false, Error: replyErrorText(err)})
		return
	}

	msg := &models.Message{
		SenderID:          args.SenderID,
		FirstName:         args.SenderFirstName,
		LastName:          args.SenderLastName,
		ReceiverID:        args.ReceiverID,
		ReceiverFirstName: receiverFirst,
		ReceiverLastName:  receiverLast,
		Text:              args.Text,
		ChatType:          models.ChatTypePrivate,
		FileURL:           args.FileURL,
		FileType:          args.FileType,
		FileName:          args.FileName,
		ReplyTo:           replyTo,
	}
	if _, err := h.store.SaveMessage(msg); err != nil {
		log.Printf("save private message: %v", err)
		h.ack(c, ackID, messageAck{Success: false, Error: "Failed to send private message."})
		return
	}

	channelID := PrivateRoomID(args.SenderID, args.ReceiverID)
	wire := privateWire(msg, args.ID)

	// The sender always sees their own message immediately; clients
	// de-duplicate by _id when the channel fan-out reaches them too.
	h.emit(c, "receivePrivateMessage", wire)
	if h.rooms.HasPrivate(channelID) {
		h.toScope(channelID, "receivePrivateMessage", wire)
	}

	// A receiver connection that has not opened the conversation gets a
	// lightweight notification instead of the live message.
	h.notifyReceiver(msg, channelID)

	h.ack(c, ackID, messageAck{Success: true, MessageID: msg.ID})
}

func (h *Hub) notifyReceiver(msg *models.Message, channelID string) {
	conns := h.registry.Conns(msg.ReceiverID)
	if len(conns) == 0 {
		return
	}

	content := msg.Text
	if content == "" {
		name := msg.FileName
		if name == "" {
			name = "Shared File"
		}
		content = "[File: " + name + "]"
	}

	note := notificationEvent{
		SenderID:       msg.SenderID,
		SenderUsername: msg.SenderName(),
		MessageSnippet: snippet(content),
		FullMessageID:  msg.ID,
		ChatType:       models.ChatTypePrivate,
		Timestamp:      wireTimestamp(msg.CreatedAt),
		FileURL:        msg.FileURL,
		FileType:       msg.FileType,
		FileName:       msg.FileName,
	}
	for _, rc := range conns {
		if !rc.inScope(channelID) {
			h.emit(rc, "privateMessageNotification", note)
		}
	}
}

func snippet(content string) string {
	runes := []rune(content)
	if len(runes) <= snippetMaxLen {
		return content
	}
	return string(runes[:snippetMaxLen-3]) + "..."
}

func (h *Hub) handleGetPrivateMessages(c *Client, args getPrivateMessagesArgs) {
	if args.User1ID == "" || args.User2ID == "" {
		h.messageErrorTo(c, "Invalid user IDs")
		return
	}

	messages, err := h.store.GetMessagesBetween(args.User1ID, args.User2ID)
	if err != nil {
		log.Printf("fetch private history: %v", err)
		h.messageErrorTo(c, "Failed to fetch private messages.")
		return
	}

	wires := make([]wireMessage, 0, len(messages))
	for i := range messages {
		wires = append(wires, privateWire(&messages[i], ""))
	}
	h.emit(c, "historicalPrivateMessages", wires)
}

func (h *Hub) handleEditMessage(c *Client, args editMessageArgs) {
	msg, err := h.store.GetMessageByID(args.MessageID)
	if errors.Is(err, store.ErrNotFound) {
		h.messageErrorTo(c, "Message not found.")
		return
	}
	if err != nil {
		log.Printf("load message %s for edit: %v", args.MessageID, err)
		h.messageErrorTo(c, "Failed to edit message.")
		return
	}
	if msg.SenderID != args.UserID {
		h.messageErrorTo(c, "Not authorized to edit this message.")
		return
	}
	// A file-only message cannot be edited down to nothing.
	if msg.FileURL != "" && strings.TrimSpace(args.NewText) == "" {
		h.messageErrorTo(c, "Cannot edit a message that is solely a file.")
		return
	}

	if err := h.store.UpdateMessageText(msg.ID, args.NewText); err != nil {
		log.Printf("update message %s: %v", msg.ID, err)
		h.messageErrorTo(c, "Failed to edit message.")
		return
	}
	msg.Text = args.NewText
	msg.IsEdited = true

	h.toScope(messageScope(msg), "messageEdited", editedWire(msg))
	log.Printf("message %s edited by %s", msg.ID, args.UserID)
}

func (h *Hub) handleDeleteMessage(c *Client, args deleteMessageArgs) {
	msg, err := h.store.GetMessageByID(args.MessageID)
	if errors.Is(err, store.ErrNotFound) {
		h.messageErrorTo(c, "Message not found.")
		return
	}
	if err != nil {
		log.Printf("load message %s for delete: %v", args.MessageID, err)
		h.messageErrorTo(c, "Failed to delete message.")
		return
	}
	if msg.SenderID != args.UserID {
		h.messageErrorTo(c, "Not authorized to delete this message.")
		return
	}

	if err := h.store.DeleteMessage(msg.ID); err != nil {
		log.Printf("delete message %s: %v", msg.ID, err)
		h.messageErrorTo(c, "Failed to delete message.")
		return
	}

	h.toScope(messageScope(msg), "messageDeleted", messageDeletedEvent{MessageID: msg.ID})
	log.Printf("message %s deleted by %s", msg.ID, args.UserID)
}

// messageScope resolves the fan-out scope a persisted message belongs to.
func messageScope(msg *models.Message) string {
	if msg.ChatType == models.ChatTypeRoom {
		return msg.Room
	}
	return PrivateRoomID(msg.SenderID, msg.ReceiverID)
}

var errReplyNotFound = errors.New("replied message not found")

// replySnapshot resolves a reply reference into the denormalized snapshot
// stored with the new message. Client-supplied fields win over the stored
// ones; the referenced message must exist either way. Edits to the original
// after this point do not alter the snapshot.
func (h *Hub) replySnapshot(args *replyArgs) (*models.ReplyRef, error) {
	if args == nil || args.ID == "" {
		return nil, nil
	}

	replied, err := h.store.GetMessageByID(args.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errReplyNotFound
	}
	if err != nil {
		return nil, err
	}

	ref := &models.ReplyRef{
		ID:       replied.ID,
		Sender:   args.Sender,
		Text:     args.Text,
		FileURL:  args.FileURL,
		FileType: args.FileType,
		FileName: args.FileName,
	}
	if ref.Sender == "" {
		ref.Sender = replied.SenderName()
	}
	if ref.Text == "" {
		ref.Text = replied.Text
	}
	if ref.FileURL == "" {
		ref.FileURL = replied.FileURL
	}
	if ref.FileType == "" {
		ref.FileType = replied.FileType
	}
	if ref.FileName == "" {
		ref.FileName = replied.FileName
	}
	return ref, nil
}

func replyErrorText(err error) string {
	if errors.Is(err, errReplyNotFound) {
		return "Replied message not found."
	}
	return "Failed to send message."
}
