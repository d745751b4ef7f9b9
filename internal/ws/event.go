package ws

import (
	"encoding/json"
	"time"

	"parley/internal/models"
)

// envelope frames every event in both directions. Inbound events that expect
// an acknowledgement (joinPrivateRoom, privateMessage) carry a non-zero ack
// id; the server answers with an "ack" envelope echoing the same id.
type envelope struct {
	Event string          `json:"event"`
	Ack   int64           `json:"ack,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type inbound struct {
	client *Client
	env    envelope
}

// Inbound payloads. Field names are the wire contract.

type registerUserArgs struct {
	UserID         string `json:"userId"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

type joinRoomArgs struct {
	Room      string `json:"room"`
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type joinPrivateRoomArgs struct {
	SenderID          string `json:"senderId"`
	SenderFirstName   string `json:"senderFirstName"`
	SenderLastName    string `json:"senderLastName"`
	ReceiverID        string `json:"receiverId"`
	ReceiverFirstName string `json:"receiverFirstName,omitempty"`
	ReceiverLastName  string `json:"receiverLastName,omitempty"`
}

type leavePrivateRoomArgs struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
}

type replyArgs struct {
	ID       string `json:"id"`
	Sender   string `json:"sender,omitempty"`
	Text     string `json:"text,omitempty"`
	FileURL  string `json:"fileUrl,omitempty"`
	FileType string `json:"fileType,omitempty"`
	FileName string `json:"fileName,omitempty"`
}

type sendMessageArgs struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Text      string     `json:"text,omitempty"`
	Room      string     `json:"room"`
	FileURL   string     `json:"fileUrl,omitempty"`
	FileType  string     `json:"fileType,omitempty"`
	FileName  string     `json:"fileName,omitempty"`
	ReplyTo   *replyArgs `json:"replyTo,omitempty"`
}

type privateMessageArgs struct {
	ID                string     `json:"id"`
	SenderID          string     `json:"senderId"`
	SenderFirstName   string     `json:"senderFirstName"`
	SenderLastName    string     `json:"senderLastName"`
	ReceiverID        string     `json:"receiverId"`
	ReceiverFirstName string     `json:"receiverFirstName,omitempty"`
	ReceiverLastName  string     `json:"receiverLastName,omitempty"`
	Text              string     `json:"text,omitempty"`
	FileURL           string     `json:"fileUrl,omitempty"`
	FileType          string     `json:"fileType,omitempty"`
	FileName          string     `json:"fileName,omitempty"`
	ReplyTo           *replyArgs `json:"replyTo,omitempty"`
}

type getPrivateMessagesArgs struct {
	User1ID string `json:"user1Id"`
	User2ID string `json:"user2Id"`
}

type editMessageArgs struct {
	MessageID string `json:"messageId"`
	NewText   string `json:"newText"`
	UserID    string `json:"userId"`
}

type deleteMessageArgs struct {
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
}

type typingArgs struct {
	Room       string `json:"room,omitempty"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	SenderID   string `json:"senderId,omitempty"`
	ReceiverID string `json:"receiverId,omitempty"`
}

// Outbound payloads.

type userEvent struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

type typingEvent struct {
	Username   string `json:"username"`
	Room       string `json:"room,omitempty"`
	SenderID   string `json:"senderId,omitempty"`
	ReceiverID string `json:"receiverId,omitempty"`
}

type messageDeletedEvent struct {
	MessageID string `json:"messageId"`
}

type notificationEvent struct {
	SenderID       string `json:"senderId"`
	SenderUsername string `json:"senderUsername"`
	MessageSnippet string `json:"messageSnippet"`
	FullMessageID  string `json:"fullMessageId"`
	ChatType       string `json:"chatType"`
	Timestamp      string `json:"timestamp"`
	FileURL        string `json:"fileUrl,omitempty"`
	FileType       string `json:"fileType,omitempty"`
	FileName       string `json:"fileName,omitempty"`
}

type joinAck struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Room    string `json:"room,omitempty"`
	UserID  string `json:"userId,omitempty"`
	Error   string `json:"error,omitempty"`
}

type messageAck struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// wireMessage is the outbound message shape. Room broadcasts name the sender
// in "sender"; private and edited broadcasts use "senderUsername", matching
// the historical client contract.
type wireMessage struct {
	MongoID           string           `json:"_id"`
	ID                string           `json:"id"`
	Sender            string           `json:"sender,omitempty"`
	SenderID          string           `json:"senderId"`
	SenderUsername    string           `json:"senderUsername,omitempty"`
	Text              string           `json:"text,omitempty"`
	Timestamp         string           `json:"timestamp"`
	Room              string           `json:"room,omitempty"`
	ChatType          string           `json:"chatType"`
	ReceiverID        string           `json:"receiverId,omitempty"`
	ReceiverUsername  string           `json:"receiverUsername,omitempty"`
	ReceiverFirstName string           `json:"receiverFirstName,omitempty"`
	ReceiverLastName  string           `json:"receiverLastName,omitempty"`
	IsEdited          bool             `json:"isEdited"`
	FileURL           string           `json:"fileUrl,omitempty"`
	FileType          string           `json:"fileType,omitempty"`
	FileName          string           `json:"fileName,omitempty"`
	ReplyTo           *models.ReplyRef `json:"replyTo,omitempty"`
}

func wireTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func baseWire(m *models.Message, tempID string) wireMessage {
	id := tempID
	if id == "" {
		id = m.ID
	}
	return wireMessage{
		MongoID:   m.ID,
		ID:        id,
		SenderID:  m.SenderID,
		Text:      m.Text,
		Timestamp: wireTimestamp(m.CreatedAt),
		ChatType:  m.ChatType,
		IsEdited:  m.IsEdited,
		FileURL:   m.FileURL,
		FileType:  m.FileType,
		FileName:  m.FileName,
		ReplyTo:   m.ReplyTo,
	}
}

// roomWire shapes a public room message for receiveMessage.
func roomWire(m *models.Message, tempID string) wireMessage {
	w := baseWire(m, tempID)
	w.Sender = m.SenderName()
	w.Room = m.Room
	return w
}

// privateWire shapes a private message for receivePrivateMessage and
// historicalPrivateMessages.
func privateWire(m *models.Message, tempID string) wireMessage {
	w := baseWire(m, tempID)
	w.SenderUsername = m.SenderName()
	w.ReceiverID = m.ReceiverID
	w.ReceiverUsername = m.ReceiverName()
	w.ReceiverFirstName = m.ReceiverFirstName
	w.ReceiverLastName = m.ReceiverLastName
	return w
}

// editedWire shapes a message for the messageEdited broadcast, which carries
// senderUsername for both chat types.
func editedWire(m *models.Message) wireMessage {
	w := baseWire(m, "")
	w.SenderUsername = m.SenderName()
	if m.ChatType == models.ChatTypeRoom {
		w.Room = m.Room
	} else {
		w.ReceiverID = m.ReceiverID
		w.ReceiverUsername = m.ReceiverName()
		w.ReceiverFirstName = m.ReceiverFirstName
		w.ReceiverLastName = m.ReceiverLastName
	}
	return w
}
