package models

import "time"

const DefaultAvatar = "/default-avatar.png"

// Chat type discriminator for messages.
const (
	ChatTypeRoom    = "room"
	ChatTypePrivate = "private"
)

type User struct {
	ID             string `json:"id"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	Password       string `json:"-"`
	ProfilePicture string `json:"profilePicture"`
	Banned         bool   `json:"banned"`
}

// FullName is the display name used in presence lists and room member sets.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// OnlineUser is one entry of the presence snapshot broadcast to clients.
type OnlineUser struct {
	UserID         string `json:"userId"`
	FullName       string `json:"fullName"`
	ProfilePicture string `json:"profilePicture"`
}

// ReplyRef is the denormalized snapshot of a quoted message, copied at write
// time so later edits of the original do not alter reply previews.
type ReplyRef struct {
	ID       string `json:"id"`
	Sender   string `json:"sender"`
	Text     string `json:"text,omitempty"`
	FileURL  string `json:"fileUrl,omitempty"`
	FileType string `json:"fileType,omitempty"`
	FileName string `json:"fileName,omitempty"`
}

// Message is the persisted chat message. Room messages carry Room; private
// messages carry the receiver fields. A message must have text or a file,
// except profile-picture uploads which only need a file.
type Message struct {
	ID                string    `json:"id"`
	SenderID          string    `json:"senderId"`
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	Room              string    `json:"room,omitempty"`
	ReceiverID        string    `json:"receiverId,omitempty"`
	ReceiverFirstName string    `json:"receiverFirstName,omitempty"`
	ReceiverLastName  string    `json:"receiverLastName,omitempty"`
	Text              string    `json:"text,omitempty"`
	ChatType          string    `json:"chatType"`
	IsEdited          bool      `json:"isEdited"`
	FileURL           string    `json:"fileUrl,omitempty"`
	FileType          string    `json:"fileType,omitempty"`
	FileName          string    `json:"fileName,omitempty"`
	ReplyTo           *ReplyRef `json:"replyTo,omitempty"`
	IsProfileUpload   bool      `json:"isProfilePictureUpload,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

func (m *Message) SenderName() string {
	return m.FirstName + " " + m.LastName
}

func (m *Message) ReceiverName() string {
	if m.ReceiverFirstName == "" && m.ReceiverLastName == "" {
		return ""
	}
	return m.ReceiverFirstName + " " + m.ReceiverLastName
}
