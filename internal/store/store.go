package store

import (
	"errors"

	"parley/internal/models"
)

// ErrNotFound is returned by implementations when a referenced user or
// message does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence gateway consumed by the messaging core. The hub
// re-validates user identities through it on every state-changing action and
// owns no document state of its own.
type Store interface {
	// User operations
	CreateUser(user *models.User) error
	GetUserByID(id string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	SetBanned(id string, banned bool) error

	// Message operations
	SaveMessage(msg *models.Message) (string, error)
	GetMessageByID(id string) (*models.Message, error)
	UpdateMessageText(id, newText string) error
	DeleteMessage(id string) error
	GetMessagesBetween(userA, userB string) ([]models.Message, error)
	GetRoomMessages(room string) ([]models.Message, error)
}
