package sqlstore

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"parley/internal/models"
	"parley/internal/store"
)

// ErrInvalidMessage is returned when a message fails document validation
// (neither text nor file, or a profile-picture upload without a file).
var ErrInvalidMessage = errors.New("message must contain text or a file attachment")

type SQLStore struct {
	db *sql.DB
}

func New(dataSourceName string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLStore{db: db}
	if err := s.createTables(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) createTables() error {
	// Simplified for brevity, ideally use migrations
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		profile_picture TEXT NOT NULL DEFAULT '/default-avatar.png',
		banned BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		sender_id TEXT NOT NULL REFERENCES users(id),
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		room TEXT NOT NULL DEFAULT '',
		receiver_id TEXT NOT NULL DEFAULT '',
		receiver_first_name TEXT NOT NULL DEFAULT '',
		receiver_last_name TEXT NOT NULL DEFAULT '',
		text TEXT NOT NULL DEFAULT '',
		chat_type TEXT NOT NULL CHECK (chat_type IN ('room', 'private')),
		is_edited BOOLEAN NOT NULL DEFAULT FALSE,
		file_url TEXT NOT NULL DEFAULT '',
		file_type TEXT NOT NULL DEFAULT '',
		file_name TEXT NOT NULL DEFAULT '',
		reply_id TEXT NOT NULL DEFAULT '',
		reply_sender TEXT NOT NULL DEFAULT '',
		reply_text TEXT NOT NULL DEFAULT '',
		reply_file_url TEXT NOT NULL DEFAULT '',
		reply_file_type TEXT NOT NULL DEFAULT '',
		reply_file_name TEXT NOT NULL DEFAULT '',
		is_profile_upload BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_pair
		ON messages (sender_id, receiver_id, chat_type);
	CREATE INDEX IF NOT EXISTS idx_messages_room
		ON messages (room, chat_type);
	`

	_, err := s.db.Exec(query)
	return err
}

func (s *SQLStore) CreateUser(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.ProfilePicture == "" {
		user.ProfilePicture = models.DefaultAvatar
	}
	_, err := s.db.Exec(
		"INSERT INTO users (id, first_name, last_name, email, password, profile_picture, banned) VALUES (?, ?, ?, ?, ?, ?, ?)",
		user.ID, user.FirstName, user.LastName, user.Email, user.Password, user.ProfilePicture, user.Banned,
	)
	return err
}

func (s *SQLStore) GetUserByID(id string) (*models.User, error) {
	return s.getUser("SELECT id, first_name, last_name, email, password, profile_picture, banned FROM users WHERE id = ?", id)
}

func (s *SQLStore) GetUserByEmail(email string) (*models.User, error) {
	return s.getUser("SELECT id, first_name, last_name, email, password, profile_picture, banned FROM users WHERE email = ?", email)
}

func (s *SQLStore) getUser(query, arg string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRow(query, arg).Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Email,
		&user.Password, &user.ProfilePicture, &user.Banned,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SQLStore) SetBanned(id string, banned bool) error {
	result, err := s.db.Exec("UPDATE users SET banned = ? WHERE id = ?", banned, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SaveMessage validates and inserts a message, assigning its id and creation
// time. The stored reply columns are a flattened snapshot of msg.ReplyTo.
func (s *SQLStore) SaveMessage(msg *models.Message) (string, error) {
	if msg.IsProfileUpload {
		if msg.FileURL == "" {
			return "", ErrInvalidMessage
		}
	} else if msg.Text == "" && msg.FileURL == "" {
		return "", ErrInvalidMessage
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	var reply models.ReplyRef
	if msg.ReplyTo != nil {
		reply = *msg.ReplyTo
	}

	_, err := s.db.Exec(`
		INSERT INTO messages (
			id, sender_id, first_name, last_name, room,
			receiver_id, receiver_first_name, receiver_last_name,
			text, chat_type, is_edited, file_url, file_type, file_name,
			reply_id, reply_sender, reply_text, reply_file_url, reply_file_type, reply_file_name,
			is_profile_upload, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.SenderID, msg.FirstName, msg.LastName, msg.Room,
		msg.ReceiverID, msg.ReceiverFirstName, msg.ReceiverLastName,
		msg.Text, msg.ChatType, msg.IsEdited, msg.FileURL, msg.FileType, msg.FileName,
		reply.ID, reply.Sender, reply.Text, reply.FileURL, reply.FileType, reply.FileName,
		msg.IsProfileUpload, msg.CreatedAt,
	)
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

const messageColumns = `
	id, sender_id, first_name, last_name, room,
	receiver_id, receiver_first_name, receiver_last_name,
	text, chat_type, is_edited, file_url, file_type, file_name,
	reply_id, reply_sender, reply_text, reply_file_url, reply_file_type, reply_file_name,
	is_profile_upload, created_at`

func scanMessage(row interface{ Scan(...any) error }) (*models.Message, error) {
	var msg models.Message
	var reply models.ReplyRef
	err := row.Scan(
		&msg.ID, &msg.SenderID, &msg.FirstName, &msg.LastName, &msg.Room,
		&msg.ReceiverID, &msg.ReceiverFirstName, &msg.ReceiverLastName,
		&msg.Text, &msg.ChatType, &msg.IsEdited, &msg.FileURL, &msg.FileType, &msg.FileName,
		&reply.ID, &reply.Sender, &reply.Text, &reply.FileURL, &reply.FileType, &reply.FileName,
		&msg.IsProfileUpload, &msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if reply.ID != "" {
		msg.ReplyTo = &reply
	}
	return &msg, nil
}

func (s *SQLStore) GetMessageByID(id string) (*models.Message, error) {
	row := s.db.QueryRow("SELECT "+messageColumns+" FROM messages WHERE id = ?", id)
	msg, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *SQLStore) UpdateMessageText(id, newText string) error {
	result, err := s.db.Exec("UPDATE messages SET text = ?, is_edited = TRUE WHERE id = ?", newText, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *SQLStore) DeleteMessage(id string) error {
	result, err := s.db.Exec("DELETE FROM messages WHERE id = ?", id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

// GetMessagesBetween returns the private conversation between two users in
// chronological order.
func (s *SQLStore) GetMessagesBetween(userA, userB string) ([]models.Message, error) {
	rows, err := s.db.Query(`
		SELECT `+messageColumns+`
		FROM messages
		WHERE chat_type = 'private'
		  AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))
		ORDER BY created_at ASC, id ASC`,
		userA, userB, userB, userA,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMessages(rows)
}

func (s *SQLStore) GetRoomMessages(room string) ([]models.Message, error) {
	rows, err := s.db.Query(`
		SELECT `+messageColumns+`
		FROM messages
		WHERE chat_type = 'room' AND room = ?
		ORDER BY created_at ASC, id ASC`,
		room,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMessages(rows)
}

func collectMessages(rows *sql.Rows) ([]models.Message, error) {
	var messages []models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	return messages, rows.Err()
}
