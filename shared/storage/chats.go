package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"automindmap/internal/models"

	"github.com/google/uuid"
)

func (s *Store) CreateChat(ctx context.Context, userID, title string) (*models.Chat, error) {
	if title == "" {
		title = models.DefaultChatTitle
	}
	now := s.now().UTC()
	chat := &models.Chat{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Messages:  []models.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chats (id, user_id, title, starred, created_at, updated_at) VALUES (?, ?, ?, 0, ?, ?)`,
		chat.ID, userID, title, formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return chat, nil
}

// ListChats returns the user's chats without messages, starred first and
// then most recently active.
func (s *Store) ListChats(ctx context.Context, userID string) ([]models.Chat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, starred, created_at, updated_at FROM chats
		 WHERE user_id = ? ORDER BY starred DESC, updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	chats := []models.Chat{}
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, *chat)
	}
	return chats, rows.Err()
}

// Chat returns one of the user's chats with its full message history.
func (s *Store) Chat(ctx context.Context, userID, chatID string) (*models.Chat, error) {
	chat, err := scanChat(s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, starred, created_at, updated_at FROM chats WHERE id = ? AND user_id = ?`,
		chatID, userID))
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, attachments, created_at FROM messages WHERE chat_id = ? ORDER BY id`, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	chat.Messages = []models.Message{}
	for rows.Next() {
		var (
			msg         models.Message
			role        string
			attachments string
			createdAt   string
		)
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &attachments, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to read message: %w", err)
		}
		msg.Role = models.Role(role)
		msg.Timestamp = parseTime(createdAt)
		if err := json.Unmarshal([]byte(attachments), &msg.Attachments); err != nil {
			return nil, fmt.Errorf("failed to decode attachments of message %d: %w", msg.ID, err)
		}
		chat.Messages = append(chat.Messages, msg)
	}
	return chat, rows.Err()
}

func (s *Store) DeleteChat(ctx context.Context, userID, chatID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ? AND user_id = ?`, chatID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	return requireRow(res)
}

// AddMessage appends a message to one of the user's chats and bumps the
// chat's activity time.
func (s *Store) AddMessage(ctx context.Context, userID, chatID string, role models.Role, content string, attachments []models.Attachment) (*models.Message, error) {
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	encoded, err := json.Marshal(attachments)
	if err != nil {
		return nil, fmt.Errorf("failed to encode attachments: %w", err)
	}

	now := s.now().UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE chats SET updated_at = ? WHERE id = ? AND user_id = ?`, formatTime(now), chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to touch chat: %w", err)
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}

	res, err = tx.ExecContext(ctx,
		`INSERT INTO messages (chat_id, role, content, attachments, created_at) VALUES (?, ?, ?, ?, ?)`,
		chatID, string(role), content, string(encoded), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("failed to add message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &models.Message{ID: id, Role: role, Content: content, Attachments: attachments, Timestamp: now}, nil
}

func (s *Store) UpdateChatTitle(ctx context.Context, userID, chatID, title string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chats SET title = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		title, formatTime(s.now()), chatID, userID)
	if err != nil {
		return fmt.Errorf("failed to update chat title: %w", err)
	}
	return requireRow(res)
}

func (s *Store) SetChatStarred(ctx context.Context, userID, chatID string, starred bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chats SET starred = ? WHERE id = ? AND user_id = ?`, boolToInt(starred), chatID, userID)
	if err != nil {
		return fmt.Errorf("failed to update chat: %w", err)
	}
	return requireRow(res)
}

func scanChat(row rowScanner) (*models.Chat, error) {
	var (
		chat                 models.Chat
		starred              int
		createdAt, updatedAt string
	)
	err := row.Scan(&chat.ID, &chat.UserID, &chat.Title, &starred, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read chat: %w", err)
	}
	chat.Starred = starred != 0
	chat.CreatedAt, chat.UpdatedAt = parseTime(createdAt), parseTime(updatedAt)
	return &chat, nil
}

// UserAttachment finds the attachment stored at fileURL in a message of one
// of the user's chats. Files referenced only by other users' chats report
// ErrNotFound.
func (s *Store) UserAttachment(ctx context.Context, userID, fileURL string) (*models.Attachment, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT a.value FROM messages m
		 JOIN chats c ON c.id = m.chat_id, json_each(m.attachments) a
		 WHERE c.user_id = ? AND json_extract(a.value, '$.fileUrl') = ?
		 LIMIT 1`, userID, fileURL).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up attachment: %w", err)
	}

	var a models.Attachment
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, fmt.Errorf("failed to decode attachment: %w", err)
	}
	return &a, nil
}
