package storage

import (
	"context"
	"testing"
	"time"

	"automindmap/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChats(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	ada := createUser(t, s, "ada@example.com")
	bob := createUser(t, s, "bob@example.com")

	chat, err := s.CreateChat(ctx, ada.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultChatTitle, chat.Title)

	clock.advance(time.Minute)
	other, err := s.CreateChat(ctx, ada.ID, "Physics")
	require.NoError(t, err)

	clock.advance(time.Minute)
	attachments := []models.Attachment{{FileName: "notes.pdf", FileType: "application/pdf", FileSize: 2048, FileURL: "/uploads/a.pdf"}}
	msg, err := s.AddMessage(ctx, ada.ID, chat.ID, models.RoleUser, "What is ATP?", attachments)
	require.NoError(t, err)
	assert.NotZero(t, msg.ID)

	_, err = s.AddMessage(ctx, ada.ID, chat.ID, models.RoleAssistant, "An energy carrier.", nil)
	require.NoError(t, err)

	_, err = s.AddMessage(ctx, bob.ID, chat.ID, models.RoleUser, "intrusion", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.Chat(ctx, ada.ID, chat.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, models.RoleUser, got.Messages[0].Role)
	assert.Equal(t, attachments, got.Messages[0].Attachments)
	assert.Equal(t, "An energy carrier.", got.Messages[1].Content)
	assert.Empty(t, got.Messages[1].Attachments)

	list, err := s.ListChats(ctx, ada.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, chat.ID, list[0].ID, "most recently active first")

	require.NoError(t, s.SetChatStarred(ctx, ada.ID, other.ID, true))
	list, err = s.ListChats(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, list[0].ID, "starred chats first")
	assert.True(t, list[0].Starred)

	require.NoError(t, s.UpdateChatTitle(ctx, ada.ID, chat.ID, "Cell Energy"))
	got, err = s.Chat(ctx, ada.ID, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cell Energy", got.Title)

	_, err = s.Chat(ctx, bob.ID, chat.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.UpdateChatTitle(ctx, bob.ID, chat.ID, "x"), ErrNotFound)

	a, err := s.UserAttachment(ctx, ada.ID, "/uploads/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, attachments[0], *a)
	_, err = s.UserAttachment(ctx, bob.ID, "/uploads/a.pdf")
	assert.ErrorIs(t, err, ErrNotFound, "attachments are scoped to the chat owner")
	_, err = s.UserAttachment(ctx, ada.ID, "/uploads/missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteChat(ctx, ada.ID, chat.ID))
	_, err = s.Chat(ctx, ada.ID, chat.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteChat(ctx, ada.ID, chat.ID), ErrNotFound)
	_, err = s.UserAttachment(ctx, ada.ID, "/uploads/a.pdf")
	assert.ErrorIs(t, err, ErrNotFound, "deleting a chat drops access to its files")
}
