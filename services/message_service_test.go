package services

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
)

func TestSendMessage(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	alice, bob := env.user(t, "alice"), env.user(t, "bob")

	_, err := env.messaging.Send(ctx, alice.ID, bob.ID, text("   "))
	require.ErrorIs(t, err, pkg.ErrBadRequest)
	_, err = env.messaging.Send(ctx, alice.ID, "missing", text("selam"))
	require.ErrorIs(t, err, pkg.ErrNotFound)

	// Arkadaşlık şartı yok; konuşma ilk mesajla açılır.
	msg, err := env.messaging.Send(ctx, alice.ID, bob.ID, text("selam"))
	require.NoError(t, err)
	require.Equal(t, models.MessageStatusSent, msg.Status)
	require.NotNil(t, msg.Sender)
	require.Equal(t, alice.ID, msg.Sender.ID)

	events := env.hub.to(bob.ID, "newMessage")
	require.Len(t, events, 1)
	require.Equal(t, msg.ID, events[0].Data.(*models.Message).ID)
	require.Empty(t, env.hub.to(alice.ID, "newMessage"))

	attachment := &models.SendMessageInput{Attachment: &models.Attachment{
		URL: "/api/uploads/x.png", Name: "x.png", MimeType: "image/png",
	}}
	_, err = env.messaging.Send(ctx, bob.ID, alice.ID, attachment)
	require.NoError(t, err)

	history, err := env.messaging.History(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, msg.ID, history[0].ID)
	require.Nil(t, history[1].Body)
	require.Equal(t, "x.png", history[1].Attachment.Name)

	page, err := env.conversations.Inbox(ctx, bob.ID, models.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Conversations, 1)
	require.Equal(t, alice.ID, page.Conversations[0].Participant.ID)
	require.Equal(t, 1, page.Conversations[0].UnreadCount)
	require.Equal(t, history[1].ID, page.Conversations[0].LastMessage.ID)
}

func TestHistoryWithoutConversationIsEmpty(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	alice, bob := env.user(t, "alice"), env.user(t, "bob")

	history, err := env.messaging.History(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Empty(t, history)

	_, err = env.messaging.History(ctx, alice.ID, "missing")
	require.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestMessageStatusOnlyMovesForward(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	alice, bob, carol := env.user(t, "alice"), env.user(t, "bob"), env.user(t, "carol")
	msg, err := env.messaging.Send(ctx, alice.ID, bob.ID, text("selam"))
	require.NoError(t, err)

	read := &models.UpdateStatusRequest{Status: models.MessageStatusRead}
	delivered := &models.UpdateStatusRequest{Status: models.MessageStatusDelivered}

	_, err = env.messaging.UpdateStatus(ctx, alice.ID, msg.ID, read)
	require.ErrorIs(t, err, pkg.ErrForbidden)
	_, err = env.messaging.UpdateStatus(ctx, carol.ID, msg.ID, read)
	require.ErrorIs(t, err, pkg.ErrForbidden)
	_, err = env.messaging.UpdateStatus(ctx, bob.ID, msg.ID, &models.UpdateStatusRequest{Status: models.MessageStatusSent})
	require.ErrorIs(t, err, pkg.ErrBadRequest)

	updated, err := env.messaging.UpdateStatus(ctx, bob.ID, msg.ID, read)
	require.NoError(t, err)
	require.Equal(t, models.MessageStatusRead, updated.Status)
	require.Len(t, env.hub.to(alice.ID, "messageStatusUpdate"), 1)

	_, err = env.messaging.UpdateStatus(ctx, bob.ID, msg.ID, delivered)
	require.ErrorIs(t, err, pkg.ErrBadRequest)

	// Aynı durum tekrar gelirse değişiklik ve event yok.
	same, err := env.messaging.UpdateStatus(ctx, bob.ID, msg.ID, read)
	require.NoError(t, err)
	require.Equal(t, models.MessageStatusRead, same.Status)
	require.Len(t, env.hub.to(alice.ID, "messageStatusUpdate"), 1)
}

func TestConversationStatusBatch(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	alice, bob := env.user(t, "alice"), env.user(t, "bob")
	for _, body := range []string{"bir", "iki", "üç"} {
		_, err := env.messaging.Send(ctx, alice.ID, bob.ID, text(body))
		require.NoError(t, err)
	}
	own, err := env.messaging.Send(ctx, bob.ID, alice.ID, text("cevap"))
	require.NoError(t, err)

	delivered := &models.UpdateStatusRequest{Status: models.MessageStatusDelivered}

	n, err := env.messaging.UpdateConversationStatus(ctx, bob.ID, *own.ConversationID, delivered)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Len(t, env.hub.to(alice.ID, "messageStatusUpdate"), 3)

	// Kendi mesajı etkilenmez, tekrar çağrı bir şey değiştirmez.
	stored, err := env.messages.GetByID(ctx, own.ID)
	require.NoError(t, err)
	require.Equal(t, models.MessageStatusSent, stored.Status)

	n, err = env.messaging.UpdateConversationStatus(ctx, bob.ID, *own.ConversationID, delivered)
	require.NoError(t, err)
	require.Zero(t, n)

	outsider := env.user(t, "carol")
	_, err = env.messaging.UpdateConversationStatus(ctx, outsider.ID, *own.ConversationID, delivered)
	require.ErrorIs(t, err, pkg.ErrForbidden)
}

func TestEditMessage(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	alice, bob := env.user(t, "alice"), env.user(t, "bob")
	msg, err := env.messaging.Send(ctx, alice.ID, bob.ID, text("selm"))
	require.NoError(t, err)

	_, err = env.messaging.Edit(ctx, bob.ID, msg.ID, &models.EditMessageRequest{Message: "selam"})
	require.ErrorIs(t, err, pkg.ErrForbidden)
	_, err = env.messaging.Edit(ctx, alice.ID, msg.ID, &models.EditMessageRequest{Message: " "})
	require.ErrorIs(t, err, pkg.ErrBadRequest)

	edited, err := env.messaging.Edit(ctx, alice.ID, msg.ID, &models.EditMessageRequest{Message: "selam"})
	require.NoError(t, err)
	require.Equal(t, "selam", *edited.Body)
	require.Len(t, env.hub.to(bob.ID, "messageUpdated"), 1)
	require.Empty(t, env.hub.to(alice.ID, "messageUpdated"))
}

func TestDeleteScopes(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	alice, bob := env.user(t, "alice"), env.user(t, "bob")
	first, err := env.messaging.Send(ctx, alice.ID, bob.ID, text("bir"))
	require.NoError(t, err)
	second, err := env.messaging.Send(ctx, alice.ID, bob.ID, text("iki"))
	require.NoError(t, err)

	forMe := &models.DeleteMessageRequest{DeleteFor: models.DeleteForMe}
	forAll := &models.DeleteMessageRequest{DeleteFor: models.DeleteForAll}

	// "me": sadece bob'un görünümünden kalkar.
	require.NoError(t, env.messaging.Delete(ctx, bob.ID, first.ID, forMe))
	require.Len(t, env.hub.to(bob.ID, "messageDeleted"), 1)
	require.Empty(t, env.hub.to(alice.ID, "messageDeleted"))

	bobView, err := env.messaging.History(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, bobView, 1)
	aliceView, err := env.messaging.History(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, aliceView, 2)

	// "all": sadece gönderen.
	require.ErrorIs(t, env.messaging.Delete(ctx, bob.ID, second.ID, forAll), pkg.ErrForbidden)
	require.NoError(t, env.messaging.Delete(ctx, alice.ID, second.ID, forAll))
	require.Len(t, env.hub.to(alice.ID, "messageDeleted"), 1)
	require.Len(t, env.hub.to(bob.ID, "messageDeleted"), 2)

	_, err = env.messages.GetByID(ctx, second.ID)
	require.ErrorIs(t, err, pkg.ErrNotFound)

	require.ErrorIs(t, env.messaging.Delete(ctx, alice.ID, first.ID, &models.DeleteMessageRequest{DeleteFor: "both"}), pkg.ErrBadRequest)
}

func TestDeleteForAllRemovesAttachmentFile(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	alice, bob := env.user(t, "alice"), env.user(t, "bob")
	att := env.attachment(t, "rapor.pdf")
	msg, err := env.messaging.Send(ctx, alice.ID, bob.ID, &models.SendMessageInput{Attachment: att})
	require.NoError(t, err)

	// "me" dosyaya dokunmaz.
	require.NoError(t, env.messaging.Delete(ctx, bob.ID, msg.ID, &models.DeleteMessageRequest{DeleteFor: models.DeleteForMe}))
	require.FileExists(t, env.uploadPath(att.URL))

	require.NoError(t, env.messaging.Delete(ctx, alice.ID, msg.ID, &models.DeleteMessageRequest{DeleteFor: models.DeleteForAll}))
	_, err = os.Stat(env.uploadPath(att.URL))
	require.True(t, os.IsNotExist(err))
}

func TestSendRollsBackWhenTouchFails(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	alice, bob := env.user(t, "alice"), env.user(t, "bob")
	first, err := env.messaging.Send(ctx, alice.ID, bob.ID, text("bir"))
	require.NoError(t, err)

	_, err = env.db.Conn.ExecContext(ctx, `
		CREATE TRIGGER fail_conversation_touch BEFORE UPDATE ON conversations
		BEGIN SELECT RAISE(ABORT, 'touch disabled'); END`)
	require.NoError(t, err)

	_, err = env.messaging.Send(ctx, alice.ID, bob.ID, text("iki"))
	require.Error(t, err)
	require.Len(t, env.hub.to(bob.ID, "newMessage"), 1)

	history, err := env.messaging.History(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, first.ID, history[0].ID)
}

func TestReactions(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	alice, bob, carol := env.user(t, "alice"), env.user(t, "bob"), env.user(t, "carol")
	msg, err := env.messaging.Send(ctx, alice.ID, bob.ID, text("selam"))
	require.NoError(t, err)

	req := &models.AddReactionRequest{MessageID: msg.ID, Emoji: "👍"}
	reaction, err := env.reactions.Add(ctx, bob.ID, req)
	require.NoError(t, err)
	require.Equal(t, bob.ID, reaction.User.ID)
	require.Len(t, env.hub.to(alice.ID, "reactionUpdate"), 1)
	require.Len(t, env.hub.to(bob.ID, "reactionUpdate"), 1)

	_, err = env.reactions.Add(ctx, bob.ID, &models.AddReactionRequest{MessageID: msg.ID, Emoji: "👍"})
	require.ErrorIs(t, err, pkg.ErrAlreadyExists)
	_, err = env.reactions.Add(ctx, carol.ID, &models.AddReactionRequest{MessageID: msg.ID, Emoji: "👍"})
	require.ErrorIs(t, err, pkg.ErrForbidden)

	// Aynı kullanıcı farklı emoji ekleyebilir.
	_, err = env.reactions.Add(ctx, bob.ID, &models.AddReactionRequest{MessageID: msg.ID, Emoji: "❤️"})
	require.NoError(t, err)

	list, err := env.reactions.ListByMessage(ctx, alice.ID, msg.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	history, err := env.messaging.History(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, history[0].Reactions, 2)

	require.ErrorIs(t, env.reactions.Remove(ctx, alice.ID, reaction.ID), pkg.ErrForbidden)
	require.NoError(t, env.reactions.Remove(ctx, bob.ID, reaction.ID))

	list, err = env.reactions.ListByMessage(ctx, bob.ID, msg.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
