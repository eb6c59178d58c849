// Package main — Repository katmanı başlatma.
package main

import (
	"database/sql"

	"github.com/akinalp/sohbet/repository"
)

// Repositories, tüm repository instance'larını tutan container struct.
type Repositories struct {
	User         repository.UserRepository
	Session      repository.SessionRepository
	ResetToken   repository.PasswordResetRepository
	Friendship   repository.FriendshipRepository
	Block        repository.BlockRepository
	Conversation repository.ConversationRepository
	Group        repository.GroupRepository
	Message      repository.MessageRepository
	Reaction     repository.ReactionRepository
	CallLog      repository.CallLogRepository
}

// initRepositories, pool'a bağlı repository'leri oluşturur.
// Transaction içinde çalışan kod kendi tx-bağlı repository'sini açar.
func initRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		User:         repository.NewSQLiteUserRepo(db),
		Session:      repository.NewSQLiteSessionRepo(db),
		ResetToken:   repository.NewSQLiteResetTokenRepo(db),
		Friendship:   repository.NewSQLiteFriendshipRepo(db),
		Block:        repository.NewSQLiteBlockRepo(db),
		Conversation: repository.NewSQLiteConversationRepo(db),
		Group:        repository.NewSQLiteGroupRepo(db),
		Message:      repository.NewSQLiteMessageRepo(db),
		Reaction:     repository.NewSQLiteReactionRepo(db),
		CallLog:      repository.NewSQLiteCallLogRepo(db),
	}
}
