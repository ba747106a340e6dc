package postgres

import (
	"github.com/lumengallery/auth-service/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Accounts      ports.AccountRepository
	LoginAttempts ports.LoginAttemptRepository
	Outbox        ports.OutboxRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Accounts:      &accountRepository{db: db},
		LoginAttempts: &loginAttemptRepository{db: db},
		Outbox:        &outboxRepository{db: db},
	}
}
