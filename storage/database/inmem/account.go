package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/ftad-ncr/tapmonitor/core/account"
)

type accountRepository struct {
	db *accountTable
}

var (
	_ account.Repository  = (*accountRepository)(nil)
	_ account.EmailFinder = (*accountRepository)(nil)
)

func NewAccountRepository(db *DB) account.Repository {
	return &accountRepository{db: db.account}
}

func (repo *accountRepository) FindAccount(_ context.Context, username string) (account.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if acc, ok := repo.db.table[username]; ok {
		return *acc, nil
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) HasEmail(_ context.Context, email string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.hasEmail(email), nil
}

// hasEmail expects the table lock to be held.
func (repo *accountRepository) hasEmail(email string) bool {
	for _, acc := range repo.db.table {
		if acc.Email == email {
			return true
		}
	}
	return false
}

func (repo *accountRepository) CreateAccount(_ context.Context, acc account.Account) (account.Account, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[acc.Username]; ok {
		return account.Account{}, account.ErrUsernameExists
	}
	if acc.Email != "" && repo.hasEmail(acc.Email) {
		return account.Account{}, account.ErrEmailExists
	}

	acc.ID = uuid.NewString()
	repo.db.table[acc.Username] = &acc
	return acc, nil
}

func (repo *accountRepository) UpdateAccount(_ context.Context, acc account.Account) (account.Account, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stored, ok := repo.db.table[acc.Username]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	stored.SDO = acc.SDO
	stored.SchoolName = acc.SchoolName
	stored.SecretHash = acc.SecretHash
	return *stored, nil
}
