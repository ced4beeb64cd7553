package account

import (
	"context"

	"github.com/ftad-ncr/tapmonitor/core"
)

// StaticRepository serves the administrator accounts declared in the configuration. It is read-only.
type StaticRepository struct {
	accounts map[string]Account
}

var (
	_ Repository  = (*StaticRepository)(nil)
	_ EmailFinder = (*StaticRepository)(nil)
)

func NewStaticRepository(admins []core.StaticAccount) *StaticRepository {
	repo := &StaticRepository{accounts: make(map[string]Account, len(admins))}
	for _, a := range admins {
		uname := core.CleanString(a.Username, true /* lower */)
		if uname == "" {
			continue
		}
		repo.accounts[uname] = Account{
			ID:         "static:" + uname,
			Username:   uname,
			SecretHash: a.PasswordHash,
			Email:      core.CleanString(a.Email, true /* lower */),
			SDO:        a.SDO,
			SchoolName: a.SchoolName,
		}
	}
	return repo
}

func (repo *StaticRepository) FindAccount(_ context.Context, username string) (Account, error) {
	if acc, ok := repo.accounts[username]; ok {
		return acc, nil
	}
	return Account{}, ErrNotFound
}

func (repo *StaticRepository) HasEmail(_ context.Context, email string) (bool, error) {
	for _, acc := range repo.accounts {
		if acc.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (repo *StaticRepository) CreateAccount(context.Context, Account) (Account, error) {
	return Account{}, ErrReadOnly
}

func (repo *StaticRepository) UpdateAccount(context.Context, Account) (Account, error) {
	return Account{}, ErrReadOnly
}
