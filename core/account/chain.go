package account

import (
	"context"

	"github.com/pkg/errors"
)

// ChainRepository looks accounts up in several stores in order. The first store holding the username wins,
// so a wrong secret for that account is never retried against later stores.
// New accounts go to the first store accepting writes, once no store holds the username or the email.
type ChainRepository struct {
	repos []Repository
}

var _ Repository = (*ChainRepository)(nil)

func NewChainRepository(repos ...Repository) *ChainRepository {
	return &ChainRepository{repos: repos}
}

func (repo *ChainRepository) find(ctx context.Context, username string) (Account, Repository, error) {
	for _, r := range repo.repos {
		acc, err := r.FindAccount(ctx, username)
		if err == nil {
			return acc, r, nil
		}
		if errors.Cause(err) != ErrNotFound {
			return Account{}, nil, err
		}
	}
	return Account{}, nil, ErrNotFound
}

func (repo *ChainRepository) FindAccount(ctx context.Context, username string) (Account, error) {
	acc, _, err := repo.find(ctx, username)
	return acc, err
}

func (repo *ChainRepository) CreateAccount(ctx context.Context, acc Account) (Account, error) {
	_, _, err := repo.find(ctx, acc.Username)
	switch {
	case err == nil:
		return Account{}, ErrUsernameExists
	case errors.Cause(err) != ErrNotFound:
		return Account{}, err
	}
	if acc.Email != "" {
		for _, r := range repo.repos {
			f, ok := r.(EmailFinder)
			if !ok {
				continue
			}
			taken, err := f.HasEmail(ctx, acc.Email)
			if err != nil {
				return Account{}, err
			}
			if taken {
				return Account{}, ErrEmailExists
			}
		}
	}

	for _, r := range repo.repos {
		created, err := r.CreateAccount(ctx, acc)
		if errors.Cause(err) == ErrReadOnly {
			continue
		}
		return created, err
	}
	return Account{}, ErrReadOnly
}

func (repo *ChainRepository) UpdateAccount(ctx context.Context, acc Account) (Account, error) {
	_, owner, err := repo.find(ctx, acc.Username)
	if err != nil {
		return Account{}, err
	}
	return owner.UpdateAccount(ctx, acc)
}
