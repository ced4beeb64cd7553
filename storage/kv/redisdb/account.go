package redisdb

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/ftad-ncr/tapmonitor/core/account"
)

// accountModel is the JSON document stored per username in the "<prefix>:users" hash.
type accountModel struct {
	ID           string    `json:"id,omitempty"`
	PasswordHash string    `json:"passwordHash"`
	SDO          string    `json:"sdo"`
	SchoolName   string    `json:"schoolName"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}

func toAccountModel(acc account.Account) accountModel {
	return accountModel{
		ID:           acc.ID,
		PasswordHash: acc.SecretHash,
		SDO:          acc.SDO,
		SchoolName:   acc.SchoolName,
		Email:        acc.Email,
		CreatedAt:    acc.CreatedAt,
	}
}

func (m accountModel) account(username string) account.Account {
	return account.Account{
		ID:         m.ID,
		Username:   username,
		SecretHash: m.PasswordHash,
		Email:      m.Email,
		SDO:        m.SDO,
		SchoolName: m.SchoolName,
		CreatedAt:  m.CreatedAt,
	}
}

type AccountRepository struct {
	redis *redis.Client
	key   string
}

var (
	_ account.Repository  = (*AccountRepository)(nil)
	_ account.EmailFinder = (*AccountRepository)(nil)
)

func NewAccountRepository(client *redis.Client, prefix string) *AccountRepository {
	return &AccountRepository{redis: client, key: hashKey(prefix, "users")}
}

func (r *AccountRepository) FindAccount(ctx context.Context, username string) (account.Account, error) {
	result, err := r.redis.HGet(ctx, r.key, username).Result()
	if err != nil {
		if err == redis.Nil {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, errors.Wrap(err, "reading account")
	}
	var model accountModel
	if err := json.Unmarshal([]byte(result), &model); err != nil {
		return account.Account{}, errors.Wrap(err, "decoding account")
	}
	return model.account(username), nil
}

// HasEmail scans the users hash; the registry is small enough for HGETALL.
func (r *AccountRepository) HasEmail(ctx context.Context, email string) (bool, error) {
	all, err := r.redis.HGetAll(ctx, r.key).Result()
	if err != nil {
		return false, errors.Wrap(err, "reading accounts")
	}
	for _, value := range all {
		var model accountModel
		if err := json.Unmarshal([]byte(value), &model); err == nil && model.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *AccountRepository) CreateAccount(ctx context.Context, acc account.Account) (account.Account, error) {
	if acc.Email != "" {
		taken, err := r.HasEmail(ctx, acc.Email)
		if err != nil {
			return account.Account{}, err
		}
		if taken {
			return account.Account{}, account.ErrEmailExists
		}
	}

	acc.ID = uuid.NewString()
	doc, err := json.Marshal(toAccountModel(acc))
	if err != nil {
		return account.Account{}, errors.Wrap(err, "encoding account")
	}
	created, err := r.redis.HSetNX(ctx, r.key, acc.Username, doc).Result()
	if err != nil {
		return account.Account{}, errors.Wrap(err, "writing account")
	}
	if !created {
		return account.Account{}, account.ErrUsernameExists
	}
	return acc, nil
}

func (r *AccountRepository) UpdateAccount(ctx context.Context, acc account.Account) (account.Account, error) {
	stored, err := r.FindAccount(ctx, acc.Username)
	if err != nil {
		return account.Account{}, err
	}
	stored.SDO = acc.SDO
	stored.SchoolName = acc.SchoolName
	stored.SecretHash = acc.SecretHash

	doc, err := json.Marshal(toAccountModel(stored))
	if err != nil {
		return account.Account{}, errors.Wrap(err, "encoding account")
	}
	if err := r.redis.HSet(ctx, r.key, acc.Username, doc).Err(); err != nil {
		return account.Account{}, errors.Wrap(err, "writing account")
	}
	return stored, nil
}
