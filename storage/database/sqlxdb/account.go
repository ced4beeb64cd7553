package sqlxdb

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ftad-ncr/tapmonitor/core"
	"github.com/ftad-ncr/tapmonitor/core/account"
)

const (
	uniqueViolation        = "23505"
	accountEmailConstraint = "users_registry_email_key"
)

const (
	selectEmailExists       = "SELECT EXISTS (SELECT 1 FROM users_registry WHERE email = $1)"
	selectAccountByUsername = "SELECT id, username, password_hash, email, sdo, school_name, created_at FROM users_registry WHERE username = $1 LIMIT 1"
	insertAccount           = "INSERT INTO users_registry (username, password_hash, email, sdo, school_name, created_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id"
	updateAccount           = "UPDATE users_registry SET sdo = $1, school_name = $2, password_hash = $3 WHERE username = $4"
)

type accountRow struct {
	ID           int64       `db:"id"`
	Username     string      `db:"username"`
	PasswordHash string      `db:"password_hash"`
	Email        null.String `db:"email"`
	SDO          string      `db:"sdo"`
	SchoolName   null.String `db:"school_name"`
	CreatedAt    null.Time   `db:"created_at"`
}

func (r accountRow) account() account.Account {
	return account.Account{
		ID:         strconv.FormatInt(r.ID, 10),
		Username:   r.Username,
		SecretHash: r.PasswordHash,
		Email:      r.Email.String,
		SDO:        r.SDO,
		SchoolName: r.SchoolName.String,
		CreatedAt:  r.CreatedAt.Time.UTC(),
	}
}

// accountRepository reads and writes the users_registry table.
type accountRepository struct {
	exec core.DBExecutor
}

// interface compliance checks
var (
	_ account.Repository  = (*accountRepository)(nil)
	_ account.EmailFinder = (*accountRepository)(nil)
)

func NewAccountRepository(exec core.DBExecutor) account.Repository {
	return &accountRepository{exec: exec}
}

// trapNoRowsErr maps psql "no rows" err to account.ErrNotFound
func (repo *accountRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return account.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo *accountRepository) FindAccount(ctx context.Context, username string) (account.Account, error) {
	var row accountRow
	if err := repo.exec.GetContext(ctx, &row, selectAccountByUsername, username); err != nil {
		return account.Account{}, repo.trapNoRowsErr(err, "selecting account")
	}
	return row.account(), nil
}

func (repo *accountRepository) HasEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	if err := repo.exec.GetContext(ctx, &exists, selectEmailExists, email); err != nil {
		return false, errors.Wrap(err, "selecting account email")
	}
	return exists, nil
}

func (repo *accountRepository) CreateAccount(ctx context.Context, acc account.Account) (account.Account, error) {
	var id int64
	err := repo.exec.QueryRowxContext(ctx, insertAccount,
		acc.Username,
		acc.SecretHash,
		null.NewString(acc.Email, acc.Email != ""),
		acc.SDO,
		null.NewString(acc.SchoolName, acc.SchoolName != ""),
		acc.CreatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == uniqueViolation {
			if pqErr.Constraint == accountEmailConstraint {
				return account.Account{}, account.ErrEmailExists
			}
			return account.Account{}, account.ErrUsernameExists
		}
		return account.Account{}, errors.Wrap(err, "inserting account")
	}
	acc.ID = strconv.FormatInt(id, 10)
	return acc, nil
}

func (repo *accountRepository) UpdateAccount(ctx context.Context, acc account.Account) (account.Account, error) {
	res, err := repo.exec.ExecContext(ctx, updateAccount,
		acc.SDO,
		null.NewString(acc.SchoolName, acc.SchoolName != ""),
		acc.SecretHash,
		acc.Username,
	)
	if err != nil {
		return account.Account{}, errors.Wrap(err, "updating account")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return account.Account{}, errors.Wrap(err, "updating account")
	}
	if n == 0 {
		return account.Account{}, account.ErrNotFound
	}
	return acc, nil
}
