package account

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ftad-ncr/tapmonitor/core"
)

var (
	// errors
	ErrNotFound             = errors.New("account not found")
	ErrIncorrectCredentials = errors.New("incorrect credentials")
	ErrUsernameExists       = errors.New("username already registered")
	ErrEmailExists          = errors.New("email already registered")
	ErrReadOnly             = errors.New("account is read-only")
)

type (
	// Repository is the storage adapter behind the Session Gateway.
	Repository interface {
		// FindAccount returns ErrNotFound when username is unknown.
		FindAccount(ctx context.Context, username string) (Account, error)
		// CreateAccount returns ErrUsernameExists or ErrEmailExists on duplicates, ErrReadOnly for read-only stores.
		CreateAccount(ctx context.Context, acc Account) (Account, error)
		// UpdateAccount replaces SDO, school name and secret. ErrNotFound or ErrReadOnly otherwise.
		UpdateAccount(ctx context.Context, acc Account) (Account, error)
	}

	// EmailFinder is implemented by stores able to tell whether an email is already registered.
	EmailFinder interface {
		HasEmail(ctx context.Context, email string) (bool, error)
	}

	Service struct {
		repo    Repository
		logger  core.Logger
		timeout time.Duration
	}
)

func NewService(repo Repository, logger core.Logger, timeout time.Duration) *Service {
	return &Service{repo: repo, logger: logger, timeout: timeout}
}

func (svc *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if svc.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, svc.timeout)
}

// Authenticate checks the credentials and returns the session of the account.
func (svc *Service) Authenticate(ctx context.Context, cred Credentials) (Session, error) {
	ctx, cancel := svc.withTimeout(ctx)
	defer cancel()

	acc, err := svc.repo.FindAccount(ctx, core.CleanString(cred.Username, true /* lower */))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Session{}, ErrNotFound
		}
		return Session{}, errors.Wrap(err, "finding account")
	}
	if !acc.CheckSecret(cred.PasswordHash) {
		svc.logger.Warn("failed login attempt", acc.Session())
		return Session{}, ErrIncorrectCredentials
	}
	return acc.Session(), nil
}

// Register creates a new account from a validated NewAccount.
func (svc *Service) Register(ctx context.Context, na NewAccount) (Session, error) {
	ctx, cancel := svc.withTimeout(ctx)
	defer cancel()

	acc := Account{
		Username:   na.Username,
		Email:      na.Email,
		SDO:        na.SDO,
		SchoolName: na.SchoolName,
		CreatedAt:  time.Now().UTC(),
	}
	if err := acc.SetSecret(na.PasswordHash); err != nil {
		return Session{}, errors.Wrap(err, "hashing secret")
	}

	acc, err := svc.repo.CreateAccount(ctx, acc)
	if err != nil {
		switch cause := errors.Cause(err); cause {
		case ErrUsernameExists, ErrEmailExists, ErrReadOnly:
			return Session{}, cause
		}
		return Session{}, errors.Wrap(err, "creating account")
	}
	svc.logger.Info("account registered", acc.Session())
	return acc.Session(), nil
}

// Get returns the account of username.
func (svc *Service) Get(ctx context.Context, username string) (Account, error) {
	ctx, cancel := svc.withTimeout(ctx)
	defer cancel()

	acc, err := svc.repo.FindAccount(ctx, core.CleanString(username, true /* lower */))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Account{}, ErrNotFound
		}
		return Account{}, errors.Wrap(err, "finding account")
	}
	return acc, nil
}

// Update applies a validated UpdateAccount to orig.
func (svc *Service) Update(ctx context.Context, orig Account, ua UpdateAccount) (Session, error) {
	ctx, cancel := svc.withTimeout(ctx)
	defer cancel()

	acc := orig
	acc.SDO = ua.SDO
	acc.SchoolName = ua.SchoolName
	if ua.PasswordHash != "" {
		if err := acc.SetSecret(ua.PasswordHash); err != nil {
			return Session{}, errors.Wrap(err, "hashing secret")
		}
	}

	acc, err := svc.repo.UpdateAccount(ctx, acc)
	if err != nil {
		switch cause := errors.Cause(err); cause {
		case ErrNotFound, ErrReadOnly:
			return Session{}, cause
		}
		return Session{}, errors.Wrap(err, "updating account")
	}
	return acc.Session(), nil
}
