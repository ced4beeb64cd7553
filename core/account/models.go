package account

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/ftad-ncr/tapmonitor/core"
)

const bcryptPrefix = "$2"

// Account is a registered operator. The secret sent by clients is the SHA-256 hex digest of the password;
// it is stored bcrypt-hashed. Accounts imported from legacy stores may still hold the bare digest.
type Account struct {
	ID         string    `json:"-"`
	Username   string    `json:"username"`
	SecretHash string    `json:"-"`
	Email      string    `json:"email"`
	SDO        string    `json:"sdo"`
	SchoolName string    `json:"schoolName"`
	CreatedAt  time.Time `json:"-"` // UTC
}

func (a *Account) SetSecret(secret string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(strings.ToLower(secret)), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.SecretHash = string(hash)
	return nil
}

func (a *Account) CheckSecret(secret string) bool {
	secret = strings.ToLower(secret)
	if strings.HasPrefix(a.SecretHash, bcryptPrefix) {
		return bcrypt.CompareHashAndPassword([]byte(a.SecretHash), []byte(secret)) == nil
	}
	if a.SecretHash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(a.SecretHash)), []byte(secret)) == 1
}

func (a Account) Session() Session {
	return Session{
		Username:   a.Username,
		SDO:        a.SDO,
		SchoolName: a.SchoolName,
		Email:      a.Email,
	}
}

// Session is the payload handed to an authenticated operator. It never expires server-side.
type Session struct {
	Username   string `json:"username"`
	SDO        string `json:"sdo"`
	SchoolName string `json:"schoolName"`
	Email      string `json:"email"`
}

var _ core.Person = Session{}

func (s Session) PersonID() string    { return s.Username }
func (s Session) PersonName() string  { return core.FirstNonEmpty(s.SchoolName, s.Username) }
func (s Session) PersonEmail() string { return s.Email }

func (s Session) IsZero() bool { return s.Username == "" }

// Credentials is a login request. Ping requests a health answer instead of a login.
type Credentials struct {
	Username     string `json:"username" validate:"required"`
	PasswordHash string `json:"passwordHash" validate:"required"`
	Ping         bool   `json:"ping,omitempty"`
}

func (c *Credentials) Validate(validate *validator.Validate) error {
	c.Username = core.CleanString(c.Username, true /* lower */)
	c.PasswordHash = core.CleanString(c.PasswordHash)
	return validate.Struct(c)
}

// NewAccount contains information needed to register a new Account.
type NewAccount struct {
	Username     string `json:"username" validate:"required,min=3,max=64,username"`
	PasswordHash string `json:"passwordHash" validate:"required,sha256hex"`
	Email        string `json:"email" validate:"omitempty,email"`
	SDO          string `json:"sdo" validate:"required"`
	SchoolName   string `json:"schoolName"`
}

func (na *NewAccount) Validate(validate *validator.Validate) error {
	na.Username = core.CleanString(na.Username, true /* lower */)
	na.PasswordHash = core.CleanString(na.PasswordHash, true /* lower */)
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.SDO = core.CleanString(na.SDO)
	na.SchoolName = core.CleanString(na.SchoolName)
	return validate.Struct(na)
}

// UpdateAccount defines what may be changed on an existing Account. Empty fields keep their current value.
type UpdateAccount struct {
	SDO          string `json:"sdo"`
	SchoolName   string `json:"schoolName"`
	PasswordHash string `json:"passwordHash" validate:"omitempty,sha256hex"`
}

func (ua *UpdateAccount) Validate(validate *validator.Validate, orig Account) error {
	if sdo := core.CleanString(ua.SDO); sdo != "" {
		ua.SDO = sdo
	} else {
		ua.SDO = orig.SDO
	}
	if school := core.CleanString(ua.SchoolName); school != "" {
		ua.SchoolName = school
	} else {
		ua.SchoolName = orig.SchoolName
	}
	ua.PasswordHash = core.CleanString(ua.PasswordHash, true /* lower */)
	return validate.Struct(ua)
}
