package account

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftad-ncr/tapmonitor/core"
)

func digest(pwd string) string {
	sum := sha256.Sum256([]byte(pwd))
	return hex.EncodeToString(sum[:])
}

func newValidator() *validator.Validate {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func TestAccount_CheckSecret(t *testing.T) {
	var acc Account
	assert.False(t, acc.CheckSecret(""))

	require.NoError(t, acc.SetSecret(digest("pass")))
	assert.True(t, strings.HasPrefix(acc.SecretHash, bcryptPrefix))
	assert.True(t, acc.CheckSecret(digest("pass")))
	assert.True(t, acc.CheckSecret(strings.ToUpper(digest("pass"))))
	assert.False(t, acc.CheckSecret(digest("Pass")))

	legacy := Account{SecretHash: strings.ToUpper(digest("pass"))}
	assert.True(t, legacy.CheckSecret(digest("pass")))
	assert.False(t, legacy.CheckSecret(digest("other")))
}

func TestNewAccount_Validate(t *testing.T) {
	validate := newValidator()

	tests := []struct {
		name    string
		na      NewAccount
		wantErr bool
	}{
		{name: "valid", na: NewAccount{Username: " JDoe ", PasswordHash: digest("x"), Email: "J@X.ORG", SDO: "SDO-A"}},
		{name: "missing sdo", na: NewAccount{Username: "jdoe", PasswordHash: digest("x")}, wantErr: true},
		{name: "plain password", na: NewAccount{Username: "jdoe", PasswordHash: "hunter22", SDO: "SDO-A"}, wantErr: true},
		{name: "bad username", na: NewAccount{Username: "j doe", PasswordHash: digest("x"), SDO: "SDO-A"}, wantErr: true},
		{name: "short username", na: NewAccount{Username: "jd", PasswordHash: digest("x"), SDO: "SDO-A"}, wantErr: true},
		{name: "bad email", na: NewAccount{Username: "jdoe", PasswordHash: digest("x"), Email: "nope", SDO: "SDO-A"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.na.Validate(validate)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "jdoe", tt.na.Username)
			assert.Equal(t, "j@x.org", tt.na.Email)
		})
	}
}

func TestNewAccount_Validate_translated(t *testing.T) {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)

	na := NewAccount{Username: "jdoe", PasswordHash: "plain", SDO: "SDO-A"}
	err := na.Validate(validate)
	vErrs, ok := err.(validator.ValidationErrors)
	require.True(t, ok)
	require.Len(t, vErrs, 1)
	assert.Equal(t, "passwordHash", vErrs[0].Field())
	assert.Equal(t, sha256HexText, vErrs[0].Translate(translator))
}

func TestUpdateAccount_Validate(t *testing.T) {
	validate := newValidator()
	orig := Account{Username: "jdoe", SDO: "SDO-A", SchoolName: "School A"}

	ua := UpdateAccount{SchoolName: " School B "}
	require.NoError(t, ua.Validate(validate, orig))
	assert.Equal(t, UpdateAccount{SDO: "SDO-A", SchoolName: "School B"}, ua)

	ua = UpdateAccount{PasswordHash: "short"}
	assert.Error(t, ua.Validate(validate, orig))
}

func TestSession_Person(t *testing.T) {
	sess := Account{Username: "jdoe", Email: "j@x.org", SDO: "SDO-A"}.Session()
	assert.Equal(t, "jdoe", sess.PersonID())
	assert.Equal(t, "jdoe", sess.PersonName())
	assert.Equal(t, "j@x.org", sess.PersonEmail())
	assert.False(t, sess.IsZero())
	assert.True(t, Session{}.IsZero())
}

func TestPlainPassword_Validate(t *testing.T) {
	validate := newValidator()

	tests := []struct {
		name    string
		pp      PlainPassword
		wantTag string
	}{
		{name: "valid", pp: PlainPassword{Username: "jdoe", Email: "jdoe@deped.gov.ph", Password: "Tap-m0nitor"}},
		{name: "empty", pp: PlainPassword{Username: "jdoe"}, wantTag: "required"},
		{name: "too short", pp: PlainPassword{Username: "jdoe", Password: "a1-b"}, wantTag: pwdMinLenTag},
		{name: "whitespace", pp: PlainPassword{Username: "jdoe", Password: "tap m0nitor!"}, wantTag: pwdNoSpaceTag},
		{name: "all numeric", pp: PlainPassword{Username: "jdoe", Password: "12345678"}, wantTag: pwdNotAllNumTag},
		{name: "no special", pp: PlainPassword{Username: "jdoe", Password: "tapm0nitor"}, wantTag: pwdComplexityTag},
		{name: "like username", pp: PlainPassword{Username: "sdo.bohol", Password: "sdo.bohol1"}, wantTag: pwdAttrSimTag},
		{name: "like email", pp: PlainPassword{Username: "x", Email: "sdo.bohol@deped.gov.ph", Password: "Bohol.sdo9"}, wantTag: pwdAttrSimTag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pp.Validate(validate)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			verrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok)
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.wantTag, verrs[0].Tag())
			assert.Equal(t, "password", verrs[0].Field())
		})
	}
}

func TestDigest(t *testing.T) {
	assert.Equal(t, "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08", Digest("test"))
	assert.Equal(t, Digest("Tap-m0nitor"), PlainPassword{Password: "Tap-m0nitor"}.Digest())
}
