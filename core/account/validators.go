package account

import (
	"regexp"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/ftad-ncr/tapmonitor/core"
)

var (
	usernameTag   = "username"
	usernameText  = "only lowercase letters, digits, dots, dashes and underscores are allowed"
	usernameRegex = regexp.MustCompile(`^[a-z0-9._-]+$`)

	sha256HexTag   = "sha256hex"
	sha256HexText  = "must be the hex encoded SHA-256 digest of the password"
	sha256HexRegex = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

// InitValidators registers the account validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterRegexValidation(validate, translator, usernameTag, usernameText, usernameRegex)
	core.RegisterRegexValidation(validate, translator, sha256HexTag, sha256HexText, sha256HexRegex)

	validate.RegisterStructValidation(passwordStructValidation, PlainPassword{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(validate, translator, pwdComplexityTag, pwdComplexityText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}
