package auth

import (
	"testing"
	"time"

	"chat-relay/errors"

	"github.com/stretchr/testify/require"
)

func Test_Token_Roundtrip(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret", time.Hour)

	token, err := manager.Generate(7, "alice", []string{"user"})
	req.NoError(err)
	req.NotEmpty(token)

	claims, err := manager.Validate(token)
	req.NoError(err)
	req.Equal(int64(7), claims.UserID)
	req.Equal("alice", claims.Username)
	req.False(claims.Admin())
}

func Test_Token_Admin_Role(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret", time.Hour)

	token, err := manager.Generate(1, "root", []string{"user", "admin"})
	req.NoError(err)

	claims, err := manager.Validate(token)
	req.NoError(err)
	req.True(claims.Admin())
}

func Test_Token_Expired(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret", -time.Minute)

	token, err := manager.Generate(7, "alice", []string{"user"})
	req.NoError(err)

	_, err = manager.Validate(token)
	req.Error(err)
}

func Test_Token_Wrong_Secret(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret", time.Hour)
	other := NewTokenManager("other-secret", time.Hour)

	token, err := manager.Generate(7, "alice", []string{"user"})
	req.NoError(err)

	_, err = other.Validate(token)
	req.Error(err)
}

func Test_Password_Hash_And_Compare(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("Sup3r-Secret-Pass!")
	req.NoError(err)
	req.Contains(hash, "$argon2id$")

	match, err := ComparePassword("Sup3r-Secret-Pass!", hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("wrong-password-here", hash)
	req.NoError(err)
	req.False(match)
}

func Test_Password_Hashes_Are_Salted(t *testing.T) {
	req := require.New(t)

	first, err := HashPassword("Sup3r-Secret-Pass!")
	req.NoError(err)
	second, err := HashPassword("Sup3r-Secret-Pass!")
	req.NoError(err)
	req.NotEqual(first, second)
}

func Test_ComparePassword_Malformed_Hash(t *testing.T) {
	req := require.New(t)
	_, err := ComparePassword("whatever", "not-a-hash")
	req.Error(err)
}

func Test_ValidateRegister(t *testing.T) {
	req := require.New(t)

	valid := RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "Sup3r-Secret-Pass!"}
	req.NoError(ValidateRegister(valid))

	noComplexity := valid
	noComplexity.Password = "alllowercasesecret"
	req.ErrorIs(ValidateRegister(noComplexity), errors.ErrInvalidPassword)

	tooShort := valid
	tooShort.Password = "Sh0rt!"
	req.Error(ValidateRegister(tooShort))

	badEmail := valid
	badEmail.Email = "not-an-email"
	req.Error(ValidateRegister(badEmail))

	shortName := valid
	shortName.Username = "al"
	req.Error(ValidateRegister(shortName))
}

func Test_ValidateLogin(t *testing.T) {
	req := require.New(t)

	req.NoError(ValidateLogin(LoginRequest{Username: "alice", Password: "x"}))
	req.Error(ValidateLogin(LoginRequest{Username: "", Password: "x"}))
	req.Error(ValidateLogin(LoginRequest{Username: "alice", Password: ""}))
}
