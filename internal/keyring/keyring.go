package keyring

import (
	"os"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/rheko/matcha/internal/consts"
)

const (
	sessionTokenUser = "session_token"
	serverURLUser    = "server_url"
)

// GetSessionToken returns the session token from the MATCHA_TOKEN env var,
// falling back to the system keyring.
func GetSessionToken() (string, error) {
	if v := os.Getenv("MATCHA_TOKEN"); v != "" {
		return v, nil
	}
	return gokeyring.Get(consts.Name, sessionTokenUser)
}

// GetServerURL returns the server base URL from the MATCHA_SERVER_URL env
// var, falling back to the system keyring.
func GetServerURL() (string, error) {
	if v := os.Getenv("MATCHA_SERVER_URL"); v != "" {
		return v, nil
	}
	return gokeyring.Get(consts.Name, serverURLUser)
}

// SetSessionToken stores the session token in the system keyring.
func SetSessionToken(token string) error {
	return gokeyring.Set(consts.Name, sessionTokenUser, token)
}

// SetServerURL stores the server base URL in the system keyring.
func SetServerURL(url string) error {
	return gokeyring.Set(consts.Name, serverURLUser, url)
}

// DeleteSessionToken removes the session token from the system keyring.
func DeleteSessionToken() error {
	return gokeyring.Delete(consts.Name, sessionTokenUser)
}

// DeleteServerURL removes the server base URL from the system keyring.
func DeleteServerURL() error {
	return gokeyring.Delete(consts.Name, serverURLUser)
}
