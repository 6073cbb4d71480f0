package auth

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// SecretProvider supplies the account secret when an interactive login is
// unavoidable. The returned buffer is zeroed by the caller immediately after
// the login request is built; implementations must not retain a copy.
type SecretProvider interface {
	Secret(user string) ([]byte, error)
}

// TerminalSecretProvider prompts on the controlling terminal without echo.
type TerminalSecretProvider struct{}

// Secret reads the password from stdin with echo disabled.
func (TerminalSecretProvider) Secret(user string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("auth: stdin is not a terminal; cannot prompt for password")
	}
	fmt.Fprintf(os.Stderr, "Password for %s: ", user)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, errors.Wrap(err, "read password failed")
	}
	return secret, nil
}

// StaticSecretProvider returns a fixed secret. Intended for tests and
// non-interactive automation.
type StaticSecretProvider []byte

func (s StaticSecretProvider) Secret(string) ([]byte, error) {
	out := make([]byte, len(s))
	copy(out, s)
	return out, nil
}

func zeroSecret(secret []byte) {
	for i := range secret {
		secret[i] = 0
	}
}
