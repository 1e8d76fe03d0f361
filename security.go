package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"golang.org/x/term"
)

type Credentials struct {
	username string
	password []byte
}

func (c *Credentials) Clear() {
	secureWipe(c.password)
	c.password = nil
}

// secureWipe overwrites the slice with zeros
func secureWipe(data []byte) {
	for i := range data {
		data[i] = 0
	}
}

// passwordPrompt is swapped out in tests.
var passwordPrompt = askPassword

// askPassword reads a password from the terminal without echoing it
func askPassword(label string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("password required but stdin is not a terminal")
	}
	fmt.Fprintf(os.Stderr, "Password for %s: ", label)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("error reading password: %w", err)
	}
	return password, nil
}

// credentialsFromURL takes the user and password embedded in u. Without a
// user, defaultUser and defaultPassword are used. A user without a password
// is prompted for one.
func credentialsFromURL(u *url.URL, defaultUser, defaultPassword string) (*Credentials, error) {
	if u.User == nil || u.User.Username() == "" {
		return &Credentials{username: defaultUser, password: []byte(defaultPassword)}, nil
	}
	username := u.User.Username()
	if passwordStr, ok := u.User.Password(); ok {
		password := make([]byte, len(passwordStr))
		copy(password, passwordStr)
		return &Credentials{username: username, password: password}, nil
	}
	password, err := passwordPrompt(username + "@" + u.Host)
	if err != nil {
		return nil, err
	}
	return &Credentials{username: username, password: password}, nil
}
