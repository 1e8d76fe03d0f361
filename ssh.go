package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// acceptedHosts stores fingerprints confirmed interactively during this run
var (
	acceptedHosts   = make(map[string]string)
	acceptedHostsMu sync.Mutex
)

var promptHostKeyCallback = func(hostname string, remote net.Addr, key ssh.PublicKey) error {
	fingerprint := ssh.FingerprintSHA256(key)

	acceptedHostsMu.Lock()
	storedFingerprint, exists := acceptedHosts[hostname]
	acceptedHostsMu.Unlock()
	if exists && storedFingerprint == fingerprint {
		return nil
	}

	fmt.Fprintf(os.Stderr, "\nThe authenticity of host '%s' can't be established.\n", hostname)
	fmt.Fprintf(os.Stderr, "%s key fingerprint is %s\n", key.Type(), fingerprint)
	fmt.Fprint(os.Stderr, "Are you sure you want to continue connecting (yes/no)? ")

	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read user input: %w", err)
	}

	response = strings.TrimSpace(strings.ToLower(response))
	if response == "yes" || response == "y" {
		acceptedHostsMu.Lock()
		acceptedHosts[hostname] = fingerprint
		acceptedHostsMu.Unlock()
		return nil
	}

	return fmt.Errorf("host key verification rejected by user")
}

func hostKeyCallback() ssh.HostKeyCallback {
	home, err := os.UserHomeDir()
	if err != nil {
		return promptHostKeyCallback
	}
	file := filepath.Join(home, ".ssh", "known_hosts")
	if !exists(file) {
		return promptHostKeyCallback
	}
	cb, err := knownhosts.New(file)
	if err != nil {
		slog.Warn("ignoring unreadable known_hosts", "path", file, "error", err)
		return promptHostKeyCallback
	}
	return cb
}

// identitySigners loads unencrypted default private keys from ~/.ssh.
func identitySigners() []ssh.Signer {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	var signers []ssh.Signer
	for _, name := range []string{"id_ed25519", "id_ecdsa", "id_rsa"} {
		keyBytes, err := os.ReadFile(filepath.Join(home, ".ssh", name))
		if err != nil {
			continue
		}
		signer, err := ssh.ParsePrivateKey(keyBytes)
		if err != nil {
			slog.Debug("skipping private key", "name", name, "error", err)
			continue
		}
		signers = append(signers, signer)
	}
	return signers
}

// dialSSH connects with default identities first, then the URL's password
// if it has one.
func dialSSH(u *url.URL) (*ssh.Client, error) {
	if u.User == nil || u.User.Username() == "" {
		return nil, fmt.Errorf("%s: user required in URL", u.Redacted())
	}

	var auth []ssh.AuthMethod
	if signers := identitySigners(); len(signers) > 0 {
		auth = append(auth, ssh.PublicKeys(signers...))
	}
	auth = append(auth, ssh.PasswordCallback(func() (string, error) {
		creds, err := credentialsFromURL(u, "", "")
		if err != nil {
			return "", err
		}
		defer creds.Clear()
		return string(creds.password), nil
	}))

	config := &ssh.ClientConfig{
		User:            u.User.Username(),
		Auth:            auth,
		HostKeyCallback: hostKeyCallback(),
		Timeout:         30 * time.Second,
	}

	client, err := ssh.Dial("tcp", hostPort(u, "22"), config)
	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}
	return client, nil
}
