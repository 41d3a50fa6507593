package tunnel

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/term"
)

// defaultKeys are tried under ~/.ssh when no method is configured.
var defaultKeys = []string{"id_ed25519", "id_ecdsa", "id_rsa"}

// askSecret reads a secret for prompt.  Tests replace it.
var askSecret = askTerminal

type authSource struct {
	name  string
	want  func(*Config) bool
	build func(*Config) (ssh.AuthMethod, error)
}

// authSources are offered to the server in this order.
var authSources = []authSource{
	{
		name: "key file",
		want: func(c *Config) bool { return c.KeyFile != "" },
		build: func(c *Config) (ssh.AuthMethod, error) {
			signer, err := loadSigner(c.KeyFile, true)
			if err != nil {
				return nil, err
			}
			return ssh.PublicKeys(signer), nil
		},
	},
	{
		name:  "ssh-agent",
		want:  func(c *Config) bool { return c.Agent },
		build: func(*Config) (ssh.AuthMethod, error) { return agentAuth() },
	},
	{
		name: "password",
		want: func(c *Config) bool { return c.AskPassword },
		build: func(c *Config) (ssh.AuthMethod, error) {
			pass, err := askSecret(fmt.Sprintf("%s@%s's password: ", c.User, c.Host))
			if err != nil {
				return nil, err
			}
			return ssh.Password(string(pass)), nil
		},
	},
}

// authMethods collects the configured methods.  With none configured
// it quietly uses the agent and any unencrypted default key.
func authMethods(cfg *Config) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod
	for _, src := range authSources {
		if !src.want(cfg) {
			continue
		}
		m, err := src.build(cfg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src.name, err)
		}
		methods = append(methods, m)
	}
	if len(methods) > 0 {
		return methods, nil
	}

	if m, err := agentAuth(); err == nil {
		methods = append(methods, m)
	}
	if home, err := os.UserHomeDir(); err == nil {
		for _, name := range defaultKeys {
			if signer, err := loadSigner(filepath.Join(home, ".ssh", name), false); err == nil {
				methods = append(methods, ssh.PublicKeys(signer))
			}
		}
	}
	if len(methods) == 0 {
		return nil, errors.New("no SSH credentials found; pass --ssh-key, --ssh-password or --ssh-agent")
	}
	return methods, nil
}

// loadSigner parses the private key at path, asking for its passphrase
// when it is encrypted and ask is set.
func loadSigner(path string, ask bool) (ssh.Signer, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	signer, err := ssh.ParsePrivateKey(pem)

	var encrypted *ssh.PassphraseMissingError
	if !errors.As(err, &encrypted) || !ask {
		return signer, err
	}
	pass, err := askSecret("Enter passphrase for " + path + ": ")
	if err != nil {
		return nil, err
	}
	return ssh.ParsePrivateKeyWithPassphrase(pem, pass)
}

func agentAuth() (ssh.AuthMethod, error) {
	sock, ok := os.LookupEnv("SSH_AUTH_SOCK")
	if !ok || sock == "" {
		return nil, errors.New("SSH_AUTH_SOCK is not set")
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, err
	}
	return ssh.PublicKeysCallback(agent.NewClient(conn).Signers), nil
}

func askTerminal(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)
	return term.ReadPassword(fd)
}

func hostKeyCheck(cfg *Config) (ssh.HostKeyCallback, error) {
	if !cfg.VerifyHostKey {
		//nolint:gosec // host key checking is opt-in
		return ssh.InsecureIgnoreHostKey(), nil
	}
	file := cfg.KnownHosts
	if file == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		file = filepath.Join(home, ".ssh", "known_hosts")
	}
	return knownhosts.New(file)
}
