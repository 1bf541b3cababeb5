package pkg

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"time"

	"github.com/creack/pty"
	"github.com/gliderlabs/ssh"
	gossh "golang.org/x/crypto/ssh"
)

const SshIdleTimeout = 5 * time.Minute

// SSHServer lets players connect with any ssh client. Each session runs the
// terminal client binary under a pty, pointed at the game server.
type SSHServer struct {
	ListenAddress string
	// HostKeyFile is optional. A fresh ed25519 key is used when empty.
	HostKeyFile   string
	ClientBinary  string
	ServerAddress string

	server *ssh.Server
}

func (s *SSHServer) Host() error {
	if s.ListenAddress == "" {
		return errors.New("ssh: listen address must be specified")
	}
	if s.ClientBinary == "" {
		return errors.New("ssh: client binary must be specified")
	}

	s.server = &ssh.Server{
		Addr:        s.ListenAddress,
		IdleTimeout: SshIdleTimeout,
		Handler:     s.handle,
		PtyCallback: func(ctx ssh.Context, pty ssh.Pty) bool {
			return true
		},
		PublicKeyHandler: func(ctx ssh.Context, key ssh.PublicKey) bool {
			return true
		},
		PasswordHandler: func(ctx ssh.Context, password string) bool {
			return true
		},
		KeyboardInteractiveHandler: func(ctx ssh.Context, challenger gossh.KeyboardInteractiveChallenge) bool {
			return true
		},
	}

	if s.HostKeyFile != "" {
		if err := s.server.SetOption(ssh.HostKeyFile(s.HostKeyFile)); err != nil {
			return fmt.Errorf("ssh: %w", err)
		}
	} else {
		signer, err := generateHostKey()
		if err != nil {
			return fmt.Errorf("ssh: %w", err)
		}
		s.server.AddHostKey(signer)
	}

	go func() {
		log.Printf("SSH listening on %s", s.ListenAddress)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			log.Printf("SSH server stopped: %s", err)
		}
	}()
	return nil
}

func (s *SSHServer) Shutdown(reason string) {
	if s.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		log.Printf("SSH shutdown (%s): %s", reason, err)
	}
}

func (s *SSHServer) handle(sshSession ssh.Session) {
	ptyReq, winCh, isPty := sshSession.Pty()
	if !isPty {
		io.WriteString(sshSession, "non-interactive terminals are not supported\n")
		sshSession.Exit(1)
		return
	}

	cmdCtx, cancelCmd := context.WithCancel(sshSession.Context())
	defer cancelCmd()

	cmd := exec.CommandContext(cmdCtx, s.ClientBinary,
		"--name", Nickname(sshSession.User()),
		"--server", s.ServerAddress)
	cmd.Env = append(cmd.Env, fmt.Sprintf("TERM=%s", ptyReq.Term))

	f, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(ptyReq.Window.Height),
		Cols: uint16(ptyReq.Window.Width),
	})
	if err != nil {
		io.WriteString(sshSession, fmt.Sprintf("failed to initialize pseudo-terminal: %s\n", err))
		sshSession.Exit(1)
		return
	}
	defer f.Close()

	log.Printf("SSH session for %s from %s", sshSession.User(), sshSession.RemoteAddr())

	go func() {
		for win := range winCh {
			pty.Setsize(f, &pty.Winsize{Rows: uint16(win.Height), Cols: uint16(win.Width)})
		}
	}()

	go func() {
		io.Copy(f, sshSession)
	}()
	io.Copy(sshSession, f)

	cancelCmd()
	cmd.Wait()
}

func generateHostKey() (gossh.Signer, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return gossh.NewSignerFromKey(key)
}
