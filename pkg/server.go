package pkg

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/creack/pty"
	"github.com/gliderlabs/ssh"
	"github.com/qnkhuat/chess4fun/pkg/config"
	"go.uber.org/zap"
	gossh "golang.org/x/crypto/ssh"
)

// Server hosts the terminal client over SSH: every session gets its own
// client process attached to a pseudo-terminal.
type Server struct {
	*ssh.Server
	cfg config.ServerConfig
	log *zap.SugaredLogger
}

func NewServer(cfg config.ServerConfig, log *zap.SugaredLogger) (*Server, error) {
	server := &Server{cfg: cfg, log: log}
	s := &ssh.Server{
		Addr:        cfg.Addr,
		IdleTimeout: cfg.IdleTimeout,
		Handler:     server.sshHandle,
	}
	signer, err := hostSigner(cfg.HostKey)
	if err != nil {
		return nil, err
	}
	s.AddHostKey(signer)
	server.Server = s
	return server, nil
}

// hostSigner loads the host key at path, generating and persisting an ed25519
// key when the file does not exist yet.
func hostSigner(path string) (gossh.Signer, error) {
	b, err := os.ReadFile(path)
	if err == nil {
		signer, err := gossh.ParsePrivateKey(b)
		if err != nil {
			return nil, fmt.Errorf("parse host key %s: %w", path, err)
		}
		return signer, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read host key: %w", err)
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate host key: %w", err)
	}
	block, err := gossh.MarshalPrivateKey(priv, "chess4fun")
	if err != nil {
		return nil, fmt.Errorf("marshal host key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create host key dir: %w", err)
	}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0600); err != nil {
		return nil, fmt.Errorf("write host key: %w", err)
	}
	return gossh.NewSignerFromKey(priv)
}

func (srv *Server) sshHandle(s ssh.Session) {
	ptyReq, winCh, isPty := s.Pty()
	if !isPty {
		io.WriteString(s, "non-interactive terminals are not supported\n")
		s.Exit(1)
		return
	}
	log := srv.log.With("user", s.User(), "remote", s.RemoteAddr().String())
	log.Info("session started")

	cmdCtx, cancelCmd := context.WithCancel(s.Context())
	defer cancelCmd()

	cmd := exec.CommandContext(cmdCtx, srv.cfg.ClientBin, srv.cfg.ClientArgs...)
	cmd.Env = append(s.Environ(), fmt.Sprintf("TERM=%s", ptyReq.Term))

	f, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(ptyReq.Window.Height),
		Cols: uint16(ptyReq.Window.Width),
	})
	if err != nil {
		log.Errorw("failed to start client", "err", err)
		io.WriteString(s, fmt.Sprintf("failed to initialize pseudo-terminal: %s\n", err))
		s.Exit(1)
		return
	}
	defer f.Close()

	go func() {
		for win := range winCh {
			pty.Setsize(f, &pty.Winsize{Rows: uint16(win.Height), Cols: uint16(win.Width)})
		}
	}()

	go func() {
		io.Copy(f, s)
	}()
	io.Copy(s, f)

	f.Close()
	if err := cmd.Wait(); err != nil {
		log.Infow("client exited", "err", err)
	}
	log.Info("session ended")
}

// ListenAndServe serves until Shutdown or a listener failure.
func (srv *Server) ListenAndServe() error {
	srv.log.Infow("listening", "addr", srv.cfg.Addr)
	err := srv.Server.ListenAndServe()
	if errors.Is(err, ssh.ErrServerClosed) {
		return nil
	}
	return err
}
