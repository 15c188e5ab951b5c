package sshserver

import (
	"context"
	"errors"
	"io"
	"net"

	gliderssh "github.com/gliderlabs/ssh"
	"golang.org/x/crypto/ssh"

	"pkt.systems/pslog"
	"pkt.systems/termdeck/core"
	"pkt.systems/termdeck/internal/eventbus"
	"pkt.systems/termdeck/internal/logx"
	"pkt.systems/termdeck/internal/notify"
	"pkt.systems/termdeck/schema"
)

// CommandHandler executes console lines.
type CommandHandler interface {
	Handle(ctx context.Context, userID schema.UserID, out io.Writer, input string) (bool, error)
}

// HandlerFactory builds the command handler for one console. Effects of the
// commands it runs are deferred to the given queue.
type HandlerFactory func(effects *notify.Queue) CommandHandler

// KeyAuthorizer decides whether a public key may log in.
type KeyAuthorizer interface {
	Allowed(key ssh.PublicKey) bool
}

// Preferences exposes the settings the console reads.
type Preferences interface {
	Theme() schema.ThemeName
	Settings() schema.Settings
}

// Server exposes the workspace console over SSH.
type Server struct {
	Addr        string
	HostKeyPath string
	Listener    net.Listener
	Service     core.Service
	Handlers    HandlerFactory
	Prompt      string
	Auth        KeyAuthorizer
	EventBus    *eventbus.Bus
	Prefs       Preferences
	logger      pslog.Logger
}

// ListenAndServe starts the SSH server and shuts down on context cancellation.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.Prompt == "" {
		s.Prompt = "> "
	}
	if s.logger == nil {
		s.logger = pslog.Ctx(ctx)
	}
	if s.Auth == nil {
		return errors.New("key authorizer is required for SSH")
	}
	if s.Handlers == nil {
		return errors.New("command handler factory is required for SSH")
	}

	signer, err := EnsureHostKey(s.HostKeyPath)
	if err != nil {
		return err
	}

	server := &gliderssh.Server{
		Addr:             s.Addr,
		Handler:          s.handleSession,
		PublicKeyHandler: s.handlePublicKey,
	}
	server.AddHostKey(signer)

	errCh := make(chan error, 1)
	go func() {
		if s.Listener != nil {
			errCh <- server.Serve(s.Listener)
			return
		}
		errCh <- server.ListenAndServe()
	}()
	s.logger.Info("ssh console listening", "addr", s.listenAddr())

	select {
	case <-ctx.Done():
		_ = server.Close()
		return nil
	case err := <-errCh:
		if errors.Is(err, gliderssh.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) listenAddr() string {
	if s.Listener != nil {
		return s.Listener.Addr().String()
	}
	return s.Addr
}

func (s *Server) handlePublicKey(ctx gliderssh.Context, key gliderssh.PublicKey) bool {
	log := s.logger
	if log == nil {
		log = pslog.Ctx(ctx)
	}
	fingerprint := ssh.FingerprintSHA256(key)
	log = log.With("remote", remoteAddr(ctx), "fingerprint", fingerprint)
	userID := schema.UserID(ctx.User())
	if err := schema.ValidateUserID(userID); err != nil {
		log.Warn("ssh pubkey rejected", "reason", "invalid user", "user", userID)
		return false
	}
	log = log.With("user", userID)
	if !s.Auth.Allowed(key) {
		log.Warn("ssh pubkey rejected", "reason", "no matching key")
		return false
	}
	log.Info("ssh pubkey accepted")
	return true
}

func remoteAddr(ctx gliderssh.Context) string {
	if ctx == nil || ctx.RemoteAddr() == nil {
		return ""
	}
	return ctx.RemoteAddr().String()
}

func (s *Server) handleSession(sess gliderssh.Session) {
	log := s.logger
	if log == nil {
		log = pslog.Ctx(sess.Context())
	}
	userID := schema.UserID(sess.User())
	remote := sess.RemoteAddr().String()
	log = log.With("user", userID, "remote", remote)
	if sshSession := sess.Context().SessionID(); sshSession != "" {
		log = log.With("ssh_session", sshSession)
	}
	ctx := logx.ContextWithUserLogger(sess.Context(), log, userID)

	pty, winCh, ok := sess.Pty()
	if !ok {
		log.Info("ssh session rejected", "reason", "pty required")
		_, _ = io.WriteString(sess, "pty required\n")
		return
	}

	log.Info("ssh session opened", "term", pty.Term)
	var events <-chan eventbus.Event
	if s.EventBus != nil {
		var unsubscribe func()
		events, unsubscribe = s.EventBus.Subscribe(userID)
		defer unsubscribe()
	}
	ui := newConsole(sess, consoleConfig{
		Service:  s.Service,
		Handlers: s.Handlers,
		Prefs:    s.Prefs,
		UserID:   userID,
		Prompt:   s.Prompt,
		Events:   events,
	})
	ui.SetSize(pty.Window.Width, pty.Window.Height)
	if err := ui.Run(ctx, winCh); err != nil {
		log.Warn("ssh session failed", "err", err)
	}
	log.Info("ssh session closed", "term", pty.Term)
}
