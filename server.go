// Package termdeck composes the workspace service, the record stores and
// the SSH console into a runnable server.
package termdeck

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/termdeck/core"
	"pkt.systems/termdeck/internal/catalog"
	"pkt.systems/termdeck/internal/command"
	"pkt.systems/termdeck/internal/eventbus"
	"pkt.systems/termdeck/internal/notify"
	"pkt.systems/termdeck/internal/persist"
	"pkt.systems/termdeck/schema"
	"pkt.systems/termdeck/sshserver"
)

// Server composes the SSH console and the store watcher.
type Server interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error
}

// ServerConfig configures the compositor.
type ServerConfig struct {
	Service             schema.ServiceConfig
	SSH                 sshserver.Config
	Store               StoreConfig
	DisableAuditLogging bool
}

// StoreConfig locates the persisted records.
type StoreConfig struct {
	Catalog  catalog.Paths
	Prefs    string
	Debounce time.Duration
}

// ServerDeps captures dependencies required to build the server.
type ServerDeps struct {
	ServiceDeps core.ServiceDeps
	// Listener overrides SSH.Addr when set.
	Listener net.Listener
}

// ServerOption toggles compositor components.
type ServerOption func(*serverOptions)

type serverOptions struct {
	enableSSH   bool
	enableWatch bool
}

// WithSSH enables the SSH console.
func WithSSH() ServerOption {
	return func(o *serverOptions) { o.enableSSH = true }
}

// WithStoreWatch reloads records and authorized keys when their files are
// edited by another process.
func WithStoreWatch() ServerOption {
	return func(o *serverOptions) { o.enableWatch = true }
}

// New constructs a composable termdeck server.
func New(cfg ServerConfig, deps ServerDeps, opts ...ServerOption) (Server, error) {
	options := serverOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if !options.enableSSH {
		return nil, errors.New("no services enabled")
	}
	logger := deps.ServiceDeps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}

	prefs, err := persist.OpenPrefs(cfg.Store.Prefs, logger)
	if err != nil {
		return nil, err
	}
	records, err := catalog.Open(cfg.Store.Catalog, logger)
	if err != nil {
		return nil, err
	}
	authorized, err := sshserver.LoadAuthorizedKeys(cfg.SSH.AuthorizedKeysPath, logger)
	if err != nil {
		return nil, err
	}

	bus := eventbus.New(logger)
	serviceDeps := deps.ServiceDeps
	serviceDeps.Logger = logger
	if serviceDeps.Settings == nil {
		serviceDeps.Settings = prefs
	}
	if serviceDeps.EventSink == nil {
		serviceDeps.EventSink = bus
	} else if serviceDeps.EventSink != bus {
		serviceDeps.EventSink = eventFanout{sinks: []core.EventSink{serviceDeps.EventSink, bus}}
	}
	service, err := core.NewService(cfg.Service, serviceDeps)
	if err != nil {
		return nil, err
	}

	var watcher *persist.Watcher
	if options.enableWatch {
		watcher, err = newStoreWatcher(cfg, logger, records, prefs, authorized)
		if err != nil {
			return nil, err
		}
	}

	sshSrv := &sshserver.Server{
		Addr:        cfg.SSH.Addr,
		HostKeyPath: cfg.SSH.HostKeyPath,
		Listener:    deps.Listener,
		Service:     service,
		Handlers: func(effects *notify.Queue) sshserver.CommandHandler {
			return command.NewHandler(service, command.HandlerConfig{
				Catalog:             records,
				Prefs:               prefs,
				Effects:             effects,
				DisableAuditLogging: cfg.DisableAuditLogging,
			})
		},
		Prompt:   cfg.SSH.Prompt,
		Auth:     authorized,
		EventBus: bus,
		Prefs:    prefs,
	}

	return &compositeServer{
		cfg:     cfg,
		options: options,
		service: service,
		records: records,
		sshSrv:  sshSrv,
		watcher: watcher,
	}, nil
}

func newStoreWatcher(cfg ServerConfig, logger pslog.Logger, records *catalog.Catalog, prefs *persist.PrefsStore, authorized *sshserver.AuthorizedKeys) (*persist.Watcher, error) {
	paths := []string{
		cfg.Store.Catalog.Hosts,
		cfg.Store.Catalog.Keys,
		cfg.Store.Catalog.Snippets,
		cfg.Store.Catalog.Shortcuts,
		prefs.Path(),
		authorized.Path(),
	}
	for _, path := range paths {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	watcher, err := persist.NewWatcher(logger, cfg.Store.Debounce)
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*persist.Watcher, error) {
		_ = watcher.Close()
		return nil, err
	}
	if err := records.Watch(watcher); err != nil {
		return fail(err)
	}
	if err := watcher.Watch(prefs.Path(), func() {
		if err := prefs.Reload(); err != nil {
			logger.Warn("prefs reload failed", "err", err)
		}
	}); err != nil {
		return fail(err)
	}
	if err := watcher.Watch(authorized.Path(), func() {
		_ = authorized.Reload()
	}); err != nil {
		return fail(err)
	}
	return watcher, nil
}

type compositeServer struct {
	cfg     ServerConfig
	options serverOptions
	service core.Service
	records *catalog.Catalog
	sshSrv  *sshserver.Server
	watcher *persist.Watcher
	logger  pslog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	errCh   chan error
	started bool
}

func (s *compositeServer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		pslog.Ctx(ctx).Warn("server start rejected", "reason", "already started")
		return errors.New("server already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.errCh = make(chan error, 2)
	s.started = true
	s.logger = pslog.Ctx(s.ctx)
	s.mu.Unlock()

	log := s.logger
	log.Info(
		"server start",
		"ssh", s.options.enableSSH,
		"watch", s.options.enableWatch,
		"ssh_addr", s.cfg.SSH.Addr,
	)
	if s.options.enableSSH && s.sshSrv != nil {
		go func() {
			if err := s.sshSrv.ListenAndServe(s.ctx); err != nil {
				log.Error("ssh server failed", "err", err)
				s.errCh <- err
			}
		}()
	}
	if s.watcher != nil {
		go func() {
			if err := s.watcher.Run(s.ctx); err != nil {
				log.Error("store watcher failed", "err", err)
				s.errCh <- err
			}
		}()
		changes, cancel := s.records.Subscribe()
		go func() {
			defer cancel()
			for {
				select {
				case <-s.ctx.Done():
					return
				case change, ok := <-changes:
					if !ok {
						return
					}
					log.Info("catalog changed", "kind", change.Kind, "external", change.External)
				}
			}
		}()
	}
	return nil
}

func (s *compositeServer) Wait() error {
	s.mu.Lock()
	ctx := s.ctx
	errCh := s.errCh
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("server not started")
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			pslog.Ctx(ctx).Error("server stopped", "err", err)
			_ = s.Stop(context.Background())
			return err
		}
		return nil
	}
}

func (s *compositeServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	started := s.started
	log := s.logger
	s.mu.Unlock()
	if !started {
		return nil
	}
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	log.Info("server stop requested")
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			log.Warn("store watcher close failed", "err", err)
		}
	}
	if cancel != nil {
		cancel()
	}
	if ctx == nil {
		log.Info("server stop completed")
		return nil
	}
	select {
	case <-ctx.Done():
		log.Warn("server stop timed out", "err", ctx.Err())
		return ctx.Err()
	case <-s.ctx.Done():
		log.Info("server stopped")
		return nil
	}
}
