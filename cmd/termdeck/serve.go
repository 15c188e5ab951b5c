package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/termdeck"
	"pkt.systems/termdeck/core"
	"pkt.systems/termdeck/internal/appconfig"
	"pkt.systems/termdeck/sshserver"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	var addr string
	var disableAuditTrails bool
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the SSH control console",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if strings.TrimSpace(addr) != "" {
				cfg.SSH.Addr = addr
			}
			if noWatch {
				cfg.Store.Watch = false
			}
			serverCfg, err := toServerConfig(cfg, disableAuditTrails)
			if err != nil {
				return err
			}
			opts := []termdeck.ServerOption{termdeck.WithSSH()}
			if cfg.Store.Watch {
				opts = append(opts, termdeck.WithStoreWatch())
			}
			server, err := termdeck.New(serverCfg, termdeck.ServerDeps{
				ServiceDeps: core.ServiceDeps{Logger: logger},
			}, opts...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Stop(stopCtx); err != nil {
					logger.Warn("server stop failed", "err", err)
				}
			}()
			logger.Info("ssh server listening", "addr", serverCfg.SSH.Addr, "watch", cfg.Store.Watch)
			if err := server.Start(ctx); err != nil {
				return err
			}
			return server.Wait()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&addr, "addr", "", "override ssh.addr")
	cmd.Flags().BoolVar(&disableAuditTrails, "disable-audit-trails", false, "disable audit trail logging for commands")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload records edited by other processes")
	return cmd
}

func toServerConfig(cfg appconfig.Config, disableAudit bool) (termdeck.ServerConfig, error) {
	serviceCfg, err := cfg.Service.CoreConfig()
	if err != nil {
		return termdeck.ServerConfig{}, err
	}
	return termdeck.ServerConfig{
		Service: serviceCfg,
		SSH: sshserver.Config{
			Addr:               cfg.SSH.Addr,
			HostKeyPath:        cfg.SSH.HostKeyPath,
			AuthorizedKeysPath: cfg.SSH.AuthorizedKeysPath,
			Prompt:             cfg.SSH.Prompt,
		},
		Store: termdeck.StoreConfig{
			Catalog:  catalogPaths(cfg),
			Prefs:    cfg.Store.Prefs,
			Debounce: time.Duration(cfg.Store.DebounceMS) * time.Millisecond,
		},
		DisableAuditLogging: disableAudit,
	}, nil
}
