package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/termdeck/internal/appconfig"
	"pkt.systems/termdeck/internal/catalog"
	"pkt.systems/termdeck/schema"
)

func catalogPaths(cfg appconfig.Config) catalog.Paths {
	return catalog.Paths{
		Hosts:     cfg.Store.Hosts,
		Keys:      cfg.Store.Keys,
		Snippets:  cfg.Store.Snippets,
		Shortcuts: cfg.Store.Shortcuts,
	}
}

// openCatalog loads the config and opens the record stores it names.
func openCatalog(cmd *cobra.Command, cfgPath string) (appconfig.Config, *catalog.Catalog, error) {
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return appconfig.Config{}, nil, err
	}
	records, err := catalog.Open(catalogPaths(cfg), pslog.Ctx(cmd.Context()))
	if err != nil {
		return appconfig.Config{}, nil, err
	}
	return cfg, records, nil
}

func newHostsCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "hosts",
		Short: "Manage saved hosts",
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file")

	cmd.AddCommand(newHostsListCmd(&cfgPath))
	cmd.AddCommand(newHostsAddCmd(&cfgPath))
	cmd.AddCommand(newHostsRemoveCmd(&cfgPath))

	return cmd
}

func newHostsListCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved hosts",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, records, err := openCatalog(cmd, *cfgPath)
			if err != nil {
				return err
			}
			hosts, err := records.Hosts()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, host := range hosts {
				_, _ = fmt.Fprintf(out, "%s\t%s\t%s\n", host.ID, host.DisplayName(), host.Target())
			}
			return nil
		},
	}
}

func newHostsAddCmd(cfgPath *string) *cobra.Command {
	var name string
	var keyRef string
	var keyPath string
	cmd := &cobra.Command{
		Use:   "add <[user@]address[:port]>",
		Short: "Save a host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host, err := parseHostTarget(args[0])
			if err != nil {
				return err
			}
			host.Name = strings.TrimSpace(name)
			host.PrivateKeyPath = strings.TrimSpace(keyPath)
			_, records, err := openCatalog(cmd, *cfgPath)
			if err != nil {
				return err
			}
			if ref := strings.TrimSpace(keyRef); ref != "" {
				key, err := findKey(records, ref)
				if err != nil {
					return fmt.Errorf("key %q: %w", ref, err)
				}
				host.PrivateKeyID = key.ID
			}
			saved, err := records.SaveHost(host)
			if err != nil {
				return err
			}
			pslog.Ctx(cmd.Context()).Info("host saved", "host", saved.ID, "target", saved.Target())
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "saved host: %s (%s)\n", saved.DisplayName(), saved.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&keyRef, "key", "", "saved private key id or name")
	cmd.Flags().StringVar(&keyPath, "identity", "", "private key file")
	return cmd
}

func newHostsRemoveCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <host>",
		Short: "Remove a saved host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, records, err := openCatalog(cmd, *cfgPath)
			if err != nil {
				return err
			}
			host, err := records.FindHost(args[0])
			if err != nil {
				return fmt.Errorf("host %q: %w", args[0], err)
			}
			if err := records.DeleteHost(host.ID); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed host: %s\n", host.DisplayName())
			return nil
		},
	}
}

// parseHostTarget splits user@address:port. IPv6 literals need brackets
// when a port is given.
func parseHostTarget(value string) (schema.Host, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return schema.Host{}, errors.New("host address is required")
	}
	var host schema.Host
	if at := strings.LastIndex(value, "@"); at >= 0 {
		host.Username = value[:at]
		value = value[at+1:]
	}
	if strings.HasPrefix(value, "[") {
		end := strings.Index(value, "]")
		if end < 0 {
			return schema.Host{}, fmt.Errorf("invalid host address %q", value)
		}
		host.Address = value[1:end]
		value = value[end+1:]
		if value != "" && !strings.HasPrefix(value, ":") {
			return schema.Host{}, fmt.Errorf("invalid host address %q", value)
		}
		value = strings.TrimPrefix(value, ":")
	} else if colon := strings.LastIndex(value, ":"); colon >= 0 && strings.Count(value, ":") == 1 {
		host.Address = value[:colon]
		value = value[colon+1:]
	} else {
		host.Address = value
		value = ""
	}
	if value != "" {
		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 || port > 65535 {
			return schema.Host{}, fmt.Errorf("invalid port %q", value)
		}
		host.Port = port
	}
	if host.Address == "" {
		return schema.Host{}, errors.New("host address is required")
	}
	return host, nil
}

func newSnippetsCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "snippets",
		Short: "Manage saved command snippets",
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List snippets",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, records, err := openCatalog(cmd, cfgPath)
			if err != nil {
				return err
			}
			snippets, err := records.Snippets()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, snippet := range snippets {
				_, _ = fmt.Fprintf(out, "%s\t%s\t%s\n", snippet.ID, snippet.Name, snippet.Command)
			}
			return nil
		},
	})

	var description string
	add := &cobra.Command{
		Use:   "add <name> <command...>",
		Short: "Save a snippet",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, records, err := openCatalog(cmd, cfgPath)
			if err != nil {
				return err
			}
			saved, err := records.SaveSnippet(schema.Snippet{
				Name:        args[0],
				Command:     strings.Join(args[1:], " "),
				Description: description,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "saved snippet: %s (%s)\n", saved.Name, saved.ID)
			return nil
		},
	}
	add.Flags().StringVar(&description, "description", "", "snippet description")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <snippet>",
		Short: "Remove a snippet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, records, err := openCatalog(cmd, cfgPath)
			if err != nil {
				return err
			}
			snippet, err := findSnippet(records, args[0])
			if err != nil {
				return fmt.Errorf("snippet %q: %w", args[0], err)
			}
			if err := records.DeleteSnippet(snippet.ID); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed snippet: %s\n", snippet.Name)
			return nil
		},
	})

	return cmd
}

func findSnippet(records *catalog.Catalog, ref string) (schema.Snippet, error) {
	if snippet, err := records.Snippet(ref); err == nil {
		return snippet, nil
	}
	snippets, err := records.Snippets()
	if err != nil {
		return schema.Snippet{}, err
	}
	for _, snippet := range snippets {
		if strings.EqualFold(snippet.Name, ref) {
			return snippet, nil
		}
	}
	return schema.Snippet{}, schema.ErrRecordNotFound
}

func findKey(records *catalog.Catalog, ref string) (schema.PrivateKey, error) {
	if key, err := records.Key(ref); err == nil {
		return key, nil
	}
	keys, err := records.Keys()
	if err != nil {
		return schema.PrivateKey{}, err
	}
	for _, key := range keys {
		if strings.EqualFold(key.Name, ref) {
			return key, nil
		}
	}
	return schema.PrivateKey{}, schema.ErrRecordNotFound
}
