package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pkt.systems/pslog"
	"pkt.systems/termdeck/internal/appconfig"
	"pkt.systems/termdeck/internal/persist"
	"pkt.systems/termdeck/schema"
)

func newShortcutsCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "shortcuts",
		Short: "Show and rebind keyboard shortcuts",
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List shortcut bindings",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, records, err := openCatalog(cmd, cfgPath)
			if err != nil {
				return err
			}
			shortcuts, err := records.Shortcuts()
			if err != nil {
				return err
			}
			writeShortcuts(cmd.OutOrStdout(), shortcuts)
			return nil
		},
	})

	var key string
	var meta, shift, alt bool
	set := &cobra.Command{
		Use:   "set <id>",
		Short: "Rebind a shortcut; only the given flags change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := schema.ShortcutPatch{}
			flags := cmd.Flags()
			if flags.Changed("key") {
				patch.Key = &key
			}
			if flags.Changed("meta") {
				patch.Meta = &meta
			}
			if flags.Changed("shift") {
				patch.Shift = &shift
			}
			if flags.Changed("alt") {
				patch.Alt = &alt
			}
			_, records, err := openCatalog(cmd, cfgPath)
			if err != nil {
				return err
			}
			updated, err := records.UpdateShortcut(args[0], patch)
			if err != nil {
				return fmt.Errorf("shortcut %q: %w", args[0], err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s bound to %s\n", updated.ID, updated.Display())
			return nil
		},
	}
	set.Flags().StringVar(&key, "key", "", "key name")
	set.Flags().BoolVar(&meta, "meta", false, "require the meta modifier")
	set.Flags().BoolVar(&shift, "shift", false, "require the shift modifier")
	set.Flags().BoolVar(&alt, "alt", false, "require the alt modifier")
	cmd.AddCommand(set)

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Restore the default bindings",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, records, err := openCatalog(cmd, cfgPath)
			if err != nil {
				return err
			}
			shortcuts, err := records.ResetShortcuts()
			if err != nil {
				return err
			}
			writeShortcuts(cmd.OutOrStdout(), shortcuts)
			return nil
		},
	})

	return cmd
}

func writeShortcuts(out io.Writer, shortcuts []schema.Shortcut) {
	for _, sc := range shortcuts {
		_, _ = fmt.Fprintf(out, "%-20s %-8s %s\n", sc.ID, sc.Display(), sc.Name)
	}
}

func openPrefs(cmd *cobra.Command, cfgPath string) (*persist.PrefsStore, error) {
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	return persist.OpenPrefs(cfg.Store.Prefs, pslog.Ctx(cmd.Context()))
}

func newSettingsCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and change application settings",
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file")

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print theme and settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs, err := openPrefs(cmd, cfgPath)
			if err != nil {
				return err
			}
			writePreferences(cmd.OutOrStdout(), prefs.Preferences())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <name> <value>",
		Short: "Change one setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			apply, err := settingSetter(args[0], args[1])
			if err != nil {
				return err
			}
			prefs, err := openPrefs(cmd, cfgPath)
			if err != nil {
				return err
			}
			if _, err := prefs.UpdateSettings(apply); err != nil {
				return err
			}
			writePreferences(cmd.OutOrStdout(), prefs.Preferences())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "theme <name>",
		Short: "Select the UI theme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs, err := openPrefs(cmd, cfgPath)
			if err != nil {
				return err
			}
			theme, err := prefs.SetTheme(args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "theme set to: %s\n", theme)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Restore default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs, err := openPrefs(cmd, cfgPath)
			if err != nil {
				return err
			}
			if _, err := prefs.ResetSettings(); err != nil {
				return err
			}
			writePreferences(cmd.OutOrStdout(), prefs.Preferences())
			return nil
		},
	})

	return cmd
}

func writePreferences(out io.Writer, prefs schema.Preferences) {
	s := prefs.Settings
	_, _ = fmt.Fprintf(out, "theme: %s\n", prefs.Theme)
	_, _ = fmt.Fprintf(out, "auto_start_local_terminal: %t\n", s.AutoStartLocalTerminal)
	_, _ = fmt.Fprintf(out, "auto_copy_on_select: %t\n", s.AutoCopyOnSelect)
	_, _ = fmt.Fprintf(out, "scrollback: %d\n", s.Scrollback)
	_, _ = fmt.Fprintf(out, "open_tabs_next_to_active: %t\n", s.OpenTabsNextToActive)
	_, _ = fmt.Fprintf(out, "search_direction: %s\n", s.SearchDirection)
}

// settingSetter parses value for the named setting. Names match with or
// without separators, so auto_start_local_terminal and autoStartLocalTerminal
// are the same setting.
func settingSetter(name, value string) (func(*schema.Settings), error) {
	key := strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(strings.TrimSpace(name)))
	value = strings.TrimSpace(value)
	parseBool := func(set func(*schema.Settings, bool)) (func(*schema.Settings), error) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s expects true or false", name)
		}
		return func(s *schema.Settings) { set(s, b) }, nil
	}
	switch key {
	case "autostartlocalterminal":
		return parseBool(func(s *schema.Settings, b bool) { s.AutoStartLocalTerminal = b })
	case "autocopyonselect":
		return parseBool(func(s *schema.Settings, b bool) { s.AutoCopyOnSelect = b })
	case "opentabsnexttoactive":
		return parseBool(func(s *schema.Settings, b bool) { s.OpenTabsNextToActive = b })
	case "scrollback":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("scrollback expects a positive number of lines")
		}
		return func(s *schema.Settings) { s.Scrollback = n }, nil
	case "searchdirection":
		var dir schema.SearchDirection
		switch strings.ToLower(value) {
		case "bottomtotop", "up":
			dir = schema.SearchBottomToTop
		case "toptobottom", "down":
			dir = schema.SearchTopToBottom
		default:
			return nil, fmt.Errorf("search_direction must be bottomToTop or topToBottom")
		}
		return func(s *schema.Settings) { s.SearchDirection = dir }, nil
	default:
		return nil, fmt.Errorf("unknown setting %q", name)
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create and inspect the config file",
	}

	var initPath string
	var overwrite bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := appconfig.WriteDefault(initPath, overwrite)
			if err != nil {
				return err
			}
			pslog.Ctx(cmd.Context()).Info("config wrote", "path", path)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&initPath, "config", "c", "", "path to config file")
	initCmd.Flags().BoolVar(&overwrite, "force", false, "overwrite an existing config")
	cmd.AddCommand(initCmd)

	var showPath string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(showPath)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	show.Flags().StringVarP(&showPath, "config", "c", "", "path to config file")
	cmd.AddCommand(show)

	return cmd
}
