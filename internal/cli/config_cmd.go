package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/soyeahso/agentgallery/internal/config"
)

// configKey documents one leaf of config.yaml.
type configKey struct {
	Path    string
	Default string
	Help    string
}

var configKeys = []configKey{
	{"server.port", strconv.Itoa(config.DefaultPort), "port the gallery listens on"},
	{"server.bind", "loopback", "auto, lan, loopback or custom"},
	{"server.customBindHost", "", "host to bind when server.bind is custom"},
	{"server.allowedOrigins", "", "extra websocket origins besides the serving host"},
	{"api.baseUrl", config.DefaultAPIBaseURL, "CreatorBid API root"},
	{"api.siteUrl", config.DefaultSiteURL, `target of "View on CreatorBid" links`},
	{"api.timeout", config.DefaultAPITimeout.String(), "per-request timeout, e.g. 10s"},
	{"api.pageSize", strconv.Itoa(config.DefaultPageSize), "agents per gallery page (1-100)"},
	{"gallery.enrichConcurrency", strconv.Itoa(config.DefaultEnrichConcurrency), "parallel metadata fetches per page (1-64)"},
	{"web.sessionIdle", config.DefaultSessionIdle.String(), "idle time before a visitor's gallery is dropped"},
	{"web.maxSessions", strconv.Itoa(config.DefaultMaxSessions), "visitor galleries kept in memory"},
	{"profile.agentId", config.DefaultProfileAgentID, "agent shown by the profile command"},
	{"logging.level", "info", "silent, fatal, error, warn, info, debug or trace"},
	{"logging.consoleStyle", "pretty", "pretty or json"},
}

func lookupConfigKey(path string) (configKey, bool) {
	for _, k := range configKeys {
		if k.Path == path {
			return k, true
		}
	}
	return configKey{}, false
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or edit the gallery configuration",
		Long: `Inspect or edit config.yaml under the agentgallery home directory.

Keys are dotted paths such as api.pageSize or server.port. Values are stored
as booleans or numbers when they parse as one and as strings otherwise, so
durations are written as "30s" or "5m". Environment variables with the
AGENTGALLERY_ prefix override the file at startup.

Run "agentgallery config keys" for every key and its default.`,
		Example: `  agentgallery config set server.port 9090
  agentgallery config set api.pageSize 16
  agentgallery config set web.sessionIdle 10m
  agentgallery config get api
  agentgallery config unset logging.level`,
	}

	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigUnsetCmd())
	cmd.AddCommand(newConfigKeysCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a value from config.yaml, or its default when unset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ParseConfigPath(args[0])
			if err != nil {
				return err
			}

			raw, err := config.LoadRaw(paths.Config)
			if err != nil {
				return err
			}

			if val, ok := config.GetValueAtPath(raw, path); ok {
				return printValue(cmd.OutOrStdout(), val)
			}
			if k, ok := lookupConfigKey(strings.Join(path, ".")); ok && k.Default != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (default)\n", k.Default)
				return nil
			}
			return fmt.Errorf("key %q is not set", args[0])
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a value to config.yaml",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := parseValue(args[1])
			err := editConfig(cmd.OutOrStdout(), args[0], func(raw map[string]any, path []string) error {
				config.SetValueAtPath(raw, path, value)
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", args[0], value)
			return nil
		},
	}
}

func newConfigUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a value from config.yaml so its default applies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := editConfig(cmd.OutOrStdout(), args[0], func(raw map[string]any, path []string) error {
				if !config.UnsetValueAtPath(raw, path) {
					return fmt.Errorf("key %q is not set", args[0])
				}
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])
			return nil
		},
	}
}

func newConfigKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the known keys with their defaults",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			for _, k := range configKeys {
				def := k.Default
				if def == "" {
					def = "-"
				}
				fmt.Fprintf(w, "%-26s %-28s %s\n", k.Path, def, k.Help)
			}
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), paths.Config)
		},
	}
}

// editConfig applies edit to the raw file at key, saves it and warns about
// anything that would stop serve from starting. Unknown keys are allowed but
// flagged.
func editConfig(w io.Writer, key string, edit func(raw map[string]any, path []string) error) error {
	path, err := config.ParseConfigPath(key)
	if err != nil {
		return err
	}

	raw, err := config.LoadRaw(paths.Config)
	if err != nil {
		return err
	}
	if err := edit(raw, path); err != nil {
		return err
	}
	if err := config.SaveRaw(paths.Config, raw); err != nil {
		return err
	}

	if _, known := lookupConfigKey(strings.Join(path, ".")); !known {
		fmt.Fprintf(w, "Warning: %s is not a known key; see \"config keys\"\n", key)
	}
	cfg, err := config.Load(paths.Config)
	if err != nil {
		fmt.Fprintf(w, "Warning: config no longer loads: %v\n", err)
		return nil
	}
	for _, issue := range config.Validate(&cfg) {
		fmt.Fprintf(w, "Warning: %s\n", issue)
	}
	return nil
}

// printValue outputs a value in a human-readable format.
func printValue(w io.Writer, v any) error {
	switch val := v.(type) {
	case string:
		fmt.Fprintln(w, val)
	case map[string]any, []any:
		data, err := yaml.Marshal(val)
		if err != nil {
			return err
		}
		fmt.Fprint(w, string(data))
	default:
		fmt.Fprintln(w, val)
	}
	return nil
}

// parseValue interprets a command-line value as a bool, an integer or a
// float, falling back to the string. Durations such as "30s" stay strings.
func parseValue(s string) any {
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
