package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soyeahso/agentgallery/internal/config"
	"github.com/soyeahso/agentgallery/internal/creatorbid"
	"github.com/soyeahso/agentgallery/internal/logging"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths config.Paths
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agentgallery",
		Short: "Browse CreatorBid agents",
		Long:  "agentgallery serves a searchable gallery of CreatorBid agents and inspects them from the terminal.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}
			if err := config.LoadDotEnv(paths.Base); err != nil {
				return err
			}

			// A broken config file must not stop `config set` from fixing it,
			// so logging falls back to defaults here and loadConfig reports
			// the error to the commands that need it.
			cfg, err := config.Load(paths.Config)
			if err != nil {
				cfg = config.Defaults()
			}
			level := logLevel
			if level == "" {
				level = cfg.Logging.Level
			}
			log = logging.NewStyled(cfg.Logging.ConsoleStyle, level)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.agentgallery/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newAgentsCmd())
	cmd.AddCommand(newProfileCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

// loadConfig loads and validates the config file.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return cfg, err
	}
	return cfg, validate(&cfg)
}

// validate logs every issue and fails if there is any.
func validate(cfg *config.Config) error {
	if issues := config.Validate(cfg); len(issues) > 0 {
		for _, issue := range issues {
			log.Error().Str("path", issue.Path).Msg(issue.Message)
		}
		return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
	}
	return nil
}

func newAPIClient(cfg config.Config) *creatorbid.Client {
	return creatorbid.New(creatorbid.Options{
		BaseURL:  cfg.API.BaseURL,
		Timeout:  cfg.API.Timeout,
		PageSize: cfg.API.PageSize,
	}, log)
}
