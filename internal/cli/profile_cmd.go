package cli

import (
	"github.com/spf13/cobra"

	"github.com/soyeahso/agentgallery/internal/profile"
	"github.com/soyeahso/agentgallery/internal/terminal"
)

func newProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile [id]",
		Short: "Show an agent with its price and token holders",
		Long:  "Show an agent with its price and token holders. Without an id the configured profile.agentId is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			id := cfg.Profile.AgentID
			if len(args) == 1 {
				id = args[0]
			}

			p := terminal.New(cmd.OutOrStdout())
			pr, err := profile.Load(cmd.Context(), newAPIClient(cfg), id, log)
			if err != nil {
				p.Fail(profile.ErrLoadFailed.Error())
				return err
			}
			pr.Print(p)
			return nil
		},
	}
}
