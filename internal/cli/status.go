package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/agentgallery/internal/config"
	"github.com/soyeahso/agentgallery/internal/creatorbid"
	"github.com/soyeahso/agentgallery/internal/terminal"
	"github.com/soyeahso/agentgallery/internal/version"
)

const statusCheckTimeout = 10 * time.Second

func newStatusCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration summary and API reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := terminal.New(cmd.OutOrStdout())
			p.Title(fmt.Sprintf("agentgallery %s (commit %s)", version.Version, version.Commit))
			p.Blank()

			p.Field("Home", paths.Base)
			p.Field("Config", paths.Config)
			p.Blank()

			if _, err := os.Stat(paths.Config); os.IsNotExist(err) {
				p.Dim("Config file not found (using defaults)")
			}
			cfg, err := config.Load(paths.Config)
			if err != nil {
				p.Fail(fmt.Sprintf("Config error: %v", err))
				return nil
			}

			p.Field("Server", fmt.Sprintf("port=%d bind=%s", cfg.Server.Port, cfg.Server.Bind))
			p.Field("API", fmt.Sprintf("%s timeout=%s pageSize=%d", cfg.API.BaseURL, cfg.API.Timeout, cfg.API.PageSize))
			p.Field("Site", cfg.API.SiteURL)
			p.Field("Sessions", fmt.Sprintf("idle=%s max=%d", cfg.Web.SessionIdle, cfg.Web.MaxSessions))
			p.Field("Profile", cfg.Profile.AgentID)

			if issues := config.Validate(&cfg); len(issues) > 0 {
				p.Blank()
				p.Fail(fmt.Sprintf("Validation issues (%d):", len(issues)))
				for _, issue := range issues {
					p.Text("  - " + issue.String())
				}
			}

			if offline {
				return nil
			}
			p.Blank()
			ctx, cancel := context.WithTimeout(cmd.Context(), statusCheckTimeout)
			defer cancel()
			start := time.Now()
			page, err := newAPIClient(cfg).ListAgents(ctx, creatorbid.ListParams{Page: 1, Limit: 1})
			if err != nil {
				p.Fail(fmt.Sprintf("API unreachable: %v", err))
				return nil
			}
			p.OK(fmt.Sprintf("API reachable in %s, %d agents listed", time.Since(start).Round(time.Millisecond), page.NumTotalAgents))
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "skip the API reachability check")
	return cmd
}
