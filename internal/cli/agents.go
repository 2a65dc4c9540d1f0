package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soyeahso/agentgallery/internal/detail"
	"github.com/soyeahso/agentgallery/internal/domain"
	"github.com/soyeahso/agentgallery/internal/gallery"
	"github.com/soyeahso/agentgallery/internal/terminal"
)

func newAgentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Browse CreatorBid agents from the terminal",
	}

	cmd.AddCommand(newAgentsListCmd())
	cmd.AddCommand(newAgentsShowCmd())
	return cmd
}

func newAgentsListCmd() *cobra.Command {
	var (
		search string
		pages  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List valid agents by market cap",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if pages < 1 {
				return fmt.Errorf("--pages must be at least 1")
			}

			g := gallery.New(newAPIClient(cfg), gallery.Options{
				PageSize:          cfg.API.PageSize,
				EnrichConcurrency: cfg.Gallery.EnrichConcurrency,
			}, log)
			defer g.Close()

			ctx := cmd.Context()
			if err := g.SetSearch(ctx, search); err != nil {
				return err
			}
			for i := 1; i < pages; i++ {
				err := g.LoadMore(ctx)
				if errors.Is(err, gallery.ErrLoadMoreUnavailable) {
					break
				}
				if err != nil {
					return err
				}
			}

			printAgentList(terminal.New(cmd.OutOrStdout()), g.Snapshot())
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "filter agents by name")
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to load")
	return cmd
}

func printAgentList(p *terminal.Printer, snap gallery.Snapshot) {
	if snap.Empty() {
		p.Dim("No agents found matching your search.")
		return
	}

	descWidth := p.Width() - 60
	if descWidth < 20 {
		descWidth = 20
	}
	rows := make([][]string, 0, len(snap.Agents))
	for _, a := range snap.Agents {
		mc, _ := domain.DisplayMarketCap(a)
		vol, _ := domain.DisplayVolume(a)
		desc := a.Description
		if desc == "" {
			desc = "No description available."
		}
		rows = append(rows, []string{a.ID, a.Name, mc, vol, terminal.Truncate(desc, descWidth)})
	}
	p.Table([]string{"ID", "Name", "Market Cap", "Vol (ETH)", "Description"}, rows)

	summary := fmt.Sprintf("%d agents, page %d", len(snap.Agents), snap.Page)
	if snap.HasMore {
		summary += ", more available (use --pages)"
	}
	p.Dim(summary)
}

func newAgentsShowCmd() *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			loader := detail.NewLoader(newAPIClient(cfg), cfg.API.SiteURL, log)
			view := loader.New(args[0], nil, search)
			view.Load(cmd.Context())

			p := terminal.New(cmd.OutOrStdout())
			if err := view.Err(); err != nil {
				p.Fail(detail.NotFoundText)
				return err
			}
			printAgentDetail(p, view)
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "search to return to in the gallery link")
	return cmd
}

func printAgentDetail(p *terminal.Printer, v *detail.View) {
	a := v.Agent
	title := a.Name
	if a.Symbol != "" {
		title += " (" + a.Symbol + ")"
	}
	p.Title(title)
	p.Field("ID", a.ID)
	if mc, ok := domain.DisplayMarketCap(a); ok {
		p.Field("Market Cap", mc)
	}
	if vol, ok := domain.DisplayVolume(a); ok {
		p.Field("Volume", vol+" ETH")
	}
	if price, ok := domain.DisplayPrice(a); ok {
		p.Field("Price", price)
	}
	p.Field("Image", a.ProfilePicture)
	p.Field("CreatorBid", v.ExternalURL())
	p.Blank()

	p.Title("About")
	if a.Description == "" {
		p.Dim(detail.NoDescriptionText)
	} else {
		p.Text(a.Description)
	}
	p.Blank()
	p.Dim("Gallery: " + v.BackURL())
}
