// Package profile loads a single agent together with its holder list.
package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/soyeahso/agentgallery/internal/domain"
	"github.com/soyeahso/agentgallery/internal/logging"
	"github.com/soyeahso/agentgallery/internal/terminal"
)

// DefaultAgentID is shown when no id is given.
const DefaultAgentID = "692ae9943e131028c344b312"

// ErrLoadFailed wraps any failure while loading a profile.
var ErrLoadFailed = errors.New("Failed to load agent")

// Source is the part of the CreatorBid API a profile reads.
type Source interface {
	Metadata(ctx context.Context, id string) (domain.Agent, error)
	Price(ctx context.Context, id string) (domain.Price, error)
	Members(ctx context.Context, id string) ([]domain.Member, error)
}

// Profile is one agent with its price and holders.
type Profile struct {
	Agent   domain.Agent
	Price   domain.NumericString
	Members []domain.Member
}

// Load fetches metadata, price and members one after another. Any failure
// aborts the whole profile.
func Load(ctx context.Context, src Source, id string, log *logging.Logger) (*Profile, error) {
	if id == "" {
		id = DefaultAgentID
	}
	log = log.Sub("profile")

	meta, err := src.Metadata(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("agent_id", id).Msg("failed to fetch metadata")
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	price, err := src.Price(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("agent_id", id).Msg("failed to fetch price")
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	members, err := src.Members(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("agent_id", id).Msg("failed to fetch members")
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	meta.ID = id
	meta.Price = price.ForProfile()
	return &Profile{Agent: meta, Price: price.ForProfile(), Members: members}, nil
}

// Print writes the profile to p.
func (pr *Profile) Print(p *terminal.Printer) {
	p.Title(pr.Agent.Name)
	p.Field("Image", pr.Agent.ProfilePicture)
	if pr.Agent.Description != "" {
		p.Text(pr.Agent.Description)
	}
	if v, ok := domain.DisplayPrice(pr.Agent); ok {
		p.Field("Price", v+" (native token)")
	}
	p.Blank()
	p.Title("Members / Holders")
	if len(pr.Members) == 0 {
		p.Dim("No members.")
		return
	}
	rows := make([][]string, 0, len(pr.Members))
	for _, m := range pr.Members {
		rows = append(rows, []string{domain.ChecksumAddress(m.Address), m.AmountLocked.String()})
	}
	p.Table([]string{"Address", "Amount Locked"}, rows)
}
