package domain

import "strings"

// Agent is an agent entity as returned by the CreatorBid API.
// Agents are read-only view models; nothing here is ever written back.
type Agent struct {
	ID                  string        `json:"_id"`
	Name                string        `json:"name"`
	Description         string        `json:"description,omitempty"`
	ProfilePicture      string        `json:"profilePicture,omitempty"`
	MarketCap           NumericString `json:"marketCap,omitempty"`
	CumulativeETHVolume NumericString `json:"cumulativeETHVolume,omitempty"`
	Symbol              string        `json:"symbol,omitempty"`

	// Price is only populated by the detail view.
	Price NumericString `json:"price,omitempty"`
}

// Valid reports whether the agent may be shown in the gallery: it needs a
// non-blank name and a strictly positive market cap and volume.
func (a Agent) Valid() bool {
	if strings.TrimSpace(a.Name) == "" {
		return false
	}
	mc, ok := a.MarketCap.Float()
	if !ok || mc <= 0 {
		return false
	}
	vol, ok := a.CumulativeETHVolume.Float()
	if !ok || vol <= 0 {
		return false
	}
	return true
}

// FilterValid returns the valid agents in their original order.
func FilterValid(agents []Agent) []Agent {
	out := make([]Agent, 0, len(agents))
	for _, a := range agents {
		if a.Valid() {
			out = append(out, a)
		}
	}
	return out
}

// AgentPage is one page of the agent listing.
type AgentPage struct {
	Agents         []Agent `json:"agents"`
	NumTotalAgents int     `json:"numTotalAgents"`
}
