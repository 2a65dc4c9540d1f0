package domain

import (
	"github.com/ethereum/go-ethereum/common"
)

// Member is one holder of an agent's token.
type Member struct {
	Address      string        `json:"address"`
	AmountLocked NumericString `json:"amountLocked"`
}

// MemberList is the members endpoint envelope.
type MemberList struct {
	Members []Member `json:"members"`
}

// ChecksumAddress returns the EIP-55 form of a hex address. Anything that
// is not a 20-byte hex address is returned unchanged.
func ChecksumAddress(addr string) string {
	if !common.IsHexAddress(addr) {
		return addr
	}
	return common.HexToAddress(addr).Hex()
}

// Price is the price endpoint response. The detail view reads
// priceNativeToken while the profile view reads price; both are kept and
// each consumer picks its own field.
type Price struct {
	NativeToken NumericString `json:"priceNativeToken,omitempty"`
	Legacy      NumericString `json:"price,omitempty"`
}

// ForDetail returns the field the detail view displays.
func (p Price) ForDetail() NumericString { return p.NativeToken }

// ForProfile returns the field the profile view displays.
func (p Price) ForProfile() NumericString { return p.Legacy }
