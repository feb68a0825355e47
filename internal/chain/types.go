package chain

import "fmt"

// TokenMetadata is the decoded on-chain record for one milestone NFT. It is
// constructed per request from a single eth_call and never persisted; the
// chain stays the source of truth.
type TokenMetadata struct {
	TokenID          uint64 `json:"token_id"`
	MilestoneType    uint64 `json:"milestone_type"`
	Rarity           uint64 `json:"rarity"`
	DayNumber        uint64 `json:"day_number"`
	TemperatureCenti int64  `json:"temperature_centi"`
	HumidityCenti    int64  `json:"humidity_centi"`
	VPDMilli         int64  `json:"vpd_milli"`
	HealthScore      uint64 `json:"health_score"`
	GrowCycle        uint64 `json:"grow_cycle"`
	ImageURI         string `json:"image_uri"`
	RawImageURI      string `json:"raw_image_uri"`
	ArtStyle         string `json:"art_style"`
	Narrative        string `json:"narrative"`
	TimestampUnix    uint64 `json:"timestamp_unix"`
}

// Display tables for the enum indexes carried on chain. Out-of-range
// indexes fall back to a numbered label rather than failing the decode.
var milestoneNames = []string{
	"Germination",
	"Seedling",
	"Vegetative",
	"Flowering",
	"Harvest",
	"Cure",
	"Sale",
}

var rarityNames = []string{
	"Common",
	"Uncommon",
	"Rare",
	"Epic",
	"Legendary",
}

// MilestoneName returns the human-readable milestone label.
func (m *TokenMetadata) MilestoneName() string {
	return enumName(milestoneNames, m.MilestoneType, "Milestone")
}

// RarityName returns the human-readable rarity label.
func (m *TokenMetadata) RarityName() string {
	return enumName(rarityNames, m.Rarity, "Tier")
}

func enumName(table []string, index uint64, fallback string) string {
	if index < uint64(len(table)) {
		return table[index]
	}
	return fmt.Sprintf("%s %d", fallback, index)
}

// NotFoundError reports a query for a token that has not been minted.
// NextTokenID carries the current totalMinted value as a hint to callers.
type NotFoundError struct {
	TokenID     uint64
	NextTokenID uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("token %d not minted (next token id: %d)", e.TokenID, e.NextTokenID)
}

// RPCError reports a failed round trip to the RPC node. It is never
// converted into zero-valued metadata.
type RPCError struct {
	Method string
	Err    error
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc call %s failed: %v", e.Method, e.Err)
}

func (e *RPCError) Unwrap() error {
	return e.Err
}
