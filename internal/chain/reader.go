// Package chain reads milestone NFT metadata straight off the contract via
// raw eth_call. There is no contract binding on purpose: the return tuple is
// decoded by hand with internal/abiword, which keeps the edge deployment
// free of generated bindings at the cost of owning the tail-encoding rules.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"

	"github.com/growmint/agent-gateway/internal/abiword"
)

// Fixed word indexes of the milestone tuple returned by getMilestoneData.
const (
	slotMilestoneType = iota
	slotRarity
	slotDayNumber
	slotTemperature
	slotHumidity
	slotVPD
	slotHealthScore
	slotGrowCycle
	slotImageURI
	slotRawImageURI
	slotArtStyle
	slotNarrative
	slotTimestamp
)

// DefaultCallTimeout bounds one eth_call round trip so a slow node cannot
// exhaust the edge platform's request budget.
const DefaultCallTimeout = 5 * time.Second

var (
	selMilestoneData = selector("getMilestoneData(uint256)")
	selTotalMinted   = selector("totalMinted()")
)

func selector(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:4]
}

// Reader issues read-only contract calls against one configured node.
type Reader struct {
	client   *rpc.Client
	contract common.Address
	chainID  int64
	timeout  time.Duration
	logger   *logrus.Logger
}

// NewReader dials the RPC endpoint and binds the reader to one contract.
func NewReader(rpcURL, contractAddr string, chainID int64, logger *logrus.Logger) (*Reader, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if !common.IsHexAddress(contractAddr) {
		return nil, fmt.Errorf("invalid contract address: %q", contractAddr)
	}
	client, err := rpc.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc endpoint: %w", err)
	}
	return &Reader{
		client:   client,
		contract: common.HexToAddress(contractAddr),
		chainID:  chainID,
		timeout:  DefaultCallTimeout,
		logger:   logger,
	}, nil
}

// Close releases the underlying RPC connection.
func (r *Reader) Close() {
	r.client.Close()
}

// Contract returns the bound contract address.
func (r *Reader) Contract() common.Address {
	return r.contract
}

// ChainID returns the configured chain id.
func (r *Reader) ChainID() int64 {
	return r.chainID
}

// TotalMinted calls the totalMinted() accessor.
func (r *Reader) TotalMinted(ctx context.Context) (uint64, error) {
	data, err := r.ethCall(ctx, selTotalMinted)
	if err != nil {
		return 0, err
	}
	total, err := abiword.ReadUint64(data, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to decode totalMinted: %w", err)
	}
	return total, nil
}

// TokenMetadata fetches and decodes the milestone record for tokenID. A
// token id at or past totalMinted yields a *NotFoundError carrying the
// current total; the contract is never asked to decode an unminted token.
func (r *Reader) TokenMetadata(ctx context.Context, tokenID uint64) (*TokenMetadata, error) {
	total, err := r.TotalMinted(ctx)
	if err != nil {
		return nil, err
	}
	if tokenID >= total {
		return nil, &NotFoundError{TokenID: tokenID, NextTokenID: total}
	}

	callData := make([]byte, 0, 4+32)
	callData = append(callData, selMilestoneData...)
	callData = append(callData, common.LeftPadBytes(new(big.Int).SetUint64(tokenID).Bytes(), 32)...)

	data, err := r.ethCall(ctx, callData)
	if err != nil {
		return nil, err
	}
	meta, err := decodeMilestone(data, tokenID)
	if err != nil {
		r.logger.Warnf("Malformed milestone payload for token %d: %v", tokenID, err)
		return nil, err
	}
	return meta, nil
}

func (r *Reader) ethCall(ctx context.Context, callData []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var result string
	arg := map[string]interface{}{
		"to":   r.contract,
		"data": hexutil.Encode(callData),
	}
	if err := r.client.CallContext(ctx, &result, "eth_call", arg, "latest"); err != nil {
		return "", &RPCError{Method: "eth_call", Err: err}
	}
	return strings.TrimPrefix(result, "0x"), nil
}

func decodeMilestone(data string, tokenID uint64) (*TokenMetadata, error) {
	meta := &TokenMetadata{TokenID: tokenID}

	var err error
	if meta.MilestoneType, err = abiword.ReadUint64(data, slotMilestoneType); err != nil {
		return nil, fmt.Errorf("milestone type: %w", err)
	}
	if meta.Rarity, err = abiword.ReadUint64(data, slotRarity); err != nil {
		return nil, fmt.Errorf("rarity: %w", err)
	}
	if meta.DayNumber, err = abiword.ReadUint64(data, slotDayNumber); err != nil {
		return nil, fmt.Errorf("day number: %w", err)
	}
	if meta.TemperatureCenti, err = abiword.ReadInt64(data, slotTemperature); err != nil {
		return nil, fmt.Errorf("temperature: %w", err)
	}
	if meta.HumidityCenti, err = abiword.ReadInt64(data, slotHumidity); err != nil {
		return nil, fmt.Errorf("humidity: %w", err)
	}
	if meta.VPDMilli, err = abiword.ReadInt64(data, slotVPD); err != nil {
		return nil, fmt.Errorf("vpd: %w", err)
	}
	if meta.HealthScore, err = abiword.ReadUint64(data, slotHealthScore); err != nil {
		return nil, fmt.Errorf("health score: %w", err)
	}
	if meta.GrowCycle, err = abiword.ReadUint64(data, slotGrowCycle); err != nil {
		return nil, fmt.Errorf("grow cycle: %w", err)
	}
	if meta.ImageURI, err = abiword.ReadDynamicString(data, slotImageURI); err != nil {
		return nil, fmt.Errorf("image uri: %w", err)
	}
	if meta.RawImageURI, err = abiword.ReadDynamicString(data, slotRawImageURI); err != nil {
		return nil, fmt.Errorf("raw image uri: %w", err)
	}
	if meta.ArtStyle, err = abiword.ReadDynamicString(data, slotArtStyle); err != nil {
		return nil, fmt.Errorf("art style: %w", err)
	}
	if meta.Narrative, err = abiword.ReadDynamicString(data, slotNarrative); err != nil {
		return nil, fmt.Errorf("narrative: %w", err)
	}
	if meta.TimestampUnix, err = abiword.ReadUint64(data, slotTimestamp); err != nil {
		return nil, fmt.Errorf("timestamp: %w", err)
	}
	return meta, nil
}
