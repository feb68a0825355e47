// Package webhook decodes streaming on-chain event deliveries into typed
// domain events and forwards them, best effort, to an internal origin. The
// provider always gets a 200 once the body parses: a 5xx here would only
// trigger retry storms and duplicate processing.
package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
)

// ForwardTimeout bounds the fire-and-forget delivery to the internal origin.
const ForwardTimeout = 3 * time.Second

// StreamEvent is one decoded log entry.
type StreamEvent struct {
	EventName   string                 `json:"event"`
	Fields      map[string]interface{} `json:"fields"`
	BlockNumber uint64                 `json:"block_number,omitempty"`
	TxHash      string                 `json:"tx_hash,omitempty"`
}

// Result is the acknowledgement returned to the webhook provider.
type Result struct {
	Received  bool          `json:"received"`
	Processed int           `json:"processed"`
	Events    []StreamEvent `json:"events"`
}

type eventDef struct {
	name   string
	decode func(topics []string) map[string]interface{}
}

// Signature hashes of the contract events this gateway cares about. Logs
// with any other topics[0] are skipped, not errored: the provider streams
// everything the contract (or its neighbors) emits.
var eventTable = map[common.Hash]eventDef{
	crypto.Keccak256Hash([]byte("MilestoneMinted(address,uint256,uint256)")): {
		name: "MilestoneMinted",
		decode: func(topics []string) map[string]interface{} {
			return map[string]interface{}{
				"to":            topicAddress(topics, 1),
				"tokenId":       topicUint(topics, 2),
				"milestoneType": topicUint(topics, 3),
			}
		},
	},
	crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)")): {
		name: "Transfer",
		decode: func(topics []string) map[string]interface{} {
			return map[string]interface{}{
				"from":    topicAddress(topics, 1),
				"to":      topicAddress(topics, 2),
				"tokenId": topicUint(topics, 3),
			}
		},
	},
	crypto.Keccak256Hash([]byte("TradeSettled(address,uint256,uint256)")): {
		name: "TradeSettled",
		decode: func(topics []string) map[string]interface{} {
			return map[string]interface{}{
				"trader":  topicAddress(topics, 1),
				"tradeId": topicUint(topics, 2),
			}
		},
	},
}

// Ingester decodes webhook deliveries and forwards decoded batches.
type Ingester struct {
	forwardURL string
	client     *http.Client
	logger     *logrus.Logger
}

func NewIngester(forwardURL string, logger *logrus.Logger) *Ingester {
	if logger == nil {
		logger = logrus.New()
	}
	return &Ingester{
		forwardURL: forwardURL,
		client:     &http.Client{Timeout: ForwardTimeout},
		logger:     logger,
	}
}

// Process decodes one delivery. The body may be a single event object, an
// array of events, or objects carrying nested "logs" arrays. Only a body
// that fails to parse as JSON is an error.
func (in *Ingester) Process(body []byte) (*Result, error) {
	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("webhook body is not valid JSON: %w", err)
	}

	result := &Result{Received: true, Events: []StreamEvent{}}
	in.collect(payload, result)
	result.Processed = len(result.Events)

	if result.Processed > 0 {
		in.forward(result.Events)
	}
	return result, nil
}

func (in *Ingester) collect(node interface{}, result *Result) {
	switch v := node.(type) {
	case []interface{}:
		for _, item := range v {
			in.collect(item, result)
		}
	case map[string]interface{}:
		if logs, ok := v["logs"].([]interface{}); ok {
			for _, item := range logs {
				in.collect(item, result)
			}
			return
		}
		if event, ok := in.decodeLog(v); ok {
			result.Events = append(result.Events, event)
		}
	}
}

func (in *Ingester) decodeLog(entry map[string]interface{}) (StreamEvent, bool) {
	rawTopics, ok := entry["topics"].([]interface{})
	if !ok || len(rawTopics) == 0 {
		return StreamEvent{}, false
	}
	topics := make([]string, 0, len(rawTopics))
	for _, t := range rawTopics {
		s, ok := t.(string)
		if !ok {
			return StreamEvent{}, false
		}
		topics = append(topics, s)
	}

	def, ok := eventTable[common.HexToHash(topics[0])]
	if !ok {
		return StreamEvent{}, false
	}

	return StreamEvent{
		EventName:   def.name,
		Fields:      def.decode(topics),
		BlockNumber: blockNumber(entry),
		TxHash:      txHash(entry),
	}, true
}

// forward delivers the decoded batch to the internal origin. Failure is
// logged and swallowed so the provider still gets its acknowledgement.
func (in *Ingester) forward(events []StreamEvent) {
	if in.forwardURL == "" {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{"events": events})
	if err != nil {
		in.logger.Errorf("Failed to encode forward payload: %v", err)
		return
	}
	resp, err := in.client.Post(in.forwardURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		in.logger.Warnf("Event forwarding failed: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		in.logger.Warnf("Event forwarding returned status %d", resp.StatusCode)
		return
	}
	in.logger.Infof("Forwarded %d event(s) to internal origin", len(events))
}

func topicAddress(topics []string, index int) string {
	if index >= len(topics) {
		return ""
	}
	// An address-typed topic is the low 20 bytes of the 32-byte word.
	return common.HexToAddress(topics[index]).Hex()
}

func topicUint(topics []string, index int) string {
	if index >= len(topics) {
		return "0"
	}
	return new(big.Int).SetBytes(common.HexToHash(topics[index]).Bytes()).String()
}

func blockNumber(entry map[string]interface{}) uint64 {
	switch v := entry["blockNumber"].(type) {
	case string:
		n := new(big.Int)
		if _, ok := n.SetString(strings.TrimPrefix(v, "0x"), 16); ok && n.IsUint64() {
			return n.Uint64()
		}
	case float64:
		if v >= 0 {
			return uint64(v)
		}
	}
	return 0
}

func txHash(entry map[string]interface{}) string {
	for _, key := range []string{"transactionHash", "txHash"} {
		if s, ok := entry[key].(string); ok {
			return s
		}
	}
	return ""
}
