package webhook

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	mintTopic     = crypto.Keccak256Hash([]byte("MilestoneMinted(address,uint256,uint256)")).Hex()
	transferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)")).Hex()
)

func paddedAddress(addr string) string {
	return "0x" + "000000000000000000000000" + addr
}

func paddedUint(v uint64) string {
	return fmt.Sprintf("0x%064x", v)
}

func mintLog(tokenID uint64) map[string]interface{} {
	return map[string]interface{}{
		"topics": []interface{}{
			mintTopic,
			paddedAddress("00000000000000000000000000000000000000aa"),
			paddedUint(tokenID),
			paddedUint(3),
		},
		"blockNumber":     "0x10",
		"transactionHash": "0xdeadbeef",
	}
}

func process(t *testing.T, in *Ingester, payload interface{}) *Result {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	result, err := in.Process(body)
	require.NoError(t, err)
	return result
}

func TestProcessEmptyInputs(t *testing.T) {
	in := NewIngester("", logrus.New())

	for _, payload := range []interface{}{
		[]interface{}{},
		map[string]interface{}{},
	} {
		result := process(t, in, payload)
		assert.True(t, result.Received)
		assert.Equal(t, 0, result.Processed)
		assert.Empty(t, result.Events)
	}
}

func TestProcessInvalidJSON(t *testing.T) {
	in := NewIngester("", logrus.New())

	_, err := in.Process([]byte("{nope"))
	assert.Error(t, err)
}

func TestProcessSingleBareLog(t *testing.T) {
	in := NewIngester("", logrus.New())

	result := process(t, in, mintLog(7))
	require.Equal(t, 1, result.Processed)

	event := result.Events[0]
	assert.Equal(t, "MilestoneMinted", event.EventName)
	assert.Equal(t, "7", event.Fields["tokenId"])
	assert.Equal(t, "3", event.Fields["milestoneType"])
	assert.Equal(t, common.HexToAddress("0xaa").Hex(), event.Fields["to"])
	assert.Equal(t, uint64(16), event.BlockNumber)
	assert.Equal(t, "0xdeadbeef", event.TxHash)
}

func TestProcessUnknownTopicIsSkipped(t *testing.T) {
	in := NewIngester("", logrus.New())

	unknown := map[string]interface{}{
		"topics": []interface{}{crypto.Keccak256Hash([]byte("Noise(uint256)")).Hex()},
	}
	result := process(t, in, []interface{}{unknown, mintLog(1)})
	assert.Equal(t, 1, result.Processed)
}

func TestProcessNestedLogsArrays(t *testing.T) {
	in := NewIngester("", logrus.New())

	payload := []interface{}{
		map[string]interface{}{
			"logs": []interface{}{
				mintLog(1),
				map[string]interface{}{
					"topics": []interface{}{
						transferTopic,
						paddedAddress("00000000000000000000000000000000000000aa"),
						paddedAddress("00000000000000000000000000000000000000bb"),
						paddedUint(1),
					},
				},
			},
		},
	}
	result := process(t, in, payload)
	require.Equal(t, 2, result.Processed)
	assert.Equal(t, "MilestoneMinted", result.Events[0].EventName)
	assert.Equal(t, "Transfer", result.Events[1].EventName)
}

func TestForwardingDeliversBatch(t *testing.T) {
	var got atomic.Value
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Events []StreamEvent `json:"events"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		got.Store(len(payload.Events))
		w.WriteHeader(http.StatusOK)
	}))
	defer origin.Close()

	in := NewIngester(origin.URL, logrus.New())
	result := process(t, in, []interface{}{mintLog(1), mintLog(2)})
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 2, got.Load())
}

func TestForwardingFailureDoesNotFailIngestion(t *testing.T) {
	// Unroutable forward target: the provider acknowledgement must still
	// succeed with the full decoded batch.
	in := NewIngester("http://127.0.0.1:1", logrus.New())

	result := process(t, in, mintLog(1))
	assert.True(t, result.Received)
	assert.Equal(t, 1, result.Processed)
}
