package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growmint/agent-gateway/internal/a2a"
	"github.com/growmint/agent-gateway/internal/chain"
	"github.com/growmint/agent-gateway/internal/config"
)

type fakeReader struct {
	total  uint64
	tokens map[uint64]*chain.TokenMetadata
	err    error
}

func (f *fakeReader) TotalMinted(ctx context.Context) (uint64, error) {
	return f.total, f.err
}

func (f *fakeReader) TokenMetadata(ctx context.Context, tokenID uint64) (*chain.TokenMetadata, error) {
	if f.err != nil {
		return nil, f.err
	}
	if tokenID >= f.total {
		return nil, &chain.NotFoundError{TokenID: tokenID, NextTokenID: f.total}
	}
	return f.tokens[tokenID], nil
}

func testConfig() *config.AppConfig {
	cfg := config.DefaultConfig()
	cfg.Agent.URL = "https://agent.growmint.example"
	cfg.Chain.ContractAddress = "0x1111111111111111111111111111111111111111"
	cfg.Chain.ChainID = 8453
	cfg.Chain.Network = "base"
	cfg.Chain.CollectionName = "Grow Milestone"
	cfg.Payment.Address = "0x2222222222222222222222222222222222222222"
	cfg.Payment.Network = "base"
	return cfg
}

func testServer(reader ChainReader) *Server {
	return NewServer(testConfig(), reader, logrus.New())
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestClassify(t *testing.T) {
	static := []string{"/docs", "/assets"}
	dynamic := []string{"/api"}

	cases := map[string]RouteClass{
		"/a2a":                         RouteA2A,
		"/a2a/":                        RouteA2A,
		"/.well-known/agent-card.json": RouteA2A,
		"/mcp":                         RouteMCP,
		"/mcp/":                        RouteMCP,
		"/metadata":                    RouteMetadata,
		"/metadata/42":                 RouteMetadata,
		"/webhook":                     RouteWebhook,
		"/docs":                        RouteStatic,
		"/docs/guide.html":             RouteStatic,
		"/assets/logo.png":             RouteStatic,
		"/api/positions":               RouteDynamic,
		"/anything-else":               RouteDynamic,
		"/docsy":                       RouteDynamic,
	}
	for path, want := range cases {
		assert.Equal(t, want, Classify(path, static, dynamic), "path %s", path)
	}
}

func TestAgentCardDiscovery(t *testing.T) {
	s := testServer(nil)

	for _, path := range []string{PathA2A, PathCard} {
		w := doRequest(s, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, w.Code, "path %s", path)

		var card a2a.AgentCard
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &card))
		assert.Equal(t, "growmint-gateway", card.Name)
		assert.NotEmpty(t, card.Skills)
		require.NotNil(t, card.Payment)
		assert.Equal(t, "0x2222222222222222222222222222222222222222", card.Payment.Address)
	}
}

func TestPaymentHeadersOnEveryResponse(t *testing.T) {
	s := testServer(nil)

	for _, probe := range []struct{ method, path string }{
		{http.MethodGet, PathA2A},
		{http.MethodHead, PathA2A},
		{http.MethodGet, "/health"},
		{http.MethodPost, PathWebhook},
	} {
		w := doRequest(s, probe.method, probe.path, "{}")
		assert.Equal(t, "0x2222222222222222222222222222222222222222", w.Header().Get("X-Payment-Address"), "%s %s", probe.method, probe.path)
		assert.Equal(t, "base", w.Header().Get("X-Payment-Network"))
	}
}

func TestHeadAndOptionsOnProtocolRoot(t *testing.T) {
	s := testServer(nil)

	w := doRequest(s, http.MethodHead, PathA2A, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	w = doRequest(s, http.MethodOptions, PathA2A, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestA2ARPCRoundTrip(t *testing.T) {
	s := testServer(nil)

	w := doRequest(s, http.MethodPost, PathA2A,
		`{"jsonrpc":"2.0","method":"message/send","params":{"skill":"grow-status"},"id":1}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Result map[string]interface{} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Result["status"])
}

func TestTrailingSlashProtocolRoot(t *testing.T) {
	s := testServer(nil)

	w := doRequest(s, http.MethodPost, "/a2a/",
		`{"jsonrpc":"2.0","method":"agent/info","id":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"protocolVersion"`)

	w = doRequest(s, http.MethodGet, "/mcp/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tools"`)
}

func TestMCPToolIndex(t *testing.T) {
	s := testServer(nil)

	w := doRequest(s, http.MethodGet, PathMCP, "")
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Tools []struct {
			Name        string                 `json:"name"`
			InputSchema map[string]interface{} `json:"inputSchema"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.NotEmpty(t, payload.Tools)
	for _, tool := range payload.Tools {
		assert.NotEmpty(t, tool.Name)
		assert.NotNil(t, tool.InputSchema)
	}
}

func TestCollectionMetadata(t *testing.T) {
	s := testServer(&fakeReader{total: 5})

	w := doRequest(s, http.MethodGet, PathMetadata, "")
	require.Equal(t, http.StatusOK, w.Code)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, float64(5), doc["total_supply"])
	assert.Equal(t, "Grow Milestone", doc["name"])
	assert.Equal(t, float64(8453), doc["chain_id"])
}

func TestTokenMetadataDocument(t *testing.T) {
	meta := &chain.TokenMetadata{
		TokenID:          1,
		MilestoneType:    3,
		Rarity:           4,
		DayNumber:        42,
		TemperatureCenti: 2350,
		HumidityCenti:    5500,
		VPDMilli:         1200,
		HealthScore:      97,
		GrowCycle:        2,
		ImageURI:         "ipfs://QmImage/1.png",
		Narrative:        "Week six of flower.",
		TimestampUnix:    1756166400,
	}
	s := testServer(&fakeReader{total: 2, tokens: map[uint64]*chain.TokenMetadata{1: meta}})

	w := doRequest(s, http.MethodGet, "/metadata/1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		Name       string                   `json:"name"`
		Image      string                   `json:"image"`
		Attributes []map[string]interface{} `json:"attributes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "Grow Milestone #1", doc.Name)
	assert.Equal(t, "ipfs://QmImage/1.png", doc.Image)
	require.NotEmpty(t, doc.Attributes)

	byTrait := map[string]interface{}{}
	for _, attr := range doc.Attributes {
		byTrait[attr["trait_type"].(string)] = attr["value"]
	}
	assert.Equal(t, "Flowering", byTrait["Milestone"])
	assert.Equal(t, "Legendary", byTrait["Rarity"])
	assert.Equal(t, 23.5, byTrait["Temperature (C)"])
}

func TestTokenMetadataNotFound(t *testing.T) {
	s := testServer(&fakeReader{total: 3})

	w := doRequest(s, http.MethodGet, "/metadata/7", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(3), body["next_token_id"])
	assert.NotEmpty(t, body["error"])
}

func TestTokenMetadataBadID(t *testing.T) {
	s := testServer(&fakeReader{total: 3})

	w := doRequest(s, http.MethodGet, "/metadata/banana", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetadataWithoutReaderIs503(t *testing.T) {
	s := testServer(nil)

	w := doRequest(s, http.MethodGet, PathMetadata, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestWebhookAlwaysAcknowledges(t *testing.T) {
	s := testServer(nil)

	for _, body := range []string{"[]", "{}"} {
		w := doRequest(s, http.MethodPost, PathWebhook, body)
		require.Equal(t, http.StatusOK, w.Code)

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, true, result["received"])
		assert.Equal(t, float64(0), result["processed"])
	}

	w := doRequest(s, http.MethodPost, PathWebhook, "{broken")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestStaticProxyRewritesAliasAndMarksTier(t *testing.T) {
	static := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/docs/index.html" {
			w.Write([]byte("welcome"))
			return
		}
		http.NotFound(w, r)
	}))
	defer static.Close()

	cfg := testConfig()
	cfg.Origins.StaticURL = static.URL
	cfg.Origins.DynamicURL = "http://127.0.0.1:1"
	s := NewServer(cfg, nil, logrus.New())

	w := doRequest(s, http.MethodGet, "/docs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "welcome", w.Body.String())
	assert.Equal(t, "gateway-static", w.Header().Get("X-Served-By"))
}

func TestStaticFailoverToDynamic(t *testing.T) {
	dynamic := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("dynamic says hi"))
	}))
	defer dynamic.Close()

	cfg := testConfig()
	cfg.Origins.StaticURL = "http://127.0.0.1:1"
	cfg.Origins.DynamicURL = dynamic.URL
	s := NewServer(cfg, nil, logrus.New())

	w := doRequest(s, http.MethodGet, "/docs/guide.html", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dynamic says hi", w.Body.String())
	assert.Equal(t, "gateway-dynamic", w.Header().Get("X-Served-By"))
}

func TestStaticFailoverReplaysRequestBody(t *testing.T) {
	var gotBody string
	dynamic := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer dynamic.Close()

	cfg := testConfig()
	cfg.Origins.StaticURL = "http://127.0.0.1:1"
	cfg.Origins.DynamicURL = dynamic.URL
	s := NewServer(cfg, nil, logrus.New())

	w := doRequest(s, http.MethodPost, "/docs/upload", `{"chunk":"abc"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"chunk":"abc"}`, gotBody)
	assert.Equal(t, "gateway-dynamic", w.Header().Get("X-Served-By"))
}

func TestDynamicPassThroughPreservesRequest(t *testing.T) {
	var gotPath, gotQuery, gotBody string
	dynamic := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusCreated)
	}))
	defer dynamic.Close()

	cfg := testConfig()
	cfg.Origins.DynamicURL = dynamic.URL
	s := NewServer(cfg, nil, logrus.New())

	w := doRequest(s, http.MethodPost, "/api/orders?side=buy", `{"qty":1}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/api/orders", gotPath)
	assert.Equal(t, "side=buy", gotQuery)
	assert.Equal(t, `{"qty":1}`, gotBody)
}

func TestBothOriginsDownIsBadGateway(t *testing.T) {
	cfg := testConfig()
	cfg.Origins.StaticURL = "http://127.0.0.1:1"
	cfg.Origins.DynamicURL = "http://127.0.0.1:1"
	s := NewServer(cfg, nil, logrus.New())

	w := doRequest(s, http.MethodGet, "/docs", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}
