// Package gateway is the top-level request router: it terminates the A2A
// and MCP protocol surfaces, serves on-chain metadata, ingests event
// webhooks, and proxies everything else to the static or dynamic origin.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/growmint/agent-gateway/internal/a2a"
	"github.com/growmint/agent-gateway/internal/chain"
	"github.com/growmint/agent-gateway/internal/config"
	"github.com/growmint/agent-gateway/internal/jsonrpc"
	"github.com/growmint/agent-gateway/internal/mcp"
	"github.com/growmint/agent-gateway/internal/webhook"
)

// ChainReader is what the metadata routes need from internal/chain. A nil
// reader disables those routes with a 503 instead of a silent default node.
type ChainReader interface {
	TotalMinted(ctx context.Context) (uint64, error)
	TokenMetadata(ctx context.Context, tokenID uint64) (*chain.TokenMetadata, error)
}

// Server wires all gateway components behind one gin engine.
type Server struct {
	cfg        *config.AppConfig
	router     *gin.Engine
	httpServer *http.Server
	a2aService *a2a.Service
	mcpService *mcp.Service
	reader     ChainReader
	ingester   *webhook.Ingester
	proxy      *originProxy
	logger     *logrus.Logger
}

// NewServer builds the router. reader may be nil when the chain section is
// not configured.
func NewServer(cfg *config.AppConfig, reader ChainReader, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	// Trailing-slash protocol roots go through the classifier, not a 307.
	router.RedirectTrailingSlash = false

	s := &Server{
		cfg:        cfg,
		router:     router,
		a2aService: a2a.NewService(buildCard(cfg), logger),
		mcpService: mcp.NewService(cfg.Agent.Name, cfg.Agent.Version, mcp.DefaultRegistry(), logger),
		reader:     reader,
		ingester:   webhook.NewIngester(cfg.Origins.ForwardURL, logger),
		proxy:      newOriginProxy(cfg, logger),
		logger:     logger,
	}
	s.registerRoutes()
	return s
}

// Router exposes the gin engine, mostly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start begins serving in a background goroutine.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.HTTP.Host, s.cfg.HTTP.Port),
		Handler: s.router,
	}
	s.logger.Infof("Starting gateway on %s", s.httpServer.Addr)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("HTTP server error: %v", err)
		}
	}()
	return nil
}

// Shutdown stops the server, allowing in-flight requests to finish.
func (s *Server) Shutdown() error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("Shutting down gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}
	s.logger.Info("Gateway shutdown complete")
	return nil
}

func (s *Server) registerRoutes() {
	s.router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", "X-Payment", "X-Payment-Signature"},
		ExposeHeaders:   []string{"X-Payment-Address", "X-Payment-Network", "X-Served-By"},
		MaxAge:          12 * time.Hour,
	}))
	s.router.Use(s.paymentHeaders())

	// A2A protocol surface: POST for the JSON-RPC envelope, GET/HEAD for
	// discovery without a POST, OPTIONS for bare (non-preflight) probes.
	s.router.POST(PathA2A, s.handleA2ARPC)
	s.router.GET(PathA2A, s.handleAgentCard)
	s.router.HEAD(PathA2A, s.handleAgentCardHead)
	s.router.OPTIONS(PathA2A, s.handleOptions)
	s.router.GET(PathCard, s.handleAgentCard)

	// MCP protocol surface.
	s.router.POST(PathMCP, s.handleMCPRPC)
	s.router.GET(PathMCP, s.handleToolIndex)
	s.router.OPTIONS(PathMCP, s.handleOptions)

	// On-chain metadata.
	s.router.GET(PathMetadata, s.handleCollection)
	s.router.GET(PathMetadata+"/:tokenId", s.handleTokenMetadata)

	// Webhook ingestion.
	s.router.POST(PathWebhook, s.handleWebhook)

	s.router.GET("/health", s.handleHealth)

	// Trailing-slash protocol roots and all remaining traffic.
	s.router.NoRoute(s.handleFallthrough)
}

// paymentHeaders advertises x402 terms on every response so a client can
// discover them from any interaction.
func (s *Server) paymentHeaders() gin.HandlerFunc {
	payment := s.cfg.Payment
	return func(c *gin.Context) {
		if payment.Address != "" {
			c.Header("X-Payment-Address", payment.Address)
			c.Header("X-Payment-Network", payment.Network)
			c.Header("X-Payment-Currency", payment.Currency)
			c.Header("X-Payment-Price", payment.Price)
		}
		c.Next()
	}
}

func (s *Server) handleA2ARPC(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusOK, &jsonrpc.Response{
			JSONRPC: jsonrpc.Version,
			Error:   jsonrpc.NewError(jsonrpc.CodeParseError, "Parse error"),
		})
		return
	}
	c.JSON(http.StatusOK, s.a2aService.Dispatch(body))
}

func (s *Server) handleAgentCard(c *gin.Context) {
	c.JSON(http.StatusOK, s.a2aService.Card())
}

func (s *Server) handleAgentCardHead(c *gin.Context) {
	c.Header("Content-Type", "application/json")
	c.Status(http.StatusOK)
}

func (s *Server) handleOptions(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (s *Server) handleMCPRPC(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusOK, &jsonrpc.Response{
			JSONRPC: jsonrpc.Version,
			Error:   jsonrpc.NewError(jsonrpc.CodeParseError, "Parse error"),
		})
		return
	}
	c.JSON(http.StatusOK, s.mcpService.Dispatch(body))
}

func (s *Server) handleToolIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"tools": s.mcpService.Registry().List(),
	})
}

func (s *Server) handleCollection(c *gin.Context) {
	if s.reader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "chain reader not configured"})
		return
	}
	total, err := s.reader.TotalMinted(c.Request.Context())
	if err != nil {
		s.logger.Errorf("totalMinted call failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":             s.cfg.Chain.CollectionName,
		"total_supply":     total,
		"contract_address": s.cfg.Chain.ContractAddress,
		"chain_id":         s.cfg.Chain.ChainID,
		"network":          s.cfg.Chain.Network,
	})
}

func (s *Server) handleTokenMetadata(c *gin.Context) {
	if s.reader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "chain reader not configured"})
		return
	}
	tokenID, err := strconv.ParseUint(c.Param("tokenId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token id must be a non-negative integer"})
		return
	}

	meta, err := s.reader.TokenMetadata(c.Request.Context(), tokenID)
	if err != nil {
		var notFound *chain.NotFoundError
		if errors.As(err, &notFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":         notFound.Error(),
				"next_token_id": notFound.NextTokenID,
			})
			return
		}
		s.logger.Errorf("Metadata read for token %d failed: %v", tokenID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, renderMarketplaceDoc(s.cfg.Chain.CollectionName, meta))
}

func (s *Server) handleWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	result, err := s.ingester.Process(body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleHealth(c *gin.Context) {
	chainStatus := "disabled"
	if s.reader != nil {
		chainStatus = "active"
	}
	forwarding := "disabled"
	if s.cfg.Origins.ForwardURL != "" {
		forwarding = "active"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"services": gin.H{
			"chain":      chainStatus,
			"forwarding": forwarding,
		},
	})
}

// handleFallthrough covers trailing-slash protocol roots plus the static
// and dynamic proxy tiers.
func (s *Server) handleFallthrough(c *gin.Context) {
	path := c.Request.URL.Path
	switch Classify(path, s.cfg.Routes.StaticPrefixes, s.cfg.Routes.DynamicPrefixes) {
	case RouteA2A:
		s.dispatchProtocolRoot(c, s.handleA2ARPC, s.handleAgentCard)
	case RouteMCP:
		s.dispatchProtocolRoot(c, s.handleMCPRPC, s.handleToolIndex)
	case RouteWebhook:
		if c.Request.Method == http.MethodPost {
			s.handleWebhook(c)
		} else {
			c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
		}
	case RouteMetadata:
		// Only the bare trailing-slash form lands here; the registered
		// routes cover everything else.
		if c.Request.Method == http.MethodGet && path == PathMetadata+"/" {
			s.handleCollection(c)
		} else {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		}
	case RouteStatic:
		s.proxy.serveStatic(c)
	default:
		s.proxy.serveDynamic(c)
	}
}

func (s *Server) dispatchProtocolRoot(c *gin.Context, post, get gin.HandlerFunc) {
	switch c.Request.Method {
	case http.MethodPost:
		post(c)
	case http.MethodGet:
		get(c)
	case http.MethodHead:
		s.handleAgentCardHead(c)
	case http.MethodOptions:
		s.handleOptions(c)
	default:
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	}
}

func buildCard(cfg *config.AppConfig) *a2a.AgentCard {
	var payment *a2a.PaymentDescriptor
	if cfg.Payment.Address != "" {
		payment = &a2a.PaymentDescriptor{
			Address:   cfg.Payment.Address,
			Currency:  cfg.Payment.Currency,
			Network:   cfg.Payment.Network,
			ChainID:   cfg.Chain.ChainID,
			Price:     cfg.Payment.Price,
			FreeQuota: cfg.Payment.FreeQuota,
		}
	}
	card := &a2a.AgentCard{
		ProtocolVersion:    a2a.ProtocolVersion,
		Name:               cfg.Agent.Name,
		Description:        cfg.Agent.Description,
		URL:                cfg.Agent.URL,
		Version:            cfg.Agent.Version,
		PreferredTransport: "JSONRPC",
		DefaultInputModes:  []string{"text/plain"},
		DefaultOutputModes: []string{"text/plain", "application/json"},
		Skills:             a2a.Skills(),
		Payment:            payment,
	}
	if cfg.Agent.URL != "" {
		card.AdditionalInterfaces = []a2a.AgentInterface{
			{Transport: "JSONRPC", URL: cfg.Agent.URL + PathA2A},
			{Transport: "JSONRPC", URL: cfg.Agent.URL + PathMCP},
		}
	}
	return card
}

// renderMarketplaceDoc shapes one token record as a marketplace-compatible
// metadata document with an attributes array.
func renderMarketplaceDoc(collection string, meta *chain.TokenMetadata) gin.H {
	if collection == "" {
		collection = "Grow Milestone"
	}
	return gin.H{
		"name":        fmt.Sprintf("%s #%d", collection, meta.TokenID),
		"description": meta.Narrative,
		"image":       meta.ImageURI,
		"raw_image":   meta.RawImageURI,
		"attributes": []gin.H{
			{"trait_type": "Milestone", "value": meta.MilestoneName()},
			{"trait_type": "Rarity", "value": meta.RarityName()},
			{"trait_type": "Day", "display_type": "number", "value": meta.DayNumber},
			{"trait_type": "Temperature (C)", "display_type": "number", "value": float64(meta.TemperatureCenti) / 100},
			{"trait_type": "Humidity (%)", "display_type": "number", "value": float64(meta.HumidityCenti) / 100},
			{"trait_type": "VPD (kPa)", "display_type": "number", "value": float64(meta.VPDMilli) / 1000},
			{"trait_type": "Health Score", "display_type": "number", "value": meta.HealthScore},
			{"trait_type": "Grow Cycle", "display_type": "number", "value": meta.GrowCycle},
			{"trait_type": "Art Style", "value": meta.ArtStyle},
			{"trait_type": "Minted", "display_type": "date", "value": meta.TimestampUnix},
		},
	}
}
