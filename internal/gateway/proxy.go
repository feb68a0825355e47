package gateway

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/growmint/agent-gateway/internal/config"
)

// originTimeout bounds one proxied round trip. There is deliberately no
// retry toward the dynamic origin; retry policy lives with the caller.
const originTimeout = 10 * time.Second

// originProxy forwards requests to the static content origin or the
// dynamic backend. Static paths fail over to the dynamic origin so a
// content-origin outage degrades gracefully instead of 404ing.
type originProxy struct {
	staticURL  string
	dynamicURL string
	aliases    map[string]string
	client     *http.Client
	logger     *logrus.Logger
}

func newOriginProxy(cfg *config.AppConfig, logger *logrus.Logger) *originProxy {
	return &originProxy{
		staticURL:  strings.TrimRight(cfg.Origins.StaticURL, "/"),
		dynamicURL: strings.TrimRight(cfg.Origins.DynamicURL, "/"),
		aliases:    cfg.Routes.Aliases,
		client:     &http.Client{Timeout: originTimeout},
		logger:     logger,
	}
}

func (p *originProxy) serveStatic(c *gin.Context) {
	if p.staticURL == "" {
		p.serveDynamic(c)
		return
	}

	// Buffer the body up front: the static attempt consumes the stream, and
	// a failover replay must send the same bytes to the dynamic origin.
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	c.Request.ContentLength = int64(len(body))

	path := c.Request.URL.Path
	if alias, ok := p.aliases[path]; ok {
		path = alias
	}

	resp, err := p.roundTrip(c, p.staticURL, path)
	if err != nil {
		p.logger.Warnf("Static origin unreachable, failing over to dynamic: %v", err)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		p.serveDynamic(c)
		return
	}
	defer resp.Body.Close()

	p.relay(c, resp, "static")
}

func (p *originProxy) serveDynamic(c *gin.Context) {
	if p.dynamicURL == "" {
		c.JSON(http.StatusBadGateway, gin.H{"error": "no dynamic origin configured"})
		return
	}

	resp, err := p.roundTrip(c, p.dynamicURL, c.Request.URL.Path)
	if err != nil {
		p.logger.Errorf("Dynamic origin unreachable: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream unreachable"})
		return
	}
	defer resp.Body.Close()

	p.relay(c, resp, "dynamic")
}

// roundTrip replays the inbound request against an origin, unchanged except
// for the host.
func (p *originProxy) roundTrip(c *gin.Context, base, path string) (*http.Response, error) {
	target := base + path
	if q := c.Request.URL.RawQuery; q != "" {
		target += "?" + q
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, target, c.Request.Body)
	if err != nil {
		return nil, err
	}
	for name, values := range c.Request.Header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	// The Content-Length header copied above is ignored on outgoing
	// requests; carry the length explicitly so the origin is not forced
	// into chunked reads.
	if c.Request.ContentLength >= 0 {
		req.ContentLength = c.Request.ContentLength
	}
	return p.client.Do(req)
}

func (p *originProxy) relay(c *gin.Context, resp *http.Response, tier string) {
	for name, values := range resp.Header {
		for _, v := range values {
			c.Writer.Header().Add(name, v)
		}
	}
	c.Writer.Header().Set("X-Served-By", "gateway-"+tier)
	c.Status(resp.StatusCode)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		p.logger.Warnf("Relay from %s origin interrupted: %v", tier, err)
	}
}
