package config

// AppConfig is the main configuration structure for the gateway.
type AppConfig struct {
	Agent   AgentConfig   `yaml:"agent" json:"agent"`
	HTTP    HTTPConfig    `yaml:"http" json:"http"`
	Chain   ChainConfig   `yaml:"chain" json:"chain"`
	Origins OriginsConfig `yaml:"origins" json:"origins"`
	Payment PaymentConfig `yaml:"payment" json:"payment"`
	Routes  RoutesConfig  `yaml:"routes" json:"routes"`
}

// AgentConfig contains the identity served on the agent card.
type AgentConfig struct {
	Name        string `yaml:"name" json:"name"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description" json:"description"`
	URL         string `yaml:"url" json:"url"`
}

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

// ChainConfig points the reader at one RPC node and one contract. There are
// no baked-in defaults: an unconfigured chain section disables the metadata
// routes rather than silently calling production infrastructure.
type ChainConfig struct {
	RPCURL          string `yaml:"rpc_url" json:"rpc_url"`
	ContractAddress string `yaml:"contract_address" json:"contract_address"`
	ChainID         int64  `yaml:"chain_id" json:"chain_id"`
	Network         string `yaml:"network" json:"network"`
	CollectionName  string `yaml:"collection_name" json:"collection_name"`
}

// Enabled reports whether the chain section is fully configured.
func (c ChainConfig) Enabled() bool {
	return c.RPCURL != "" && c.ContractAddress != ""
}

// OriginsConfig names the upstreams the router proxies to.
type OriginsConfig struct {
	StaticURL  string `yaml:"static_url" json:"static_url"`
	DynamicURL string `yaml:"dynamic_url" json:"dynamic_url"`
	ForwardURL string `yaml:"forward_url" json:"forward_url"`
}

// PaymentConfig is advertised on the agent card and as X-Payment-* headers.
type PaymentConfig struct {
	Address   string `yaml:"address" json:"address"`
	Network   string `yaml:"network" json:"network"`
	Currency  string `yaml:"currency" json:"currency"`
	Price     string `yaml:"price" json:"price"`
	FreeQuota int    `yaml:"free_quota" json:"free_quota"`
}

// RoutesConfig drives the path classifier: prefixes that go to the static
// origin, prefixes that go to the dynamic backend, and alias rewrites for
// well-known static routes.
type RoutesConfig struct {
	StaticPrefixes  []string          `yaml:"static_prefixes" json:"static_prefixes"`
	DynamicPrefixes []string          `yaml:"dynamic_prefixes" json:"dynamic_prefixes"`
	Aliases         map[string]string `yaml:"aliases" json:"aliases"`
}

// DefaultConfig returns the built-in configuration. Chain and origin
// endpoints are deliberately left empty.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Agent: AgentConfig{
			Name:        "growmint-gateway",
			Version:     "1.0.0",
			Description: "Protocol gateway for the growmint grow + trading agent",
		},
		HTTP: HTTPConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Payment: PaymentConfig{
			Currency:  "USDC",
			Price:     "0.01",
			FreeQuota: 100,
		},
		Routes: RoutesConfig{
			StaticPrefixes: []string{"/docs", "/assets", "/images"},
			DynamicPrefixes: []string{
				"/api",
			},
			Aliases: map[string]string{
				"/docs": "/docs/index.html",
			},
		},
	}
}
