// Package a2a implements the Agent-to-Agent JSON-RPC service: discovery via
// the agent card, skill invocation, and task lookup/cancellation.
package a2a

// ProtocolVersion is the A2A protocol revision this service speaks.
const ProtocolVersion = "0.2.9"

type AgentInterface struct {
	Transport string `json:"transport"`
	URL       string `json:"url"`
}

type AgentProvider struct {
	Organization string `json:"organization,omitempty"`
	URL          string `json:"url,omitempty"`
}

type AgentCapabilities struct {
	Streaming              bool `json:"streaming"`
	PushNotifications      bool `json:"pushNotifications"`
	StateTransitionHistory bool `json:"stateTransitionHistory"`
}

type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
}

// PaymentDescriptor advertises x402-style payment terms. The same values
// are echoed as X-Payment-* headers on every HTTP response so a client can
// discover terms from any interaction.
type PaymentDescriptor struct {
	Address   string `json:"address"`
	Currency  string `json:"currency"`
	Network   string `json:"network"`
	ChainID   int64  `json:"chainId"`
	Price     string `json:"price"`
	FreeQuota int    `json:"freeQuota"`
}

// AgentCard is the static, versioned descriptor served on discovery routes.
type AgentCard struct {
	ProtocolVersion      string             `json:"protocolVersion"`
	Name                 string             `json:"name"`
	Description          string             `json:"description"`
	URL                  string             `json:"url,omitempty"`
	Version              string             `json:"version,omitempty"`
	PreferredTransport   string             `json:"preferredTransport,omitempty"`
	AdditionalInterfaces []AgentInterface   `json:"additionalInterfaces,omitempty"`
	Provider             *AgentProvider     `json:"provider,omitempty"`
	Capabilities         AgentCapabilities  `json:"capabilities"`
	DefaultInputModes    []string           `json:"defaultInputModes"`
	DefaultOutputModes   []string           `json:"defaultOutputModes"`
	Skills               []AgentSkill       `json:"skills"`
	Payment              *PaymentDescriptor `json:"payment,omitempty"`
}
