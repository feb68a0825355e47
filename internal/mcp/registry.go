// Package mcp implements the Model Context Protocol surface: tool
// introspection plus an acknowledge-only tools/call. Actual execution lives
// behind the private sensor/trading origin and is deliberately not reachable
// from the edge; the registry boundary is where a proxied call would go.
package mcp

// Tool describes one registry entry. InputSchema is a JSON-Schema-shaped
// object describing accepted parameters.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// Registry holds the tool table. Names are unique; registration order is
// preserved for listing.
type Registry struct {
	tools []Tool
	index map[string]int
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{index: make(map[string]int, len(tools))}
	for _, tool := range tools {
		r.Add(tool)
	}
	return r
}

// Add registers a tool, replacing any previous entry with the same name.
func (r *Registry) Add(tool Tool) {
	if i, ok := r.index[tool.Name]; ok {
		r.tools[i] = tool
		return
	}
	r.index[tool.Name] = len(r.tools)
	r.tools = append(r.tools, tool)
}

// Lookup resolves a tool by name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	i, ok := r.index[name]
	if !ok {
		return Tool{}, false
	}
	return r.tools[i], true
}

// List returns the tools in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

func objectSchema(props map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// DefaultRegistry lists the tools the backend agent exposes through this
// gateway.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Tool{
			Name:        "get_grow_status",
			Description: "Read the current cultivation telemetry: temperature, humidity, VPD and canopy health score.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},
		Tool{
			Name:        "get_token_metadata",
			Description: "Fetch the on-chain metadata record for one grow milestone NFT.",
			InputSchema: objectSchema(map[string]interface{}{
				"tokenId": map[string]interface{}{
					"type":        "integer",
					"description": "Token id of the milestone NFT",
				},
			}, "tokenId"),
		},
		Tool{
			Name:        "get_trading_position",
			Description: "Summarize the trading agent's open positions and recent fills.",
			InputSchema: objectSchema(map[string]interface{}{
				"market": map[string]interface{}{
					"type":        "string",
					"description": "Optional market symbol filter",
				},
			}),
		},
		Tool{
			Name:        "list_milestones",
			Description: "List minted grow milestones with their types and mint timestamps.",
			InputSchema: objectSchema(map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of milestones to return",
				},
			}),
		},
	)
}
