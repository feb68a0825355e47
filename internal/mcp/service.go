package mcp

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/growmint/agent-gateway/internal/jsonrpc"
)

// MCP protocol revision served by initialize.
const protocolRevision = "2024-11-05"

// Service implements the MCP method table on the shared dispatcher.
type Service struct {
	registry   *Registry
	dispatcher *jsonrpc.Dispatcher
	serverName string
	version    string
	logger     *logrus.Logger
}

func NewService(serverName, version string, registry *Registry, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	if registry == nil {
		registry = DefaultRegistry()
	}
	s := &Service{
		registry:   registry,
		serverName: serverName,
		version:    version,
		logger:     logger,
	}

	d := jsonrpc.NewDispatcher(logger)
	d.Register("initialize", s.handleInitialize)
	d.Register("tools/list", s.handleToolsList)
	d.Register("tools/call", s.handleToolsCall)
	s.dispatcher = d

	return s
}

// Registry exposes the tool table for discovery routes.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Dispatch routes one raw JSON-RPC body.
func (s *Service) Dispatch(body []byte) *jsonrpc.Response {
	return s.dispatcher.Dispatch(body)
}

func (s *Service) handleInitialize(params map[string]interface{}, id interface{}) (interface{}, *jsonrpc.Error) {
	return map[string]interface{}{
		"protocolVersion": protocolRevision,
		"serverInfo": map[string]interface{}{
			"name":    s.serverName,
			"version": s.version,
		},
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
	}, nil
}

func (s *Service) handleToolsList(params map[string]interface{}, id interface{}) (interface{}, *jsonrpc.Error) {
	return map[string]interface{}{
		"tools": s.registry.List(),
	}, nil
}

func (s *Service) handleToolsCall(params map[string]interface{}, id interface{}) (interface{}, *jsonrpc.Error) {
	name, _ := params["name"].(string)
	if name == "" {
		return nil, jsonrpc.InvalidParams("tool name is required")
	}
	tool, ok := s.registry.Lookup(name)
	if !ok {
		return nil, jsonrpc.InvalidParams("unknown tool: " + name)
	}

	arguments, _ := params["arguments"].(map[string]interface{})
	s.logger.Infof("Tool '%s' called with %d argument(s)", tool.Name, len(arguments))

	// Execution requires the private origin; the edge acknowledges receipt
	// and names the tool instead of running it.
	return map[string]interface{}{
		"content": []map[string]interface{}{
			{
				"type": "text",
				"text": fmt.Sprintf("Tool '%s' received by the gateway. Execution is handled by the backend agent.", tool.Name),
			},
		},
	}, nil
}
