package gateway

import "strings"

// RouteClass is the ephemeral classification of one request path. It is
// recomputed per request and never stored.
type RouteClass string

const (
	RouteA2A      RouteClass = "protocol-a2a"
	RouteMCP      RouteClass = "protocol-mcp"
	RouteMetadata RouteClass = "chain-metadata"
	RouteWebhook  RouteClass = "webhook"
	RouteStatic   RouteClass = "static"
	RouteDynamic  RouteClass = "dynamic"
)

// Well-known gateway paths.
const (
	PathA2A      = "/a2a"
	PathMCP      = "/mcp"
	PathMetadata = "/metadata"
	PathWebhook  = "/webhook"
	PathCard     = "/.well-known/agent-card.json"
)

// Classify maps a request path to its route class. Priority order: protocol
// paths (trailing slash tolerated), on-chain metadata, webhook, then
// static-vs-dynamic by prefix membership with dynamic as the default.
func Classify(path string, staticPrefixes, dynamicPrefixes []string) RouteClass {
	switch {
	case matchRoot(path, PathA2A) || path == PathCard:
		return RouteA2A
	case matchRoot(path, PathMCP):
		return RouteMCP
	case path == PathMetadata || strings.HasPrefix(path, PathMetadata+"/"):
		return RouteMetadata
	case matchRoot(path, PathWebhook):
		return RouteWebhook
	case matchAnyPrefix(path, staticPrefixes):
		return RouteStatic
	case matchAnyPrefix(path, dynamicPrefixes):
		return RouteDynamic
	default:
		return RouteDynamic
	}
}

func matchRoot(path, root string) bool {
	return path == root || path == root+"/"
}

func matchAnyPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
