package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vyoniqlabs/backoffice/internal/mcp"
)

// MCPDiscovery describes the protocol endpoint for agent clients that
// probe with GET before speaking JSON-RPC.
func (s *Server) MCPDiscovery(c *gin.Context) {
	tools := s.mcpSrv.Registry().Tools()
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}

	c.JSON(http.StatusOK, gin.H{
		"name":      s.cfg.AppName,
		"version":   s.cfg.AppVersion,
		"protocol":  "jsonrpc-2.0",
		"transport": "http",
		"endpoint":  "/api/mcp",
		"tools":     names,
	})
}

// HandleMCP serves one JSON-RPC envelope. Transport always answers 200
// with a JSON-RPC body; authentication and dispatch failures are
// protocol-level error objects.
func (s *Server) HandleMCP(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		body = nil
	}

	caller := s.mcpCaller(c)
	resp := s.mcpSrv.Handle(c.Request.Context(), caller, body)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) MCPPreflight(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// MCPCORSMiddleware allows browser-based agent clients to reach the
// protocol endpoint from any origin. Only /api/mcp is opened up.
func MCPCORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Next()
	}
}

// mcpCaller resolves the request principal: an admin session carries
// every scope, an API key carries the scopes it was minted with.
func (s *Server) mcpCaller(c *gin.Context) *mcp.Caller {
	if identity := s.resolveIdentity(c); identity != nil {
		return &mcp.Caller{
			Authenticated: true,
			IsAdmin:       identity.IsAdmin,
			Subject:       identity.UserID.String(),
		}
	}

	authz := strings.TrimSpace(c.GetHeader("Authorization"))
	if rawKey, ok := strings.CutPrefix(authz, "Bearer "); ok {
		key, err := s.apiKeySvc.Authenticate(c.Request.Context(), strings.TrimSpace(rawKey))
		if err != nil {
			return &mcp.Caller{}
		}
		return &mcp.Caller{
			Authenticated: true,
			Subject:       key.KeyID,
			Scopes:        key.Scopes,
		}
	}

	return &mcp.Caller{}
}
