package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"
)

const protocolVersion = "2024-11-05"

// Server dispatches JSON-RPC requests against a frozen registry. Each
// request is stateless; no session survives between calls.
type Server struct {
	registry *Registry
	log      *zap.Logger
	name     string
	version  string
}

func NewServer(registry *Registry, log *zap.Logger, name, version string) *Server {
	registry.Freeze()
	return &Server{
		registry: registry,
		log:      log.Named("mcp.server"),
		name:     name,
		version:  version,
	}
}

func (s *Server) Registry() *Registry {
	return s.registry
}

// Handle processes one JSON-RPC envelope. Authentication failures are
// JSON-RPC errors, never transport-level rejects, so protocol clients
// always get a parseable body.
func (s *Server) Handle(ctx context.Context, caller *Caller, body []byte) Response {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return errorResponse(nil, CodeParseError, "parse error", nil)
	}
	if req.JSONRPC != jsonrpcVersion || req.Method == "" {
		return errorResponse(req.ID, CodeInvalidRequest, "invalid request", nil)
	}

	if caller == nil || !caller.Authenticated {
		return errorResponse(req.ID, CodeUnauthorized, "authentication required", nil)
	}

	switch req.Method {
	case "initialize":
		return resultResponse(req.ID, s.initializeResult())
	case "tools/list":
		return resultResponse(req.ID, s.toolsListResult())
	case "tools/call":
		return s.handleToolCall(ctx, caller, req)
	case "resources/list":
		return resultResponse(req.ID, s.resourcesListResult())
	case "resources/read":
		return s.handleResourceRead(ctx, caller, req)
	default:
		return errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("method %q not found", req.Method), nil)
	}
}

func (s *Server) initializeResult() any {
	return map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"tools":     map[string]any{},
			"resources": map[string]any{},
			"prompts":   false,
			"sampling":  false,
		},
		"serverInfo": map[string]any{
			"name":    s.name,
			"version": s.version,
		},
	}
}

type toolDescriptor struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	InputSchema *openapi3.Schema `json:"inputSchema"`
}

func (s *Server) toolsListResult() any {
	tools := s.registry.Tools()
	out := make([]toolDescriptor, 0, len(tools))
	for _, tool := range tools {
		out = append(out, toolDescriptor{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		})
	}
	return map[string]any{"tools": out}
}

type resourceDescriptor struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MimeType    string `json:"mimeType"`
}

func (s *Server) resourcesListResult() any {
	resources := s.registry.Resources()
	out := make([]resourceDescriptor, 0, len(resources))
	for _, resource := range resources {
		out = append(out, resourceDescriptor{
			URI:         resource.URITemplate,
			Name:        resource.Name,
			Description: resource.Description,
			MimeType:    resource.MimeType,
		})
	}
	return map[string]any{"resources": out}
}

type toolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

func (s *Server) handleToolCall(ctx context.Context, caller *Caller, req Request) Response {
	var params toolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		return errorResponse(req.ID, CodeInvalidParams, "invalid params", nil)
	}

	tool := s.registry.Tool(params.Name)
	if tool == nil {
		return errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("tool %q not found", params.Name), nil)
	}
	if !caller.Allowed(tool.RequiredScope) {
		return errorResponse(req.ID, CodeUnauthorized, "insufficient scope", map[string]any{
			"requiredScope": tool.RequiredScope,
		})
	}

	args := params.Arguments
	if args == nil {
		args = map[string]any{}
	}
	// Schema mismatch never reaches the handler.
	if err := tool.InputSchema.VisitJSON(args); err != nil {
		return errorResponse(req.ID, CodeInvalidParams, "invalid params", err.Error())
	}

	text, err := s.invokeTool(ctx, caller, tool, args)
	if err != nil {
		s.log.Error("tool handler failed", zap.String("tool", tool.Name), zap.Error(err))
		return errorResponse(req.ID, CodeInternalError, "internal error", err.Error())
	}

	return resultResponse(req.ID, textResult(text))
}

// invokeTool shields the transport from handler panics.
func (s *Server) invokeTool(ctx context.Context, caller *Caller, tool *Tool, args map[string]any) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %s panicked: %v", tool.Name, r)
		}
	}()
	return tool.Handler(ctx, caller, args)
}

type resourceReadParams struct {
	URI string `json:"uri"`
}

func (s *Server) handleResourceRead(ctx context.Context, caller *Caller, req Request) Response {
	var params resourceReadParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.URI == "" {
		return errorResponse(req.ID, CodeInvalidParams, "invalid params", nil)
	}

	resource, ok := s.registry.MatchResource(params.URI)
	if !ok {
		return errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("resource %q not found", params.URI), nil)
	}
	if !caller.Allowed(resource.RequiredScope) {
		return errorResponse(req.ID, CodeUnauthorized, "insufficient scope", map[string]any{
			"requiredScope": resource.RequiredScope,
		})
	}

	text, err := resource.Handler(ctx, caller, params.URI)
	if err != nil {
		s.log.Error("resource handler failed", zap.String("uri", params.URI), zap.Error(err))
		return errorResponse(req.ID, CodeInternalError, "internal error", err.Error())
	}

	return resultResponse(req.ID, ReadResourceResult{
		Contents: []ResourceContent{{
			URI:      params.URI,
			MimeType: resource.MimeType,
			Text:     text,
		}},
	})
}
