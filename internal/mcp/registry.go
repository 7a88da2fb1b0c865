// Package mcp implements the JSON-RPC 2.0 protocol surface exposing
// back-office tools and resources to MCP clients.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Caller is the authenticated principal behind one request. Admin
// sessions carry every scope; API keys carry the scopes they were
// minted with.
type Caller struct {
	Authenticated bool
	IsAdmin       bool
	Subject       string
	Scopes        []string
}

// Allowed reports whether the caller holds the scope. The mcp:full
// scope implies everything.
func (c *Caller) Allowed(scope string) bool {
	if c == nil || !c.Authenticated {
		return false
	}
	if c.IsAdmin || scope == "" {
		return true
	}
	for _, s := range c.Scopes {
		if s == scope || s == "mcp:full" {
			return true
		}
	}
	return false
}

type ToolHandler func(ctx context.Context, caller *Caller, args map[string]any) (string, error)

type Tool struct {
	Name          string
	Description   string
	InputSchema   *openapi3.Schema
	RequiredScope string
	Handler       ToolHandler
}

type ResourceHandler func(ctx context.Context, caller *Caller, uri string) (string, error)

type Resource struct {
	URITemplate   string
	Name          string
	Description   string
	MimeType      string
	RequiredScope string
	Handler       ResourceHandler
}

// Registry holds the tool and resource tables. It is populated once at
// startup and frozen before serving; concurrent reads never race.
type Registry struct {
	frozen    bool
	tools     map[string]*Tool
	toolOrder []string
	resources []*Resource
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// RegisterTool rejects misconfigured entries at startup rather than at
// call time: the schema must be present, an object, and well formed.
func (r *Registry) RegisterTool(tool Tool) error {
	if r.frozen {
		return errors.New("registry frozen")
	}
	name := strings.TrimSpace(tool.Name)
	if name == "" || tool.Handler == nil {
		return fmt.Errorf("tool %q misconfigured", tool.Name)
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	if tool.InputSchema == nil || !tool.InputSchema.Type.Is(openapi3.TypeObject) {
		return fmt.Errorf("tool %q input schema must be an object", name)
	}
	if err := tool.InputSchema.Validate(context.Background()); err != nil {
		return fmt.Errorf("tool %q input schema invalid: %w", name, err)
	}

	tool.Name = name
	r.tools[name] = &tool
	r.toolOrder = append(r.toolOrder, name)
	return nil
}

func (r *Registry) RegisterResource(resource Resource) error {
	if r.frozen {
		return errors.New("registry frozen")
	}
	if strings.TrimSpace(resource.URITemplate) == "" || resource.Handler == nil {
		return fmt.Errorf("resource %q misconfigured", resource.Name)
	}
	if resource.MimeType == "" {
		resource.MimeType = "application/json"
	}
	r.resources = append(r.resources, &resource)
	return nil
}

// Freeze marks the registry read-only.
func (r *Registry) Freeze() {
	r.frozen = true
	sort.Strings(r.toolOrder)
}

func (r *Registry) Tool(name string) *Tool {
	return r.tools[name]
}

func (r *Registry) Tools() []*Tool {
	out := make([]*Tool, 0, len(r.toolOrder))
	for _, name := range r.toolOrder {
		out = append(out, r.tools[name])
	}
	return out
}

func (r *Registry) Resources() []*Resource {
	return r.resources
}

// MatchResource resolves a concrete URI against the template table. A
// template ending in "{slug}" matches any non-empty suffix.
func (r *Registry) MatchResource(uri string) (*Resource, bool) {
	for _, resource := range r.resources {
		template := resource.URITemplate
		if idx := strings.Index(template, "{"); idx >= 0 {
			prefix := template[:idx]
			if strings.HasPrefix(uri, prefix) && len(uri) > len(prefix) {
				return resource, true
			}
			continue
		}
		if uri == template {
			return resource, true
		}
	}
	return nil, false
}
