package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/lathe"
	"github.com/aretw0/lathe/pkg/domain"
	"github.com/aretw0/lathe/pkg/host"
	"github.com/aretw0/lathe/pkg/imaging"
	"github.com/aretw0/lathe/pkg/ports"
	"github.com/aretw0/lathe/pkg/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SavePrefix prefixes the tool parameters that name a file for an image output.
const SavePrefix = "save_"

// NodesURI is the resource listing every node declaration.
const NodesURI = "lathe://nodes"

// Server wraps a NodeEngine and exposes each node as an MCP tool.
type Server struct {
	engine    ports.NodeEngine
	logger    *slog.Logger
	mcpServer *server.MCPServer
	tools     []string
}

// NewServer creates a new MCP Server instance.
func NewServer(engine ports.NodeEngine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("lathe-mcp", lathe.Version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// Tools returns the names of the registered tools.
func (s *Server) Tools() []string {
	return s.tools
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	for _, spec := range s.engine.Inspect() {
		s.mcpServer.AddTool(Tool(spec), s.handler(spec))
		s.tools = append(s.tools, spec.ID)
	}
}

// Tool builds the MCP tool declaration of a node.
func Tool(spec domain.NodeSpec) mcp.Tool {
	desc := spec.Description
	if desc == "" {
		desc = spec.Name
	}
	opts := []mcp.ToolOption{mcp.WithDescription(desc)}
	for _, f := range spec.Inputs {
		opts = append(opts, property(f))
	}
	for _, o := range spec.Outputs {
		if o.Kind != domain.KindImage {
			continue
		}
		opts = append(opts, mcp.WithString(SavePrefix+o.Key,
			mcp.Description(fmt.Sprintf("File path to save the %s output to instead of returning it inline", o.Label))))
	}
	return mcp.NewTool(spec.ID, opts...)
}

func property(f schema.Field) mcp.ToolOption {
	var opts []mcp.PropertyOption
	desc := f.Label
	if f.Docs != "" {
		desc += ". " + f.Docs
	}
	if f.When != nil {
		desc += fmt.Sprintf(" (used when %s is %s)", f.When.Key, strings.Join(f.When.Values, " or "))
	}
	if f.Default == nil && !f.Optional && f.When == nil {
		opts = append(opts, mcp.Required())
	}

	switch t := f.Type.(type) {
	case *schema.NumberType:
		if t.Minimum != nil {
			opts = append(opts, mcp.Min(*t.Minimum))
		}
		if t.Maximum != nil {
			opts = append(opts, mcp.Max(*t.Maximum))
		}
		if d, ok := toFloat(f.Default); ok {
			opts = append(opts, mcp.DefaultNumber(d))
		}
		return mcp.WithNumber(f.Key, append(opts, mcp.Description(desc))...)
	case *schema.BoolType:
		if d, ok := f.Default.(bool); ok {
			opts = append(opts, mcp.DefaultBool(d))
		}
		return mcp.WithBoolean(f.Key, append(opts, mcp.Description(desc))...)
	case *schema.EnumType:
		opts = append(opts, mcp.Enum(t.Values()...))
	case *schema.ImageType:
		desc += ". Image file path or base64 data URI"
	}
	if d, ok := f.Default.(string); ok {
		opts = append(opts, mcp.DefaultString(d))
	}
	return mcp.WithString(f.Key, append(opts, mcp.Description(desc))...)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func (s *Server) handler(spec domain.NodeSpec) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw := request.GetArguments()
		save := map[string]string{}
		args := map[string]any{}
		for k, v := range raw {
			if key, ok := strings.CutPrefix(k, SavePrefix); ok {
				if path, _ := v.(string); path != "" {
					save[key] = path
				}
				continue
			}
			args[k] = v
		}

		bound, err := host.Bind(spec, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res, err := s.engine.Execute(ctx, domain.NodeCall{NodeID: spec.ID, Args: bound})
		if err != nil {
			if !errors.Is(err, domain.ErrInvalidArguments) {
				s.logger.Error("MCP tool failed", "node", spec.ID, "error", err)
			}
			return mcp.NewToolResultError(err.Error()), nil
		}
		return s.result(spec, res.Outputs, save)
	}
}

// result returns inline images as image content and every other output,
// saved images included, as one JSON text block.
func (s *Server) result(spec domain.NodeSpec, outputs map[string]any, save map[string]string) (*mcp.CallToolResult, error) {
	rest := map[string]any{}
	var inline []string
	for k, v := range outputs {
		if _, ok := v.(image.Image); ok && save[k] == "" {
			inline = append(inline, k)
			continue
		}
		rest[k] = v
	}
	sort.Strings(inline)

	var contents []mcp.Content
	for _, k := range inline {
		data, err := imaging.EncodePNG(outputs[k].(image.Image))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		contents = append(contents, mcp.NewImageContent(base64.StdEncoding.EncodeToString(data), "image/png"))
	}

	if len(rest) > 0 {
		emitted, err := host.Emit(spec, rest, save)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		b, err := json.Marshal(emitted)
		if err != nil {
			return nil, fmt.Errorf("marshal outputs: %w", err)
		}
		contents = append(contents, mcp.NewTextContent(string(b)))
	}
	return &mcp.CallToolResult{Content: contents}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(NodesURI, "Node declarations",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(s.engine.Inspect())
		if err != nil {
			return nil, fmt.Errorf("marshal nodes: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      NodesURI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	})
}
