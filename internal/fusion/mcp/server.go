// Package mcp implements the Model Context Protocol server.
package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/rsned/fusion-planner/internal/fusion/engine"
	"github.com/rsned/fusion-planner/pkg/fusion"
)

// Version is reported to clients in serverInfo.
const Version = "0.2.0"

// Server implements an MCP server over a line-delimited stream.
type Server struct {
	engine   *engine.Engine
	logger   *slog.Logger
	handlers map[string]MethodHandler
}

// MethodHandler handles a specific JSON-RPC method.
type MethodHandler func(ctx context.Context, params json.RawMessage) (any, error)

// NewServer creates a new MCP server.
func NewServer(eng *engine.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	s := &Server{
		engine:   eng,
		logger:   logger,
		handlers: make(map[string]MethodHandler),
	}

	s.handlers["initialize"] = s.handleInitialize
	s.handlers["ping"] = s.handlePing
	s.handlers["tools/list"] = s.handleToolsList
	s.handlers["tools/call"] = s.handleToolsCall

	return s
}

// Request represents a JSON-RPC request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response represents a JSON-RPC response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id,omitempty"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// Error represents a JSON-RPC error.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Standard JSON-RPC error codes.
const (
	ErrCodeParse          = -32700
	ErrCodeInvalidReq     = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603
)

// Run serves on stdin and stdout until EOF or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one request per line from r and writes responses to w.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := bufio.NewReader(r)

	s.logger.Info("MCP server starting", "version", Version)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading input: %w", err)
		}

		if len(bytes.TrimSpace(line)) > 0 {
			if resp := s.handleRequest(ctx, line); resp != nil {
				if werr := s.writeResponse(w, resp); werr != nil {
					s.logger.Error("failed to write response", "error", werr)
				}
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

// handleRequest processes a single request. Notifications get no response.
func (s *Server) handleRequest(ctx context.Context, data []byte) *Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return &Response{
			JSONRPC: "2.0",
			Error: &Error{
				Code:    ErrCodeParse,
				Message: "Parse error",
				Data:    err.Error(),
			},
		}
	}

	s.logger.Debug("received request", "method", req.Method, "id", req.ID)

	if req.ID == nil && strings.HasPrefix(req.Method, "notifications/") {
		return nil
	}

	if req.Method == "" {
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &Error{
				Code:    ErrCodeInvalidReq,
				Message: "Invalid request: missing method",
			},
		}
	}

	handler, ok := s.handlers[req.Method]
	if !ok {
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &Error{
				Code:    ErrCodeMethodNotFound,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}

	result, err := handler(ctx, req.Params)
	if err != nil {
		code := ErrCodeInternal
		if errors.Is(err, errInvalidParams) {
			code = ErrCodeInvalidParams
		}
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &Error{
				Code:    code,
				Message: err.Error(),
			},
		}
	}

	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
	}
}

// writeResponse writes a JSON-RPC response.
func (s *Server) writeResponse(w io.Writer, resp *Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshaling response: %w", err)
	}

	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// InitializeResult is the response for initialize.
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
	Capabilities    Capabilities `json:"capabilities"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type Capabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

func (s *Server) handleInitialize(ctx context.Context, params json.RawMessage) (any, error) {
	return InitializeResult{
		ProtocolVersion: "2024-11-05",
		ServerInfo: ServerInfo{
			Name:    "fusion-planner",
			Version: Version,
		},
		Capabilities: Capabilities{
			Tools: &ToolsCapability{},
		},
	}, nil
}

func (s *Server) handlePing(ctx context.Context, params json.RawMessage) (any, error) {
	return struct{}{}, nil
}

// ToolsListResult is the response for tools/list.
type ToolsListResult struct {
	Tools []ToolDefinition `json:"tools"`
}

func (s *Server) handleToolsList(ctx context.Context, params json.RawMessage) (any, error) {
	return ToolsListResult{
		Tools: GetToolDefinitions(),
	}, nil
}

// ToolCallParams are the parameters for tools/call.
type ToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolCallResult is the response for tools/call.
type ToolCallResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

var errInvalidParams = errors.New("invalid params")

func (s *Server) handleToolsCall(ctx context.Context, params json.RawMessage) (any, error) {
	var p ToolCallParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}

	s.logger.Debug("calling tool", "name", p.Name)

	result, extra, err := s.callTool(ctx, p.Name, p.Arguments)
	if err != nil {
		// Bad ids are the caller's mistake; report them in-band.
		if errors.Is(err, fusion.ErrUnknownCommodity) {
			return ToolCallResult{
				Content: []ContentBlock{{Type: "text", Text: err.Error()}},
				IsError: true,
			}, nil
		}
		return nil, fmt.Errorf("tool call failed: %w", err)
	}

	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}

	content := []ContentBlock{{Type: "text", Text: string(resultJSON)}}
	for _, text := range extra {
		content = append(content, ContentBlock{Type: "text", Text: text})
	}
	return ToolCallResult{Content: content}, nil
}

// callTool dispatches to the appropriate tool handler. extra holds any
// additional text blocks to send after the JSON result.
func (s *Server) callTool(ctx context.Context, name string, args json.RawMessage) (result any, extra []string, err error) {
	switch name {
	case "fusion_plan":
		return s.toolFusionPlan(ctx, args)
	case "cost_table":
		result, err = s.toolCostTable(ctx, args)
	case "commodity_lookup":
		result, err = s.toolCommodityLookup(ctx, args)
	case "find_cycles":
		result, err = s.toolFindCycles(ctx, args)
	default:
		err = fmt.Errorf("%w: unknown tool: %s", errInvalidParams, name)
	}
	return result, nil, err
}
