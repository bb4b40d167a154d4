package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/ironsheep/doc-rectify-mcp/internal/config"
	"github.com/ironsheep/doc-rectify-mcp/internal/editor"
	"github.com/ironsheep/doc-rectify-mcp/internal/imaging"
	"github.com/ironsheep/doc-rectify-mcp/internal/pipeline"
)

// Version is reported in the initialize handshake.
var Version = "dev"

// maxLineSize bounds one JSON-RPC line. Uploads travel as base64.
const maxLineSize = 64 * 1024 * 1024

// Server handles MCP protocol communication
type Server struct {
	opts  config.Options
	pipe  *pipeline.Pipeline
	cache *imaging.ImageCache // decoded originals by problem id
	debug bool

	mu       sync.Mutex
	problems map[string]*pipeline.Problem
	order    []string // problem ids in creation order
	sessions map[string]*editor.Session

	ctx   context.Context
	outMu sync.Mutex
	enc   *json.Encoder
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// New creates a server whose tools run with opts unless a call overrides them.
func New(opts config.Options) (*Server, error) {
	pipe, err := pipeline.New(opts)
	if err != nil {
		return nil, err
	}
	return &Server{
		opts:     opts,
		pipe:     pipe,
		cache:    imaging.NewImageCache(),
		problems: make(map[string]*pipeline.Problem),
		sessions: make(map[string]*editor.Session),
		ctx:      context.Background(),
	}, nil
}

// SetDebug enables per-call debug logging.
func (s *Server) SetDebug(on bool) { s.debug = on }

func (s *Server) debugf(format string, args ...interface{}) {
	if s.debug {
		log.Printf(format, args...)
	}
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	return s.Serve(context.Background(), os.Stdin, os.Stdout)
}

// Serve processes one request per line from r until r is exhausted or ctx
// ends, writing responses and notifications to w.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	s.ctx = ctx
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxLineSize)

	s.outMu.Lock()
	s.enc = json.NewEncoder(w)
	s.outMu.Unlock()

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("Failed to parse request: %v", err)
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := s.write(resp); err != nil {
				log.Printf("Failed to encode response: %v", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

func (s *Server) write(v interface{}) error {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if s.enc == nil {
		return nil
	}
	return s.enc.Encode(v)
}

// notify sends a notification. It is a no-op before Serve starts.
func (s *Server) notify(method string, params interface{}) {
	err := s.write(&MCPNotification{JSONRPC: "2.0", Method: method, Params: params})
	if err != nil {
		log.Printf("Failed to send %s: %v", method, err)
	}
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	s.debugf("Request %v: %s", req.ID, req.Method)
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "doc-rectify-mcp",
				"version": Version,
			},
		},
	}
}
