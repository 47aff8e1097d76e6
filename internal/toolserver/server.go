// Package toolserver answers newline-delimited JSON-RPC 2.0 requests over a
// pair of streams, exposing a database through two tools: list_symbols and
// get_ohlc. It speaks enough of the MCP handshake (initialize, tools/list,
// tools/call) for stdio clients.
package toolserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"ami-data/internal/amidb"
	"ami-data/internal/slogx"
	"ami-data/internal/version"
)

const maxLine = 4 << 20

// Server serves one Reader.
type Server struct {
	db     amidb.Reader
	logger *slog.Logger
	tools  []tool
}

// New returns a server over db.
func New(db amidb.Reader, logger *slog.Logger) *Server {
	return &Server{
		db:     db,
		logger: slogx.OrDefault(logger),
		tools: []tool{
			{
				Name:        "list_symbols",
				Description: "Return all symbols in the database",
				InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
			},
			{
				Name:        "get_ohlc",
				Description: "Return OHLCV rows for a symbol",
				InputSchema: map[string]any{
					"type":       "object",
					"properties": map[string]any{"symbol": map[string]any{"type": "string"}},
					"required":   []string{"symbol"},
				},
			},
		},
	}
}

// Serve reads requests from in until EOF or ctx is done, writing one
// response line per request to out. Notifications get no response.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 64<<10), maxLine)
		for sc.Scan() {
			line := append([]byte(nil), sc.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	w := bufio.NewWriter(out)
	enc := json.NewEncoder(w)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			resp := s.handleLine(line)
			if resp == nil {
				continue
			}
			if err := enc.Encode(resp); err != nil {
				return fmt.Errorf("write response: %w", err)
			}
			if err := w.Flush(); err != nil {
				return fmt.Errorf("flush response: %w", err)
			}
		}
	}
}

func (s *Server) handleLine(line []byte) *response {
	if len(line) == 0 {
		return nil
	}
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		return errorResponse(json.RawMessage("null"), &rpcError{Code: codeParseError, Message: "parse error: " + err.Error()})
	}
	if req.Method == "" {
		if req.isNotification() {
			return nil
		}
		return errorResponse(req.ID, &rpcError{Code: codeInvalidRequest, Message: "missing method"})
	}

	result, err := s.dispatch(req.Method, req.Params)
	if req.isNotification() {
		if err != nil {
			s.logger.Debug("notification failed", "method", req.Method, "error", err)
		}
		return nil
	}
	if err != nil {
		var rerr *rpcError
		if !errors.As(err, &rerr) {
			rerr = &rpcError{Code: codeStoreError, Message: err.Error()}
		}
		s.logger.Warn("request failed", "method", req.Method, "code", rerr.Code, "error", rerr.Message)
		return errorResponse(req.ID, rerr)
	}
	return &response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

func errorResponse(id json.RawMessage, err *rpcError) *response {
	return &response{JSONRPC: "2.0", ID: id, Error: err}
}

func (s *Server) dispatch(method string, params json.RawMessage) (any, error) {
	switch method {
	case "initialize":
		return map[string]any{
			"protocolVersion": protocolVersion,
			"serverInfo":      map[string]any{"name": "ami-data", "version": version.Version},
			"capabilities":    map[string]any{"tools": map[string]any{}},
		}, nil
	case "ping":
		return map[string]any{}, nil
	case "notifications/initialized":
		return map[string]any{}, nil
	case "tools/list":
		return map[string]any{"tools": s.tools}, nil
	case "tools/call":
		var p callParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		v, err := s.callTool(p.Name, p.Arguments)
		if err != nil {
			return nil, err
		}
		text, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return callResult{Content: []content{{Type: "text", Text: string(text)}}}, nil
	case "list_symbols", "get_ohlc":
		return s.callTool(method, params)
	default:
		return nil, &rpcError{Code: codeMethodNotFound, Message: "method not found: " + method}
	}
}

func (s *Server) callTool(name string, args json.RawMessage) (any, error) {
	switch name {
	case "list_symbols":
		symbols := s.db.ListSymbols()
		if symbols == nil {
			symbols = []string{}
		}
		return symbols, nil
	case "get_ohlc":
		var a symbolArgs
		if err := decodeParams(args, &a); err != nil {
			return nil, err
		}
		if a.Symbol == "" {
			return nil, &rpcError{Code: codeInvalidParams, Message: "symbol is required"}
		}
		quotes, err := s.db.ListQuotes(a.Symbol)
		if errors.Is(err, amidb.ErrSymbolName) {
			return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
		}
		if err != nil {
			return nil, err
		}
		rows := make([]QuoteRow, len(quotes))
		for i, q := range quotes {
			rows[i] = QuoteRow{
				Year:   q.Year,
				Month:  q.Month,
				Day:    q.Day,
				Open:   q.Open,
				High:   q.High,
				Low:    q.Low,
				Close:  q.Close,
				Volume: q.Volume,
			}
		}
		return rows, nil
	default:
		return nil, &rpcError{Code: codeInvalidParams, Message: "unknown tool: " + name}
	}
}

func decodeParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &rpcError{Code: codeInvalidParams, Message: "invalid params: " + err.Error()}
	}
	return nil
}
