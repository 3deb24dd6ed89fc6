// Package mcp реализует минимальный инструментальный сервер поверх stdio:
// JSON-RPC 2.0, по одному сообщению на строку. Сервер экспонирует единственный
// инструмент download_figma_images, делегирующий выгрузку клиенту figmadl.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	figmadl "github.com/Larryzhang-S/figma-dl"
)

const (
	protocolVersion = "2024-11-05"
	serverName      = "figma-dl"
	serverVersion   = "1.0.0"

	toolDownloadImages = "download_figma_images"
)

// Ошибки протокола JSON-RPC 2.0.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// Downloader абстрагирует клиент выгрузки: в тестах вместо настоящего
// клиента подставляется заглушка.
type Downloader interface {
	DownloadImages(ctx context.Context, fileKey string, nodeIDs []string, outputDir string, opts figmadl.ImageOptions) ([]figmadl.Outcome, error)
}

// Server обслуживает один stdio сеанс.
type Server struct {
	downloader Downloader
	logger     *zap.Logger

	mu sync.Mutex // сериализует запись ответов
	w  io.Writer
}

// NewServer создаёт сервер поверх заданных потоков ввода/вывода.
func NewServer(downloader Downloader, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		downloader: downloader,
		logger:     logger,
	}
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Serve читает строки из r и пишет ответы в w, пока вход не закончится или
// контекст не отменят. Уведомления (запросы без id) не получают ответа.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	s.w = w

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			s.writeError(nil, codeParseError, "parse error")
			continue
		}

		s.handle(ctx, &req)
	}

	return scanner.Err()
}

func (s *Server) handle(ctx context.Context, req *request) {
	s.logger.Debug("rpc request", zap.String("method", req.Method))

	switch req.Method {
	case "initialize":
		s.writeResult(req.ID, map[string]interface{}{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]string{
				"name":    serverName,
				"version": serverVersion,
			},
		})
	case "notifications/initialized":
		// Уведомление, ответа нет.
	case "tools/list":
		s.writeResult(req.ID, map[string]interface{}{
			"tools": []toolInfo{downloadToolInfo()},
		})
	case "tools/call":
		s.handleToolCall(ctx, req)
	default:
		if req.ID == nil {
			return
		}
		s.writeError(req.ID, codeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

// toolInfo описывает инструмент в ответе tools/list.
type toolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

func downloadToolInfo() toolInfo {
	schema := `{
		"type": "object",
		"properties": {
			"fileKey": {"type": "string", "description": "Figma file key"},
			"nodeIds": {"type": "array", "items": {"type": "string"}, "description": "Node identifiers, colon or dash separated"},
			"outputDir": {"type": "string", "description": "Directory to write image files into"},
			"format": {"type": "string", "enum": ["png", "svg"], "default": "png"},
			"scale": {"type": "integer", "minimum": 1, "maximum": 4, "default": 2}
		},
		"required": ["fileKey", "nodeIds", "outputDir"]
	}`
	return toolInfo{
		Name:        toolDownloadImages,
		Description: "Download rendered images of Figma document nodes to local files",
		InputSchema: json.RawMessage(schema),
	}
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type downloadArgs struct {
	FileKey   string   `json:"fileKey"`
	NodeIDs   []string `json:"nodeIds"`
	OutputDir string   `json:"outputDir"`
	Format    string   `json:"format"`
	Scale     int      `json:"scale"`
}

func (s *Server) handleToolCall(ctx context.Context, req *request) {
	var params toolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeError(req.ID, codeInvalidParams, "invalid params")
		return
	}

	if params.Name != toolDownloadImages {
		s.writeError(req.ID, codeInvalidParams, fmt.Sprintf("unknown tool: %s", params.Name))
		return
	}

	var args downloadArgs
	if err := json.Unmarshal(params.Arguments, &args); err != nil {
		s.writeError(req.ID, codeInvalidParams, "invalid tool arguments")
		return
	}

	if args.FileKey == "" || len(args.NodeIDs) == 0 || args.OutputDir == "" {
		s.writeError(req.ID, codeInvalidParams, "fileKey, nodeIds and outputDir are required")
		return
	}

	opts := figmadl.ImageOptions{
		Format: figmadl.ImageFormat(args.Format),
		Scale:  args.Scale,
	}

	outcomes, err := s.downloader.DownloadImages(ctx, args.FileKey, args.NodeIDs, args.OutputDir, opts)
	if err != nil {
		// Фатальная ошибка этапа разрешения или конфигурации: инструмент
		// возвращает её как ошибку содержимого, а не протокола.
		s.writeResult(req.ID, toolResult(true, err.Error()))
		return
	}

	s.writeResult(req.ID, toolResult(false, formatOutcomes(outcomes)))
}

// toolResult собирает ответ tools/call с единственным текстовым блоком.
func toolResult(isError bool, text string) map[string]interface{} {
	return map[string]interface{}{
		"content": []map[string]string{
			{"type": "text", "text": text},
		},
		"isError": isError,
	}
}

// formatOutcomes печатает по одной строке на узел плюс итоговую сводку.
func formatOutcomes(outcomes []figmadl.Outcome) string {
	var b strings.Builder
	succeeded := 0
	for _, o := range outcomes {
		if o.Success {
			succeeded++
			fmt.Fprintf(&b, "%s: ok %s (%d bytes)\n", o.NodeID, o.FileName, o.ByteSize)
		} else {
			fmt.Fprintf(&b, "%s: failed: %s\n", o.NodeID, o.Error)
		}
	}
	fmt.Fprintf(&b, "%d/%d nodes downloaded", succeeded, len(outcomes))
	return b.String()
}

func (s *Server) writeResult(id json.RawMessage, result interface{}) {
	if id == nil {
		return
	}
	s.write(response{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) writeError(id json.RawMessage, code int, message string) {
	s.write(response{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message}})
}

func (s *Server) write(resp response) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("marshal response", zap.Error(err))
		return
	}
	data = append(data, '\n')
	if _, err := s.w.Write(data); err != nil {
		s.logger.Error("write response", zap.Error(err))
	}
}
