package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	figmadl "github.com/Larryzhang-S/figma-dl"
)

// stubDownloader записывает аргументы вызова и возвращает сценарный результат.
type stubDownloader struct {
	fileKey   string
	nodeIDs   []string
	outputDir string
	opts      figmadl.ImageOptions

	outcomes []figmadl.Outcome
	err      error
}

func (s *stubDownloader) DownloadImages(_ context.Context, fileKey string, nodeIDs []string, outputDir string, opts figmadl.ImageOptions) ([]figmadl.Outcome, error) {
	s.fileKey = fileKey
	s.nodeIDs = nodeIDs
	s.outputDir = outputDir
	s.opts = opts
	return s.outcomes, s.err
}

func serve(t *testing.T, downloader Downloader, requests ...string) []response {
	t.Helper()

	in := strings.NewReader(strings.Join(requests, "\n") + "\n")
	var out bytes.Buffer

	server := NewServer(downloader, nil)
	require.NoError(t, server.Serve(context.Background(), in, &out))

	var responses []response
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var resp response
		require.NoError(t, json.Unmarshal([]byte(line), &resp))
		responses = append(responses, resp)
	}
	return responses
}

// TC001: initialize announces the server and its tool capability
func TestServer_Initialize(t *testing.T) {
	responses := serve(t, &stubDownloader{},
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
	)
	require.Len(t, responses, 1)
	require.Nil(t, responses[0].Error)

	result, err := json.Marshal(responses[0].Result)
	require.NoError(t, err)
	assert.Contains(t, string(result), serverName)
	assert.Contains(t, string(result), protocolVersion)
}

// TC002: tools/list exposes download_figma_images with its schema
func TestServer_ToolsList(t *testing.T) {
	responses := serve(t, &stubDownloader{},
		`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`,
	)
	require.Len(t, responses, 1)
	require.Nil(t, responses[0].Error)

	result, err := json.Marshal(responses[0].Result)
	require.NoError(t, err)
	assert.Contains(t, string(result), toolDownloadImages)
	assert.Contains(t, string(result), "fileKey")
	assert.Contains(t, string(result), "nodeIds")
	assert.Contains(t, string(result), "outputDir")
}

// TC003: tools/call forwards arguments to the downloader
func TestServer_ToolCall(t *testing.T) {
	stub := &stubDownloader{
		outcomes: []figmadl.Outcome{
			{NodeID: "3228:9855", Success: true, FileName: "3228_9855.png", ByteSize: 1024},
			{NodeID: "3228:9856", Error: "Cannot export"},
		},
	}

	responses := serve(t, stub,
		`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"download_figma_images","arguments":{"fileKey":"abc","nodeIds":["3228-9855","3228-9856"],"outputDir":"/tmp/out","format":"svg","scale":3}}}`,
	)
	require.Len(t, responses, 1)
	require.Nil(t, responses[0].Error)

	assert.Equal(t, "abc", stub.fileKey)
	assert.Equal(t, []string{"3228-9855", "3228-9856"}, stub.nodeIDs)
	assert.Equal(t, "/tmp/out", stub.outputDir)
	assert.Equal(t, figmadl.ImageFormat("svg"), stub.opts.Format)
	assert.Equal(t, 3, stub.opts.Scale)

	result, err := json.Marshal(responses[0].Result)
	require.NoError(t, err)
	assert.Contains(t, string(result), "3228_9855.png")
	assert.Contains(t, string(result), "Cannot export")
	assert.Contains(t, string(result), "1/2 nodes downloaded")
	assert.Contains(t, string(result), `"isError":false`)
}

// TC004: A fatal downloader error becomes an isError tool result
func TestServer_ToolCall_FatalError(t *testing.T) {
	stub := &stubDownloader{err: errors.New("figma API error: Invalid file key")}

	responses := serve(t, stub,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"download_figma_images","arguments":{"fileKey":"bad","nodeIds":["1:1"],"outputDir":"/tmp/out"}}}`,
	)
	require.Len(t, responses, 1)
	require.Nil(t, responses[0].Error)

	result, err := json.Marshal(responses[0].Result)
	require.NoError(t, err)
	assert.Contains(t, string(result), `"isError":true`)
	assert.Contains(t, string(result), "Invalid file key")
}

// TC005: Missing required arguments are rejected as invalid params
func TestServer_ToolCall_MissingArgs(t *testing.T) {
	responses := serve(t, &stubDownloader{},
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"download_figma_images","arguments":{"fileKey":"abc"}}}`,
	)
	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, codeInvalidParams, responses[0].Error.Code)
}

// TC006: Unknown tools and methods are rejected
func TestServer_UnknownToolAndMethod(t *testing.T) {
	responses := serve(t, &stubDownloader{},
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"other_tool","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":5,"method":"shutdown"}`,
	)
	require.Len(t, responses, 2)
	assert.Equal(t, codeInvalidParams, responses[0].Error.Code)
	assert.Equal(t, codeMethodNotFound, responses[1].Error.Code)
}

// TC007: Malformed lines produce a parse error, the loop continues
func TestServer_ParseError(t *testing.T) {
	responses := serve(t, &stubDownloader{},
		`{not json`,
		`{"jsonrpc":"2.0","id":6,"method":"tools/list"}`,
	)
	require.Len(t, responses, 2)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, codeParseError, responses[0].Error.Code)
	assert.Nil(t, responses[1].Error)
}

// TC008: Notifications get no response
func TestServer_NotificationSilent(t *testing.T) {
	responses := serve(t, &stubDownloader{},
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
	)
	assert.Empty(t, responses)
}
