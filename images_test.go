package figmadl

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queryIDs(t *testing.T, rawURL string) []string {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return strings.Split(u.Query().Get("ids"), ",")
}

// TC001: Options fall back to png at scale 2
func TestImageOptions_Defaults(t *testing.T) {
	opts := ImageOptions{}.withDefaults()
	assert.Equal(t, FormatPNG, opts.Format)
	assert.Equal(t, DefaultScale, opts.Scale)
	assert.NoError(t, opts.validate())
}

// TC001: Invalid options are rejected
func TestImageOptions_Validate(t *testing.T) {
	tests := []struct {
		name string
		opts ImageOptions
	}{
		{"unknown format", ImageOptions{Format: "bmp", Scale: 2}},
		{"scale too low", ImageOptions{Format: FormatPNG, Scale: 0}},
		{"scale too high", ImageOptions{Format: FormatPNG, Scale: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.opts.validate())
		})
	}
}

// TC002: Twelve identifiers are resolved in three sequential batches of 5/5/2
func TestImageURLs_Batching(t *testing.T) {
	var ids []string
	urls := map[string]*string{}
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("1:%d", i)
		ids = append(ids, id)
		urls[id] = strPtr("https://cdn.example.com/" + id)
	}

	body := imagesBody("", urls)
	server := NewTestServer(
		TestResponse{StatusCode: 200, Body: body},
		TestResponse{StatusCode: 200, Body: body},
		TestResponse{StatusCode: 200, Body: body},
	)
	defer server.Close()

	client := New("test-token", fastTestConfig(server.URL))
	defer client.Close()

	resolved, err := client.ImageURLs(context.Background(), "filekey", ids, ImageOptions{})
	require.NoError(t, err)
	assert.Len(t, resolved, 12)

	requests := server.GetRequests()
	require.Len(t, requests, 3)
	assert.Len(t, queryIDs(t, requests[0].URL), 5)
	assert.Len(t, queryIDs(t, requests[1].URL), 5)
	assert.Len(t, queryIDs(t, requests[2].URL), 2)

	// Strictly sequential: requests must not interleave.
	for i := 1; i < len(requests); i++ {
		assert.True(t, !requests[i].Timestamp.Before(requests[i-1].Timestamp))
	}
}

// TC003: A cool-down separates consecutive batches
func TestImageURLs_BatchCooldown(t *testing.T) {
	body := imagesBody("", map[string]*string{
		"1:1": strPtr("https://cdn.example.com/a"),
	})
	server := NewTestServer(
		TestResponse{StatusCode: 200, Body: body},
		TestResponse{StatusCode: 200, Body: body},
	)
	defer server.Close()

	cfg := fastTestConfig(server.URL)
	cfg.Batch.Size = 1
	cfg.Batch.Cooldown = 80 * time.Millisecond

	client := New("test-token", cfg)
	defer client.Close()

	_, err := client.ImageURLs(context.Background(), "filekey", []string{"1:1", "1:2"}, ImageOptions{})
	require.NoError(t, err)

	requests := server.GetRequests()
	require.Len(t, requests, 2)
	gap := requests[1].Timestamp.Sub(requests[0].Timestamp)
	assert.GreaterOrEqual(t, gap, 70*time.Millisecond, "second batch should wait out the cool-down")
}

// TC004: Dash identifiers are canonicalized before hitting the API
func TestImageURLs_Canonicalization(t *testing.T) {
	body := imagesBody("", map[string]*string{
		"3228:9855": strPtr("https://cdn.example.com/a"),
	})
	server := NewTestServer(TestResponse{StatusCode: 200, Body: body})
	defer server.Close()

	client := New("test-token", fastTestConfig(server.URL))
	defer client.Close()

	resolved, err := client.ImageURLs(context.Background(), "filekey", []string{"3228-9855"}, ImageOptions{})
	require.NoError(t, err)

	assert.Contains(t, resolved, "3228:9855")
	assert.Equal(t, []string{"3228:9855"}, queryIDs(t, server.GetLastRequest().URL))
}

// TC005: The scale parameter is sent for png and omitted for svg
func TestImageURLs_ScaleOnlyForPNG(t *testing.T) {
	body := imagesBody("", map[string]*string{"1:1": strPtr("https://cdn.example.com/a")})
	server := NewTestServer(
		TestResponse{StatusCode: 200, Body: body},
		TestResponse{StatusCode: 200, Body: body},
	)
	defer server.Close()

	client := New("test-token", fastTestConfig(server.URL))
	defer client.Close()

	_, err := client.ImageURLs(context.Background(), "filekey", []string{"1:1"}, ImageOptions{Format: FormatPNG, Scale: 3})
	require.NoError(t, err)

	u, err := url.Parse(server.GetLastRequest().URL)
	require.NoError(t, err)
	assert.Equal(t, "3", u.Query().Get("scale"))
	assert.Equal(t, "png", u.Query().Get("format"))

	_, err = client.ImageURLs(context.Background(), "filekey", []string{"1:1"}, ImageOptions{Format: FormatSVG})
	require.NoError(t, err)

	u, err = url.Parse(server.GetLastRequest().URL)
	require.NoError(t, err)
	assert.False(t, u.Query().Has("scale"), "svg requests must not carry scale")
	assert.Equal(t, "svg", u.Query().Get("format"))
}

// TC006: The access token travels in the X-Figma-Token header
func TestImageURLs_TokenHeader(t *testing.T) {
	body := imagesBody("", map[string]*string{"1:1": strPtr("https://cdn.example.com/a")})
	server := NewTestServer(TestResponse{StatusCode: 200, Body: body})
	defer server.Close()

	client := New("secret-token", fastTestConfig(server.URL))
	defer client.Close()

	_, err := client.ImageURLs(context.Background(), "filekey", []string{"1:1"}, ImageOptions{})
	require.NoError(t, err)

	assert.Equal(t, "secret-token", server.GetLastRequest().Headers["X-Figma-Token"])
}

// TC007: A vendor error field fails the whole call
func TestImageURLs_VendorError(t *testing.T) {
	server := NewTestServer(TestResponse{StatusCode: 200, Body: imagesBody("Invalid file key", nil)})
	defer server.Close()

	client := New("test-token", fastTestConfig(server.URL))
	defer client.Close()

	_, err := client.ImageURLs(context.Background(), "badkey", []string{"1:1"}, ImageOptions{})
	require.Error(t, err)
	assert.True(t, IsAPIError(err))
	assert.Contains(t, err.Error(), "Invalid file key")
}

// TC008: A non-2xx status fails the whole call with an HTTPError
func TestImageURLs_HTTPError(t *testing.T) {
	server := NewTestServer(TestResponse{StatusCode: 403, Body: `{"err":"forbidden"}`})
	defer server.Close()

	client := New("test-token", fastTestConfig(server.URL))
	defer client.Close()

	_, err := client.ImageURLs(context.Background(), "filekey", []string{"1:1"}, ImageOptions{})
	require.Error(t, err)
	assert.True(t, IsHTTPError(err))
	assert.Contains(t, err.Error(), "HTTP 403")
}

// TC009: Null URLs are omitted from the resolved map
func TestImageURLs_NullURLOmitted(t *testing.T) {
	body := imagesBody("", map[string]*string{
		"1:1": strPtr("https://cdn.example.com/a"),
		"1:2": nil,
	})
	server := NewTestServer(TestResponse{StatusCode: 200, Body: body})
	defer server.Close()

	client := New("test-token", fastTestConfig(server.URL))
	defer client.Close()

	resolved, err := client.ImageURLs(context.Background(), "filekey", []string{"1:1", "1:2"}, ImageOptions{})
	require.NoError(t, err)

	assert.Contains(t, resolved, "1:1")
	assert.NotContains(t, resolved, "1:2")
}

// TC010: The file key is path-escaped in the request URL
func TestImagesURL_Shape(t *testing.T) {
	client := New("test-token", fastTestConfig("https://api.figma.com"))
	defer client.Close()

	raw := client.imagesURL("file key", []string{"1:2", "3:4"}, ImageOptions{Format: FormatPNG, Scale: 2})
	assert.Contains(t, raw, "/v1/images/file%20key?")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "1:2,3:4", u.Query().Get("ids"))
}

// TC011: Chunking preserves order and covers the tail
func TestChunkIDs(t *testing.T) {
	chunks := chunkIDs([]string{"a", "b", "c", "d", "e", "f", "g"}, 3)
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"d", "e", "f"}, {"g"}}, chunks)

	assert.Len(t, chunkIDs(nil, 3), 0)
	assert.Equal(t, [][]string{{"a"}}, chunkIDs([]string{"a"}, 0))
}
