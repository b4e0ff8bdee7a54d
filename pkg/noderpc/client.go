package noderpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"time"
)

// DefaultEndpoint is the node RPC address used when none is configured
const DefaultEndpoint = "http://[::1]:7076"

// Sentinel errors, one per failure class
var (
	// ErrTransport covers everything up to receiving a 200 response body
	ErrTransport = errors.New("node RPC transport failed")
	// ErrParse covers malformed bodies, missing fields and node-reported errors
	ErrParse = errors.New("node RPC response malformed")
)

// Client represents a node RPC client
type Client struct {
	httpClient *http.Client
	endpoint   string
}

// NewClient creates a new node RPC client with custom HTTP client and endpoint
func NewClient(httpClient *http.Client, endpoint string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		endpoint:   endpoint,
	}
}

// Representative is one entry of the node's representatives listing
type Representative struct {
	Account string
	Weight  *big.Int
}

type actionRequest struct {
	Action string `json:"action"`
}

type representativesResponse struct {
	Representatives orderedWeights `json:"representatives"`
}

type blockCountResponse struct {
	Count     string `json:"count"`
	Unchecked string `json:"unchecked"`
	Cemented  string `json:"cemented"`
}

// Representatives retrieves every representative with its voting weight.
// Entries come back in the order the node listed them.
func (c *Client) Representatives(ctx context.Context) ([]Representative, error) {
	var resp representativesResponse
	if err := c.call(ctx, "representatives", &resp); err != nil {
		return nil, err
	}

	if !resp.Representatives.present {
		return nil, fmt.Errorf("%w: missing representatives field", ErrParse)
	}

	return resp.Representatives.entries, nil
}

// CementedCount retrieves the number of cemented blocks from block_count
func (c *Client) CementedCount(ctx context.Context) (uint64, error) {
	var resp blockCountResponse
	if err := c.call(ctx, "block_count", &resp); err != nil {
		return 0, err
	}

	if resp.Cemented == "" {
		return 0, fmt.Errorf("%w: missing cemented field", ErrParse)
	}

	cemented, err := strconv.ParseUint(resp.Cemented, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: cemented count %q: %w", ErrParse, resp.Cemented, err)
	}

	return cemented, nil
}

// call posts {"action": action} and decodes the response body into out
func (c *Client) call(ctx context.Context, action string, out any) error {
	payload, err := json.Marshal(actionRequest{Action: action})
	if err != nil {
		return fmt.Errorf("%w: encoding request: %w", ErrTransport, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: creating request: %w", ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: making request: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status code: %d", ErrTransport, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %w", ErrTransport, err)
	}

	// The node answers failed actions with 200 and an error object
	var nodeErr struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &nodeErr); err != nil {
		return fmt.Errorf("%w: decoding %s response: %w", ErrParse, action, err)
	}
	if nodeErr.Error != "" {
		return fmt.Errorf("%w: %s: node error: %s", ErrParse, action, nodeErr.Error)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decoding %s response: %w", ErrParse, action, err)
	}

	return nil
}

// orderedWeights decodes an account -> weight object without losing key order
type orderedWeights struct {
	present bool
	entries []Representative
}

func (w *orderedWeights) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	w.present = true

	// Older nodes send an empty string instead of an empty object
	if bytes.Equal(trimmed, []byte(`""`)) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("representatives: expected object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		account, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("representatives: unexpected key %v", keyTok)
		}

		var raw string
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("representatives: weight of %s: %w", account, err)
		}

		weight, ok := new(big.Int).SetString(raw, 10)
		if !ok || weight.Sign() < 0 {
			return fmt.Errorf("representatives: weight of %s is not a non-negative integer: %q", account, raw)
		}

		w.entries = append(w.entries, Representative{Account: account, Weight: weight})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	return nil
}
