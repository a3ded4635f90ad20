// Package chain holds the blockchain-source collaborators: a minimal
// JSON-RPC client for balances and ERC-20 reads, an Etherscan-style
// token-transfer client, and an Alchemy asset-transfers client. Each source
// converts its native wire rows into the canonical transfer.Raw shape; the
// engine never sees provider-specific records.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"
)

// RPCError is a JSON-RPC level failure returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// RPC is a JSON-RPC 2.0 client bound to one endpoint.
type RPC struct {
	httpClient *http.Client
	endpoint   string
}

func NewRPC(endpoint string, httpClient *http.Client) *RPC {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &RPC{httpClient: httpClient, endpoint: endpoint}
}

// Call performs one JSON-RPC request and decodes the result into out.
func (c *RPC) Call(ctx context.Context, method string, params any, out any) error {
	reqBody, err := json.Marshal(map[string]any{
		"id":      1,
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 400))
		return fmt.Errorf("%s: HTTP %d %s", method, resp.StatusCode, string(body))
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *RPCError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("%s: %w", method, envelope.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

// Balance returns the native balance of address in wei.
func (c *RPC) Balance(ctx context.Context, address string) (*big.Int, error) {
	var hexBalance string
	if err := c.Call(ctx, "eth_getBalance", []any{address, "latest"}, &hexBalance); err != nil {
		return nil, err
	}
	return parseHexQuantity(hexBalance)
}

func parseHexQuantity(s string) (*big.Int, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if trimmed == "" {
		return new(big.Int), nil
	}
	n, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return nil, fmt.Errorf("malformed hex quantity %q", s)
	}
	return n, nil
}
