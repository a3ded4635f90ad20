package chain

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// Function selectors for the three read-only ERC-20 calls we need.
const (
	selectorSymbol    = "0x95d89b41"
	selectorDecimals  = "0x313ce567"
	selectorBalanceOf = "0x70a08231"
)

// ERC20Decimals reads the token's declared decimal precision.
func (c *RPC) ERC20Decimals(ctx context.Context, token string) (int32, error) {
	result, err := c.ethCall(ctx, token, selectorDecimals)
	if err != nil {
		return 0, err
	}
	n, err := parseHexQuantity(result)
	if err != nil {
		return 0, fmt.Errorf("decimals of %s: %w", token, err)
	}
	return int32(n.Int64()), nil
}

// ERC20BalanceOf reads owner's balance in the token's smallest unit.
func (c *RPC) ERC20BalanceOf(ctx context.Context, token, owner string) (*big.Int, error) {
	result, err := c.ethCall(ctx, token, selectorBalanceOf+padAddress(owner))
	if err != nil {
		return nil, err
	}
	n, err := parseHexQuantity(result)
	if err != nil {
		return nil, fmt.Errorf("balanceOf %s: %w", owner, err)
	}
	return n, nil
}

// ERC20Symbol reads the token's symbol. Non-standard tokens return it as
// bytes32 instead of a dynamic string; both encodings are handled. Callers
// treat a failure here as non-fatal and fall back to a placeholder.
func (c *RPC) ERC20Symbol(ctx context.Context, token string) (string, error) {
	result, err := c.ethCall(ctx, token, selectorSymbol)
	if err != nil {
		return "", err
	}
	symbol, err := decodeABIString(result)
	if err != nil {
		return "", fmt.Errorf("symbol of %s: %w", token, err)
	}
	return symbol, nil
}

func (c *RPC) ethCall(ctx context.Context, to, data string) (string, error) {
	var result string
	params := []any{map[string]string{"to": to, "data": data}, "latest"}
	if err := c.Call(ctx, "eth_call", params, &result); err != nil {
		return "", err
	}
	return result, nil
}

// padAddress left-pads a 20-byte address to one 32-byte ABI word.
func padAddress(address string) string {
	hexPart := strings.TrimPrefix(strings.ToLower(address), "0x")
	return strings.Repeat("0", 64-len(hexPart)) + hexPart
}

// decodeABIString decodes an eth_call string return value. A standard
// dynamic string is offset + length + data; legacy tokens use a single
// right-padded bytes32 word.
func decodeABIString(result string) (string, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(result, "0x"))
	if err != nil {
		return "", fmt.Errorf("malformed call result: %w", err)
	}

	if len(raw) >= 96 {
		length := new(big.Int).SetBytes(raw[32:64]).Int64()
		if length >= 0 && 64+length <= int64(len(raw)) {
			return string(raw[64 : 64+length]), nil
		}
	}

	if len(raw) == 32 {
		return string(trimRightZeros(raw)), nil
	}

	return "", fmt.Errorf("unrecognized string encoding (%d bytes)", len(raw))
}

func trimRightZeros(b []byte) []byte {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return b[:end]
}
