package chain

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func rpcServer(t *testing.T, handler func(method string, params []json.RawMessage) (any, *RPCError)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode rpc request: %v", err)
		}

		result, rpcErr := handler(req.Method, req.Params)
		resp := map[string]any{"id": 1, "jsonrpc": "2.0"}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestRPC_Balance(t *testing.T) {
	srv := rpcServer(t, func(method string, _ []json.RawMessage) (any, *RPCError) {
		if method != "eth_getBalance" {
			t.Errorf("method = %q", method)
		}
		return "0xde0b6b3a7640000", nil
	})
	defer srv.Close()

	c := NewRPC(srv.URL, srv.Client())

	got, err := c.Balance(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("Balance() error: %v", err)
	}
	want := big.NewInt(1000000000000000000)
	if got.Cmp(want) != 0 {
		t.Errorf("Balance() = %s, want %s", got, want)
	}
}

func TestRPC_ErrorPropagates(t *testing.T) {
	srv := rpcServer(t, func(string, []json.RawMessage) (any, *RPCError) {
		return nil, &RPCError{Code: -32000, Message: "execution reverted"}
	})
	defer srv.Close()

	c := NewRPC(srv.URL, srv.Client())

	_, err := c.Balance(context.Background(), "0xabc")
	if err == nil || !strings.Contains(err.Error(), "execution reverted") {
		t.Errorf("error = %v, want rpc error message", err)
	}
}

func TestRPC_ERC20Reads(t *testing.T) {
	// ABI-encoded dynamic string "USDT".
	symbolResult := "0x" +
		strings.Repeat("0", 62) + "20" + // offset 32
		strings.Repeat("0", 63) + "4" + // length 4
		"55534454" + strings.Repeat("0", 56) // "USDT" padded

	srv := rpcServer(t, func(method string, params []json.RawMessage) (any, *RPCError) {
		if method != "eth_call" {
			t.Errorf("method = %q", method)
		}
		var call struct {
			Data string `json:"data"`
		}
		_ = json.Unmarshal(params[0], &call)

		switch {
		case strings.HasPrefix(call.Data, selectorDecimals):
			return "0x6", nil
		case strings.HasPrefix(call.Data, selectorSymbol):
			return symbolResult, nil
		case strings.HasPrefix(call.Data, selectorBalanceOf):
			if !strings.HasSuffix(call.Data, strings.ToLower("2Bc456799F3Cf071B10CE7216269471e0A40381a")) {
				t.Errorf("balanceOf data missing padded owner: %q", call.Data)
			}
			return "0x174876e800", nil // 100_000_000_000
		}
		return nil, &RPCError{Code: -32601, Message: "unknown selector"}
	})
	defer srv.Close()

	c := NewRPC(srv.URL, srv.Client())
	ctx := context.Background()

	decimals, err := c.ERC20Decimals(ctx, "0xtoken")
	if err != nil || decimals != 6 {
		t.Errorf("ERC20Decimals() = %d, %v, want 6", decimals, err)
	}

	symbol, err := c.ERC20Symbol(ctx, "0xtoken")
	if err != nil || symbol != "USDT" {
		t.Errorf("ERC20Symbol() = %q, %v, want USDT", symbol, err)
	}

	balance, err := c.ERC20BalanceOf(ctx, "0xtoken", "0x2Bc456799F3Cf071B10CE7216269471e0A40381a")
	if err != nil || balance.Cmp(big.NewInt(100000000000)) != 0 {
		t.Errorf("ERC20BalanceOf() = %s, %v", balance, err)
	}
}

func TestDecodeABIString_Bytes32(t *testing.T) {
	// Legacy bytes32 symbol "MKR" right-padded with zeros.
	raw := "0x4d4b52" + strings.Repeat("0", 58)

	got, err := decodeABIString(raw)
	if err != nil || got != "MKR" {
		t.Errorf("decodeABIString(bytes32) = %q, %v, want MKR", got, err)
	}
}

func TestEtherscan_TokenTransfers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("action") != "tokentx" || q.Get("chainid") != "1" || q.Get("sort") != "desc" {
			t.Errorf("query = %v", q)
		}
		_, _ = w.Write([]byte(`{
			"status": "1",
			"message": "OK",
			"result": [
				{"hash": "0xabc", "from": "0x1", "to": "0x2", "value": "100", "timeStamp": "1700000000", "tokenSymbol": "USDT"}
			]
		}`))
	}))
	defer srv.Close()

	c := NewEtherscan(srv.URL, "key", srv.Client())

	rows, err := c.TokenTransfers(context.Background(), 1, "0x2", "0xtoken", 1, 25)
	if err != nil {
		t.Fatalf("TokenTransfers() error: %v", err)
	}
	if len(rows) != 1 || rows[0].Hash != "0xabc" {
		t.Fatalf("rows = %+v", rows)
	}

	raw := rows[0].ToRaw()
	if raw.UnixSeconds != 1700000000 || raw.Asset != "USDT" {
		t.Errorf("ToRaw() = %+v", raw)
	}
}

func TestEtherscan_NoTransactionsIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "0", "message": "No transactions found", "result": []}`))
	}))
	defer srv.Close()

	c := NewEtherscan(srv.URL, "key", srv.Client())

	rows, err := c.TokenTransfers(context.Background(), 1, "0x2", "0xtoken", 1, 25)
	if err != nil {
		t.Fatalf("TokenTransfers() error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %+v, want empty", rows)
	}
}

func TestEtherscan_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "0", "message": "NOTOK", "result": "Max rate limit reached"}`))
	}))
	defer srv.Close()

	c := NewEtherscan(srv.URL, "key", srv.Client())

	_, err := c.TokenTransfers(context.Background(), 1, "0x2", "0xtoken", 1, 25)
	if err == nil || !strings.Contains(err.Error(), "NOTOK") {
		t.Errorf("error = %v, want etherscan error with message", err)
	}
}

func TestRPC_AssetTransfers(t *testing.T) {
	srv := rpcServer(t, func(method string, params []json.RawMessage) (any, *RPCError) {
		if method != "alchemy_getAssetTransfers" {
			t.Errorf("method = %q", method)
		}
		var q map[string]any
		_ = json.Unmarshal(params[0], &q)
		if _, present := q["toAddress"]; present {
			t.Error("empty toAddress must be omitted, not null")
		}
		if q["fromAddress"] != "0xme" {
			t.Errorf("fromAddress = %v", q["fromAddress"])
		}
		if q["maxCount"] != "0x19" {
			t.Errorf("maxCount = %v, want 0x19", q["maxCount"])
		}

		return map[string]any{"transfers": []map[string]any{{
			"hash":        "0xdef",
			"from":        "0xme",
			"to":          "0xyou",
			"asset":       "EQTY",
			"uniqueId":    "0xdef:log:3",
			"rawContract": map[string]any{"value": "0x64"},
			"metadata":    map[string]any{"blockTimestamp": "2025-02-01T10:00:00.000Z"},
		}}}, nil
	})
	defer srv.Close()

	c := NewRPC(srv.URL, srv.Client())

	transfers, err := c.AssetTransfers(context.Background(), AssetTransfersQuery{
		FromAddress:       "0xme",
		ContractAddresses: []string{"0xtoken"},
		MaxCount:          25,
	})
	if err != nil {
		t.Fatalf("AssetTransfers() error: %v", err)
	}
	if len(transfers) != 1 {
		t.Fatalf("transfers = %+v", transfers)
	}

	raw := transfers[0].ToRaw()
	if raw.Value != "0x64" || raw.UniqueID != "0xdef:log:3" || raw.Timestamp != "2025-02-01T10:00:00.000Z" {
		t.Errorf("ToRaw() = %+v", raw)
	}
}
