package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/eqty-dao/treasury/internal/transfer"
)

const DefaultEtherscanBaseURL = "https://api.etherscan.io/v2/api"

// Etherscan is a client for the Etherscan v2 account API. One client can
// serve multiple chains; the chain id travels with each request.
type Etherscan struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewEtherscan(baseURL, apiKey string, httpClient *http.Client) *Etherscan {
	if baseURL == "" {
		baseURL = DefaultEtherscanBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Etherscan{httpClient: httpClient, baseURL: baseURL, apiKey: apiKey}
}

// TokentxRow is one row of the tokentx action. All fields arrive as strings.
type TokentxRow struct {
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	TimeStamp   string `json:"timeStamp"`
	TokenSymbol string `json:"tokenSymbol"`
}

// ToRaw converts the row into the canonical raw-transfer shape.
func (r TokentxRow) ToRaw() transfer.Raw {
	unix, _ := strconv.ParseInt(r.TimeStamp, 10, 64)
	return transfer.Raw{
		Hash:        r.Hash,
		From:        r.From,
		To:          r.To,
		Value:       r.Value,
		UnixSeconds: unix,
		Asset:       r.TokenSymbol,
	}
}

// TokenTransfers lists recent ERC-20 transfers of contract touching address,
// newest first, one page of at most offset rows.
//
// The API reports "no data" through its status envelope rather than an empty
// result, so status "0" with message "No transactions found" is a valid
// empty response, not an error.
func (c *Etherscan) TokenTransfers(ctx context.Context, chainID int64, address, contract string, page, offset int) ([]TokentxRow, error) {
	q := url.Values{}
	q.Set("chainid", strconv.FormatInt(chainID, 10))
	q.Set("module", "account")
	q.Set("action", "tokentx")
	q.Set("address", address)
	q.Set("contractaddress", contract)
	q.Set("page", strconv.Itoa(page))
	q.Set("offset", strconv.Itoa(offset))
	q.Set("sort", "desc")
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build tokentx request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("etherscan tokentx: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("etherscan tokentx: HTTP %d", resp.StatusCode)
	}

	var envelope struct {
		Status  string          `json:"status"`
		Message string          `json:"message"`
		Result  json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode tokentx response: %w", err)
	}

	if envelope.Status != "1" && envelope.Message != "No transactions found" {
		// On errors the result field is a string with detail.
		detail := string(envelope.Result)
		if len(detail) > 140 {
			detail = detail[:140]
		}
		return nil, fmt.Errorf("etherscan error: %s (%s)", envelope.Message, detail)
	}

	var rows []TokentxRow
	if err := json.Unmarshal(envelope.Result, &rows); err != nil {
		if envelope.Message == "No transactions found" {
			// The empty response carries a string result, not an array.
			return nil, nil
		}
		return nil, fmt.Errorf("decode tokentx result: %w", err)
	}
	return rows, nil
}
