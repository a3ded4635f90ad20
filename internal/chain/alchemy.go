package chain

import (
	"context"
	"fmt"

	"github.com/eqty-dao/treasury/internal/transfer"
)

// AssetTransfersQuery narrows an alchemy_getAssetTransfers request. Leave
// FromAddress or ToAddress empty to omit it entirely; the API distinguishes
// an omitted filter from a null one.
type AssetTransfersQuery struct {
	FromAddress       string
	ToAddress         string
	ContractAddresses []string
	MaxCount          int
}

// AssetTransfer is one transfer row of the Alchemy transfers API.
type AssetTransfer struct {
	Hash        string   `json:"hash"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	Asset       string   `json:"asset"`
	UniqueID    string   `json:"uniqueId"`
	RawContract struct {
		Value   string `json:"value"`
		Address string `json:"address"`
	} `json:"rawContract"`
	Metadata struct {
		BlockTimestamp string `json:"blockTimestamp"`
	} `json:"metadata"`
}

// ToRaw converts the row into the canonical raw-transfer shape. The raw
// contract value is usually 0x-hex but occasionally already decimal; the
// normalizer's decoder accepts both.
func (t AssetTransfer) ToRaw() transfer.Raw {
	value := t.RawContract.Value
	if value == "" {
		value = "0"
	}
	return transfer.Raw{
		Hash:      t.Hash,
		From:      t.From,
		To:        t.To,
		Value:     value,
		Timestamp: t.Metadata.BlockTimestamp,
		Asset:     t.Asset,
		UniqueID:  t.UniqueID,
	}
}

// AssetTransfers lists ERC-20 transfers matching the query via the Alchemy
// transfers extension on the RPC endpoint.
func (c *RPC) AssetTransfers(ctx context.Context, q AssetTransfersQuery) ([]AssetTransfer, error) {
	params := map[string]any{
		"fromBlock":        "0x0",
		"toBlock":          "latest",
		"category":         []string{"erc20"},
		"maxCount":         fmt.Sprintf("0x%x", q.MaxCount),
		"withMetadata":     true,
		"excludeZeroValue": true,
	}
	if len(q.ContractAddresses) > 0 {
		params["contractAddresses"] = q.ContractAddresses
	}
	if q.FromAddress != "" {
		params["fromAddress"] = q.FromAddress
	}
	if q.ToAddress != "" {
		params["toAddress"] = q.ToAddress
	}

	var result struct {
		Transfers []AssetTransfer `json:"transfers"`
	}
	if err := c.Call(ctx, "alchemy_getAssetTransfers", []any{params}, &result); err != nil {
		return nil, err
	}
	return result.Transfers, nil
}
