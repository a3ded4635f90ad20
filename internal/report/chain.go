package report

import (
	"github.com/eqty-dao/treasury/internal/transfer"
)

// NativeBalance is the chain's native asset balance for the treasury.
type NativeBalance struct {
	Symbol             string `json:"symbol"`
	Decimals           int32  `json:"decimals"`
	BalanceWei         string `json:"balanceWei"`
	BalanceFormatted   string `json:"balanceFormatted"`
	ExplorerAddressURL string `json:"explorerAddressUrl"`
}

// TokenBalance is one ERC-20 balance for the treasury.
type TokenBalance struct {
	Symbol           string `json:"symbol"`
	Contract         string `json:"contract"`
	Decimals         int32  `json:"decimals"`
	BalanceRaw       string `json:"balanceRaw"`
	BalanceFormatted string `json:"balanceFormatted"`
	ExplorerTokenURL string `json:"explorerTokenUrl"`
}

// ChainSources records which configuration fed the snapshot, without leaking
// the endpoint URLs themselves.
type ChainSources struct {
	RPC      string `json:"rpc"`
	Explorer string `json:"explorer"`
}

// ChainSnapshot is the published per-chain treasury document.
type ChainSnapshot struct {
	Chain           string                           `json:"chain"`
	ChainID         int64                            `json:"chainId"`
	TreasuryAddress string                           `json:"treasuryAddress"`
	GeneratedAt     string                           `json:"generatedAt"`
	Native          NativeBalance                    `json:"native"`
	Tokens          map[string]TokenBalance          `json:"tokens"`
	RecentTransfers map[string][]transfer.Normalized `json:"recentTransfers"`
	Sources         ChainSources                     `json:"sources"`
}

// ChainMeta is the onchain meta.json document.
type ChainMeta struct {
	GeneratedAt string              `json:"generatedAt"`
	Address     string              `json:"address"`
	Assets      map[string][]string `json:"assets"`
}

// AccountingMeta is the accounting meta.json document.
type AccountingMeta struct {
	GeneratedAt      string            `json:"generatedAt"`
	AdministrationID string            `json:"administrationId"`
	Year             string            `json:"year"`
	Accounts         map[string]string `json:"accounts"`
}

// LedgerAccountRow is one published row of the ledger-account snapshot.
type LedgerAccountRow struct {
	ID          string  `json:"id"`
	Name        *string `json:"name"`
	ParentID    *string `json:"parentId"`
	AccountType *string `json:"accountType"`
}

// LedgerAccountsDoc is the ledger_accounts.json document.
type LedgerAccountsDoc struct {
	GeneratedAt      string             `json:"generatedAt"`
	AdministrationID string             `json:"administrationId"`
	LedgerAccounts   []LedgerAccountRow `json:"ledgerAccounts"`
}
