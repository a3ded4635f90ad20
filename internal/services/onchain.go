package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eqty-dao/treasury/internal/chain"
	"github.com/eqty-dao/treasury/internal/money"
	"github.com/eqty-dao/treasury/internal/publish"
	"github.com/eqty-dao/treasury/internal/report"
	"github.com/eqty-dao/treasury/internal/storage"
	"github.com/eqty-dao/treasury/internal/transfer"
)

// Native asset decimals are fixed by the protocol on both chains.
const nativeDecimals = 18

// ChainReader is the subset of the JSON-RPC client one chain job uses.
type ChainReader interface {
	Balance(ctx context.Context, address string) (*big.Int, error)
	ERC20Symbol(ctx context.Context, token string) (string, error)
	ERC20Decimals(ctx context.Context, token string) (int32, error)
	ERC20BalanceOf(ctx context.Context, token, owner string) (*big.Int, error)
	AssetTransfers(ctx context.Context, q chain.AssetTransfersQuery) ([]chain.AssetTransfer, error)
}

// TransferScanner lists recent token transfers via an explorer API.
type TransferScanner interface {
	TokenTransfers(ctx context.Context, chainID int64, address, contract string, page, offset int) ([]chain.TokentxRow, error)
}

// ChainJob describes one chain to snapshot. Transfers come from Scanner when
// set, otherwise from the RPC endpoint's asset-transfers extension.
type ChainJob struct {
	Name           string
	ChainID        int64
	NativeSymbol   string
	ExplorerBase   string
	RPC            ChainReader
	Scanner        TransferScanner
	TokenContracts []string
	RPCSourceName  string
	ScanSourceName string
}

// OnchainExporter snapshots the treasury's balances and recent transfers on
// each configured chain.
type OnchainExporter struct {
	jobs     []ChainJob
	writer   *publish.Writer
	notifier RefreshNotifier
	journal  RunJournal

	treasuryAddress string
	transferLimit   int

	now func() time.Time
}

type OnchainOptions struct {
	TreasuryAddress string
	TransferLimit   int

	// Now is optional and exists for tests.
	Now func() time.Time
}

func NewOnchainExporter(jobs []ChainJob, writer *publish.Writer, notifier RefreshNotifier, journal RunJournal, opts OnchainOptions) *OnchainExporter {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &OnchainExporter{
		jobs:     jobs,
		writer:   writer,
		notifier: notifier,
		journal:  journal,

		treasuryAddress: opts.TreasuryAddress,
		transferLimit:   opts.TransferLimit,

		now: now,
	}
}

// Run snapshots every configured chain. Chains are independent, but a failure
// on any of them fails the run so the meta document never claims freshness it
// does not have.
func (e *OnchainExporter) Run(ctx context.Context) error {
	startedAt := e.now()
	slog.InfoContext(ctx, "Starting onchain export",
		"address", e.treasuryAddress, "chains", len(e.jobs))

	if last, err := e.journal.LastSuccessful(ctx, storage.SourceOnchain); err != nil {
		slog.WarnContext(ctx, "Could not read run journal", "error", err)
	} else if last != nil {
		slog.InfoContext(ctx, "Previous successful export",
			"finishedAt", last.FinishedAt, "artifacts", last.ArtifactCount)
	}

	artifacts, err := e.export(ctx)
	finishedAt := e.now()

	run := storage.Run{
		Source:        storage.SourceOnchain,
		StartedAt:     startedAt,
		FinishedAt:    finishedAt,
		Status:        storage.RunSucceeded,
		ArtifactCount: len(artifacts),
	}
	if err != nil {
		run.Status = storage.RunFailed
		run.Detail = err.Error()
	}
	if _, recordErr := e.journal.RecordRun(ctx, run); recordErr != nil {
		slog.ErrorContext(ctx, "Failed to record run", "error", recordErr)
	}

	if err != nil {
		return err
	}

	if err := e.notifier.NotifyRefresh(ctx, publish.RefreshEvent{
		Source:      storage.SourceOnchain,
		GeneratedAt: finishedAt.UTC(),
		Artifacts:   artifacts,
	}); err != nil {
		slog.ErrorContext(ctx, "Failed to publish refresh event", "error", err)
	}

	slog.InfoContext(ctx, "Onchain export finished",
		"artifacts", len(artifacts),
		"duration", finishedAt.Sub(startedAt))
	return nil
}

func (e *OnchainExporter) export(ctx context.Context) ([]string, error) {
	generatedAt := e.now()
	snapshots := make([]report.ChainSnapshot, len(e.jobs))

	g, gctx := errgroup.WithContext(ctx)
	for i, job := range e.jobs {
		g.Go(func() error {
			snap, err := e.snapshotChain(gctx, job, generatedAt)
			if err != nil {
				return fmt.Errorf("chain %s: %w", job.Name, err)
			}
			snapshots[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var artifacts []string
	assets := make(map[string][]string, len(snapshots))
	for _, snap := range snapshots {
		relPath := fmt.Sprintf("%s/treasury.json", snap.Chain)
		if err := e.writer.WriteJSON(relPath, snap); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, relPath)

		chainAssets := []string{snap.Native.Symbol}
		for symbol := range snap.Tokens {
			chainAssets = append(chainAssets, symbol)
		}
		sort.Strings(chainAssets[1:])
		assets[snap.Chain] = chainAssets
	}

	meta := report.ChainMeta{
		GeneratedAt: generatedAt.UTC().Format(time.RFC3339),
		Address:     e.treasuryAddress,
		Assets:      assets,
	}
	if err := e.writer.WriteJSON("meta.json", meta); err != nil {
		return nil, err
	}
	artifacts = append(artifacts, "meta.json")

	return artifacts, nil
}

func (e *OnchainExporter) snapshotChain(ctx context.Context, job ChainJob, generatedAt time.Time) (report.ChainSnapshot, error) {
	nativeBalance, err := job.RPC.Balance(ctx, e.treasuryAddress)
	if err != nil {
		return report.ChainSnapshot{}, fmt.Errorf("native balance: %w", err)
	}

	tokens := make(map[string]report.TokenBalance, len(job.TokenContracts))
	recent := make(map[string][]transfer.Normalized, len(job.TokenContracts))

	for _, contract := range job.TokenContracts {
		symbol, err := job.RPC.ERC20Symbol(ctx, contract)
		if err != nil {
			// Non-standard tokens break symbol decoding; the snapshot is
			// still worth publishing under a placeholder.
			slog.WarnContext(ctx, "Could not read token symbol",
				"chain", job.Name, "contract", contract, "error", err)
			symbol = "TOKEN"
		}

		decimals, err := job.RPC.ERC20Decimals(ctx, contract)
		if err != nil {
			return report.ChainSnapshot{}, fmt.Errorf("decimals of %s: %w", contract, err)
		}

		balance, err := job.RPC.ERC20BalanceOf(ctx, contract, e.treasuryAddress)
		if err != nil {
			return report.ChainSnapshot{}, fmt.Errorf("balance of %s: %w", contract, err)
		}

		transfers, err := e.recentTransfers(ctx, job, contract, decimals)
		if err != nil {
			return report.ChainSnapshot{}, fmt.Errorf("transfers of %s: %w", contract, err)
		}

		tokens[symbol] = report.TokenBalance{
			Symbol:           symbol,
			Contract:         contract,
			Decimals:         decimals,
			BalanceRaw:       balance.String(),
			BalanceFormatted: money.FormatUnits(balance, decimals),
			ExplorerTokenURL: fmt.Sprintf("%s/token/%s", job.ExplorerBase, contract),
		}
		recent[symbol] = transfers
	}

	return report.ChainSnapshot{
		Chain:           job.Name,
		ChainID:         job.ChainID,
		TreasuryAddress: e.treasuryAddress,
		GeneratedAt:     generatedAt.UTC().Format(time.RFC3339),
		Native: report.NativeBalance{
			Symbol:             job.NativeSymbol,
			Decimals:           nativeDecimals,
			BalanceWei:         nativeBalance.String(),
			BalanceFormatted:   money.FormatUnits(nativeBalance, nativeDecimals),
			ExplorerAddressURL: fmt.Sprintf("%s/address/%s", job.ExplorerBase, e.treasuryAddress),
		},
		Tokens:          tokens,
		RecentTransfers: recent,
		Sources: report.ChainSources{
			RPC:      job.RPCSourceName,
			Explorer: job.ScanSourceName,
		},
	}, nil
}

// recentTransfers lists the newest transfers of one token touching the
// treasury. The explorer scanner returns one treasury-scoped list; the RPC
// extension needs separate outgoing and incoming queries, fetched
// concurrently and merged with duplicates (rows present in both results)
// removed.
func (e *OnchainExporter) recentTransfers(ctx context.Context, job ChainJob, contract string, decimals int32) ([]transfer.Normalized, error) {
	if job.Scanner != nil {
		rows, err := job.Scanner.TokenTransfers(ctx, job.ChainID, e.treasuryAddress, contract, 1, e.transferLimit)
		if err != nil {
			return nil, err
		}
		raws := make([]transfer.Raw, 0, len(rows))
		for _, r := range rows {
			raws = append(raws, r.ToRaw())
		}
		normalized := transfer.NormalizeAll(raws, e.treasuryAddress, decimals, job.ExplorerBase)
		return transfer.MergeAndDedup([][]transfer.Normalized{normalized}, e.transferLimit), nil
	}

	queries := []chain.AssetTransfersQuery{
		{FromAddress: e.treasuryAddress, ContractAddresses: []string{contract}, MaxCount: e.transferLimit},
		{ToAddress: e.treasuryAddress, ContractAddresses: []string{contract}, MaxCount: e.transferLimit},
	}
	lists := make([][]transfer.Normalized, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			rows, err := job.RPC.AssetTransfers(gctx, q)
			if err != nil {
				return err
			}
			raws := make([]transfer.Raw, 0, len(rows))
			for _, r := range rows {
				raws = append(raws, r.ToRaw())
			}
			lists[i] = transfer.NormalizeAll(raws, e.treasuryAddress, decimals, job.ExplorerBase)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return transfer.MergeAndDedup(lists, e.transferLimit), nil
}
