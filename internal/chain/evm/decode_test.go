package evm

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

func TestParseERC20Transfer(t *testing.T) {
	from := common.HexToAddress("0x1111111111111111111111111111111111111111")
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	value := big.NewInt(99_000_000)

	data := make([]byte, 32)
	value.FillBytes(data)

	l := types.Log{
		Topics: []common.Hash{ERC20TransferTopic, PadAddressTopic(from), PadAddressTopic(to)},
		Data:   data,
		TxHash: common.HexToHash("0xabc"),
	}

	transfer, err := ParseERC20Transfer(l)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if transfer.From != from || transfer.To != to {
		t.Errorf("unexpected from/to: %+v", transfer)
	}
	if transfer.Value.Cmp(value) != 0 {
		t.Errorf("expected value %s, got %s", value, transfer.Value)
	}
}

func TestParseERC20Transfer_WrongTopic(t *testing.T) {
	l := types.Log{
		Topics: []common.Hash{common.HexToHash("0xdead"), {}, {}},
		Data:   make([]byte, 32),
	}
	if _, err := ParseERC20Transfer(l); err == nil {
		t.Error("expected error for non-Transfer log")
	}
}

func TestParseFilledRelay(t *testing.T) {
	recipient := common.HexToAddress("0x3333333333333333333333333333333333333333")
	outputToken := common.HexToAddress("0x4444444444444444444444444444444444444444")
	outputAmount := big.NewInt(100_000_000)
	originChainID := big.NewInt(501) // Solana chain id sentinel

	words := make([]byte, 32*15)
	putWord := func(idx int, v []byte) {
		copy(words[idx*32+32-len(v):(idx+1)*32], v)
	}
	putWord(1, outputToken.Bytes())
	putWord(3, outputAmount.Bytes())
	putWord(9, recipient.Bytes())

	l := types.Log{
		Topics: []common.Hash{FilledRelayTopic, common.BigToHash(originChainID)},
		Data:   words,
	}

	fr, err := ParseFilledRelay(l)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if fr.Recipient != recipient {
		t.Errorf("expected recipient %s, got %s", recipient, fr.Recipient)
	}
	if fr.OutputToken != outputToken {
		t.Errorf("expected output token %s, got %s", outputToken, fr.OutputToken)
	}
	if fr.OutputAmount.Cmp(outputAmount) != 0 {
		t.Errorf("expected output amount %s, got %s", outputAmount, fr.OutputAmount)
	}
	if fr.OriginChainID.Cmp(originChainID) != 0 {
		t.Errorf("expected origin chain id %s, got %s", originChainID, fr.OriginChainID)
	}
}

func TestFilledRelayTopic_MatchesKnownHash(t *testing.T) {
	// Canary: the current FilledRelay(bytes32,...) topic hash starts
	// 0x44b559f1; the retired FilledV3Relay(address,...) schema hashes to a
	// different value, so a silent revert to it fails here.
	if FilledRelayTopic.Hex()[:10] != "0x44b559f1" {
		t.Errorf("expected FilledRelay topic to start 0x44b559f1, got %s", FilledRelayTopic.Hex())
	}
}

func TestChunkRanges(t *testing.T) {
	ranges := ChunkRanges(100, 125, 10)
	if len(ranges) != 3 {
		t.Fatalf("expected 3 chunks for a 26-block span at size 10, got %d", len(ranges))
	}
	want := [][2]uint64{{100, 109}, {110, 119}, {120, 125}}
	for i, r := range ranges {
		if r != want[i] {
			t.Errorf("chunk %d: got %v, want %v", i, r, want[i])
		}
	}
}

func TestChunkRanges_ExactMultiple(t *testing.T) {
	ranges := ChunkRanges(0, 19, 10)
	if len(ranges) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(ranges))
	}
}

func TestChunkRanges_SingleBlock(t *testing.T) {
	ranges := ChunkRanges(5, 5, 10)
	if len(ranges) != 1 || ranges[0] != [2]uint64{5, 5} {
		t.Fatalf("expected single chunk [5,5], got %v", ranges)
	}
}

func TestIsNativeSymbol(t *testing.T) {
	for _, sym := range []string{"ETH", "MATIC", "AVAX", "BNB", "SOL"} {
		if !IsNativeSymbol(sym) {
			t.Errorf("expected %s to be native", sym)
		}
	}
	if IsNativeSymbol("USDC") {
		t.Error("expected USDC to not be native")
	}
}

func TestEstimateHistoricalStartBlock_BoundedByMaxWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)
	createdAt := now.Add(-24 * time.Hour) // far beyond any window

	start := EstimateHistoricalStartBlock(1_000_000, now, createdAt, 2, 150)
	if start != 1_000_000-150 {
		t.Errorf("expected window bounded to 150 blocks, got start=%d", start)
	}
}

func TestEstimateHistoricalStartBlock_RecentPayment(t *testing.T) {
	now := time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)
	createdAt := now.Add(-20 * time.Second)

	start := EstimateHistoricalStartBlock(1_000_000, now, createdAt, 2, 150)
	if start != 1_000_000-10 {
		t.Errorf("expected ~10 blocks back at 2s block time, got start=%d", start)
	}
}
