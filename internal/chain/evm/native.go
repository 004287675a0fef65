package evm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// NativeTransfer is a candidate native-value transfer found while scanning a
// block for payments to wallet.
type NativeTransfer struct {
	TxHash common.Hash
	To     common.Address
	Value  *big.Int
	Block  uint64
}

// FindNativeTransfers scans every transaction in block for a value transfer
// to wallet, returning all matches (the caller applies the amount-tolerance
// check). A block can contain more than one transaction to the same
// address; the caller picks the one within tolerance.
func FindNativeTransfers(block *types.Block, wallet common.Address) []NativeTransfer {
	var out []NativeTransfer
	for _, tx := range block.Transactions() {
		if tx.To() == nil {
			continue
		}
		if *tx.To() != wallet {
			continue
		}
		if tx.Value() == nil || tx.Value().Sign() <= 0 {
			continue
		}
		out = append(out, NativeTransfer{
			TxHash: tx.Hash(),
			To:     *tx.To(),
			Value:  tx.Value(),
			Block:  block.NumberU64(),
		})
	}
	return out
}
