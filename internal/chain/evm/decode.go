package evm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// ERC20TransferTopic is the topic-0 hash of Transfer(address indexed from,
// address indexed to, uint256 value).
var ERC20TransferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// FilledRelayTopic is the topic-0 hash of the Across v3 "bytes32" FilledRelay
// event; it starts 0x44b559f1. The retired FilledV3Relay(address,...) schema
// used a different hash (0x571749ed...) and is not decoded here; see the
// canary test.
var FilledRelayTopic = crypto.Keccak256Hash([]byte(
	"FilledRelay(bytes32,bytes32,uint256,uint256,uint256,uint256,uint256,uint32,uint32,bytes32,bytes32,bytes32,bytes32,bytes32,(bytes32,bytes32,uint256,uint8))",
))

// PadAddressTopic left-pads addr into a 32-byte topic value, as EVM clients
// do for indexed address parameters.
func PadAddressTopic(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

// AddressFromBytes32 reads the right-aligned 20-byte address out of a
// bytes32 value, as Across encodes chain-agnostic addresses.
func AddressFromBytes32(b [32]byte) common.Address {
	return common.BytesToAddress(b[12:])
}

// ERC20Transfer is a decoded Transfer(address,address,uint256) log.
type ERC20Transfer struct {
	From   common.Address
	To     common.Address
	Value  *big.Int
	TxHash common.Hash
	Block  uint64
}

// ParseERC20Transfer decodes a log into an ERC20Transfer. It returns an
// error if the log's topics don't match the Transfer signature shape.
func ParseERC20Transfer(l types.Log) (ERC20Transfer, error) {
	if len(l.Topics) != 3 || l.Topics[0] != ERC20TransferTopic {
		return ERC20Transfer{}, fmt.Errorf("evm: log is not an ERC-20 Transfer")
	}
	if len(l.Data) < 32 {
		return ERC20Transfer{}, fmt.Errorf("evm: Transfer log data too short")
	}

	return ERC20Transfer{
		From:   common.BytesToAddress(l.Topics[1].Bytes()),
		To:     common.BytesToAddress(l.Topics[2].Bytes()),
		Value:  new(big.Int).SetBytes(l.Data[:32]),
		TxHash: l.TxHash,
		Block:  l.BlockNumber,
	}, nil
}

// FilledRelay is the subset of the Across v3 FilledRelay event the fill
// watcher needs to decide a match.
type FilledRelay struct {
	OriginChainID *big.Int
	OutputToken   common.Address
	OutputAmount  *big.Int
	Recipient     common.Address
	TxHash        common.Hash
	Block         uint64
}

// ParseFilledRelay decodes a log into a FilledRelay. Non-indexed fields are
// packed in l.Data in declaration order, each occupying one 32-byte word
// (dynamic tuple fields are encoded inline since none of the fields read
// here are themselves dynamic).
func ParseFilledRelay(l types.Log) (FilledRelay, error) {
	if len(l.Topics) < 2 || l.Topics[0] != FilledRelayTopic {
		return FilledRelay{}, fmt.Errorf("evm: log is not a FilledRelay event")
	}

	originChainID := new(big.Int).SetBytes(l.Topics[1].Bytes())

	// Data word layout (non-indexed fields, one 32-byte word each, in
	// declaration order): 0 inputToken, 1 outputToken, 2 inputAmount,
	// 3 outputAmount, 4 repaymentChainId, 5 fillDeadline, 6 exclusivityDeadline,
	// 7 exclusiveRelayer, 8 depositor, 9 recipient, 10 messageHash, 11+ relayExecutionInfo.
	const wordSize = 32
	const outputTokenWord = 1
	const outputAmountWord = 3
	const recipientWord = 9

	minWords := recipientWord + 1
	if len(l.Data) < minWords*wordSize {
		return FilledRelay{}, fmt.Errorf("evm: FilledRelay log data too short")
	}

	var outputToken [32]byte
	copy(outputToken[:], l.Data[outputTokenWord*wordSize:(outputTokenWord+1)*wordSize])

	var recipient [32]byte
	copy(recipient[:], l.Data[recipientWord*wordSize:(recipientWord+1)*wordSize])

	outputAmount := new(big.Int).SetBytes(l.Data[outputAmountWord*wordSize : (outputAmountWord+1)*wordSize])

	return FilledRelay{
		OriginChainID: originChainID,
		OutputToken:   AddressFromBytes32(outputToken),
		OutputAmount:  outputAmount,
		Recipient:     AddressFromBytes32(recipient),
		TxHash:        l.TxHash,
		Block:         l.BlockNumber,
	}, nil
}

// IsNativeSymbol reports whether symbol denotes a chain's native asset
// rather than an ERC-20 token, per the chains this adapter supports.
func IsNativeSymbol(symbol string) bool {
	switch symbol {
	case "ETH", "MATIC", "AVAX", "BNB", "SOL":
		return true
	default:
		return false
	}
}
