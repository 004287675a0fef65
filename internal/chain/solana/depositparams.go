package solana

import (
	"bytes"
	"crypto/sha256"
	"math/big"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"golang.org/x/crypto/sha3"
)

// DepositParams is the exact parameter struct the Across Solana SpokePool's
// deposit instruction carries, field order and widths matching the on-chain
// program precisely: outputAmount is a big-endian u256 (EVM convention)
// while the timestamp fields are little-endian u32 (Solana convention). Its
// Borsh serialization is also the preimage hashed to derive the delegate
// PDA, so any field reordering here breaks both the instruction and the
// delegate derivation identically.
type DepositParams struct {
	Depositor           [32]byte
	Recipient           [32]byte // EVM address, left-padded to 32 bytes
	InputToken          [32]byte // Solana mint
	OutputToken         [32]byte // EVM address, left-padded to 32 bytes
	InputAmount         uint64
	OutputAmount        [32]byte // u256 big-endian
	DestinationChainID  uint64
	ExclusiveRelayer    [32]byte
	QuoteTimestamp      uint32
	FillDeadline        uint32
	ExclusivityDeadline uint32
	Message             []byte
}

// PadEVMAddress left-pads a 20-byte EVM address into a 32-byte array, the
// encoding Across uses for chain-agnostic addresses.
func PadEVMAddress(addr [20]byte) [32]byte {
	var out [32]byte
	copy(out[12:], addr[:])
	return out
}

// U256BigEndian encodes amount as a big-endian 32-byte value.
func U256BigEndian(amount *big.Int) [32]byte {
	var out [32]byte
	amount.FillBytes(out[:])
	return out
}

// Serialize produces the exact byte sequence the deposit instruction body
// carries (after the 8-byte Anchor discriminator) and that is hashed to
// derive the delegate PDA.
func (p DepositParams) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	encoder := bin.NewBorshEncoder(&buf)
	if err := encoder.Encode(p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DepositDiscriminator is the first 8 bytes of SHA256("global:deposit"), the
// Anchor instruction discriminator prefixed to the serialized parameters.
func DepositDiscriminator() [8]byte {
	sum := sha256.Sum256([]byte("global:deposit"))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}

// DepositInstructionData builds the full instruction data: 8-byte Anchor
// discriminator followed by the Borsh-encoded parameters.
func (p DepositParams) DepositInstructionData() ([]byte, error) {
	body, err := p.Serialize()
	if err != nil {
		return nil, err
	}
	disc := DepositDiscriminator()
	data := make([]byte, 0, len(disc)+len(body))
	data = append(data, disc[:]...)
	data = append(data, body...)
	return data, nil
}

// DeriveDelegatePDA computes find_program_address(["delegate",
// keccak256(borsh(params))], program) — the delegate must be granted
// approveChecked authority for exactly this params tuple before the deposit
// instruction carrying the same tuple is submitted.
func DeriveDelegatePDA(program solana.PublicKey, params DepositParams) (solana.PublicKey, uint8, error) {
	body, err := params.Serialize()
	if err != nil {
		return solana.PublicKey{}, 0, err
	}

	hash := keccak256(body)
	return DerivePDA(program, [][]byte{[]byte("delegate"), hash[:]})
}

func keccak256(data []byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
