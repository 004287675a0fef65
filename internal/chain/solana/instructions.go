package solana

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
)

// BuildApprove builds an approveChecked instruction granting delegate
// authority to spend amount (in atomic units, decimals-checked) of mint
// from source, signed by owner.
func BuildApprove(source, mint, delegate, owner solana.PublicKey, amount uint64, decimals uint8) solana.Instruction {
	return token.NewApproveCheckedInstruction(
		amount,
		decimals,
		source,
		mint,
		delegate,
		owner,
		nil,
	).Build()
}

// BuildRawInstruction constructs an instruction from a program ID, account
// list, and opaque data payload — used for the bridge's non-standard
// anchor-discriminator deposit instruction body, which no typed builder in
// this library understands.
func BuildRawInstruction(program solana.PublicKey, accounts solana.AccountMetaSlice, data []byte) solana.Instruction {
	return solana.NewInstruction(program, accounts, data)
}

// AccountMeta is a small constructor wrapper matching the account-order
// convention the deposit instruction requires.
func AccountMeta(pubkey solana.PublicKey, writable, signer bool) *solana.AccountMeta {
	return &solana.AccountMeta{PublicKey: pubkey, IsWritable: writable, IsSigner: signer}
}
