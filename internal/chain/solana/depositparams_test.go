package solana

import (
	"math/big"
	"testing"

	"github.com/gagliardetto/solana-go"
)

func samplePublicKey(t *testing.T) solana.PublicKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key.PublicKey()
}

func sampleParams() DepositParams {
	var addr [20]byte
	copy(addr[:], []byte("0123456789abcdefghi"))

	return DepositParams{
		Depositor:           [32]byte{1, 2, 3},
		Recipient:           PadEVMAddress(addr),
		InputToken:          [32]byte{4, 5, 6},
		OutputToken:         PadEVMAddress(addr),
		InputAmount:         100_600_000,
		OutputAmount:        U256BigEndian(big.NewInt(100_000_000)),
		DestinationChainID:  42161,
		ExclusiveRelayer:    [32]byte{},
		QuoteTimestamp:      1_735_689_600,
		FillDeadline:        1_735_710_600,
		ExclusivityDeadline: 0,
		Message:             nil,
	}
}

func TestDepositParams_SerializeIsDeterministic(t *testing.T) {
	p := sampleParams()

	a, err := p.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	b, err := p.Serialize()
	if err != nil {
		t.Fatalf("serialize again: %v", err)
	}
	if string(a) != string(b) {
		t.Error("expected identical serialization for identical params")
	}
}

func TestDepositParams_SerializeDiffersOnFieldChange(t *testing.T) {
	p1 := sampleParams()
	p2 := sampleParams()
	p2.InputAmount++

	a, err := p1.Serialize()
	if err != nil {
		t.Fatalf("serialize p1: %v", err)
	}
	b, err := p2.Serialize()
	if err != nil {
		t.Fatalf("serialize p2: %v", err)
	}
	if string(a) == string(b) {
		t.Error("expected serialization to change when a field changes")
	}
}

func TestDeriveDelegatePDA_IsPureFunctionOfParams(t *testing.T) {
	program := samplePublicKey(t)

	pda1, bump1, err := DeriveDelegatePDA(program, sampleParams())
	if err != nil {
		t.Fatalf("derive 1: %v", err)
	}
	pda2, bump2, err := DeriveDelegatePDA(program, sampleParams())
	if err != nil {
		t.Fatalf("derive 2: %v", err)
	}

	if pda1 != pda2 || bump1 != bump2 {
		t.Error("expected DeriveDelegatePDA to be deterministic for identical params")
	}
}

func TestU256BigEndian_RoundTrips(t *testing.T) {
	amount := big.NewInt(123_456_789)
	encoded := U256BigEndian(amount)
	recovered := new(big.Int).SetBytes(encoded[:])
	if recovered.Cmp(amount) != 0 {
		t.Errorf("expected round-trip amount %s, got %s", amount, recovered)
	}
}

func TestPadEVMAddress_RightAligns(t *testing.T) {
	var addr [20]byte
	for i := range addr {
		addr[i] = byte(i + 1)
	}
	padded := PadEVMAddress(addr)
	for i := 0; i < 12; i++ {
		if padded[i] != 0 {
			t.Fatalf("expected leading 12 bytes zero, got %v", padded[:12])
		}
	}
	for i := 0; i < 20; i++ {
		if padded[12+i] != addr[i] {
			t.Fatalf("expected address bytes preserved at offset 12, mismatch at %d", i)
		}
	}
}
