package sealing

import "testing"

func testKey() string {
	return "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
}

func TestSealOpenRoundTrip(t *testing.T) {
	s, err := NewSealer(testKey())
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}

	plaintext := []byte("a solana private key, 64 bytes of raw secret material")
	sealed, err := s.Seal(plaintext)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	opened, err := s.Open(sealed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if string(opened) != string(plaintext) {
		t.Errorf("round trip mismatch: got %q, want %q", opened, plaintext)
	}
}

func TestSeal_ProducesDifferentCiphertextEachTime(t *testing.T) {
	s, err := NewSealer(testKey())
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}

	plaintext := []byte("same secret")
	first, err := s.Seal(plaintext)
	if err != nil {
		t.Fatalf("seal first: %v", err)
	}
	second, err := s.Seal(plaintext)
	if err != nil {
		t.Fatalf("seal second: %v", err)
	}
	if first == second {
		t.Error("expected distinct ciphertexts due to random nonce")
	}
}

func TestNewSealer_RejectsWrongKeyLength(t *testing.T) {
	_, err := NewSealer("abcd")
	if err == nil {
		t.Error("expected error for short key")
	}
}

func TestOpen_RejectsTamperedCiphertext(t *testing.T) {
	s, err := NewSealer(testKey())
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}

	sealed, err := s.Seal([]byte("secret"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	tampered := sealed[:len(sealed)-2] + "zz"
	if _, err := s.Open(tampered); err == nil {
		t.Error("expected error opening tampered ciphertext")
	}
}
