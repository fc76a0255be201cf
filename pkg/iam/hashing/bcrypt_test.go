package hashing_test

import (
	"testing"

	"github.com/roastery-dev/roastery/pkg/iam/hashing"
)

func TestBcrypt_RoundTrip(t *testing.T) {
	svc := hashing.NewBcryptService(4) // min cost to keep the test fast

	digest, err := svc.Hash("s3cret-password")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if digest == "s3cret-password" {
		t.Fatal("digest must not equal the plaintext")
	}

	if !svc.Compare("s3cret-password", digest) {
		t.Fatal("expected matching plaintext to verify")
	}
}

func TestBcrypt_WrongPassword(t *testing.T) {
	svc := hashing.NewBcryptService(4)

	digest, err := svc.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	if svc.Compare("battery staple", digest) {
		t.Fatal("expected mismatched plaintext to fail verification")
	}
}

func TestBcrypt_HashesAreSalted(t *testing.T) {
	svc := hashing.NewBcryptService(4)

	a, _ := svc.Hash("same input")
	b, _ := svc.Hash("same input")
	if a == b {
		t.Fatal("two hashes of the same input must differ (per-hash salt)")
	}
}

func TestBcrypt_MalformedDigest(t *testing.T) {
	svc := hashing.NewBcryptService(4)

	if svc.Compare("anything", "not-a-bcrypt-digest") {
		t.Fatal("malformed digest must compare false")
	}
	if svc.Compare("anything", "") {
		t.Fatal("empty digest must compare false")
	}
}

func TestBcrypt_CostOutOfRangeFallsBack(t *testing.T) {
	svc := hashing.NewBcryptService(999)

	digest, err := svc.Hash("pw")
	if err != nil {
		t.Fatalf("Hash with fallback cost failed: %v", err)
	}
	if !svc.Compare("pw", digest) {
		t.Fatal("round trip with fallback cost failed")
	}
}
