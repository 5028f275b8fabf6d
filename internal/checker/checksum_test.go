package checker

import "testing"

func TestChecksum(t *testing.T) {
	a := Checksum([]byte("hello"))
	b := Checksum([]byte("hello"))
	c := Checksum([]byte("hello "))

	if a != b {
		t.Fatal("checksum should be deterministic")
	}
	if a == c {
		t.Fatal("different content should produce different checksums")
	}
	if len(a) != 64 {
		t.Fatalf("checksum length = %d, want 64 hex chars", len(a))
	}
}

func TestChecksumEmpty(t *testing.T) {
	const emptySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Checksum(nil); got != emptySHA256 {
		t.Fatalf("Checksum(nil) = %s", got)
	}
}
