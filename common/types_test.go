package common

import (
	"strings"
	"testing"
)

func TestHash_FromBytesPadsShortInput(t *testing.T) {
	h := HashFromBytes([]byte{0xAB, 0xCD})
	if h[0] != 0xAB || h[1] != 0xCD {
		t.Errorf("prefix not copied, got %x", h[:2])
	}
	for i := 2; i < HashSize; i++ {
		if h[i] != 0 {
			t.Errorf("byte %d not zero padded, got %x", i, h[i])
		}
	}
}

func TestHash_FromBytesIgnoresExtraInput(t *testing.T) {
	data := make([]byte, HashSize+10)
	for i := range data {
		data[i] = byte(i)
	}
	h := HashFromBytes(data)
	for i := 0; i < HashSize; i++ {
		if h[i] != byte(i) {
			t.Fatalf("byte %d mismatch, got %x", i, h[i])
		}
	}
}

func TestHash_ToBytesReturnsCopy(t *testing.T) {
	h := HashFromBytes([]byte{1, 2, 3})
	b := h.ToBytes()
	b[0] = 42
	if h[0] != 1 {
		t.Errorf("modifying the returned slice must not modify the hash")
	}
}

func TestHash_StringIsHexEncoded(t *testing.T) {
	h := Hash{0x12, 0x34}
	str := h.String()
	if !strings.HasPrefix(str, "0x1234") {
		t.Errorf("unexpected string prefix: %s", str)
	}
	if got, want := len(str), 2+2*HashSize; got != want {
		t.Errorf("unexpected string length: got %d, want %d", got, want)
	}
}

func TestHash_CompareOrdersLexicographically(t *testing.T) {
	low := Hash{0x01}
	high := Hash{0x02}
	if low.Compare(&high) >= 0 {
		t.Errorf("expected %v < %v", low, high)
	}
	if high.Compare(&low) <= 0 {
		t.Errorf("expected %v > %v", high, low)
	}
	if low.Compare(&low) != 0 {
		t.Errorf("expected %v == %v", low, low)
	}
}
