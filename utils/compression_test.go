package utils

import (
	"strings"
	"testing"
)

func TestCompressTextRoundTrip(t *testing.T) {
	text := strings.Repeat("Lecture transcripts compress well because they repeat. ", 40)

	compressed, algorithm, err := CompressText(text)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if algorithm == CompressionNone {
		t.Fatalf("large text should be compressed, got %s", algorithm)
	}
	if len(compressed) >= len(text) {
		t.Errorf("compressed size %d not smaller than input %d", len(compressed), len(text))
	}

	restored, err := DecompressText(compressed, algorithm)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if restored != text {
		t.Fatal("round trip does not restore original text")
	}
}

func TestCompressTextSmallInputSkipped(t *testing.T) {
	text := "short chunk"

	compressed, algorithm, err := CompressText(text)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if algorithm != CompressionNone {
		t.Fatalf("small text should not be compressed, got %s", algorithm)
	}
	if string(compressed) != text {
		t.Fatal("none algorithm must pass data through")
	}
}

func TestCompressDataAlgorithms(t *testing.T) {
	data := []byte(strings.Repeat("abcdef ", 200))

	for _, algorithm := range []CompressionAlgorithm{CompressionGzip, CompressionZlib} {
		compressed, err := CompressData(data, algorithm)
		if err != nil {
			t.Fatalf("%s compress: %v", algorithm, err)
		}
		restored, err := DecompressData(compressed, algorithm)
		if err != nil {
			t.Fatalf("%s decompress: %v", algorithm, err)
		}
		if string(restored) != string(data) {
			t.Fatalf("%s round trip mismatch", algorithm)
		}
	}
}

func TestCompressDataUnknownAlgorithm(t *testing.T) {
	if _, err := CompressData([]byte("data"), CompressionAlgorithm("lz4")); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
	if _, err := DecompressData([]byte("data"), CompressionAlgorithm("lz4")); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
}

func TestCompressDataEmptyInput(t *testing.T) {
	out, err := CompressData(nil, CompressionGzip)
	if err != nil {
		t.Fatalf("compress empty: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("empty input should pass through, got %d bytes", len(out))
	}
}
