package crypto

import (
	"bytes"
	"strings"
	"testing"
)

func TestBase64StandardRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"simple", []byte("hello")},
		{"binary mixed", []byte{0x00, 0xff, 0x7f, 0x80}},
		{"url unsafe chars", []byte{0xfb, 0xf0}},
		{"key sized", bytes.Repeat([]byte{0xab}, AESKeySize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := ToBase64(tt.data)
			decoded, err := FromBase64(encoded)
			if err != nil {
				t.Fatalf("FromBase64() error = %v", err)
			}
			if !bytes.Equal(decoded, tt.data) {
				t.Errorf("round trip failed: got %v, want %v", decoded, tt.data)
			}
		})
	}
}

func TestToBase64_WithPadding(t *testing.T) {
	// A 32-byte key always encodes to 44 characters ending in one '='.
	encoded := ToBase64(make([]byte, AESKeySize))
	if len(encoded) != 44 {
		t.Errorf("len = %d, want 44", len(encoded))
	}
	if !strings.HasSuffix(encoded, "=") {
		t.Errorf("encoded %q has no padding", encoded)
	}
}

func TestDecodeBase64_MultipleFormats(t *testing.T) {
	want := []byte{0xfb, 0xff, 0xbf, 0x01}

	tests := []struct {
		name  string
		input string
	}{
		{"standard padded", "+/+/AQ=="},
		{"standard unpadded", "+/+/AQ"},
		{"url padded", "-_-_AQ=="},
		{"url unpadded", "-_-_AQ"},
		{"surrounding whitespace", "  +/+/AQ==\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeBase64(tt.input)
			if err != nil {
				t.Fatalf("DecodeBase64(%q) error = %v", tt.input, err)
			}
			if !bytes.Equal(got, want) {
				t.Errorf("DecodeBase64(%q) = %v, want %v", tt.input, got, want)
			}
		})
	}
}

func TestDecodeBase64_InvalidInput(t *testing.T) {
	tests := []string{
		"!!!!",
		"abc$",
		"a",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			if _, err := DecodeBase64(input); err == nil {
				t.Errorf("DecodeBase64(%q) expected error", input)
			}
		})
	}
}
