package enclave

import (
	"bytes"
	"errors"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"off", LogOff},
		{"OFF", LogOff},
		{"Trace", LogTrace},
		{" warn ", LogWarn},
		{"error", LogError},
		{"INFO", LogInfo},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if err != nil {
			t.Fatalf("ParseLogLevel(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseLogLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseLogLevelRejectsUnknown(t *testing.T) {
	for _, in := range []string{"", "debug", "verbose"} {
		if _, err := ParseLogLevel(in); !errors.Is(err, ErrInvalidAttr) {
			t.Fatalf("ParseLogLevel(%q) error = %v, want ErrInvalidAttr", in, err)
		}
	}
}

func TestAttrCStrings(t *testing.T) {
	dir, level, err := Attr{InstanceDir: "./.occlum"}.cStrings()
	if err != nil {
		t.Fatalf("cStrings: %v", err)
	}
	if !bytes.Equal(dir, []byte("./.occlum\x00")) {
		t.Fatalf("instance dir = %q", dir)
	}
	if !bytes.Equal(level, []byte("off\x00")) {
		t.Fatalf("empty level should default to off, got %q", level)
	}
}

func TestAttrCStringsRejectsInvalid(t *testing.T) {
	cases := []Attr{
		{InstanceDir: ""},
		{InstanceDir: "bad\x00dir"},
		{InstanceDir: "ok", LogLevel: "loud"},
	}
	for _, attr := range cases {
		if _, _, err := attr.cStrings(); !errors.Is(err, ErrInvalidAttr) {
			t.Fatalf("cStrings(%+v) error = %v, want ErrInvalidAttr", attr, err)
		}
	}
}

func TestCodeErrorMessage(t *testing.T) {
	err := &CodeError{Op: "occlum_pal_init", Code: -1}
	if got := err.Error(); got != "occlum_pal_init returned -1" {
		t.Fatalf("Error() = %q", got)
	}
}
