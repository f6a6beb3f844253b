package subscription

import (
	"errors"
	"testing"
)

func TestParseStatus(t *testing.T) {
	literals := []string{
		"Active",
		"Disabled",
		"SendDisabled",
		"ReceiveDisabled",
		"Renaming",
		"Deleting",
		"Creating",
		"Unknown",
	}

	for _, literal := range literals {
		t.Run(literal, func(t *testing.T) {
			s, err := ParseStatus(literal)
			if err != nil {
				t.Fatalf("ParseStatus failed: %v", err)
			}
			if s.String() != literal {
				t.Errorf("literal mismatch: got %q, want %q", s.String(), literal)
			}
		})
	}
}

func TestParseStatus_Unknown(t *testing.T) {
	tests := []string{"active", "DISABLED", "Paused", "", "Active "}

	for _, literal := range tests {
		if _, err := ParseStatus(literal); !errors.Is(err, ErrUnknownStatus) {
			t.Errorf("ParseStatus(%q) error mismatch: got %v, want ErrUnknownStatus", literal, err)
		}
	}
}

func TestStatusString_OutOfRange(t *testing.T) {
	if got := Status(99).String(); got != "UNKNOWN" {
		t.Errorf("String mismatch: got %q, want %q", got, "UNKNOWN")
	}
}
