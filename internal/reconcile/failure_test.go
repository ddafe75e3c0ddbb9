package reconcile

import (
	"strings"
	"testing"
)

func TestFailureCode_StableValues(t *testing.T) {
	t.Parallel()

	// Persisted in sync logs; renumbering breaks historical lookups.
	values := map[FailureCode]int{
		FailUserNoGroups:                 100,
		FailUserMemberCollision:          101,
		FailUserMissingRequiredGroups:    102,
		FailUserMissingEmail:             103,
		FailUserMemberEmailMismatch:      104,
		FailUserMemberPassportMismatch:   105,
		FailPassportCreateIdentCollision: 106,
		FailUserMissingUsername:          107,
		FailUserMemberLinkFailed:         108,
		FailNoProviderName:               200,
		FailNoPassportNoMemberCreated:    300,
		FailPassportNoMemberCreated:      301,
	}
	for code, want := range values {
		if int(code) != want {
			t.Fatalf("%s = %d, want %d", code.Message(), int(code), want)
		}
	}
}

func TestFailureCode_MessagesDistinct(t *testing.T) {
	t.Parallel()

	codes := []FailureCode{
		FailUserNoGroups, FailUserMemberCollision, FailUserMissingRequiredGroups,
		FailUserMissingEmail, FailUserMemberEmailMismatch, FailUserMemberPassportMismatch,
		FailPassportCreateIdentCollision, FailUserMissingUsername, FailUserMemberLinkFailed,
		FailNoProviderName, FailNoPassportNoMemberCreated, FailPassportNoMemberCreated,
	}
	seen := make(map[string]FailureCode, len(codes))
	for _, code := range codes {
		msg := code.Message()
		if msg == "" || msg == "Unknown" {
			t.Fatalf("code %d has no message", int(code))
		}
		if prev, dup := seen[msg]; dup {
			t.Fatalf("codes %d and %d share message %q", int(prev), int(code), msg)
		}
		seen[msg] = code
	}
	if FailureCode(999).Message() != "Unknown" {
		t.Fatalf("unknown code message = %q", FailureCode(999).Message())
	}
}

func TestNewMessageID_SixDigits(t *testing.T) {
	t.Parallel()

	for i := 0; i < 1000; i++ {
		id := NewMessageID()
		if id < 100000 || id > 999999 {
			t.Fatalf("NewMessageID() = %d, want six digits", id)
		}
	}
}

func TestSupportMessage_NeverMentionsCause(t *testing.T) {
	t.Parallel()

	if strings.Contains(strings.ToLower(supportMessage), "group") ||
		strings.Contains(strings.ToLower(supportMessage), "passport") {
		t.Fatalf("support message leaks internals: %q", supportMessage)
	}
}
