package reconcile

import "math/rand/v2"

// FailureCode classifies a reconciliation failure. The numeric values are
// stable: they are persisted in sync log entries and quoted in support
// lookups, so they must never be renumbered.
type FailureCode int

const (
	FailNone                         FailureCode = 0
	FailUserNoGroups                 FailureCode = 100
	FailUserMemberCollision          FailureCode = 101
	FailUserMissingRequiredGroups    FailureCode = 102
	FailUserMissingEmail             FailureCode = 103
	FailUserMemberEmailMismatch      FailureCode = 104
	FailUserMemberPassportMismatch   FailureCode = 105
	FailPassportCreateIdentCollision FailureCode = 106
	FailUserMissingUsername          FailureCode = 107
	FailUserMemberLinkFailed         FailureCode = 108
	FailNoProviderName               FailureCode = 200
	FailNoPassportNoMemberCreated    FailureCode = 300
	FailPassportNoMemberCreated      FailureCode = 301
)

// Message returns the operator-facing meaning of a failure code. These are
// never shown to end users; see SupportMessage.
func (c FailureCode) Message() string {
	switch c {
	case FailUserNoGroups:
		return "User has no Okta groups"
	case FailUserMemberCollision:
		return "User/member collision"
	case FailUserMissingRequiredGroups:
		return "User missing required groups"
	case FailUserMissingEmail:
		return "User missing email"
	case FailUserMemberEmailMismatch:
		return "User/member email mismatch"
	case FailUserMemberPassportMismatch:
		return "User/member/passport mismatch"
	case FailPassportCreateIdentCollision:
		return "Tried to create a passport when one existed for the identifier/provider"
	case FailUserMissingUsername:
		return "User missing username"
	case FailUserMemberLinkFailed:
		return "User could not be linked to a member"
	case FailNoProviderName:
		return "No provider name"
	case FailNoPassportNoMemberCreated:
		return "No passport found and no member created"
	case FailPassportNoMemberCreated:
		return "Passport found but no member linked"
	default:
		return "Unknown"
	}
}

const supportMessage = "Sorry, there was an issue signing you in. Please try again or contact support."

// NewMessageID returns a random reference a user can quote to support.
// Uniqueness is advisory, not an invariant: six decimal digits keeps the
// collision probability low enough for support lookups.
func NewMessageID() int {
	return 100000 + rand.IntN(900000)
}
