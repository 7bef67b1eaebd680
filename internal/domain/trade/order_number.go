package trade

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/supplyhub/backend/internal/domain/shared"
)

// OwnerKeyLength is the fixed width of the owner segment in an order number.
const OwnerKeyLength = 4

// minSequenceWidth is the zero-padded width of the daily sequence segment.
// Sequences past 9999 widen the segment rather than wrap.
const minSequenceWidth = 4

// NumberGenerator allocates order numbers of the form
// {ownerKey}{channel}{yyyyMMdd}{seq}, where seq is a daily counter per
// (owner, channel) pair, zero-padded to four digits. Implementations must be
// safe for concurrent use across processes: two calls may never return the
// same number.
type NumberGenerator interface {
	// Next allocates the next order number for the owner and channel.
	Next(ctx context.Context, ownerKey string, channel Channel) (string, error)

	// PreGenerate reserves n consecutive sequence values in one round trip
	// and returns the corresponding order numbers in ascending order.
	PreGenerate(ctx context.Context, ownerKey string, channel Channel, n int) ([]string, error)
}

// NormalizeOwnerKey validates and upper-cases an owner key.
// Keys are exactly OwnerKeyLength ASCII letters or digits.
func NormalizeOwnerKey(key string) (string, error) {
	key = strings.ToUpper(strings.TrimSpace(key))
	if len(key) != OwnerKeyLength {
		return "", shared.NewDomainError("INVALID_OWNER_KEY", fmt.Sprintf("Owner key must be exactly %d characters", OwnerKeyLength))
	}
	for _, c := range key {
		if !isUpperAlnum(c) {
			return "", shared.NewDomainError("INVALID_OWNER_KEY", "Owner key must contain only letters and digits")
		}
	}
	return key, nil
}

// FormatNumber renders an order number from its parts. The sequence is
// zero-padded to four digits and widens beyond 9999.
func FormatNumber(ownerKey string, channel Channel, date time.Time, seq int64) string {
	return fmt.Sprintf("%s%s%s%0*d", ownerKey, channel, date.Format("20060102"), minSequenceWidth, seq)
}

// ValidateNumberFormat checks that a string is a well-formed order number
// without consulting any backing store. It verifies the owner key, channel
// token, calendar date, and sequence segments.
func ValidateNumberFormat(number string) error {
	minLen := OwnerKeyLength + 2 + 8 + minSequenceWidth
	if len(number) < minLen {
		return shared.NewDomainError("INVALID_ORDER_NUMBER", fmt.Sprintf("Order number must be at least %d characters", minLen))
	}

	owner := number[:OwnerKeyLength]
	for _, c := range owner {
		if !isUpperAlnum(c) {
			return shared.NewDomainError("INVALID_ORDER_NUMBER", "Owner segment must contain only uppercase letters and digits")
		}
	}

	channel := Channel(number[OwnerKeyLength : OwnerKeyLength+2])
	if !channel.IsValid() {
		return shared.NewDomainError("INVALID_ORDER_NUMBER", fmt.Sprintf("Unknown channel token %q", channel))
	}

	dateSeg := number[OwnerKeyLength+2 : OwnerKeyLength+10]
	if _, err := time.Parse("20060102", dateSeg); err != nil {
		return shared.NewDomainError("INVALID_ORDER_NUMBER", fmt.Sprintf("Invalid date segment %q", dateSeg))
	}

	seqSeg := number[OwnerKeyLength+10:]
	for _, c := range seqSeg {
		if c < '0' || c > '9' {
			return shared.NewDomainError("INVALID_ORDER_NUMBER", "Sequence segment must be numeric")
		}
	}
	if seqSeg == strings.Repeat("0", len(seqSeg)) {
		return shared.NewDomainError("INVALID_ORDER_NUMBER", "Sequence segment must be positive")
	}

	return nil
}

func isUpperAlnum(c rune) bool {
	return (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
