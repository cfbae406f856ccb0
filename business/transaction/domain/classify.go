package domain

import (
	"regexp"
	"strings"
)

// ErrorKind groups submission failures by how they are recovered.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindNonceTooLow
	KindFeeTooLow
	KindTransientTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindNonceTooLow:
		return "nonce_too_low"
	case KindFeeTooLow:
		return "fee_too_low"
	case KindTransientTransport:
		return "transient_transport"
	default:
		return "other"
	}
}

// Retryable reports whether a failure of this kind is retried.
func (k ErrorKind) Retryable() bool {
	return k != KindOther
}

var signatures = []struct {
	kind    ErrorKind
	needles []string
}{
	{KindNonceTooLow, []string{
		"nonce too low",
		"nonce has already been used",
		"nonce_expired",
	}},
	{KindFeeTooLow, []string{
		"underpriced",
		"fee too low",
		"gas too low",
		"gas price too low",
		"max fee per gas less than block base fee",
	}},
	{KindTransientTransport, []string{
		"gateway",
		"enotfound",
		"no such host",
		"getaddrinfo",
	}},
}

// status502 matches 502 as a standalone status code, not as digits inside
// an amount, address or hash.
var status502 = regexp.MustCompile(`(^|[^0-9a-fx])502([^0-9a-f]|$)`)

// Classify maps an error to its kind by case-insensitive substring match
// on the full error chain message. The first matching kind wins.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindOther
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range signatures {
		for _, needle := range sig.needles {
			if strings.Contains(msg, needle) {
				return sig.kind
			}
		}
	}
	if status502.MatchString(msg) {
		return KindTransientTransport
	}
	return KindOther
}
