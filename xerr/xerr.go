// Package xerr defines the stable error taxonomy shared by every picox
// component: allocators, streams, and the VFS layer all return one of
// these codes rather than ad-hoc errors.
package xerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code is a stable error classification. Numeric values are not part of
// the contract, only the identity of each variable is.
type Code int

const (
	codeNone Code = iota
	codeIO
	codeInvalid
	codeTimedOut
	codeBusy
	codeAgain
	codeCanceled
	codeNoMemory
	codeExist
	codeNotReady
	codeAccess
	codeNoEntry
	codeNotSupported
	codeDisconnected
	codeInProgress
	codeProtocol
	codeMany
	codeBroken
	codeNameTooLong
	codeRange
	codeInternal
	codeOther
	codeUnknown
)

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return "UNKNOWN"
}

var codeNames = map[Code]string{
	codeNone:         "NONE",
	codeIO:           "IO",
	codeInvalid:      "INVALID",
	codeTimedOut:     "TIMED_OUT",
	codeBusy:         "BUSY",
	codeAgain:        "AGAIN",
	codeCanceled:     "CANCELED",
	codeNoMemory:     "NO_MEMORY",
	codeExist:        "EXIST",
	codeNotReady:     "NOT_READY",
	codeAccess:       "ACCESS",
	codeNoEntry:      "NO_ENTRY",
	codeNotSupported: "NOT_SUPPORTED",
	codeDisconnected: "DISCONNECTED",
	codeInProgress:   "INPROGRESS",
	codeProtocol:     "PROTOCOL",
	codeMany:         "MANY",
	codeBroken:       "BROKEN",
	codeNameTooLong:  "NAME_TOO_LONG",
	codeRange:        "RANGE",
	codeInternal:     "INTERNAL",
	codeOther:        "OTHER",
	codeUnknown:      "UNKNOWN",
}

// codeErr is a sentinel error carrying only a Code; it is what errors.Is
// compares against. Call Wrap to attach a cause.
type codeErr struct{ code Code }

func (e *codeErr) Error() string { return e.code.String() }

// Sentinel errors, one per Code, in the shape of fs.ErrorObjectNotFound
// et al: compare with errors.Is, wrap with Wrap/fmt.Errorf("...: %w", ...).
var (
	None         error = &codeErr{codeNone}
	IO           error = &codeErr{codeIO}
	Invalid      error = &codeErr{codeInvalid}
	TimedOut     error = &codeErr{codeTimedOut}
	Busy         error = &codeErr{codeBusy}
	Again        error = &codeErr{codeAgain}
	Canceled     error = &codeErr{codeCanceled}
	NoMemory     error = &codeErr{codeNoMemory}
	Exist        error = &codeErr{codeExist}
	NotReady     error = &codeErr{codeNotReady}
	Access       error = &codeErr{codeAccess}
	NoEntry      error = &codeErr{codeNoEntry}
	NotSupported error = &codeErr{codeNotSupported}
	Disconnected error = &codeErr{codeDisconnected}
	InProgress   error = &codeErr{codeInProgress}
	Protocol     error = &codeErr{codeProtocol}
	Many         error = &codeErr{codeMany}
	Broken       error = &codeErr{codeBroken}
	NameTooLong  error = &codeErr{codeNameTooLong}
	Range        error = &codeErr{codeRange}
	Internal     error = &codeErr{codeInternal}
	Other        error = &codeErr{codeOther}
	Unknown      error = &codeErr{codeUnknown}
)

// Wrap attaches op/path context to a sentinel code error, preserving
// errors.Is(result, sentinel).
func Wrap(sentinel error, op string, args ...any) error {
	msg := op
	if len(args) > 0 {
		msg = fmt.Sprintf(op, args...)
	}
	return errors.WithMessage(sentinel, msg)
}

// CodeOf returns the Code carried by err, walking the wrap chain, or
// Unknown's code if err does not originate from this package.
func CodeOf(err error) Code {
	if err == nil {
		return codeNone
	}
	for _, sentinel := range allSentinels {
		if errors.Is(err, sentinel) {
			return sentinel.(*codeErr).code
		}
	}
	return codeUnknown
}

var allSentinels = []error{
	None, IO, Invalid, TimedOut, Busy, Again, Canceled, NoMemory, Exist,
	NotReady, Access, NoEntry, NotSupported, Disconnected, InProgress,
	Protocol, Many, Broken, NameTooLong, Range, Internal, Other, Unknown,
}
