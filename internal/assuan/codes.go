package assuan

import "strconv"

// ErrorCode is a libgpg-error value as carried on ERR lines. The calling
// agent matches on the numeric value, so these are wire constants.
type ErrorCode uint32

const (
	// CodeUnexpected is GPG_ERR_ASS_UNEXPECTED_CMD from the user-1 source.
	// Every failure without a more specific code uses it.
	CodeUnexpected ErrorCode = 536871186
	// CodeUnknownCommand is GPG_ERR_ASS_UNKNOWN_CMD from the user-1 source.
	CodeUnknownCommand ErrorCode = 536871187
	// CodeCancelled is GPG_ERR_CANCELED from the pinentry source.
	CodeCancelled ErrorCode = 83886179
)

func (code ErrorCode) String() string {
	return strconv.FormatUint(uint64(code), 10)
}
