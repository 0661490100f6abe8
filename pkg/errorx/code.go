package errorx

type Code int

// Unknown is returned to the caller whenever an unexpected error happens. The
// real cause must be logged before returning this value.
var Unknown = Error{Code: 100000, Message: "Request failed"}

const (
	// Common codes
	BadRequest       Code = 100001
	PermissionDenied Code = 100002
	NotFound         Code = 100003
	AlreadyExists    Code = 100004
	Internal         Code = 100005
	Unavailable      Code = 100006
	TooManyRequests  Code = 100007
	Unauthenticated  Code = 100008

	// Quest lifecycle codes
	Conflict      Code = 200001
	TerminalState Code = 200002
)
