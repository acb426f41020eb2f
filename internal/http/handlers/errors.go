// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are stable, lowercase snake_case strings carried in every error
// envelope. Service failures are mapped by kind (see failErr), so clients
// can branch on a small closed set:
//
//	validation_error    400  empty or oversized text, unknown category/status/sort, bad vote
//	unauthorized        401  write without X-User-ID
//	forbidden           403  not owner, not moderator, hidden idea, frozen idea
//	not_found           404  unknown idea, comment or route
//	invalid_transition  409  status change not allowed by the lifecycle
//	rate_limited        429  token bucket exhausted
//	internal_error      500  storage or unexpected failure
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "invalid_transition",
//	  "message": "cannot move idea from approved to pending"
//	}
package handlers

const (
	ErrCodeBadRequest        = "bad_request"
	ErrCodeValidation        = "validation_error"
	ErrCodeUnauthorized      = "unauthorized"
	ErrCodeForbidden         = "forbidden"
	ErrCodeNotFound          = "not_found"
	ErrCodeInvalidTransition = "invalid_transition"
	ErrCodeRateLimited       = "rate_limited"
	ErrCodeInternal          = "internal_error"
	ErrCodeMethodNotAllowed  = "method_not_allowed"
)
