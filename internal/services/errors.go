// Package services defines the business logic for ideas, votes, comments and
// moderation. This file centralizes the service-level error taxonomy so that
// every failure a caller can trigger is classified into one of four kinds:
//
//   - NotFound:          a referenced idea or comment does not exist
//   - Forbidden:         the caller lacks ownership or the moderator claim,
//     or the idea is not in a state that permits the action
//   - InvalidTransition: the lifecycle does not allow the status change
//   - Validation:        empty or oversized text, unknown category, bad vote
//
// Handlers map kinds (not individual errors) to HTTP results, so new specific
// errors only need a kind. Storage failures are not part of the taxonomy; they
// are returned wrapped and surface as internal errors.
package services

import (
	"errors"
	"fmt"
)

// Kind classifies a service error.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindForbidden
	KindInvalidTransition
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindValidation:
		return "validation_error"
	}
	return "unknown"
}

// Error is a classified service failure.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Msg
}

// Is makes errors.Is(err, ErrForbidden) true for every Forbidden error, and
// errors.Is(err, ErrNotOwner) true only for that specific error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Msg == "" {
		return t.Kind == e.Kind
	}
	return t.Kind == e.Kind && t.Msg == e.Msg
}

// KindOf returns the kind of err, or 0 when err is not a service error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Kind sentinels; match any error of the kind.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrValidation        = &Error{Kind: KindValidation}
)

// Idea errors.
var (
	// ErrIdeaNotFound indicates that the requested idea does not exist.
	ErrIdeaNotFound = &Error{Kind: KindNotFound, Msg: "idea not found"}

	// ErrIdeaHidden is returned when the idea exists but the caller may not
	// see it (pending or rejected, and neither owner nor moderator).
	ErrIdeaHidden = &Error{Kind: KindForbidden, Msg: "idea is not visible to the caller"}

	// ErrAuthRequired is returned for writes attempted without a user id.
	ErrAuthRequired = &Error{Kind: KindForbidden, Msg: "a signed-in user is required"}

	// ErrNotOwner is returned when someone other than the owner tries to
	// edit or delete an idea.
	ErrNotOwner = &Error{Kind: KindForbidden, Msg: "only the owner may change this idea"}

	// ErrIdeaFrozen is returned for owner edits or deletes once a moderation
	// decision exists.
	ErrIdeaFrozen = &Error{Kind: KindForbidden, Msg: "idea can only be changed while pending"}

	// ErrEmptyTitle and friends reject blank or oversized text.
	ErrEmptyTitle       = &Error{Kind: KindValidation, Msg: "title is empty"}
	ErrEmptyDescription = &Error{Kind: KindValidation, Msg: "description is empty"}
	ErrTitleTooLong     = &Error{Kind: KindValidation, Msg: "title too long"}
	ErrDescTooLong      = &Error{Kind: KindValidation, Msg: "description too long"}

	// ErrInvalidText rejects titles, descriptions or comments that are not
	// valid UTF-8.
	ErrInvalidText = &Error{Kind: KindValidation, Msg: "text must be valid UTF-8"}
)

// Moderation errors.
var (
	// ErrNotModerator is returned when a caller without the moderator claim
	// attempts a status transition.
	ErrNotModerator = &Error{Kind: KindForbidden, Msg: "moderator role required"}

	// ErrUnknownStatus rejects a target outside the closed status set.
	ErrUnknownStatus = &Error{Kind: KindValidation, Msg: "unknown status"}
)

// Vote errors.
var (
	// ErrInvalidVote is returned when a vote value is outside {-1, 0, 1}.
	ErrInvalidVote = &Error{Kind: KindValidation, Msg: "vote value must be -1, 0 or 1"}

	// ErrNotVotable is returned when the idea's status does not accept votes.
	ErrNotVotable = &Error{Kind: KindForbidden, Msg: "idea does not accept votes in its current status"}
)

// Comment errors.
var (
	// ErrEmptyComment is returned when the comment is blank after cleanup.
	ErrEmptyComment = &Error{Kind: KindValidation, Msg: "comment is empty"}

	// ErrCommentTooLong is returned when the comment exceeds the rune limit.
	ErrCommentTooLong = &Error{Kind: KindValidation, Msg: "comment too long"}

	// ErrNotCommentable is returned when the idea's status does not accept
	// comments.
	ErrNotCommentable = &Error{Kind: KindForbidden, Msg: "idea does not accept comments in its current status"}

	// ErrCommentNotFound indicates that the requested comment does not exist.
	ErrCommentNotFound = &Error{Kind: KindNotFound, Msg: "comment not found"}
)
