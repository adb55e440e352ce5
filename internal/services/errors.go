package services

import "errors"

var (
	// ErrTopicNotFound 주제가 없거나 삭제됨
	ErrTopicNotFound = errors.New("post not found")

	// ErrCommentNotFound 댓글이 없거나 삭제됨
	ErrCommentNotFound = errors.New("comment not found")

	// ErrInvalidCommentNesting 답글에 다시 답글을 달려고 함
	ErrInvalidCommentNesting = errors.New("replies can only be attached to top-level comments")

	ErrDuplicateLike = errors.New("comment already liked")
	ErrLikeNotFound  = errors.New("comment not liked")

	ErrInvalidTag           = errors.New("invalid post tag")
	ErrInvalidVoteStatus    = errors.New("invalid vote status")
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrForbidden 작성자가 아닌 사용자의 변경 시도
	ErrForbidden = errors.New("forbidden")

	ErrBadRequest = errors.New("bad request")
)

// ValidationError 는 사용자에게 그대로 보여줄 메시지를 담는다. errors.Is(err, ErrBadRequest) 가 성립한다.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrBadRequest }

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrTopicNotFound) ||
		errors.Is(err, ErrCommentNotFound) ||
		errors.Is(err, ErrNotificationNotFound)
}

// IsValidationError 쓰기 전에 걸러지는 비즈니스 규칙 위반
func IsValidationError(err error) bool {
	return errors.Is(err, ErrBadRequest) ||
		errors.Is(err, ErrInvalidCommentNesting) ||
		errors.Is(err, ErrDuplicateLike) ||
		errors.Is(err, ErrLikeNotFound) ||
		errors.Is(err, ErrInvalidTag) ||
		errors.Is(err, ErrInvalidVoteStatus)
}
