package server

import (
	"errors"
	"fmt"
)

// RejectReason 拒绝原因，原样发给发起者
type RejectReason string

const (
	ReasonRoomFull               RejectReason = "RoomFull"
	ReasonOutOfRange             RejectReason = "OutOfRange"
	ReasonInsufficientResources  RejectReason = "InsufficientResources"
	ReasonTargetAlreadyDestroyed RejectReason = "TargetAlreadyDestroyed"
	ReasonNotYourTeam            RejectReason = "NotYourTeam"
	ReasonUnauthenticated        RejectReason = "Unauthenticated"
)

// RejectError 一次被拒绝的意图；只影响发起连接，不会广播
type RejectError struct {
	Reason RejectReason
	Detail string
}

func (e *RejectError) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

// Is 按 Reason 比较，便于 errors.Is(err, ErrOutOfRange)
func (e *RejectError) Is(target error) bool {
	t, ok := target.(*RejectError)
	return ok && t.Reason == e.Reason
}

var (
	ErrRoomFull               = &RejectError{Reason: ReasonRoomFull}
	ErrOutOfRange             = &RejectError{Reason: ReasonOutOfRange}
	ErrInsufficientResources  = &RejectError{Reason: ReasonInsufficientResources}
	ErrTargetAlreadyDestroyed = &RejectError{Reason: ReasonTargetAlreadyDestroyed}
	ErrNotYourTeam            = &RejectError{Reason: ReasonNotYourTeam}
	ErrUnauthenticated        = &RejectError{Reason: ReasonUnauthenticated}
)

// ErrMalformed 无法解析或字段不合法的消息
var ErrMalformed = errors.New("malformed message")

// ErrRoomClosed 房间已销毁，命令无法投递
var ErrRoomClosed = errors.New("room closed")

func reject(reason RejectReason, format string, args ...any) *RejectError {
	return &RejectError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// reasonOf 提取拒绝原因；非 RejectError 的错误视为 Unauthenticated
func reasonOf(err error) RejectReason {
	var re *RejectError
	if errors.As(err, &re) {
		return re.Reason
	}
	return ReasonUnauthenticated
}
