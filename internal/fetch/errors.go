package fetch

import (
	"errors"
	"fmt"
)

// Kind 区分失败类别，目前两类失败的处理方式一致，仅体现在日志中。
type Kind string

const (
	KindNetwork Kind = "network"
	KindDecode  Kind = "decode"
)

var (
	// ErrNetwork matches any *Error of KindNetwork via errors.Is.
	ErrNetwork = errors.New("network failure")
	// ErrDecode matches any *Error of KindDecode via errors.Is.
	ErrDecode = errors.New("decode failure")
)

// Error 描述一次失败的加载。
type Error struct {
	Kind       Kind
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failure for %s: HTTP %d", e.Kind, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s failure for %s: %v", e.Kind, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 让 errors.Is(err, ErrNetwork/ErrDecode) 按类别匹配。
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrDecode:
		return e.Kind == KindDecode
	}
	return false
}

// KindOf 返回 err 的失败类别；非 *Error 时返回空字符串。
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

func networkError(url string, status int, err error) *Error {
	return &Error{Kind: KindNetwork, URL: url, StatusCode: status, Err: err}
}

func decodeError(url string, err error) *Error {
	return &Error{Kind: KindDecode, URL: url, Err: err}
}
