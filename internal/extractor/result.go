package extractor

import (
	"fmt"
	"strconv"
)

type ResultKind int

const (
	ResultCount ResultKind = iota + 1
	ResultNotFound
	ResultError
)

func (k ResultKind) String() string {
	switch k {
	case ResultCount:
		return "count"
	case ResultNotFound:
		return "not_found"
	case ResultError:
		return "error"
	default:
		return "unknown"
	}
}

// MsgDynamicRendering is the fixed diagnostic for Unsupported sources.
const MsgDynamicRendering = "requires dynamic rendering"

// Result is the outcome of one source in a run. It is a comparable value.
type Result struct {
	Kind    ResultKind
	Value   int64
	Message string
}

// Count wraps a listing count.
func Count(n int64) Result {
	return Result{Kind: ResultCount, Value: n}
}

// NotFound reports that the page held no usable number.
func NotFound() Result {
	return Result{Kind: ResultNotFound}
}

// Errorf reports a failure for one source.
func Errorf(format string, args ...any) Result {
	return Result{Kind: ResultError, Message: fmt.Sprintf(format, args...)}
}

func (r Result) OK() bool {
	return r.Kind == ResultCount
}

func (r Result) String() string {
	switch r.Kind {
	case ResultCount:
		return strconv.FormatInt(r.Value, 10)
	case ResultNotFound:
		return "not found"
	case ResultError:
		return "error: " + r.Message
	default:
		return "pending"
	}
}
