package errorc

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"osskit/pkg/core/consts"

	"github.com/sirupsen/logrus"
)

var (
	stackBufferPool = sync.Pool{
		New: func() interface{} {
			return make([]byte, 4096)
		},
	}

	notfoundsMu sync.RWMutex
	notfounds   []error
)

type ErrorBuilder struct {
	entryName string
}

func NewErrorBuilder(entryName string) *ErrorBuilder {
	return &ErrorBuilder{entryName: entryName}
}

func (e *ErrorBuilder) New(msg string, err error) *Error {
	stack := getStackOptimized(2)
	stack.Msg = msg
	stack.Cause = err
	stack.Entry = e.entryName
	stack.ErrorCode = getErrCode(err)
	return stack
}

// New err or msg can nil
func New(msg string, err error) *Error {
	stack := getStackOptimized(2)
	stack.Msg = msg
	stack.Cause = err
	stack.ErrorCode = getErrCode(err)
	return stack
}

func (e *Error) WithTraceID(ctx context.Context) *Error {
	e.TraceID = ""
	if ctx != nil {
		if traceID, ok := ctx.Value(consts.TraceKey).(string); ok {
			e.TraceID = traceID
		}
	}
	return e
}

// Third 后端错误，已标记为不存在时保持不变
func (e *Error) Third() *Error {
	if e.ErrorCode == ErrorCodeNotFound {
		return e
	}
	e.ErrorCode = ErrorCodeThird
	return e
}

func (e *Error) ValidWithCtx() *Error {
	e.ErrorCode = ErrorCodeValid
	return e
}

func (e *Error) NotFound() *Error {
	e.ErrorCode = ErrorCodeNotFound
	return e
}

// TooLarge 对象或请求超出大小限制
func (e *Error) TooLarge() *Error {
	e.ErrorCode = ErrorCodeTooLarge
	return e
}

// Unwrap 让 errors.Is / errors.As 能穿透到原始错误
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// chain 收集错误链，并找出根因（第一个包装了非 *Error 错误的节点）
func (e *Error) chain() (errChain []*Error, rootCause *Error, originalError error) {
	currErr := e
	for {
		errChain = append(errChain, currErr)
		if cause, ok := currErr.Cause.(*Error); ok {
			currErr = cause
		} else {
			break
		}
	}

	for i := len(errChain) - 1; i >= 0; i-- {
		err := errChain[i]
		if err.Cause != nil {
			if _, ok := err.Cause.(*Error); !ok {
				return errChain, err, err.Cause
			}
		}
	}
	// 如果没找到明确的包装了第三方错误的error，就认为最内层的就是根因
	rootCause = errChain[len(errChain)-1]
	return errChain, rootCause, rootCause.Cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.RootCause()
}

// Detail 返回包含根因和完整错误链的多行描述，用于排查问题
func (e *Error) Detail() string {
	if e == nil {
		return "<nil>"
	}
	errChain, rootCause, originalError := e.chain()

	var sb strings.Builder
	sb.WriteString("========================= Root Cause =========================\n")
	if originalError != nil {
		sb.WriteString(fmt.Sprintf("Error: %s\n", originalError.Error()))
	}
	if rootCause.FileName != "" {
		sb.WriteString(fmt.Sprintf("Location: %s:%d\n", rootCause.FileName, rootCause.Line))
	}
	if rootCause.FuncName != "" {
		sb.WriteString(fmt.Sprintf("Function: %s\n", rootCause.FuncName))
	}
	if rootCause.Msg != "" {
		sb.WriteString(fmt.Sprintf("Message: %s\n", rootCause.Msg))
	}
	if rootCause.TraceID != "" {
		sb.WriteString(fmt.Sprintf("Trace ID: %s\n", rootCause.TraceID))
	}

	sb.WriteString("\n======================= Full Error Trace =======================\n")
	for i, err := range errChain {
		sb.WriteString(fmt.Sprintf("%d: ", i+1))
		if err.ErrorCode != nil {
			sb.WriteString(fmt.Sprintf("[%s] ", err.ErrorCode.String()))
		}
		sb.WriteString(err.Msg)
		if err.FileName != "" {
			sb.WriteString(fmt.Sprintf("\n   at %s:%d", err.FileName, err.Line))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("==============================================================\n")

	return sb.String()
}

// RootCause returns a simple string representing the root cause of the error.
func (e *Error) RootCause() string {
	if e == nil {
		return ""
	}
	_, rootCause, originalError := e.chain()

	var sb strings.Builder
	sb.WriteString(rootCause.Msg)
	if originalError != nil {
		if rootCause.Msg != "" {
			sb.WriteString(": ")
		}
		sb.WriteString(originalError.Error())
	}
	return sb.String()
}

func (e *Error) ToLog(log *logrus.Entry, msgs ...string) *Error {
	if e == nil {
		return nil
	}
	errChain, rootCause, originalError := e.chain()

	fields := make(map[string]interface{})
	fields["root_cause_file"] = rootCause.FileName
	fields["root_cause_line"] = rootCause.Line
	fields["root_cause_func"] = rootCause.FuncName
	fields["root_cause_msg"] = rootCause.Msg
	if originalError != nil {
		fields["root_cause_original_error"] = originalError.Error()
	}
	if rootCause.ErrorCode != nil {
		fields["root_cause_error_code"] = rootCause.ErrorCode.String()
	}

	chain := make([]map[string]interface{}, 0, len(errChain))
	for _, err := range errChain {
		level := make(map[string]interface{})
		level["file"] = err.FileName
		level["line"] = err.Line
		level["func"] = err.FuncName
		level["msg"] = err.Msg
		if err.ErrorCode != nil {
			level["code"] = err.ErrorCode.String()
		}
		if err.TraceID != "" {
			level["trace_id"] = err.TraceID
		}
		if err == e { // 只为最外层错误添加完整堆栈
			err.getFullStack()
			if stack := err.formatStack(); stack != "" {
				level["stack_trace"] = stack
			}
		}
		chain = append(chain, level)
	}
	fields["error_chain"] = chain
	if e.TraceID != "" {
		fields["trace_id"] = e.TraceID
	}

	var finalMsg string
	if len(msgs) > 0 {
		finalMsg = strings.Join(msgs, ", ")
	} else {
		finalMsg = errChain[0].Msg
	}

	log.WithFields(fields).Error(finalMsg)
	return e
}

// getStackOptimized 只记录调用位置，完整堆栈延迟获取
func getStackOptimized(num int) *Error {
	pc, file, line, ok := runtime.Caller(num)
	if !ok {
		return &Error{
			FileName: "<unknown>",
			Line:     0,
			FuncName: "<unknown>",
		}
	}

	funcName := "<unknown>"
	if details := runtime.FuncForPC(pc); details != nil {
		funcName = details.Name()
	}

	return &Error{
		FileName: file,
		Line:     line,
		FuncName: funcName,
	}
}

func (e *Error) getFullStack() string {
	if e.Stack != "" {
		return e.Stack
	}

	buf := stackBufferPool.Get().([]byte)
	defer stackBufferPool.Put(buf)

	n := runtime.Stack(buf, false)
	e.Stack = string(buf[:n])
	return e.Stack
}

// RegisterNotFound 注册视为"不存在"的第三方错误
func RegisterNotFound(errs ...error) {
	notfoundsMu.Lock()
	defer notfoundsMu.Unlock()
	notfounds = append(notfounds, errs...)
}

func isRegisteredNotFound(err error) bool {
	notfoundsMu.RLock()
	defer notfoundsMu.RUnlock()
	for _, e := range notfounds {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

func getErrCode(err error) *ErrorCode {
	if err == nil {
		return ErrorCodeUnknown
	}
	var e *Error
	if errors.As(err, &e) && e.ErrorCode != nil {
		return e.ErrorCode
	}
	if isRegisteredNotFound(err) {
		return ErrorCodeNotFound
	}
	return ErrorCodeUnknown
}

// Quick 不获取调用位置，用于包装外部错误
func Quick(msg string, err error) *Error {
	return &Error{
		Msg:       msg,
		Cause:     err,
		ErrorCode: getErrCode(err),
	}
}

func (e *ErrorBuilder) NotFound(msg string) *Error {
	return &Error{
		Msg:       msg,
		Entry:     e.entryName,
		ErrorCode: ErrorCodeNotFound,
	}
}

func (e *ErrorBuilder) BadRequest(msg string) *Error {
	return &Error{
		Msg:       msg,
		Entry:     e.entryName,
		ErrorCode: ErrorCodeValid,
	}
}

func ParseError(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Quick("", err)
}

// Code 返回错误链上第一个 *Error 的错误码
func Code(err error) *ErrorCode {
	var e *Error
	if errors.As(err, &e) && e.ErrorCode != nil {
		return e.ErrorCode
	}
	return ErrorCodeUnknown
}

func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	var e *Error
	if errors.As(err, &e) {
		if e.ErrorCode == ErrorCodeNotFound {
			return true
		}
	}
	return isRegisteredNotFound(err)
}
