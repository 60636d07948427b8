package errorc

import (
	"fmt"
	"strings"
)

// Error 带调用位置的错误节点，Cause 为 *Error 时组成错误链
type Error struct {
	*ErrorCode
	Msg      string
	Cause    error
	Stack    string `json:"-"`
	TraceID  string
	Entry    string `json:"-"`
	FileName string `json:"-"`
	Line     int    `json:"-"`
	FuncName string `json:"-"`
}

type ErrorCode struct {
	Code int
	Name string
}

func (c *ErrorCode) String() string {
	return fmt.Sprintf("%d: %s", c.Code, c.Name)
}

var (
	ErrorCodeUnknown  = &ErrorCode{500, "Unknown"}
	ErrorCodeValid    = &ErrorCode{400, "ValidWithCtx"}
	ErrorCodeNotFound = &ErrorCode{404, "NotFound"}
	ErrorCodeTooLarge = &ErrorCode{413, "TooLarge"}
	ErrorCodeThird    = &ErrorCode{502, "Third"}
)

// stackSkips 堆栈中不需要展示的帧
var stackSkips = []string{"/go/pkg/mod/", "/usr/local/go/src/", "osskit/pkg/core/err."}

// formatStack 只保留业务代码的堆栈帧
func (e *Error) formatStack() string {
	if e.Stack == "" {
		return ""
	}

	lines := strings.Split(e.Stack, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		skip := false
		for _, s := range stackSkips {
			if strings.Contains(line, s) {
				skip = true
				break
			}
		}
		if !skip {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
