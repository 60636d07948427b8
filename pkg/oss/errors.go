package oss

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidFileType       = errors.New("invalid file type")
	ErrInvalidCallbackParams = errors.New("invalid callback params")
	ErrInvalidGetOptions     = errors.New("invalid getObject options")
	ErrObjectNotFound        = errors.New("object do not exist")
	ErrOversize              = errors.New("object oversized")
	ErrInvalidACL            = errors.New("visibility is illegal")

	errInvalidPublicKey = errors.New("invalid public key")
)

// Op 标识出错的存储调用点
type Op string

const (
	OpPutObject            Op = "PutObject"
	OpPutFile              Op = "PutFile"
	OpCopy                 Op = "Copy"
	OpDelete               Op = "Delete"
	OpList                 Op = "List"
	OpAcl                  Op = "Acl"
	OpMeta                 Op = "Meta"
	OpMultipartUpload      Op = "MultipartUpload"
	OpAbortMultipartUpload Op = "AbortMultipartUpload"
	OpListMultipartUploads Op = "ListMultipartUploads"
	OpListParts            Op = "ListParts"
	OpAppend               Op = "Append"
	OpPost                 Op = "OSSPost"
	OpRead                 Op = "Read"
	OpDownload             Op = "Download"
	OpExist                Op = "Exist"
	OpSign                 Op = "Sign"
)

// OpError 包装存储后端返回的错误，保留原始错误码和错误信息
type OpError struct {
	Op      Op
	Code    string
	Message string
	Err     error
}

func (e *OpError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("oss %s: %s: %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("oss %s: %s", e.Op, e.Message)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// serviceError SDK的服务端错误实现了这组方法
type serviceError interface {
	ErrorCode() string
	ErrorMessage() string
}

func newOpError(op Op, err error) *OpError {
	e := &OpError{Op: op, Err: err}
	var se serviceError
	if errors.As(err, &se) {
		e.Code = se.ErrorCode()
		e.Message = se.ErrorMessage()
	}
	if e.Message == "" && err != nil {
		e.Message = err.Error()
	}
	return e
}

// IsOp 判断错误是否来自指定的调用点
func IsOp(err error, op Op) bool {
	var e *OpError
	return errors.As(err, &e) && e.Op == op
}
