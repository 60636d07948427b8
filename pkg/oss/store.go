package oss

import (
	"context"
	"io"
	"net/http"
	"time"
)

// PutOptions 上传参数，Callback/CallbackVar 为回调描述与自定义变量的JSON
type PutOptions struct {
	Callback    string
	CallbackVar string
	ContentType string
	CheckMD5    bool
}

// PutResult 上传结果，开启回调时 CallbackBody 为业务服务器返回的内容
type PutResult struct {
	ETag         string
	CallbackBody map[string]interface{}
}

// GetOptions 下载参数，IfModifiedSince 为 HTTP 日期格式
type GetOptions struct {
	Range           string
	IfModifiedSince string
	IfNoneMatch     string
	Process         string
}

type ListOptions struct {
	Delimiter string
	Prefix    string
	MaxKeys   int
	Marker    string
}

// ObjectPage 单次列举结果，NextMarker 为空表示没有更多数据
type ObjectPage struct {
	Objects        []ObjectProperties
	CommonPrefixes []string
	NextMarker     string
}

type ObjectProperties struct {
	Key          string
	LastModified time.Time
	ETag         string
	Type         string
	Size         int64
	StorageClass string
}

type ObjectMeta struct {
	ContentLength int64
	ContentType   string
	ETag          string
	LastModified  time.Time
	Headers       http.Header
}

type ListUploadsOptions struct {
	Delimiter      string
	Prefix         string
	KeyMarker      string
	UploadIDMarker string
	MaxUploads     int
}

type MultipartUpload struct {
	Key       string    `json:"key"`
	UploadID  string    `json:"uploadId"`
	Initiated time.Time `json:"initiated"`
}

type UploadPart struct {
	PartNumber   int       `json:"partNumber"`
	Size         int64     `json:"size"`
	ETag         string    `json:"eTag"`
	LastModified time.Time `json:"lastModified"`
}

// ObjectWriter 写入类能力
type ObjectWriter interface {
	PutObject(ctx context.Context, bucket, key string, body io.Reader, opts PutOptions) (*PutResult, error)
	PutFile(ctx context.Context, bucket, key, filePath string, opts PutOptions) (*PutResult, error)
	AppendObject(ctx context.Context, bucket, key string, position int64, body io.Reader) (int64, error)
	CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error
	DeleteObject(ctx context.Context, bucket, key string) error
	DeleteObjects(ctx context.Context, bucket string, keys []string) error
}

// ObjectReader 读取类能力
type ObjectReader interface {
	GetObject(ctx context.Context, bucket, key string, opts GetOptions) (io.ReadCloser, error)
	GetObjectToFile(ctx context.Context, bucket, key, filePath string, opts GetOptions) error
	ObjectExists(ctx context.Context, bucket, key string) (bool, error)
	HeadObject(ctx context.Context, bucket, key string) (*ObjectMeta, error)
}

type ObjectLister interface {
	ListObjects(ctx context.Context, bucket string, opts ListOptions) (*ObjectPage, error)
}

type ObjectACL interface {
	GetObjectACL(ctx context.Context, bucket, key string) (string, error)
	PutObjectACL(ctx context.Context, bucket, key, acl string) error
}

type MultipartStore interface {
	UploadFile(ctx context.Context, bucket, key, filePath string, partSize int64, opts PutOptions) (*PutResult, error)
	AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error
	ListMultipartUploads(ctx context.Context, bucket string, opts ListUploadsOptions) ([]MultipartUpload, error)
	ListParts(ctx context.Context, bucket, key, uploadID string) ([]UploadPart, error)
}

type URLSigner interface {
	SignURL(ctx context.Context, bucket, key, process string, expire time.Duration) (string, error)
}

// ObjectStore Service 依赖的全部存储能力
type ObjectStore interface {
	ObjectWriter
	ObjectReader
	ObjectLister
	ObjectACL
	MultipartStore
	URLSigner
}
