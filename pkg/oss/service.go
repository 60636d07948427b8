package oss

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"osskit/pkg/core/config"
	errorc "osskit/pkg/core/err"
	"osskit/pkg/core/logger"
)

const (
	// MultipartPartSize 分片上传的分片大小
	MultipartPartSize = int64(10 * 1024 * 1024)
	// MaxAppendFileSize 追加上传单个文件大小上限
	MaxAppendFileSize = int64(5 * 1024 * 1024 * 1024)
	// MaxCopySize 拷贝对象大小上限
	MaxCopySize = int64(1024 * 1024 * 1024)

	listUploadsMax = 100

	FileTypeFile = "file"
	FileTypeDir  = "dir"

	VisibilityPrivate         = "private"
	VisibilityPublicRead      = "public-read"
	VisibilityPublicReadWrite = "public-read-write"

	httpTimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"
)

var visibilities = map[string]struct{}{
	VisibilityPrivate:         {},
	VisibilityPublicRead:      {},
	VisibilityPublicReadWrite: {},
}

// FileInfo 对象的标准化描述
type FileInfo struct {
	Path      string `json:"path"`
	Dirname   string `json:"dirname"`
	Type      string `json:"type"`
	Size      int64  `json:"size,omitempty"`
	MimeType  string `json:"mimetype,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// UploadResult 上传结果，设置了回调时 CallbackBody 为业务服务器的响应
type UploadResult struct {
	FileInfo
	CallbackBody map[string]interface{} `json:"callbackBody,omitempty"`
}

// ReadOptions 读取参数，LastModified 为十进制unix时间戳
type ReadOptions struct {
	Range        string
	LastModified string
	ETag         string
	Process      string
}

// ListUploadsRequest 列举未完成分片上传的条件，UploadIDMarker 只在 KeyMarker 非空时生效
type ListUploadsRequest struct {
	Prefix         string
	KeyMarker      string
	UploadIDMarker string
}

type Option func(*Service)

func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(log *logger.Log) Option {
	return func(s *Service) {
		s.log = log.WithEntryName("OSSService")
	}
}

// Service OSS门面，创建后配置不再修改
type Service struct {
	config  config.OssConfig
	store   ObjectStore
	codec   *PolicyCodec
	metrics *Metrics
	log     *logger.Log
	err     *errorc.ErrorBuilder
}

// NewService 创建OSS门面
func NewService(cfg *config.OssConfig, store ObjectStore, opts ...Option) (*Service, error) {
	log := logger.GetLogger().WithEntryName("OSSService")
	errBuilder := errorc.NewErrorBuilder("OSSService")

	if cfg == nil || cfg.AccessKeyID == "" || cfg.AccessKeySecret == "" || cfg.Bucket == "" {
		return nil, errBuilder.New("阿里云OSS配置不完整", nil).ValidWithCtx().ToLog(log.Entry)
	}
	if store == nil {
		return nil, errBuilder.New("未指定存储实现", nil).ValidWithCtx().ToLog(log.Entry)
	}

	s := &Service{
		config: *cfg,
		store:  store,
		log:    log,
		err:    errBuilder,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.codec = NewPolicyCodec(&s.config)
	return s, nil
}

// WithBucket 返回使用指定bucket的副本
func (s *Service) WithBucket(bucket string) *Service {
	c := *s
	c.config.Bucket = bucket
	c.codec = NewPolicyCodec(&c.config)
	return &c
}

// WithEndpoint 返回使用指定endpoint的副本
func (s *Service) WithEndpoint(endpoint string) *Service {
	c := *s
	c.config.Endpoint = endpoint
	c.codec = NewPolicyCodec(&c.config)
	return &c
}

// WithSSL 返回使用指定协议的副本
func (s *Service) WithSSL(ssl bool) *Service {
	c := *s
	c.config.SSL = ssl
	c.codec = NewPolicyCodec(&c.config)
	return &c
}

func (s *Service) Bucket() string {
	return s.config.Bucket
}

func (s *Service) Endpoint() string {
	return s.config.Endpoint
}

func (s *Service) SSL() bool {
	return s.config.SSL
}

// call 调用存储并记录指标
func (s *Service) call(op Op, fn func() error) error {
	start := time.Now()
	err := fn()
	s.metrics.observe(op, start, err)
	return err
}

// notFoundCodes 视为对象不存在的服务端错误码
var notFoundCodes = map[string]bool{
	"NoSuchKey":    true,
	"NoSuchUpload": true,
}

// fail 存储后端错误
func (s *Service) fail(ctx context.Context, op Op, msg string, err error) error {
	opErr := newOpError(op, err)
	e := s.err.New(msg, opErr)
	if notFoundCodes[opErr.Code] {
		e = e.NotFound()
	} else {
		e = e.Third()
	}
	return e.WithTraceID(ctx).ToLog(s.log.WithTrace(ctx).Entry)
}

// reject 参数或前置条件不满足
func (s *Service) reject(ctx context.Context, op Op, msg string, err error) error {
	e := s.err.New(msg, &OpError{Op: op, Message: err.Error(), Err: err})
	switch {
	case errors.Is(err, ErrObjectNotFound):
		e = e.NotFound()
	case errors.Is(err, ErrOversize):
		e = e.TooLarge()
	default:
		e = e.ValidWithCtx()
	}
	return e.WithTraceID(ctx).ToLog(s.log.WithTrace(ctx).Entry)
}

// Put 上传内容，callback 非空时开启上传回调
func (s *Service) Put(ctx context.Context, object string, body io.Reader, callback *CallbackParams) (*UploadResult, error) {
	s.log.WithTrace(ctx).WithObject(object).Info("上传文件到阿里云OSS")

	opts, err := s.callbackOptions(ctx, OpPutObject, callback)
	if err != nil {
		return nil, err
	}

	var result *PutResult
	err = s.call(OpPutObject, func() (err error) {
		result, err = s.store.PutObject(ctx, s.config.Bucket, object, body, opts)
		return
	})
	if err != nil {
		return nil, s.fail(ctx, OpPutObject, "上传文件到阿里云OSS失败", err)
	}
	return s.uploadResult(object, result), nil
}

// PutFile 上传本地文件，校验MD5
func (s *Service) PutFile(ctx context.Context, object, filePath string) (*FileInfo, error) {
	s.log.WithTrace(ctx).WithObject(object).WithField("file", filePath).Info("上传本地文件到阿里云OSS")

	err := s.call(OpPutFile, func() error {
		_, err := s.store.PutFile(ctx, s.config.Bucket, object, filePath, PutOptions{CheckMD5: true})
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, OpPutFile, "上传本地文件到阿里云OSS失败", err)
	}
	return normalize(object), nil
}

// MultipartUpload 分片上传本地文件
func (s *Service) MultipartUpload(ctx context.Context, object, filePath string, callback *CallbackParams) (*UploadResult, error) {
	s.log.WithTrace(ctx).WithObject(object).WithField("file", filePath).Info("分片上传文件到阿里云OSS")

	opts, err := s.callbackOptions(ctx, OpMultipartUpload, callback)
	if err != nil {
		return nil, err
	}

	var result *PutResult
	err = s.call(OpMultipartUpload, func() (err error) {
		result, err = s.store.UploadFile(ctx, s.config.Bucket, object, filePath, MultipartPartSize, opts)
		return
	})
	if err != nil {
		return nil, s.fail(ctx, OpMultipartUpload, "分片上传文件失败", err)
	}
	return s.uploadResult(object, result), nil
}

func (s *Service) AbortMultipartUpload(ctx context.Context, object, uploadID string) error {
	s.log.WithTrace(ctx).WithObject(object).WithField("uploadId", uploadID).Info("取消分片上传")

	err := s.call(OpAbortMultipartUpload, func() error {
		return s.store.AbortMultipartUpload(ctx, s.config.Bucket, object, uploadID)
	})
	if err != nil {
		return s.fail(ctx, OpAbortMultipartUpload, "取消分片上传失败", err)
	}
	return nil
}

// ListMultipartUploads 列举未完成的分片上传，每次最多100条
func (s *Service) ListMultipartUploads(ctx context.Context, req ListUploadsRequest) ([]MultipartUpload, error) {
	opts := ListUploadsOptions{
		Delimiter:  "/",
		Prefix:     req.Prefix,
		MaxUploads: listUploadsMax,
	}
	if req.KeyMarker != "" {
		opts.KeyMarker = req.KeyMarker
		opts.UploadIDMarker = req.UploadIDMarker
	}

	return s.listUploads(ctx, opts)
}

func (s *Service) listUploads(ctx context.Context, opts ListUploadsOptions) ([]MultipartUpload, error) {
	var uploads []MultipartUpload
	err := s.call(OpListMultipartUploads, func() (err error) {
		uploads, err = s.store.ListMultipartUploads(ctx, s.config.Bucket, opts)
		return
	})
	if err != nil {
		return nil, s.fail(ctx, OpListMultipartUploads, "列举分片上传失败", err)
	}
	return uploads, nil
}

// AbortStaleUploads 取消 prefix 下发起时间早于 olderThan 之前的分片上传，返回已取消的上传
func (s *Service) AbortStaleUploads(ctx context.Context, prefix string, olderThan time.Duration) ([]MultipartUpload, error) {
	deadline := time.Now().Add(-olderThan)
	opts := ListUploadsOptions{Prefix: prefix, MaxUploads: listUploadsMax}

	aborted := []MultipartUpload{}
	for {
		uploads, err := s.listUploads(ctx, opts)
		if err != nil {
			return aborted, err
		}
		for _, u := range uploads {
			if u.Initiated.IsZero() || !u.Initiated.Before(deadline) {
				continue
			}
			if err := s.AbortMultipartUpload(ctx, u.Key, u.UploadID); err != nil {
				return aborted, err
			}
			aborted = append(aborted, u)
		}
		if len(uploads) < listUploadsMax {
			break
		}
		last := uploads[len(uploads)-1]
		opts.KeyMarker, opts.UploadIDMarker = last.Key, last.UploadID
	}

	s.log.WithTrace(ctx).WithField("prefix", prefix).WithField("aborted", len(aborted)).Info("清理过期分片上传")
	return aborted, nil
}

func (s *Service) ListParts(ctx context.Context, object, uploadID string) ([]UploadPart, error) {
	var parts []UploadPart
	err := s.call(OpListParts, func() (err error) {
		parts, err = s.store.ListParts(ctx, s.config.Bucket, object, uploadID)
		return
	})
	if err != nil {
		return nil, s.fail(ctx, OpListParts, "列举已上传分片失败", err)
	}
	return parts, nil
}

// AppendFile 依次把本地文件追加到对象末尾，对象已存在时从其当前大小开始追加
func (s *Service) AppendFile(ctx context.Context, object string, filePaths ...string) (*FileInfo, error) {
	s.log.WithTrace(ctx).WithObject(object).WithField("files", filePaths).Info("追加上传文件")

	for _, filePath := range filePaths {
		stat, err := os.Stat(filePath)
		if err != nil {
			return nil, s.reject(ctx, OpAppend, "读取追加文件失败", err)
		}
		if stat.Size() > MaxAppendFileSize {
			return nil, s.reject(ctx, OpAppend, "追加文件超过5G", fmt.Errorf("%w: %s", ErrOversize, filePath))
		}
	}

	var position int64
	exist, err := s.Has(ctx, object)
	if err != nil {
		return nil, err
	}
	if exist {
		if position, err = s.GetSize(ctx, object); err != nil {
			return nil, err
		}
	}

	for _, filePath := range filePaths {
		if position, err = s.appendFile(ctx, object, filePath, position); err != nil {
			return nil, s.fail(ctx, OpAppend, "追加上传失败", err)
		}
	}
	return normalize(object), nil
}

func (s *Service) appendFile(ctx context.Context, object, filePath string, position int64) (int64, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return position, err
	}
	defer f.Close()

	var next int64
	err = s.call(OpAppend, func() (err error) {
		next, err = s.store.AppendObject(ctx, s.config.Bucket, object, position, f)
		return
	})
	return next, err
}

// Read 读取对象内容，调用方负责关闭
func (s *Service) Read(ctx context.Context, object string, opts ReadOptions) (io.ReadCloser, error) {
	getOpts, err := s.getOptions(ctx, OpRead, opts)
	if err != nil {
		return nil, err
	}

	var body io.ReadCloser
	err = s.call(OpRead, func() (err error) {
		body, err = s.store.GetObject(ctx, s.config.Bucket, object, getOpts)
		return
	})
	if err != nil {
		return nil, s.fail(ctx, OpRead, "读取阿里云文件失败", err)
	}
	return body, nil
}

// Download 下载对象到本地文件
func (s *Service) Download(ctx context.Context, object, filePath string, opts ReadOptions) (*FileInfo, error) {
	s.log.WithTrace(ctx).WithObject(object).WithField("file", filePath).Info("下载阿里云文件")

	getOpts, err := s.getOptions(ctx, OpDownload, opts)
	if err != nil {
		return nil, err
	}
	err = s.call(OpDownload, func() error {
		return s.store.GetObjectToFile(ctx, s.config.Bucket, object, filePath, getOpts)
	})
	if err != nil {
		return nil, s.fail(ctx, OpDownload, "下载阿里云文件失败", err)
	}
	return normalize(object), nil
}

// Copy 拷贝对象，toBucket 为空时拷贝到当前bucket，只支持1G以内的对象
func (s *Service) Copy(ctx context.Context, object, newObject, toBucket string) error {
	size, err := s.GetSize(ctx, object)
	if err != nil {
		return err
	}
	if size >= MaxCopySize {
		return s.reject(ctx, OpCopy, "拷贝对象超过1G", ErrOversize)
	}
	if toBucket == "" {
		toBucket = s.config.Bucket
	}

	err = s.call(OpCopy, func() error {
		return s.store.CopyObject(ctx, s.config.Bucket, object, toBucket, newObject)
	})
	if err != nil {
		return s.fail(ctx, OpCopy, "拷贝阿里云文件失败", err)
	}
	return nil
}

// Rename 先拷贝再删除原对象
func (s *Service) Rename(ctx context.Context, object, newObject string) (bool, error) {
	if err := s.Copy(ctx, object, newObject, ""); err != nil {
		return false, err
	}
	return s.Delete(ctx, object)
}

// Delete 删除对象，返回删除后对象是否已不存在
func (s *Service) Delete(ctx context.Context, object string) (bool, error) {
	s.log.WithTrace(ctx).WithObject(object).Info("删除阿里云文件")

	err := s.call(OpDelete, func() error {
		return s.store.DeleteObject(ctx, s.config.Bucket, object)
	})
	if err != nil {
		return false, s.fail(ctx, OpDelete, "删除阿里云文件失败", err)
	}
	exist, err := s.Has(ctx, object)
	if err != nil {
		return false, err
	}
	return !exist, nil
}

// MultiDelete 批量删除，返回删除后仍然存在的对象
func (s *Service) MultiDelete(ctx context.Context, objects []string) ([]string, error) {
	if len(objects) == 0 {
		return nil, nil
	}
	s.log.WithTrace(ctx).WithField("count", len(objects)).Info("批量删除阿里云文件")

	err := s.call(OpDelete, func() error {
		return s.store.DeleteObjects(ctx, s.config.Bucket, objects)
	})
	if err != nil {
		return nil, s.fail(ctx, OpDelete, "批量删除阿里云文件失败", err)
	}

	var failed []string
	for _, object := range objects {
		exist, err := s.Has(ctx, object)
		if err != nil {
			return nil, err
		}
		if exist {
			failed = append(failed, object)
		}
	}
	return failed, nil
}

// CreateDir 创建目录标记对象 dirname/
func (s *Service) CreateDir(ctx context.Context, dirname string) (*FileInfo, error) {
	object := strings.TrimRight(dirname, "/") + "/"
	err := s.call(OpPutObject, func() error {
		_, err := s.store.PutObject(ctx, s.config.Bucket, object, bytes.NewReader(nil), PutOptions{})
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, OpPutObject, "创建目录失败", err)
	}
	return normalize(object), nil
}

func (s *Service) Has(ctx context.Context, object string) (bool, error) {
	var exist bool
	err := s.call(OpExist, func() (err error) {
		exist, err = s.store.ObjectExists(ctx, s.config.Bucket, object)
		return
	})
	if err != nil {
		return false, s.fail(ctx, OpExist, "判断对象是否存在失败", err)
	}
	return exist, nil
}

// GetObjectMeta 对象不存在时返回 ErrObjectNotFound
func (s *Service) GetObjectMeta(ctx context.Context, object string) (*ObjectMeta, error) {
	exist, err := s.Has(ctx, object)
	if err != nil {
		return nil, err
	}
	if !exist {
		return nil, s.reject(ctx, OpMeta, "对象不存在", ErrObjectNotFound)
	}

	var meta *ObjectMeta
	err = s.call(OpMeta, func() (err error) {
		meta, err = s.store.HeadObject(ctx, s.config.Bucket, object)
		return
	})
	if err != nil {
		return nil, s.fail(ctx, OpMeta, "获取对象元信息失败", err)
	}
	return meta, nil
}

func (s *Service) GetSize(ctx context.Context, object string) (int64, error) {
	meta, err := s.GetObjectMeta(ctx, object)
	if err != nil {
		return 0, err
	}
	return meta.ContentLength, nil
}

func (s *Service) GetMimeType(ctx context.Context, object string) (string, error) {
	meta, err := s.GetObjectMeta(ctx, object)
	if err != nil {
		return "", err
	}
	return meta.ContentType, nil
}

// GetLastModified 返回unix时间戳
func (s *Service) GetLastModified(ctx context.Context, object string) (int64, error) {
	meta, err := s.GetObjectMeta(ctx, object)
	if err != nil {
		return 0, err
	}
	return meta.LastModified.Unix(), nil
}

// SetVisibility 设置对象ACL，取值 private、public-read、public-read-write
func (s *Service) SetVisibility(ctx context.Context, object, visibility string) (string, error) {
	if _, ok := visibilities[visibility]; !ok {
		return "", s.reject(ctx, OpAcl, "不支持的访问权限", fmt.Errorf("%w: %q", ErrInvalidACL, visibility))
	}
	err := s.call(OpAcl, func() error {
		return s.store.PutObjectACL(ctx, s.config.Bucket, object, visibility)
	})
	if err != nil {
		return "", s.fail(ctx, OpAcl, "设置对象访问权限失败", err)
	}
	return visibility, nil
}

func (s *Service) GetVisibility(ctx context.Context, object string) (string, error) {
	var acl string
	err := s.call(OpAcl, func() (err error) {
		acl, err = s.store.GetObjectACL(ctx, s.config.Bucket, object)
		return
	})
	if err != nil {
		return "", s.fail(ctx, OpAcl, "获取对象访问权限失败", err)
	}
	return acl, nil
}

// PostAuth 客户端直传授权，未指定的bucket、endpoint、ssl取当前配置
func (s *Service) PostAuth(ctx context.Context, req GrantRequest) (*DirectUploadGrant, error) {
	s.log.WithTrace(ctx).WithField("fileType", req.FileType).Info("生成直传授权")

	start := time.Now()
	grant, err := s.codec.Grant(req)
	s.metrics.observe(OpPost, start, err)
	if err != nil {
		return nil, s.reject(ctx, OpPost, "生成直传授权失败", err)
	}
	return grant, nil
}

// ImageURL 对象的访问地址，process 非空时追加 x-oss-process
func (s *Service) ImageURL(object, process string) string {
	var base string
	if s.config.CName && s.config.Domain != "" {
		scheme := "http://"
		if s.config.SSL {
			scheme = "https://"
		}
		base = scheme + strings.TrimRight(config.StripScheme(s.config.Domain), "/")
	} else {
		base = ParseHost(s.config.Bucket, s.config.Endpoint, s.config.SSL)
	}

	url := base + "/" + strings.TrimLeft(object, "/")
	if process != "" {
		url += Style(process, "")
	}
	return url
}

// SignURL 私有对象的临时访问地址
func (s *Service) SignURL(ctx context.Context, object, process string, expire time.Duration) (string, error) {
	if expire <= 0 {
		expire = time.Hour
	}
	var url string
	err := s.call(OpSign, func() (err error) {
		url, err = s.store.SignURL(ctx, s.config.Bucket, strings.TrimLeft(object, "/"), process, expire)
		return
	})
	if err != nil {
		return "", s.fail(ctx, OpSign, "生成签名URL失败", err)
	}
	return url, nil
}

// callbackOptions 服务端上传的回调参数，callbackUrl 和 callbackBody 必须提供
func (s *Service) callbackOptions(ctx context.Context, op Op, callback *CallbackParams) (PutOptions, error) {
	var opts PutOptions
	if callback == nil {
		return opts, nil
	}
	if callback.Body == nil {
		return opts, s.reject(ctx, op, "回调参数不完整", fmt.Errorf("%w: lack callbackBody", ErrInvalidCallbackParams))
	}

	descriptor, err := BuildCallback(*callback)
	if err != nil {
		return opts, s.reject(ctx, op, "回调参数不合法", err)
	}
	if opts.Callback, err = descriptor.JSON(); err != nil {
		return opts, s.reject(ctx, op, "回调参数不合法", fmt.Errorf("%w: %v", ErrInvalidCallbackParams, err))
	}
	if opts.CallbackVar, err = descriptor.VarsJSON(); err != nil {
		return opts, s.reject(ctx, op, "回调参数不合法", fmt.Errorf("%w: %v", ErrInvalidCallbackParams, err))
	}
	return opts, nil
}

// getOptions LastModified 必须是unix时间戳，转换为HTTP日期
func (s *Service) getOptions(ctx context.Context, op Op, opts ReadOptions) (GetOptions, error) {
	getOpts := GetOptions{
		Range:       opts.Range,
		IfNoneMatch: opts.ETag,
		Process:     opts.Process,
	}
	if opts.LastModified != "" {
		ts, err := strconv.ParseInt(opts.LastModified, 10, 64)
		if err != nil {
			return getOpts, s.reject(ctx, op, "last-modified 必须是时间戳", fmt.Errorf("%w: %q", ErrInvalidGetOptions, opts.LastModified))
		}
		getOpts.IfModifiedSince = time.Unix(ts, 0).UTC().Format(httpTimeFormat)
	}
	return getOpts, nil
}

func (s *Service) uploadResult(object string, result *PutResult) *UploadResult {
	ret := &UploadResult{FileInfo: *normalize(object)}
	if result != nil {
		ret.CallbackBody = result.CallbackBody
	}
	return ret
}

// normalize 对象路径标准化，以 / 结尾的是目录
func normalize(object string) *FileInfo {
	info := &FileInfo{Type: FileTypeFile}
	if strings.HasSuffix(object, "/") {
		info.Type = FileTypeDir
		object = strings.TrimRight(object, "/")
	}
	info.Path = object
	if dir := path.Dir(object); dir != "." && dir != "/" {
		info.Dirname = dir
	}
	return info
}
