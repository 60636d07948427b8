package oss

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"osskit/pkg/core/config"
	"osskit/pkg/core/logger"

	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss"
	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss/credentials"
)

// deleteBatchSize 单次批量删除的上限
const deleteBatchSize = 1000

// AliyunStore 基于阿里云OSS SDK v2 的 ObjectStore 实现。
// 配置了内网节点时数据读写走内网，签名URL始终使用外网节点。
type AliyunStore struct {
	client         *oss.Client
	internalClient *oss.Client
}

var _ ObjectStore = (*AliyunStore)(nil)

// NewAliyunStore 根据配置创建客户端
func NewAliyunStore(cfg *config.OssConfig) *AliyunStore {
	provider := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.AccessKeySecret, "")
	region := cfg.RegionOrDefault()

	public := oss.LoadDefaultConfig().
		WithCredentialsProvider(provider).
		WithRegion(region).
		WithDisableSSL(!cfg.SSL)
	public = withSDKLog(public, cfg.Debug, logger.GetLogger())
	if cfg.CName && cfg.Domain != "" {
		public = public.WithEndpoint(cfg.Domain).WithUseCName(true)
	} else {
		public = public.WithEndpoint(cfg.Endpoint)
	}
	client := oss.NewClient(public)

	internalClient := client
	if cfg.EndpointInternal != "" {
		internal := oss.LoadDefaultConfig().
			WithCredentialsProvider(provider).
			WithRegion(region).
			WithEndpoint(cfg.EndpointInternal)
		internal = withSDKLog(internal, cfg.Debug, logger.GetLogger())
		internalClient = oss.NewClient(internal)
	}

	return &AliyunStore{client: client, internalClient: internalClient}
}

// withSDKLog 开启调试时SDK的请求日志以debug级别输出到logrus
func withSDKLog(c *oss.Config, debug bool, log *logger.Log) *oss.Config {
	if !debug {
		return c
	}
	log = log.WithEntryName("AliyunOSSSDK")
	return c.WithLogLevel(oss.LogDebug).WithLogPrinter(oss.LogPrinterFunc(func(v ...any) {
		log.Debug(strings.TrimSpace(fmt.Sprint(v...)))
	}))
}

// storeError 从SDK服务端错误中取出错误码和错误信息
type storeError struct {
	code    string
	message string
	err     error
}

func (e *storeError) Error() string        { return e.err.Error() }
func (e *storeError) Unwrap() error        { return e.err }
func (e *storeError) ErrorCode() string    { return e.code }
func (e *storeError) ErrorMessage() string { return e.message }

func liftError(err error) error {
	if err == nil {
		return nil
	}
	var se *oss.ServiceError
	if errors.As(err, &se) {
		return &storeError{code: se.Code, message: se.Message, err: err}
	}
	return err
}

func (a *AliyunStore) putRequest(bucket, key string, opts PutOptions) *oss.PutObjectRequest {
	req := &oss.PutObjectRequest{
		Bucket: oss.Ptr(bucket),
		Key:    oss.Ptr(key),
	}
	if opts.ContentType != "" {
		req.ContentType = oss.Ptr(opts.ContentType)
	}
	if opts.Callback != "" {
		req.Callback = oss.Ptr(base64.StdEncoding.EncodeToString([]byte(opts.Callback)))
	}
	if opts.CallbackVar != "" {
		req.CallbackVar = oss.Ptr(base64.StdEncoding.EncodeToString([]byte(opts.CallbackVar)))
	}
	return req
}

func putResult(result *oss.PutObjectResult) *PutResult {
	return &PutResult{
		ETag:         oss.ToString(result.ETag),
		CallbackBody: result.CallbackResult,
	}
}

func (a *AliyunStore) PutObject(ctx context.Context, bucket, key string, body io.Reader, opts PutOptions) (*PutResult, error) {
	req := a.putRequest(bucket, key, opts)
	req.Body = body
	result, err := a.internalClient.PutObject(ctx, req)
	if err != nil {
		return nil, liftError(err)
	}
	return putResult(result), nil
}

func (a *AliyunStore) PutFile(ctx context.Context, bucket, key, filePath string, opts PutOptions) (*PutResult, error) {
	req := a.putRequest(bucket, key, opts)
	if opts.CheckMD5 {
		sum, err := fileMD5(filePath)
		if err != nil {
			return nil, err
		}
		req.ContentMD5 = oss.Ptr(sum)
	}
	result, err := a.internalClient.PutObjectFromFile(ctx, req, filePath)
	if err != nil {
		return nil, liftError(err)
	}
	return putResult(result), nil
}

// fileMD5 base64编码的文件MD5，用作 Content-MD5
func fileMD5(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

func (a *AliyunStore) AppendObject(ctx context.Context, bucket, key string, position int64, body io.Reader) (int64, error) {
	result, err := a.internalClient.AppendObject(ctx, &oss.AppendObjectRequest{
		Bucket:   oss.Ptr(bucket),
		Key:      oss.Ptr(key),
		Position: oss.Ptr(position),
		Body:     body,
	})
	if err != nil {
		return position, liftError(err)
	}
	return result.NextPosition, nil
}

func (a *AliyunStore) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	_, err := a.internalClient.CopyObject(ctx, &oss.CopyObjectRequest{
		Bucket:       oss.Ptr(dstBucket),
		Key:          oss.Ptr(dstKey),
		SourceBucket: oss.Ptr(srcBucket),
		SourceKey:    oss.Ptr(srcKey),
	})
	return liftError(err)
}

func (a *AliyunStore) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := a.internalClient.DeleteObject(ctx, &oss.DeleteObjectRequest{
		Bucket: oss.Ptr(bucket),
		Key:    oss.Ptr(key),
	})
	return liftError(err)
}

// DeleteObjects 按每批1000个分批删除
func (a *AliyunStore) DeleteObjects(ctx context.Context, bucket string, keys []string) error {
	for start := 0; start < len(keys); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		objects := make([]oss.DeleteObject, 0, end-start)
		for _, key := range keys[start:end] {
			objects = append(objects, oss.DeleteObject{Key: oss.Ptr(key)})
		}
		_, err := a.internalClient.DeleteMultipleObjects(ctx, &oss.DeleteMultipleObjectsRequest{
			Bucket:  oss.Ptr(bucket),
			Objects: objects,
			Quiet:   true,
		})
		if err != nil {
			return liftError(err)
		}
	}
	return nil
}

func getRequest(bucket, key string, opts GetOptions) *oss.GetObjectRequest {
	req := &oss.GetObjectRequest{
		Bucket: oss.Ptr(bucket),
		Key:    oss.Ptr(key),
	}
	if opts.Range != "" {
		req.Range = oss.Ptr(opts.Range)
	}
	if opts.IfModifiedSince != "" {
		req.IfModifiedSince = oss.Ptr(opts.IfModifiedSince)
	}
	if opts.IfNoneMatch != "" {
		req.IfNoneMatch = oss.Ptr(opts.IfNoneMatch)
	}
	if opts.Process != "" {
		req.Process = oss.Ptr(opts.Process)
	}
	return req
}

func (a *AliyunStore) GetObject(ctx context.Context, bucket, key string, opts GetOptions) (io.ReadCloser, error) {
	result, err := a.internalClient.GetObject(ctx, getRequest(bucket, key, opts))
	if err != nil {
		return nil, liftError(err)
	}
	return result.Body, nil
}

func (a *AliyunStore) GetObjectToFile(ctx context.Context, bucket, key, filePath string, opts GetOptions) error {
	_, err := a.internalClient.GetObjectToFile(ctx, getRequest(bucket, key, opts), filePath)
	return liftError(err)
}

func (a *AliyunStore) ObjectExists(ctx context.Context, bucket, key string) (bool, error) {
	exist, err := a.internalClient.IsObjectExist(ctx, bucket, key)
	if err != nil {
		return false, liftError(err)
	}
	return exist, nil
}

func (a *AliyunStore) HeadObject(ctx context.Context, bucket, key string) (*ObjectMeta, error) {
	result, err := a.internalClient.HeadObject(ctx, &oss.HeadObjectRequest{
		Bucket: oss.Ptr(bucket),
		Key:    oss.Ptr(key),
	})
	if err != nil {
		return nil, liftError(err)
	}
	meta := &ObjectMeta{
		ContentLength: result.ContentLength,
		ContentType:   oss.ToString(result.ContentType),
		ETag:          oss.ToString(result.ETag),
		Headers:       result.Headers,
	}
	if result.LastModified != nil {
		meta.LastModified = *result.LastModified
	}
	return meta, nil
}

// ListObjects 没有更多数据时 NextMarker 为空
func (a *AliyunStore) ListObjects(ctx context.Context, bucket string, opts ListOptions) (*ObjectPage, error) {
	req := &oss.ListObjectsRequest{
		Bucket:  oss.Ptr(bucket),
		MaxKeys: int32(opts.MaxKeys),
	}
	if opts.Delimiter != "" {
		req.Delimiter = oss.Ptr(opts.Delimiter)
	}
	if opts.Prefix != "" {
		req.Prefix = oss.Ptr(opts.Prefix)
	}
	if opts.Marker != "" {
		req.Marker = oss.Ptr(opts.Marker)
	}

	result, err := a.internalClient.ListObjects(ctx, req)
	if err != nil {
		return nil, liftError(err)
	}

	page := &ObjectPage{
		Objects:        make([]ObjectProperties, 0, len(result.Contents)),
		CommonPrefixes: make([]string, 0, len(result.CommonPrefixes)),
	}
	if result.IsTruncated {
		page.NextMarker = oss.ToString(result.NextMarker)
	}
	for _, o := range result.Contents {
		p := ObjectProperties{
			Key:          oss.ToString(o.Key),
			ETag:         oss.ToString(o.ETag),
			Type:         oss.ToString(o.Type),
			Size:         o.Size,
			StorageClass: oss.ToString(o.StorageClass),
		}
		if o.LastModified != nil {
			p.LastModified = *o.LastModified
		}
		page.Objects = append(page.Objects, p)
	}
	for _, cp := range result.CommonPrefixes {
		page.CommonPrefixes = append(page.CommonPrefixes, oss.ToString(cp.Prefix))
	}
	return page, nil
}

func (a *AliyunStore) GetObjectACL(ctx context.Context, bucket, key string) (string, error) {
	result, err := a.internalClient.GetObjectAcl(ctx, &oss.GetObjectAclRequest{
		Bucket: oss.Ptr(bucket),
		Key:    oss.Ptr(key),
	})
	if err != nil {
		return "", liftError(err)
	}
	return oss.ToString(result.ACL), nil
}

func (a *AliyunStore) PutObjectACL(ctx context.Context, bucket, key, acl string) error {
	_, err := a.internalClient.PutObjectAcl(ctx, &oss.PutObjectAclRequest{
		Bucket: oss.Ptr(bucket),
		Key:    oss.Ptr(key),
		Acl:    oss.ObjectACLType(acl),
	})
	return liftError(err)
}

// UploadFile 使用SDK的分片上传管理器
func (a *AliyunStore) UploadFile(ctx context.Context, bucket, key, filePath string, partSize int64, opts PutOptions) (*PutResult, error) {
	uploader := a.internalClient.NewUploader(func(uo *oss.UploaderOptions) {
		uo.PartSize = partSize
	})
	result, err := uploader.UploadFile(ctx, a.putRequest(bucket, key, opts), filePath)
	if err != nil {
		return nil, liftError(err)
	}
	return &PutResult{ETag: oss.ToString(result.ETag)}, nil
}

func (a *AliyunStore) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	_, err := a.internalClient.AbortMultipartUpload(ctx, &oss.AbortMultipartUploadRequest{
		Bucket:   oss.Ptr(bucket),
		Key:      oss.Ptr(key),
		UploadId: oss.Ptr(uploadID),
	})
	return liftError(err)
}

func (a *AliyunStore) ListMultipartUploads(ctx context.Context, bucket string, opts ListUploadsOptions) ([]MultipartUpload, error) {
	req := &oss.ListMultipartUploadsRequest{
		Bucket:     oss.Ptr(bucket),
		MaxUploads: int32(opts.MaxUploads),
	}
	if opts.Delimiter != "" {
		req.Delimiter = oss.Ptr(opts.Delimiter)
	}
	if opts.Prefix != "" {
		req.Prefix = oss.Ptr(opts.Prefix)
	}
	if opts.KeyMarker != "" {
		req.KeyMarker = oss.Ptr(opts.KeyMarker)
	}
	if opts.UploadIDMarker != "" {
		req.UploadIdMarker = oss.Ptr(opts.UploadIDMarker)
	}

	result, err := a.internalClient.ListMultipartUploads(ctx, req)
	if err != nil {
		return nil, liftError(err)
	}
	uploads := make([]MultipartUpload, 0, len(result.Uploads))
	for _, u := range result.Uploads {
		upload := MultipartUpload{
			Key:      oss.ToString(u.Key),
			UploadID: oss.ToString(u.UploadId),
		}
		if u.Initiated != nil {
			upload.Initiated = *u.Initiated
		}
		uploads = append(uploads, upload)
	}
	return uploads, nil
}

func (a *AliyunStore) ListParts(ctx context.Context, bucket, key, uploadID string) ([]UploadPart, error) {
	result, err := a.internalClient.ListParts(ctx, &oss.ListPartsRequest{
		Bucket:   oss.Ptr(bucket),
		Key:      oss.Ptr(key),
		UploadId: oss.Ptr(uploadID),
	})
	if err != nil {
		return nil, liftError(err)
	}
	parts := make([]UploadPart, 0, len(result.Parts))
	for _, p := range result.Parts {
		part := UploadPart{
			PartNumber: int(p.PartNumber),
			Size:       p.Size,
			ETag:       oss.ToString(p.ETag),
		}
		if p.LastModified != nil {
			part.LastModified = *p.LastModified
		}
		parts = append(parts, part)
	}
	return parts, nil
}

// SignURL 预签名GET地址
func (a *AliyunStore) SignURL(ctx context.Context, bucket, key, process string, expire time.Duration) (string, error) {
	result, err := a.client.Presign(ctx, getRequest(bucket, key, GetOptions{Process: process}), oss.PresignExpires(expire))
	if err != nil {
		return "", liftError(err)
	}
	return result.URL, nil
}
