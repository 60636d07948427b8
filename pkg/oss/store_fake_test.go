package oss

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"
)

type fakeObject struct {
	data        []byte
	acl         string
	contentType string
	modified    time.Time
	// size 非0时覆盖实际长度
	size int64
}

// fakeStore 内存实现的 ObjectStore，列举结果按 prefix+marker 预先设定
type fakeStore struct {
	mu sync.Mutex

	objects map[string]*fakeObject
	pages   map[string]map[string]*ObjectPage
	failOn  map[string]error
	// sticky 删除后仍然存在的对象
	sticky map[string]bool

	listCalls     []ListOptions
	deleteBatches [][]string
	deleted       []string
	puts          []PutOptions
	appends       []int64
	copies        [][4]string
	uploadOpts    []ListUploadsOptions
	getOpts       []GetOptions
	partSizes     []int64
	callbackBody  map[string]interface{}
	// uploadPages 按 KeyMarker 返回的未完成分片上传
	uploadPages map[string][]MultipartUpload
	aborted     []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects: map[string]*fakeObject{},
		pages:   map[string]map[string]*ObjectPage{},
		failOn:  map[string]error{},
		sticky:  map[string]bool{},
	}
}

func objectID(bucket, key string) string {
	return bucket + "/" + key
}

func (f *fakeStore) put(bucket, key string, data []byte) {
	f.objects[objectID(bucket, key)] = &fakeObject{
		data:        data,
		acl:         "default",
		contentType: "application/octet-stream",
		modified:    time.Unix(1700000000, 0),
	}
}

func (f *fakeStore) page(prefix, marker string, page *ObjectPage) {
	if f.pages[prefix] == nil {
		f.pages[prefix] = map[string]*ObjectPage{}
	}
	f.pages[prefix][marker] = page
}

func (f *fakeStore) fail(method string) error {
	return f.failOn[method]
}

func (f *fakeStore) PutObject(_ context.Context, bucket, key string, body io.Reader, opts PutOptions) (*PutResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("PutObject"); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	f.put(bucket, key, data)
	f.puts = append(f.puts, opts)
	result := &PutResult{ETag: fmt.Sprintf("%x", len(data))}
	if opts.Callback != "" {
		result.CallbackBody = f.callbackBody
	}
	return result, nil
}

func (f *fakeStore) PutFile(ctx context.Context, bucket, key, filePath string, opts PutOptions) (*PutResult, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return f.PutObject(ctx, bucket, key, bytes.NewReader(data), opts)
}

func (f *fakeStore) AppendObject(_ context.Context, bucket, key string, position int64, body io.Reader) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("AppendObject"); err != nil {
		return position, err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return position, err
	}
	obj, ok := f.objects[objectID(bucket, key)]
	if !ok {
		f.put(bucket, key, nil)
		obj = f.objects[objectID(bucket, key)]
	}
	if int64(len(obj.data)) != position {
		return position, fmt.Errorf("PositionNotEqualToLength")
	}
	obj.data = append(obj.data, data...)
	f.appends = append(f.appends, position)
	return position + int64(len(data)), nil
}

func (f *fakeStore) CopyObject(_ context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CopyObject"); err != nil {
		return err
	}
	obj, ok := f.objects[objectID(srcBucket, srcKey)]
	if !ok {
		return fmt.Errorf("NoSuchKey")
	}
	cp := *obj
	f.objects[objectID(dstBucket, dstKey)] = &cp
	f.copies = append(f.copies, [4]string{srcBucket, srcKey, dstBucket, dstKey})
	return nil
}

func (f *fakeStore) DeleteObject(_ context.Context, bucket, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("DeleteObject"); err != nil {
		return err
	}
	f.deleted = append(f.deleted, key)
	if !f.sticky[key] {
		delete(f.objects, objectID(bucket, key))
	}
	return nil
}

func (f *fakeStore) DeleteObjects(_ context.Context, bucket string, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("DeleteObjects"); err != nil {
		return err
	}
	f.deleteBatches = append(f.deleteBatches, append([]string(nil), keys...))
	for _, key := range keys {
		if !f.sticky[key] {
			delete(f.objects, objectID(bucket, key))
		}
	}
	return nil
}

func (f *fakeStore) GetObject(_ context.Context, bucket, key string, opts GetOptions) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getOpts = append(f.getOpts, opts)
	obj, ok := f.objects[objectID(bucket, key)]
	if !ok {
		return nil, fmt.Errorf("NoSuchKey")
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (f *fakeStore) GetObjectToFile(ctx context.Context, bucket, key, filePath string, opts GetOptions) error {
	body, err := f.GetObject(ctx, bucket, key, opts)
	if err != nil {
		return err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0o644)
}

func (f *fakeStore) ObjectExists(_ context.Context, bucket, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ObjectExists"); err != nil {
		return false, err
	}
	_, ok := f.objects[objectID(bucket, key)]
	return ok, nil
}

func (f *fakeStore) HeadObject(_ context.Context, bucket, key string) (*ObjectMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[objectID(bucket, key)]
	if !ok {
		return nil, fmt.Errorf("NoSuchKey")
	}
	size := int64(len(obj.data))
	if obj.size > 0 {
		size = obj.size
	}
	return &ObjectMeta{
		ContentLength: size,
		ContentType:   obj.contentType,
		ETag:          "etag",
		LastModified:  obj.modified,
		Headers:       http.Header{"Content-Type": []string{obj.contentType}},
	}, nil
}

func (f *fakeStore) ListObjects(_ context.Context, _ string, opts ListOptions) (*ObjectPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListObjects"); err != nil {
		return nil, err
	}
	f.listCalls = append(f.listCalls, opts)
	if page, ok := f.pages[opts.Prefix][opts.Marker]; ok {
		return page, nil
	}
	return &ObjectPage{}, nil
}

func (f *fakeStore) GetObjectACL(_ context.Context, bucket, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[objectID(bucket, key)]
	if !ok {
		return "", fmt.Errorf("NoSuchKey")
	}
	return obj.acl, nil
}

func (f *fakeStore) PutObjectACL(_ context.Context, bucket, key, acl string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[objectID(bucket, key)]
	if !ok {
		return fmt.Errorf("NoSuchKey")
	}
	obj.acl = acl
	return nil
}

func (f *fakeStore) UploadFile(ctx context.Context, bucket, key, filePath string, partSize int64, opts PutOptions) (*PutResult, error) {
	f.mu.Lock()
	f.partSizes = append(f.partSizes, partSize)
	f.mu.Unlock()
	return f.PutFile(ctx, bucket, key, filePath, opts)
}

func (f *fakeStore) AbortMultipartUpload(_ context.Context, _, _, uploadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if uploadID == "" {
		return fmt.Errorf("NoSuchUpload")
	}
	if err := f.fail("AbortMultipartUpload"); err != nil {
		return err
	}
	f.aborted = append(f.aborted, uploadID)
	return nil
}

func (f *fakeStore) ListMultipartUploads(_ context.Context, _ string, opts ListUploadsOptions) ([]MultipartUpload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadOpts = append(f.uploadOpts, opts)
	if f.uploadPages != nil {
		return f.uploadPages[opts.KeyMarker], nil
	}
	return []MultipartUpload{{Key: "a.zip", UploadID: "u1"}}, nil
}

func (f *fakeStore) ListParts(_ context.Context, _, _, uploadID string) ([]UploadPart, error) {
	return []UploadPart{{PartNumber: 1, Size: 10, ETag: uploadID}}, nil
}

func (f *fakeStore) SignURL(_ context.Context, bucket, key, process string, expire time.Duration) (string, error) {
	url := fmt.Sprintf("https://%s.oss/%s?expires=%d", bucket, key, int64(expire.Seconds()))
	if process != "" {
		url += "&x-oss-process=" + process
	}
	return url, nil
}

// serviceErr 模拟SDK的服务端错误
type serviceErr struct {
	code    string
	message string
}

func (e *serviceErr) Error() string        { return e.code + ": " + e.message }
func (e *serviceErr) ErrorCode() string    { return e.code }
func (e *serviceErr) ErrorMessage() string { return e.message }
