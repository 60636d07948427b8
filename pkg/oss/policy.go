package oss

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"osskit/pkg/core/config"
)

const (
	DefaultPostExpire      = 60 * time.Second
	DefaultPostMaxFileSize = int64(104857600) // 100MB

	expirationLayout = "2006-01-02T15:04:05"
)

var postFileTypes = map[string]struct{}{
	"image": {},
	"video": {},
	"audio": {},
}

// GrantRequest 客户端（web，小程序）直传授权参数，未设置的项取配置或默认值
type GrantRequest struct {
	// FileType 取值 image,video,audio
	FileType string          `json:"fileType" validate:"required"`
	Callback *CallbackParams `json:"callback,omitempty"`
	Bucket   string          `json:"-"`
	Endpoint string          `json:"-"`
	SSL      *bool           `json:"-"`
	// Expire 授权有效期，单位秒，默认60
	Expire int64 `json:"expire,omitempty" validate:"gte=0"`
	// MaxFileSize 最大上传文件大小，单位B，默认100MB
	MaxFileSize int64 `json:"fileMaxSize,omitempty"`
}

// UploadPolicy 直传policy文档，字段顺序即序列化顺序
type UploadPolicy struct {
	Expiration string        `json:"expiration"`
	Conditions []interface{} `json:"conditions"`
}

// DirectUploadGrant 返回给客户端的直传授权
type DirectUploadGrant struct {
	Host     string            `json:"host"`
	FormData map[string]string `json:"formData"`
}

// PolicyCodec 生成并签名直传policy
type PolicyCodec struct {
	config *config.OssConfig
	now    func() time.Time
}

func NewPolicyCodec(cfg *config.OssConfig) *PolicyCodec {
	return &PolicyCodec{config: cfg, now: time.Now}
}

// Grant 生成直传授权
func (c *PolicyCodec) Grant(req GrantRequest) (*DirectUploadGrant, error) {
	fileType := strings.ToLower(req.FileType)
	if _, ok := postFileTypes[fileType]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFileType, req.FileType)
	}

	var callback *CallbackDescriptor
	if req.Callback != nil {
		var err error
		callback, err = BuildCallback(*req.Callback)
		if err != nil {
			return nil, err
		}
	}

	dir := c.uploadDir(fileType)
	id := randomString(7) + uniqueToken()
	key := dir + id

	bucket := req.Bucket
	if bucket == "" {
		bucket = c.config.Bucket
	}
	endpoint := req.Endpoint
	if endpoint == "" {
		endpoint = c.config.Endpoint
	}
	ssl := c.config.SSL
	if req.SSL != nil {
		ssl = *req.SSL
	}

	expire := DefaultPostExpire
	if req.Expire > 0 {
		expire = time.Duration(req.Expire) * time.Second
	}
	maxFileSize := req.MaxFileSize
	if maxFileSize == 0 {
		maxFileSize = DefaultPostMaxFileSize
	}

	var callbackBase64 string
	if callback != nil {
		var err error
		callbackBase64, err = callback.Base64()
		if err != nil {
			return nil, err
		}
	}

	policy, err := EncodePolicy(BuildPolicy(c.now().Add(expire), maxFileSize, dir, callbackBase64))
	if err != nil {
		return nil, err
	}
	signature := SignPolicy(policy, c.config.AccessKeySecret)

	formData := map[string]string{
		"type":                  "oss",
		"key":                   key,
		"dir":                   dir,
		"id":                    id,
		"OSSAccessKeyId":        c.config.AccessKeyID,
		"policy":                policy,
		"signature":             signature,
		"success_action_status": "201",
	}
	if callback != nil {
		formData["callback"] = callbackBase64
		for k, v := range callback.Vars {
			formData[k] = v
		}
	}

	return &DirectUploadGrant{
		Host:     ParseHost(bucket, endpoint, ssl),
		FormData: formData,
	}, nil
}

// uploadDir 随机分区/类型目录/年月/日/
func (c *PolicyCodec) uploadDir(fileType string) string {
	dir := randomString(6) + "/" + strings.TrimLeft(c.config.UploadDir(fileType), "/")
	dir = strings.TrimRight(dir, "\\/")
	return dir + "/" + c.now().Format("200601/02/")
}

// ParseHost 拼接直传地址 {scheme}://{bucket}.{endpoint}
func ParseHost(bucket, endpoint string, ssl bool) string {
	hostname := bucket + "." + strings.TrimRight(config.StripScheme(endpoint), "/")
	if ssl {
		return "https://" + hostname
	}
	return "http://" + hostname
}

// ExpirationISO8601 UTC时间，形如 2006-01-02T15:04:05Z
func ExpirationISO8601(t time.Time) string {
	return t.UTC().Format(expirationLayout) + "Z"
}

// BuildPolicy 条件顺序固定：文件大小限制、key前缀、callback
func BuildPolicy(expireAt time.Time, maxFileSize int64, dir, callbackBase64 string) UploadPolicy {
	conditions := make([]interface{}, 0, 3)
	// 限制上传文件大小
	if maxFileSize > 0 {
		conditions = append(conditions, []interface{}{"content-length-range", 0, maxFileSize})
	}
	// 限制上传文件的key的前缀，即目录
	if dir != "" {
		conditions = append(conditions, []interface{}{"starts-with", "$key", dir})
	}
	// 防止callback篡改
	if callbackBase64 != "" {
		conditions = append(conditions, map[string]string{"callback": callbackBase64})
	}
	return UploadPolicy{
		Expiration: ExpirationISO8601(expireAt),
		Conditions: conditions,
	}
}

// EncodePolicy policy JSON的base64
func EncodePolicy(policy UploadPolicy) (string, error) {
	body, err := jsonAPI.Marshal(policy)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(body), nil
}

// SignPolicy base64(HMAC-SHA1(policy, secret))
func SignPolicy(policy, accessSecret string) string {
	h := hmac.New(sha1.New, []byte(accessSecret))
	h.Write([]byte(policy))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
