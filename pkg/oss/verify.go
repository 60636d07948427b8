package oss

import (
	"context"
	"crypto/md5"
	"crypto/rsa"
	"crypto/subtle"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"math/big"
	"net/url"
	"strings"

	"osskit/pkg/core/logger"

	"github.com/gofiber/fiber/v2"
)

const (
	HeaderAuthorization = "authorization"
	HeaderPubKeyURL     = "x-oss-pub-key-url"
)

// md5DigestInfoPrefix MD5 的 ASN.1 DigestInfo 头
var md5DigestInfoPrefix = []byte{0x30, 0x20, 0x30, 0x0c, 0x06, 0x08, 0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x02, 0x05, 0x05, 0x00, 0x04, 0x10}

// Fetcher 获取公钥内容
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Verifier 校验OSS上传回调的签名，任何异常都返回false
type Verifier struct {
	fetcher      Fetcher
	allowedHosts map[string]struct{}
	log          *logger.Log
}

func NewVerifier(fetcher Fetcher, log *logger.Log) *Verifier {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Verifier{fetcher: fetcher, log: log.WithEntryName("OSSCallbackVerifier")}
}

// WithAllowedHosts 限制公钥地址的域名，未设置时不限制
func (v *Verifier) WithAllowedHosts(hosts ...string) *Verifier {
	allowed := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			allowed[h] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		allowed = nil
	}
	v.allowedHosts = allowed
	return v
}

// keyURLAllowed 公钥地址必须是http(s)，且域名在白名单内
func (v *Verifier) keyURLAllowed(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	if v.allowedHosts == nil {
		return true
	}
	_, ok := v.allowedHosts[strings.ToLower(u.Hostname())]
	return ok
}

// Verify path为请求URI（可带query），body为原始回调内容
func (v *Verifier) Verify(ctx context.Context, path, authorizationBase64, pubKeyURLBase64 string, body []byte) bool {
	if authorizationBase64 == "" || pubKeyURLBase64 == "" || path == "" {
		return false
	}
	log := v.log.WithTrace(ctx)

	authorization, err := base64.StdEncoding.DecodeString(authorizationBase64)
	if err != nil {
		log.WithErr(err).Warn("authorization 不是合法的base64")
		return false
	}
	pubKeyURL, err := base64.StdEncoding.DecodeString(pubKeyURLBase64)
	if err != nil {
		log.WithErr(err).Warn("x-oss-pub-key-url 不是合法的base64")
		return false
	}

	if !v.keyURLAllowed(string(pubKeyURL)) {
		log.WithField("pubKeyUrl", string(pubKeyURL)).Warn("回调公钥地址不在白名单内")
		return false
	}

	pubKey, err := v.fetcher.Fetch(ctx, string(pubKeyURL))
	if err != nil {
		log.WithErr(err).WithField("pubKeyUrl", string(pubKeyURL)).Warn("获取回调公钥失败")
		return false
	}
	if len(pubKey) == 0 {
		return false
	}

	pub, err := parsePublicKey(pubKey)
	if err != nil {
		log.WithErr(err).Warn("解析回调公钥失败")
		return false
	}

	digest := md5.Sum([]byte(callbackAuthString(path, string(body))))
	if err := verifyPKCS1v15MD5(pub, digest[:], authorization); err != nil {
		log.WithField("path", path).Warn("回调签名校验失败")
		return false
	}
	return true
}

// VerifyRequest 从fiber请求中取出签名、公钥地址、URI和body进行校验
func (v *Verifier) VerifyRequest(ctx context.Context, c *fiber.Ctx) bool {
	return v.Verify(ctx, c.OriginalURL(), c.Get(HeaderAuthorization), c.Get(HeaderPubKeyURL), c.Body())
}

// callbackAuthString 待签名字符串。
// 路径中 '?' 位于首字符之后时整体urldecode；没有 '?'（或 '?' 在首位）时保留原始路径不解码。
func callbackAuthString(path, body string) string {
	if pos := strings.IndexByte(path, '?'); pos > 0 {
		return urlDecode(path) + "\n" + body
	}
	return path + "\n" + body
}

// urlDecode 与 PHP urldecode 一致：'+' 解码为空格，非法的 % 序列原样保留
func urlDecode(s string) string {
	if strings.IndexByte(s, '%') < 0 && strings.IndexByte(s, '+') < 0 {
		return s
	}
	t := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%':
			if i+2 < len(s) && ishex(s[i+1]) && ishex(s[i+2]) {
				t = append(t, unhex(s[i+1])<<4|unhex(s[i+2]))
				i += 2
				continue
			}
			t = append(t, '%')
		case '+':
			t = append(t, ' ')
		default:
			t = append(t, s[i])
		}
	}
	return string(t)
}

func parsePublicKey(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errInvalidPublicKey
	}
	if pubInterface, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		pub, ok := pubInterface.(*rsa.PublicKey)
		if !ok {
			return nil, errInvalidPublicKey
		}
		return pub, nil
	}
	return x509.ParsePKCS1PublicKey(block.Bytes)
}

// verifyPKCS1v15MD5 自定义RSA PKCS1v15签名验证，避开标准库对密钥长度的检查
func verifyPKCS1v15MD5(pub *rsa.PublicKey, hashed []byte, sig []byte) error {
	// 0x00 0x01 至少8字节填充 0x00 DigestInfo
	if len(sig) != pub.Size() || pub.Size() < len(md5DigestInfoPrefix)+len(hashed)+11 {
		return rsa.ErrVerification
	}

	// 计算 s^e mod n
	signature := new(big.Int).SetBytes(sig)
	if signature.Cmp(pub.N) >= 0 {
		return rsa.ErrVerification
	}
	m := new(big.Int).Exp(signature, big.NewInt(int64(pub.E)), pub.N)
	em := padLeftWithZeros(m.Bytes(), pub.Size())

	// EM = 0x00 || 0x01 || PS || 0x00 || T
	if em[0] != 0 || em[1] != 1 {
		return rsa.ErrVerification
	}

	var i int
	for i = 2; i < len(em); i++ {
		if em[i] == 0 {
			break
		}
		if em[i] != 0xff {
			return rsa.ErrVerification
		}
	}
	// 必须至少有8字节的填充
	if i < 10 || i == len(em) {
		return rsa.ErrVerification
	}
	i++

	t := em[i:]
	if len(t) != len(md5DigestInfoPrefix)+len(hashed) {
		return rsa.ErrVerification
	}
	if subtle.ConstantTimeCompare(t[:len(md5DigestInfoPrefix)], md5DigestInfoPrefix) != 1 {
		return rsa.ErrVerification
	}
	if subtle.ConstantTimeCompare(t[len(md5DigestInfoPrefix):], hashed) != 1 {
		return rsa.ErrVerification
	}
	return nil
}

func padLeftWithZeros(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}
	padded := make([]byte, size)
	copy(padded[size-len(b):], b)
	return padded
}

func ishex(c byte) bool {
	switch {
	case '0' <= c && c <= '9':
		return true
	case 'a' <= c && c <= 'f':
		return true
	case 'A' <= c && c <= 'F':
		return true
	}
	return false
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}
