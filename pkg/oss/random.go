package oss

import (
	"crypto/rand"
	"math/big"

	"github.com/rs/xid"
)

const alphanumeric = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var alphanumericLen = big.NewInt(int64(len(alphanumeric)))

// randomString 生成指定长度的随机字母数字串
func randomString(n int) string {
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, alphanumericLen)
		if err != nil {
			panic(err)
		}
		b[i] = alphanumeric[idx.Int64()]
	}
	return string(b)
}

// uniqueToken 进程内唯一且随时间递增
func uniqueToken() string {
	return xid.New().String()
}
