package oss

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"osskit/pkg/core/logger"

	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiftError(t *testing.T) {
	assert.Nil(t, liftError(nil))

	plain := errors.New("dial tcp: timeout")
	assert.Equal(t, plain, liftError(plain))

	se := &oss.ServiceError{Code: "NoSuchKey", Message: "The specified key does not exist."}
	err := liftError(fmt.Errorf("operation error GetObject: %w", se))

	opErr := newOpError(OpRead, err)
	assert.Equal(t, "NoSuchKey", opErr.Code)
	assert.Equal(t, "The specified key does not exist.", opErr.Message)
	assert.Equal(t, "oss Read: NoSuchKey: The specified key does not exist.", opErr.Error())

	var target *oss.ServiceError
	require.True(t, errors.As(opErr, &target))
	assert.Same(t, se, target)
}

func TestNewAliyunStore(t *testing.T) {
	cfg := testOssConfig()
	cfg.EndpointInternal = "oss-cn-hangzhou-internal.aliyuncs.com"

	store := NewAliyunStore(cfg)
	require.NotNil(t, store.client)
	assert.NotSame(t, store.client, store.internalClient)

	cfg.EndpointInternal = ""
	store = NewAliyunStore(cfg)
	assert.Same(t, store.client, store.internalClient)

	// 没有需要删除的对象时不发起请求
	assert.NoError(t, store.DeleteObjects(context.Background(), "bucket", nil))

	cfg.Debug = true
	cfg.EndpointInternal = "oss-cn-hangzhou-internal.aliyuncs.com"
	store = NewAliyunStore(cfg)
	assert.NotSame(t, store.client, store.internalClient)
}

func TestWithSDKLog(t *testing.T) {
	nullLogger, hook := test.NewNullLogger()
	nullLogger.SetLevel(logrus.DebugLevel)
	log := &logger.Log{Entry: logrus.NewEntry(nullLogger)}

	t.Run("未开启调试", func(t *testing.T) {
		c := withSDKLog(oss.NewConfig(), false, log)
		assert.Nil(t, c.LogLevel)
		assert.Nil(t, c.LogPrinter)
	})

	t.Run("开启调试", func(t *testing.T) {
		c := withSDKLog(oss.NewConfig(), true, log)
		require.NotNil(t, c.LogLevel)
		assert.Equal(t, oss.LogDebug, *c.LogLevel)
		require.NotNil(t, c.LogPrinter)

		c.LogPrinter.Print("[DEBUG] ", "GET /bucket?list-type=2")
		entry := hook.LastEntry()
		require.NotNil(t, entry)
		assert.Equal(t, logrus.DebugLevel, entry.Level)
		assert.Equal(t, "[DEBUG] GET /bucket?list-type=2", entry.Message)
		assert.Equal(t, "AliyunOSSSDK", entry.Data["EntryName"])
	})
}
