package router

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"osskit/app"
	"osskit/pkg/core/config"
	"osskit/pkg/core/logger"
	"osskit/pkg/core/start"
	"osskit/pkg/oss"
	"osskit/system/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyStore struct {
	oss.ObjectStore
}

func (emptyStore) ListObjects(context.Context, string, oss.ListOptions) (*oss.ObjectPage, error) {
	return &oss.ObjectPage{}, nil
}

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics := oss.NewMetrics(reg)
	service, err := oss.NewService(&config.OssConfig{
		AccessKeyID:     "ak",
		AccessKeySecret: "sk",
		Bucket:          "bucket",
		Endpoint:        "oss-cn-hangzhou.aliyuncs.com",
	}, emptyStore{}, oss.WithMetrics(metrics), oss.WithLogger(logger.Discard()))
	require.NoError(t, err)

	verifier, err := oss.InitVerifier(0)
	require.NoError(t, err)

	return &app.App{
		Registry:      reg,
		StorageModule: storage.NewModule(service, verifier, metrics),
	}
}

func TestRegister(t *testing.T) {
	a := newTestApp(t)
	f := start.GetApp(config.ServerConfig{})
	f.Use(start.UseMonitor(a.Registry))
	Register(a, f)

	resp, err := f.Test(httptest.NewRequest("GET", "/oss/objects?prefix=a/", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = f.Test(httptest.NewRequest("GET", "/oss/image-url?object=a.jpg", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "http://bucket.oss-cn-hangzhou.aliyuncs.com/a.jpg")

	resp, err = f.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = f.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `osskit_operations_total{op="List",result="ok"} 1`)
	assert.Contains(t, string(body), `osskit_http_requests_total{method="GET",path="/oss/objects",status="200"} 1`)
}

func TestCallbackRejectsUnsigned(t *testing.T) {
	a := newTestApp(t)
	f := start.GetApp(config.ServerConfig{})
	Register(a, f)

	resp, err := f.Test(httptest.NewRequest("POST", "/oss/callback", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}
