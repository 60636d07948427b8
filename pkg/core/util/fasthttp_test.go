package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHttpGetBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/key":
			assert.Equal(t, "v", r.URL.Query().Get("k"))
			assert.Equal(t, "osskit", r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte("-----BEGIN PUBLIC KEY-----"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	h := NewHttp(server.URL+"/key", map[string]string{"k": "v"}, Header{Key: "User-Agent", Value: "osskit"})
	require.NoError(t, h.Get(context.Background()))
	assert.Equal(t, "-----BEGIN PUBLIC KEY-----", string(h.Bytes()))
	assert.Nil(t, h.Response, "读取后应释放响应")

	_, err := HttpGetBytes(context.Background(), server.URL+"/missing", time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestRequestURI(t *testing.T) {
	h := NewHttp("http://example.com/a?x=1", map[string]string{"y": "2"})
	assert.Equal(t, "http://example.com/a?x=1&y=2", h.requestURI())

	h = NewHttp("http://example.com/a", nil)
	assert.Equal(t, "http://example.com/a", h.requestURI())
}
