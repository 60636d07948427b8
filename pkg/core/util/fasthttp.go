package util

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// DefaultHttpTimeout 未设置超时时的默认值
const DefaultHttpTimeout = 10 * time.Second

type Header struct {
	Key   string
	Value string
}

type Http struct {
	Url      string
	Query    map[string]string
	Headers  []Header
	Timeout  time.Duration
	Client   *fasthttp.Client
	Response *fasthttp.Response
}

func NewHttp(url string, query map[string]string, headers ...Header) *Http {
	return &Http{
		Url:     url,
		Query:   query,
		Headers: headers,
	}
}

func (h *Http) requestURI() string {
	if len(h.Query) == 0 {
		return h.Url
	}
	values := make(url.Values, len(h.Query))
	for key, value := range h.Query {
		values.Set(key, value)
	}
	if strings.Contains(h.Url, "?") {
		return h.Url + "&" + values.Encode()
	}
	return h.Url + "?" + values.Encode()
}

// Get 发起GET请求，超时取 ctx 截止时间与 Timeout 中较早者
func (h *Http) Get(ctx context.Context) error {
	request := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(request)
	response := fasthttp.AcquireResponse()

	request.Header.SetMethod(fasthttp.MethodGet)
	request.SetRequestURI(h.requestURI())
	for _, header := range h.Headers {
		request.Header.Set(header.Key, header.Value)
	}

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultHttpTimeout
	}
	deadline := time.Now().Add(timeout)
	if ctx != nil {
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
	}

	var err error
	if h.Client != nil {
		err = h.Client.DoDeadline(request, response, deadline)
	} else {
		err = fasthttp.DoDeadline(request, response, deadline)
	}
	if err != nil {
		fasthttp.ReleaseResponse(response)
		return err
	}

	if response.StatusCode() != fasthttp.StatusOK {
		status := response.StatusCode()
		fasthttp.ReleaseResponse(response)
		return fmt.Errorf("GET request failed, status code: %d", status)
	}

	h.Response = response
	return nil
}

// Bytes 复制响应体并释放响应
func (h *Http) Bytes() []byte {
	if h.Response == nil {
		return nil
	}
	body := append([]byte(nil), h.Response.Body()...)
	h.Close()
	return body
}

func (h *Http) Close() {
	if h.Response != nil {
		fasthttp.ReleaseResponse(h.Response)
		h.Response = nil
	}
}

// HttpGetBytes GET请求并返回响应体
func HttpGetBytes(ctx context.Context, uri string, timeout time.Duration, headers ...Header) ([]byte, error) {
	h := NewHttp(uri, nil, headers...)
	h.Timeout = timeout
	if err := h.Get(ctx); err != nil {
		return nil, err
	}
	return h.Bytes(), nil
}
