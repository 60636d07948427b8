package oss

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCallback(t *testing.T) {
	tests := []struct {
		name     string
		params   CallbackParams
		wantBody string
		wantType string
		wantVars map[string]string
	}{
		{
			name:     "按白名单顺序输出",
			params:   CallbackParams{URL: "https://a.com/cb", Body: []string{"size", "bucket"}},
			wantBody: "bucket=${bucket}&size=${size}",
			wantType: CallbackBodyTypeForm,
			wantVars: map[string]string{},
		},
		{
			name:     "忽略不支持的参数",
			params:   CallbackParams{URL: "https://a.com/cb", Body: []string{"foo", "imageInfo.width", "mimeType"}},
			wantBody: "mimeType=${mimeType}&imageInfo.width=${imageInfo.width}",
			wantType: CallbackBodyTypeForm,
			wantVars: map[string]string{},
		},
		{
			name: "自定义参数名转小写",
			params: CallbackParams{
				URL:      "https://a.com/cb",
				Body:     []string{"etag"},
				Vars:     map[string]interface{}{"UserId": 12, "b": true},
				BodyType: CallbackBodyTypeJSON,
			},
			wantBody: "etag=${etag}&b=${x:b}&userid=${x:userid}",
			wantType: CallbackBodyTypeJSON,
			wantVars: map[string]string{"x:userid": "12", "x:b": "true"},
		},
		{
			name:     "参数别名",
			params:   CallbackParams{URL: "https://a.com/cb", Body: []string{"object"}, Alias: map[string]string{"object": "filename"}},
			wantBody: "filename=${object}",
			wantType: CallbackBodyTypeForm,
			wantVars: map[string]string{},
		},
		{
			name:     "未知的bodyType使用表单",
			params:   CallbackParams{URL: "https://a.com/cb", BodyType: "text/plain"},
			wantBody: "",
			wantType: CallbackBodyTypeForm,
			wantVars: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := BuildCallback(tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.params.URL, d.CallbackURL)
			assert.Equal(t, tt.wantBody, d.CallbackBody)
			assert.Equal(t, tt.wantType, d.CallbackBodyType)
			assert.Equal(t, tt.wantVars, d.Vars)
		})
	}
}

func TestBuildCallback_Invalid(t *testing.T) {
	_, err := BuildCallback(CallbackParams{Body: []string{"size"}})
	assert.ErrorIs(t, err, ErrInvalidCallbackParams)

	_, err = BuildCallback(CallbackParams{URL: "https://a.com/cb", Vars: map[string]interface{}{"UserId": 1, "userid": 2}})
	assert.ErrorIs(t, err, ErrInvalidCallbackParams)

	_, err = BuildCallback(CallbackParams{URL: "https://a.com/cb", Vars: map[string]interface{}{"": 1}})
	assert.ErrorIs(t, err, ErrInvalidCallbackParams)
}

func TestCallbackDescriptor_Encode(t *testing.T) {
	d, err := BuildCallback(CallbackParams{
		URL:  "https://a.com/cb?a=1&b=2",
		Body: []string{"bucket"},
		Vars: map[string]interface{}{"Name": "<x>"},
	})
	require.NoError(t, err)

	s, err := d.JSON()
	require.NoError(t, err)
	assert.Equal(t, `{"callbackUrl":"https://a.com/cb?a=1&b=2","callbackBody":"bucket=${bucket}&name=${x:name}","callbackBodyType":"application/x-www-form-urlencoded"}`, s)

	b64, err := d.Base64()
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(b64)
	require.NoError(t, err)
	assert.Equal(t, s, string(raw))

	vars, err := d.VarsJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"x:name":"<x>"}`, vars)

	empty, err := BuildCallback(CallbackParams{URL: "https://a.com/cb"})
	require.NoError(t, err)
	vars, err = empty.VarsJSON()
	require.NoError(t, err)
	assert.Equal(t, "", vars)
}
