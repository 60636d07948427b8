package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

func setTestEnv(t *testing.T) {
	t.Setenv("ALIYUN_APP_ACCESS_KEY", "LTAI5tExample")
	t.Setenv("ALIYUN_APP_ACCESS_SECRET", "secret-value")
	t.Setenv("ALIYUN_OSS_BUCKET", "bucket")
	t.Setenv("ALIYUN_OSS_ENDPOINT", "oss-cn-hangzhou.aliyuncs.com")
	t.Setenv("ALIYUN_OSS_ENABLE_SSL", "true")
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestGrantCommand(t *testing.T) {
	setTestEnv(t)

	out := execute(t, "grant", "image", "--expire", "300", "--callback-url", "https://api.example.com/oss/callback", "--callback-body", "object,size")
	grant := gjson.Parse(out)
	assert.Equal(t, "https://bucket.oss-cn-hangzhou.aliyuncs.com", grant.Get("host").String())
	assert.Equal(t, "LTAI5tExample", grant.Get("formData.OSSAccessKeyId").String())
	assert.NotEmpty(t, grant.Get("formData.callback").String())
}

func TestGrantCommandInvalidType(t *testing.T) {
	setTestEnv(t)

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"grant", "doc"})
	assert.Error(t, rootCmd.Execute())
}

func TestURLCommand(t *testing.T) {
	setTestEnv(t)

	out := execute(t, "url", "/photos/a.jpg", "--process", "image/resize,w_100")
	assert.Equal(t, "https://bucket.oss-cn-hangzhou.aliyuncs.com/photos/a.jpg?x-oss-process=image/resize,w_100\n", out)
}

func TestConfigCommand(t *testing.T) {
	setTestEnv(t)

	out := execute(t, "config")
	var got map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))

	ossCfg, ok := got["oss"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "bucket", ossCfg["bucket-name"])
	assert.Equal(t, "se****ue", ossCfg["access-secret"])
}
