package oss

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

const (
	CallbackBodyTypeForm = "application/x-www-form-urlencoded"
	CallbackBodyTypeJSON = "application/json"
)

// callbackBodyOptions OSS支持的系统回调参数，按此顺序输出
var callbackBodyOptions = []string{
	"bucket",
	"object",
	"etag",
	"size",
	"mimeType",
	"imageInfo.height",
	"imageInfo.width",
	"imageInfo.format",
}

// jsonAPI 不转义 & < >，回调模板里的 & 需要保持原样
var jsonAPI = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// CallbackParams 回调配置
type CallbackParams struct {
	URL string `json:"callbackUrl" validate:"required"`
	// Body 需要回传的系统参数名，不在白名单中的会被忽略
	Body []string `json:"callbackBody"`
	// Alias 系统参数在回调请求中使用的参数名，默认与系统参数同名
	Alias map[string]string `json:"callbackAlias,omitempty"`
	// Vars 自定义参数，参数名会被转为小写
	Vars     map[string]interface{} `json:"callbackVar,omitempty"`
	BodyType string                 `json:"callbackBodyType,omitempty"`
}

// CallbackDescriptor 回调描述，序列化后作为 callback 参数
type CallbackDescriptor struct {
	CallbackURL      string `json:"callbackUrl"`
	CallbackBody     string `json:"callbackBody"`
	CallbackBodyType string `json:"callbackBodyType"`
	// Vars x:name -> 参数值，单独传递，不写入回调模板
	Vars map[string]string `json:"-"`
}

// BuildCallback 根据回调配置生成回调描述
func BuildCallback(p CallbackParams) (*CallbackDescriptor, error) {
	if p.URL == "" {
		return nil, fmt.Errorf("%w: lack callbackUrl", ErrInvalidCallbackParams)
	}

	selected := make(map[string]struct{}, len(p.Body))
	for _, name := range p.Body {
		selected[name] = struct{}{}
	}

	segments := make([]string, 0, len(callbackBodyOptions)+len(p.Vars))
	for _, op := range callbackBodyOptions {
		if _, ok := selected[op]; !ok {
			continue
		}
		name := op
		if alias := p.Alias[op]; alias != "" {
			name = alias
		}
		segments = append(segments, name+"=${"+op+"}")
	}

	vars, err := normalizeCallbackVars(p.Vars)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(vars))
	for key := range vars {
		names = append(names, strings.TrimPrefix(key, "x:"))
	}
	sort.Strings(names)
	for _, name := range names {
		segments = append(segments, name+"=${x:"+name+"}")
	}

	return &CallbackDescriptor{
		CallbackURL:      p.URL,
		CallbackBody:     strings.Join(segments, "&"),
		CallbackBodyType: normalizeBodyType(p.BodyType),
		Vars:             vars,
	}, nil
}

func normalizeBodyType(bodyType string) string {
	if bodyType == CallbackBodyTypeJSON {
		return CallbackBodyTypeJSON
	}
	return CallbackBodyTypeForm
}

// normalizeCallbackVars 自定义参数：1.必须以x:开头 2.参数名不能有大写 3.参数值必须是string
func normalizeCallbackVars(vars map[string]interface{}) (map[string]string, error) {
	ret := make(map[string]string, len(vars))
	for k, v := range vars {
		name := strings.ToLower(k)
		if name == "" {
			return nil, fmt.Errorf("%w: empty callbackVar name", ErrInvalidCallbackParams)
		}
		key := "x:" + name
		if _, ok := ret[key]; ok {
			return nil, fmt.Errorf("%w: duplicate callbackVar %q", ErrInvalidCallbackParams, name)
		}
		ret[key] = stringify(v)
	}
	return ret, nil
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// JSON 回调描述的JSON
func (d *CallbackDescriptor) JSON() (string, error) {
	return jsonAPI.MarshalToString(d)
}

// Base64 回调描述JSON的base64，用于直传表单和policy
func (d *CallbackDescriptor) Base64() (string, error) {
	s, err := d.JSON()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString([]byte(s)), nil
}

// VarsJSON 自定义参数的JSON，没有自定义参数时返回空串
func (d *CallbackDescriptor) VarsJSON() (string, error) {
	if len(d.Vars) == 0 {
		return "", nil
	}
	return jsonAPI.MarshalToString(d.Vars)
}
