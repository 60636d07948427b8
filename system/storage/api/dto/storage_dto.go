package dto

import "osskit/pkg/oss"

// PostAuthReq 直传授权请求
type PostAuthReq struct {
	FileType string `json:"fileType" validate:"required,oneof=image video audio"`
	// Expire 授权有效期，单位秒，0取默认值
	Expire int64 `json:"expire" validate:"gte=0"`
	// MaxFileSize 最大文件大小，单位B，0取默认值
	MaxFileSize int64               `json:"fileMaxSize" validate:"gte=0"`
	Callback    *oss.CallbackParams `json:"callback"`
}

func (r PostAuthReq) ToGrant() oss.GrantRequest {
	return oss.GrantRequest{
		FileType:    r.FileType,
		Callback:    r.Callback,
		Expire:      r.Expire,
		MaxFileSize: r.MaxFileSize,
	}
}

// ObjectsReq 目录列举请求
type ObjectsReq struct {
	Prefix    string `query:"prefix" json:"prefix" validate:"omitempty,objectkey"`
	Recursive bool   `query:"recursive" json:"recursive"`
}

// ImageURLReq 图片地址请求，Style 非空时直接使用，忽略其它处理参数
type ImageURLReq struct {
	Object  string `query:"object" json:"object" validate:"required,objectkey"`
	Width   int    `query:"width" json:"width" validate:"gte=0"`
	Height  int    `query:"height" json:"height" validate:"gte=0"`
	Mode    string `query:"mode" json:"mode" validate:"omitempty,oneof=lfit mfit fill pad fixed"`
	Format  string `query:"format" json:"format" validate:"omitempty,oneof=jpg png webp bmp gif tiff"`
	Quality int    `query:"quality" json:"quality" validate:"gte=0,lte=100"`
	Style   string `query:"style" json:"style"`
	// Sign 为true时返回私有对象的签名地址
	Sign   bool  `query:"sign" json:"sign"`
	Expire int64 `query:"expire" json:"expire" validate:"gte=0"`
}

// Process 由请求参数生成图片处理串，没有任何处理时为空
func (r ImageURLReq) Process() string {
	if r.Style != "" {
		return r.Style
	}
	if r.Width == 0 && r.Height == 0 && r.Format == "" {
		return ""
	}

	p := oss.NewImageProcess()
	if r.Width > 0 || r.Height > 0 {
		options := oss.ProcessOptions{}
		if r.Mode != "" {
			options["mode"] = r.Mode
		}
		if r.Width > 0 {
			options["width"] = r.Width
		}
		if r.Height > 0 {
			options["height"] = r.Height
		}
		p.Resize(options)
	}
	if r.Format != "" {
		if r.Quality > 0 {
			p.Format(r.Format, 1, r.Quality)
		} else {
			p.FormatDefault(r.Format)
		}
	}
	return p.Get()
}

// ImageURLResp 图片地址
type ImageURLResp struct {
	URL     string `json:"url"`
	Process string `json:"process"`
}

// CallbackResp 回调应答，OSS会原样返回给上传的客户端
type CallbackResp struct {
	Status string                 `json:"Status"`
	Data   map[string]interface{} `json:"data,omitempty"`
}
