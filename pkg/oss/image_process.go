package oss

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// ProcessOptions 图片处理参数，key 为参数名
type ProcessOptions map[string]interface{}

type optionCode struct {
	name string
	code string
}

// 操作的有效参数，按此顺序输出
var (
	resizeOptions = []optionCode{
		{"mode", "m"},
		{"width", "w"},
		{"height", "h"},
		{"largeBorder", "l"},
		{"smallBorder", "s"},
		{"oversizeProcess", "limit"},
		{"padColor", "color"},
	}
	cropOptions = []optionCode{
		{"posX", "x"},
		{"posY", "y"},
		{"width", "w"},
		{"height", "h"},
		{"origin", "g"},
	}
	cropOrigins = map[string]struct{}{
		"nw": {}, "north": {}, "ne": {},
		"west": {}, "center": {}, "east": {},
		"sw": {}, "south": {}, "se": {},
	}
)

// ImageProcess 图片处理参数构造器，非并发安全
type ImageProcess struct {
	process []string
}

func NewImageProcess() *ImageProcess {
	return &ImageProcess{process: []string{"image"}}
}

func parseOptions(codes []optionCode, options ProcessOptions, action string) string {
	process := []string{action}
	for _, op := range codes {
		if v, ok := options[op.name]; ok {
			process = append(process, op.code+"_"+fmt.Sprint(v))
		}
	}
	return strings.Join(process, ",")
}

// Resize 图片缩放，有效参数 mode,width,height,largeBorder,smallBorder,oversizeProcess,padColor
func (p *ImageProcess) Resize(options ProcessOptions) *ImageProcess {
	p.process = append(p.process, parseOptions(resizeOptions, options, "resize"))
	return p
}

// Crop 图片裁剪，有效参数 posX,posY,width,height,origin；origin 非法时忽略
func (p *ImageProcess) Crop(options ProcessOptions) *ImageProcess {
	if origin, ok := options["origin"]; ok {
		if _, valid := cropOrigins[fmt.Sprint(origin)]; !valid {
			filtered := make(ProcessOptions, len(options))
			for k, v := range options {
				if k != "origin" {
					filtered[k] = v
				}
			}
			options = filtered
		}
	}
	p.process = append(p.process, parseOptions(cropOptions, options, "crop"))
	return p
}

// IndexCrop 索引切割，水平和垂直只能二选一，同时指定时按水平切割
func (p *ImageProcess) IndexCrop(horStep, verStep, index int) *ImageProcess {
	process := "indexcrop"
	switch {
	case horStep > 0:
		process += ",x_" + strconv.Itoa(horStep)
	case verStep > 0:
		process += ",y_" + strconv.Itoa(verStep)
	}
	process += ",i_" + strconv.Itoa(index)
	p.process = append(p.process, process)
	return p
}

// Circle 内切圆，半径不能超过原图最小边的一半
func (p *ImageProcess) Circle(r int) *ImageProcess {
	p.process = append(p.process, "circle,r_"+strconv.Itoa(r))
	return p
}

// RoundedCorners 圆角矩形，半径取值[1, 4096]
func (p *ImageProcess) RoundedCorners(r int) *ImageProcess {
	p.process = append(p.process, "rounded-corners,r_"+strconv.Itoa(r))
	return p
}

// Rotate 顺时针旋转角度，取值[0, 360]
func (p *ImageProcess) Rotate(degrees int) *ImageProcess {
	p.process = append(p.process, "rotate,"+strconv.Itoa(degrees))
	return p
}

// Format 格式转换，interlace 只对jpg有效，quality 只对jpg,webp有效
func (p *ImageProcess) Format(format string, interlace, quality int) *ImageProcess {
	format = strings.ToLower(format)
	p.process = append(p.process, "format,"+format)
	if format == "jpg" && interlace == 1 {
		p.process = append(p.process, "interlace,1")
	}
	if format == "webp" || format == "jpg" {
		p.process = append(p.process, "quality,Q_"+strconv.Itoa(quality))
	}
	return p
}

// FormatDefault 渐进显示、质量90
func (p *ImageProcess) FormatDefault(format string) *ImageProcess {
	return p.Format(format, 1, 90)
}

// Get 输出处理参数并清空
func (p *ImageProcess) Get() string {
	processStr := strings.Join(p.process, "/")
	p.process = []string{}
	return processStr
}

// SaveAs 处理后的图片转存到OSS，bucket 为空时保存到当前bucket；之后重置为 image 起始
func (p *ImageProcess) SaveAs(object, bucket string) string {
	processStr := strings.Join(p.process, "/")
	p.process = []string{"image"}
	processStr += "|sys/saveas,o_" + base64.StdEncoding.EncodeToString([]byte(object))
	if bucket != "" {
		processStr += ",b_" + base64.StdEncoding.EncodeToString([]byte(bucket))
	}
	return processStr
}

// Style 使用控制台定义的图片样式，separator 为空时使用 ?x-oss-process= 形式
func Style(style, separator string) string {
	if separator != "" {
		return separator + style
	}
	return "?x-oss-process=" + style
}
