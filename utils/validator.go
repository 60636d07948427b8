package utils

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// maxObjectKeyLen OSS对象名的最大字节数
const maxObjectKeyLen = 1023

var (
	validate     *validator.Validate
	translator   ut.Translator
	validateOnce sync.Once
)

// 覆盖默认翻译的中文错误信息
var customErrorMessages = map[string]string{
	"required":      "不能为空",
	"required_with": "在设置%s时不能为空",
	"oneof":         "必须是[%s]中的一个",
	"min":           "必须至少为%s",
	"max":           "不能超过%s",
	"gte":           "必须大于或等于%s",
	"lte":           "必须小于或等于%s",
	"hostname":      "必须是有效的主机名",
	"objectkey":     "必须是合法的对象名（UTF-8，不超过1023字节，不含控制字符）",
}

// GetValidator 获取全局验证器实例
func GetValidator() (*validator.Validate, ut.Translator) {
	validateOnce.Do(func() {
		validate, translator = NewValidator()
	})
	return validate, translator
}

// Validate 验证结构体并返回中文错误信息，多个错误以分号连接
func Validate(data interface{}) (string, error) {
	v, trans := GetValidator()
	err := v.Struct(data)
	if err == nil {
		return "", nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err.Error(), err
	}
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, e.Translate(trans))
	}
	return strings.Join(messages, "; "), err
}

// NewValidator 创建一个支持中文错误信息的验证器
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()

	// 字段名依次取 comment、json、yaml 标签，配置结构体只有yaml标签
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"comment", "json", "yaml"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return fld.Name
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	_ = validate.RegisterValidation("objectkey", validObjectKey)

	zhTrans := zh.New()
	uni := ut.New(zhTrans, zhTrans)
	trans, _ := uni.GetTranslator("zh")
	_ = zh_translations.RegisterDefaultTranslations(validate, trans)

	for tag, msg := range customErrorMessages {
		registerCustomTranslation(validate, trans, tag, msg)
	}
	return validate, trans
}

// validObjectKey 空串交给 required/omitempty 处理
func validObjectKey(fl validator.FieldLevel) bool {
	key := fl.Field().String()
	if len(key) > maxObjectKeyLen || !utf8.ValidString(key) {
		return false
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

func registerCustomTranslation(validate *validator.Validate, trans ut.Translator, tag string, message string) {
	_ = validate.RegisterTranslation(tag, trans, func(ut ut.Translator) error {
		return ut.Add(tag, "{0}"+strings.Replace(message, "%s", "{1}", 1), true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, err := ut.T(fe.Tag(), fe.Field(), fe.Param())
		if err != nil {
			return fe.Error()
		}
		return t
	})
}
