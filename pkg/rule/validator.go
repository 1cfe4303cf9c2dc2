// Package rule 封装 go-playground/validator，统一使用 `rule` 标签并注册媒体服务的自定义规则.
package rule

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	inst *validator.Validate
	once sync.Once
)

// initValidator 尝试复用 gin 的 validator 引擎，不可用时新建.
func initValidator() {
	if engine := binding.Validator.Engine(); engine != nil {
		if v, ok := engine.(*validator.Validate); ok {
			inst = v
		}
	}

	if inst == nil {
		inst = validator.New()
	}

	inst.SetTagName("rule")
	inst.RegisterTagNameFunc(jsonTagName)

	_ = inst.RegisterValidation("safe_name", safeName)
	_ = inst.RegisterValidation("no_ctrl", noControl)
}

// jsonTagName 错误信息中使用 json/form 名称.
func jsonTagName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form", "mapstructure"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}

		if name != "" {
			return name
		}
	}

	return fld.Name
}

// safeName 不含路径分隔符、".." 与控制字符，可以安全地出现在文件名或标题中.
func safeName(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	if strings.ContainsAny(s, `/\`) || strings.Contains(s, "..") {
		return false
	}

	return !strings.ContainsFunc(s, unicode.IsControl)
}

func noControl(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)

	return ok && !strings.ContainsFunc(s, unicode.IsControl)
}

func lazyInit() {
	once.Do(initValidator)
}

// Engine 返回全局 *validator.Validate.
func Engine() *validator.Validate {
	lazyInit()

	return inst
}

// RegisterValidation 注册自定义规则.
func RegisterValidation(tag string, fn validator.Func, opts ...bool) error {
	lazyInit()

	return inst.RegisterValidation(tag, fn, opts...)
}

// ValidationErrors 字段名到可读错误信息的映射.
type ValidationErrors map[string]string

// String 按字段名排序拼接，用作错误响应.
func (v ValidationErrors) String() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}

	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}

	return strings.Join(parts, "; ")
}

// Errors 把 validator 的错误展开为 ValidationErrors，非校验错误返回 nil.
func Errors(err error) ValidationErrors {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return nil
	}

	out := make(ValidationErrors, len(ves))
	for _, fe := range ves {
		msg := fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}

		out[fe.Field()] = "failed on rule " + msg
	}

	return out
}

// ValidateStruct 对结构体执行完整校验.
func ValidateStruct(s any) error {
	lazyInit()

	return inst.Struct(s)
}

// ValidateVar 按规则校验单个变量，例如 ValidateVar(title, "required,max=50,safe_name").
func ValidateVar(field any, tag string) error {
	lazyInit()

	return inst.Var(field, tag)
}

// RegisterAlias 注册规则别名.
func RegisterAlias(alias, rules string) {
	lazyInit()

	inst.RegisterAlias(alias, rules)
}
