package transformer

import (
	"encoding/json"
	"fmt"
	"strings"

	"vdms/pkg/domain"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// EmptyOption 空的图表渲染配置
const EmptyOption = "{}"

// titleKey 列表页自带标题，配置中的标题需要去掉
const titleKey = "title"

// SanitizeOption 去掉图表配置中的 title 并重新序列化
// 空配置返回 {}；非法 JSON 或非对象配置同样返回 {}，并附带 ErrMalformedChart 以便调用方记录
func SanitizeOption(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return EmptyOption, nil
	}
	if !gjson.Valid(raw) {
		return EmptyOption, fmt.Errorf("%w: invalid json", domain.ErrMalformedChart)
	}
	if !gjson.Parse(raw).IsObject() {
		return EmptyOption, fmt.Errorf("%w: not an object", domain.ErrMalformedChart)
	}

	out := raw
	// 重复键时逐个删除，保证结果幂等
	for gjson.Get(out, titleKey).Exists() {
		next, err := sjson.Delete(out, titleKey)
		if err != nil {
			return EmptyOption, fmt.Errorf("%w: %v", domain.ErrMalformedChart, err)
		}
		if next == out {
			break
		}
		out = next
	}

	out = string(pretty.Ugly([]byte(out)))
	// gjson 不校验数值范围，需确认渲染端能够解析
	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		return EmptyOption, fmt.Errorf("%w: %v", domain.ErrMalformedChart, err)
	}
	return out, nil
}

// DecodeOption 将已清洗的配置解析为对象，交给图表渲染组件
func DecodeOption(sanitized string) map[string]any {
	option := make(map[string]any)
	if sanitized == "" {
		return option
	}
	if err := json.Unmarshal([]byte(sanitized), &option); err != nil || option == nil {
		return make(map[string]any)
	}
	return option
}
