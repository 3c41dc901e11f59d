package transformer_test

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"vdms/internal/transformer"
	"vdms/pkg/domain"
)

func TestSanitizeOption(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"去掉标题", `{"title":"X","series":[]}`, `{"series":[]}`, false},
		{"标题为对象", `{"title":{"text":"销量"},"xAxis":{"type":"category"}}`, `{"xAxis":{"type":"category"}}`, false},
		{"无标题保持不变", `{"series":[{"type":"bar","data":[1,2]}]}`, `{"series":[{"type":"bar","data":[1,2]}]}`, false},
		{"压缩空白", "{\n  \"title\": \"X\",\n  \"series\": [ ]\n}", `{"series":[]}`, false},
		{"只处理顶层标题", `{"series":[{"title":"keep"}]}`, `{"series":[{"title":"keep"}]}`, false},
		{"重复标题键", `{"title":"a","title":"b","legend":{}}`, `{"legend":{}}`, false},
		{"空字符串", "", "{}", false},
		{"空白字符串", "   ", "{}", false},
		{"非法JSON", `{"title":`, "{}", true},
		{"数组", `[1,2,3]`, "{}", true},
		{"null", `null`, "{}", true},
		{"数值溢出", `{"a":1e400,"title":1}`, "{}", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := transformer.SanitizeOption(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrMalformedChart) {
				t.Errorf("错误应包装 ErrMalformedChart，实际 %v", err)
			}
			assertSameJSON(t, got, tt.want)
		})
	}
}

func TestSanitizeOption_Idempotent(t *testing.T) {
	inputs := []string{
		`{"title":"X","series":[]}`,
		`{"title":"a","title":"b"}`,
		`{"grid":{"left":"3%"},"title":{"text":"t"}}`,
		`not json`,
		``,
	}
	for _, in := range inputs {
		once, _ := transformer.SanitizeOption(in)
		twice, err := transformer.SanitizeOption(once)
		if err != nil {
			t.Errorf("二次清洗不应报错: %v", err)
		}
		if once != twice {
			t.Errorf("清洗不幂等: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestSanitizeOption_RoundTrip(t *testing.T) {
	doc := map[string]any{
		"tooltip": map[string]any{"trigger": "axis"},
		"xAxis":   map[string]any{"type": "category", "data": []any{"一月", "二月"}},
		"series":  []any{map[string]any{"type": "line", "data": []any{1.5, 2.0}}},
	}
	raw, _ := json.Marshal(doc)

	got, err := transformer.SanitizeOption(string(raw))
	if err != nil {
		t.Fatalf("清洗失败: %v", err)
	}

	var back map[string]any
	if err := json.Unmarshal([]byte(got), &back); err != nil {
		t.Fatalf("结果不是合法 JSON: %v", err)
	}
	if !reflect.DeepEqual(back, doc) {
		t.Errorf("round trip 不一致: got %v, want %v", back, doc)
	}
}

func TestDecodeOption(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]any
	}{
		{"正常对象", `{"series":[]}`, map[string]any{"series": []any{}}},
		{"空字符串", "", map[string]any{}},
		{"非法内容", "oops", map[string]any{}},
		{"null", "null", map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := transformer.DecodeOption(tt.in)
			if got == nil {
				t.Fatal("DecodeOption 不应返回 nil")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func assertSameJSON(t *testing.T, got, want string) {
	t.Helper()
	var g, w any
	if err := json.Unmarshal([]byte(got), &g); err != nil {
		t.Fatalf("结果不是合法 JSON: %q", got)
	}
	_ = json.Unmarshal([]byte(want), &w)
	if !reflect.DeepEqual(g, w) {
		t.Errorf("got %s, want %s", got, want)
	}
}
