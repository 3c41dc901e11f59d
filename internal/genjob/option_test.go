package genjob_test

import (
	"errors"
	"testing"

	"vdms/internal/genjob"
	"vdms/pkg/domain"

	"github.com/tidwall/gjson"
)

func TestSeriesType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"折线图", genjob.SeriesLine},
		{"Line", genjob.SeriesLine},
		{"柱状图", genjob.SeriesBar},
		{" pie ", genjob.SeriesPie},
		{"饼图", genjob.SeriesPie},
		{"散点图", genjob.SeriesScatter},
		{"雷达图", genjob.SeriesBar},
		{"", genjob.SeriesBar},
	}
	for _, tt := range tests {
		if got := genjob.SeriesType(tt.in); got != tt.want {
			t.Errorf("SeriesType(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseCSV(t *testing.T) {
	ds, err := genjob.ParseCSV("日期,用户数,订单数\n1号,10,3\n2号, 20 ,5\n3号,30.5,4\n")
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if len(ds.Categories) != 3 || ds.Categories[1] != "2号" {
		t.Errorf("categories = %v", ds.Categories)
	}
	if len(ds.Series) != 2 || ds.Series[1] != "订单数" {
		t.Errorf("series = %v", ds.Series)
	}
	if ds.Values[2][0] != 30.5 || ds.Values[1][0] != 20 {
		t.Errorf("values = %v", ds.Values)
	}
}

func TestParseCSV_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"空数据", "  "},
		{"只有一列", "日期\n1号"},
		{"缺少数据行", "日期,用户数"},
		{"非数字", "日期,用户数\n1号,abc"},
		{"列数不一致", "日期,用户数\n1号,1,2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := genjob.ParseCSV(tt.data); !errors.Is(err, domain.ErrInvalidChart) {
				t.Errorf("预期 ErrInvalidChart，实际 %v", err)
			}
		})
	}
}

func TestBuildOption_Axis(t *testing.T) {
	ds, _ := genjob.ParseCSV("日期,用户数,订单数\n1号,10,3\n2号,20,5")
	opt, err := genjob.BuildOption("增长", "折线图", ds)
	if err != nil {
		t.Fatalf("生成失败: %v", err)
	}

	checks := map[string]string{
		"title.text":      "增长",
		"xAxis.type":      "category",
		"xAxis.data.1":    "2号",
		"series.#":        "2",
		"series.0.type":   "line",
		"series.1.name":   "订单数",
		"series.0.data.1": "20",
		"legend.data.0":   "用户数",
	}
	for path, want := range checks {
		if got := gjson.Get(opt, path).String(); got != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
}

func TestBuildOption_Pie(t *testing.T) {
	ds, _ := genjob.ParseCSV("来源,访问量\n搜索,60\n直接,40")
	opt, err := genjob.BuildOption("", "饼图", ds)
	if err != nil {
		t.Fatalf("生成失败: %v", err)
	}
	if gjson.Get(opt, "title").Exists() {
		t.Error("未提供名称时不应生成 title")
	}
	if gjson.Get(opt, "xAxis").Exists() {
		t.Error("饼图不应包含坐标轴")
	}
	if got := gjson.Get(opt, "series.0.data.0.name").String(); got != "搜索" {
		t.Errorf("第一个扇区 = %s", got)
	}
	if got := gjson.Get(opt, "series.0.data.1.value").Float(); got != 40 {
		t.Errorf("第二个扇区值 = %v", got)
	}
}

func TestGenerate(t *testing.T) {
	genChart, genResult, err := genjob.Generate("n", "bar", "月份,销量\n一月,5\n二月,12.5\n三月,1")
	if err != nil {
		t.Fatalf("生成失败: %v", err)
	}
	if !gjson.Valid(genChart) {
		t.Errorf("配置不是合法 JSON: %s", genChart)
	}
	want := "共 3 条数据；销量 最高为 12.5（二月），最低为 1（三月）"
	if genResult != want {
		t.Errorf("结论 = %s, want %s", genResult, want)
	}
}
