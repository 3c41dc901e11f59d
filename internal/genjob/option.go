package genjob

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"vdms/pkg/domain"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// 支持的 ECharts 系列类型
const (
	SeriesBar     = "bar"
	SeriesLine    = "line"
	SeriesPie     = "pie"
	SeriesScatter = "scatter"
)

// maxDataRows 单次生成允许的最大数据行数
const maxDataRows = 1000

var seriesAliases = map[string]string{
	"柱状图":     SeriesBar,
	"bar":     SeriesBar,
	"折线图":     SeriesLine,
	"line":    SeriesLine,
	"饼图":      SeriesPie,
	"pie":     SeriesPie,
	"散点图":     SeriesScatter,
	"scatter": SeriesScatter,
}

// SeriesType 将用户填写的图表类型映射为 ECharts 系列类型，无法识别时使用柱状图
func SeriesType(chartType string) string {
	if t, ok := seriesAliases[strings.ToLower(strings.TrimSpace(chartType))]; ok {
		return t
	}
	return SeriesBar
}

// Dataset 解析后的表格数据，第一列为分类，其余列为数值系列
type Dataset struct {
	Categories []string
	Series     []string
	Values     [][]float64 // Values[i][j] 为第 j 个系列在第 i 个分类上的值
}

// ParseCSV 解析 CSV 原始数据
func ParseCSV(data string) (*Dataset, error) {
	r := csv.NewReader(strings.NewReader(strings.TrimSpace(data)))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: 数据为空", domain.ErrInvalidChart)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidChart, err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: 至少需要一列分类和一列数值", domain.ErrInvalidChart)
	}

	ds := &Dataset{Series: header[1:]}
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidChart, err)
		}
		if len(ds.Categories) == maxDataRows {
			return nil, fmt.Errorf("%w: 数据超过 %d 行", domain.ErrInvalidChart, maxDataRows)
		}
		values := make([]float64, len(ds.Series))
		for j := range ds.Series {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[j+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: 第 %d 行第 %d 列不是数字", domain.ErrInvalidChart, line, j+2)
			}
			values[j] = v
		}
		ds.Categories = append(ds.Categories, row[0])
		ds.Values = append(ds.Values, values)
	}
	if len(ds.Categories) == 0 {
		return nil, fmt.Errorf("%w: 缺少数据行", domain.ErrInvalidChart)
	}
	return ds, nil
}

// BuildOption 根据数据集生成 ECharts 配置
func BuildOption(title, chartType string, ds *Dataset) (string, error) {
	seriesType := SeriesType(chartType)
	opt := "{}"
	var err error

	set := func(path string, value any) {
		if err == nil {
			opt, err = sjson.Set(opt, path, value)
		}
	}

	if title != "" {
		set("title.text", title)
	}

	if seriesType == SeriesPie {
		// 饼图只展示第一列数值
		data := make([]map[string]any, len(ds.Categories))
		for i, c := range ds.Categories {
			data[i] = map[string]any{"name": c, "value": ds.Values[i][0]}
		}
		set("tooltip.trigger", "item")
		set("legend.orient", "vertical")
		set("legend.left", "left")
		set("series", []map[string]any{{
			"name":   ds.Series[0],
			"type":   SeriesPie,
			"radius": "50%",
			"data":   data,
		}})
	} else {
		series := make([]map[string]any, len(ds.Series))
		for j, name := range ds.Series {
			col := make([]float64, len(ds.Categories))
			for i := range ds.Categories {
				col[i] = ds.Values[i][j]
			}
			series[j] = map[string]any{"name": name, "type": seriesType, "data": col}
		}
		set("tooltip.trigger", "axis")
		set("legend.data", ds.Series)
		set("xAxis.type", "category")
		set("xAxis.data", ds.Categories)
		set("yAxis.type", "value")
		set("series", series)
	}

	if err != nil {
		return "", err
	}
	if !gjson.Valid(opt) {
		return "", fmt.Errorf("%w: 生成的配置不是合法 JSON", domain.ErrMalformedChart)
	}
	return opt, nil
}

// Summarize 生成数据结论：每个系列的最大值与最小值
func Summarize(ds *Dataset) string {
	parts := make([]string, 0, len(ds.Series))
	for j, name := range ds.Series {
		maxIdx, minIdx := 0, 0
		for i := range ds.Categories {
			if ds.Values[i][j] > ds.Values[maxIdx][j] {
				maxIdx = i
			}
			if ds.Values[i][j] < ds.Values[minIdx][j] {
				minIdx = i
			}
		}
		parts = append(parts, fmt.Sprintf("%s 最高为 %s（%s），最低为 %s（%s）",
			name,
			formatNumber(ds.Values[maxIdx][j]), ds.Categories[maxIdx],
			formatNumber(ds.Values[minIdx][j]), ds.Categories[minIdx],
		))
	}
	return fmt.Sprintf("共 %d 条数据；%s", len(ds.Categories), strings.Join(parts, "；"))
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
