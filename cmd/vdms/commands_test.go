package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vdms/internal/mychart"
	"vdms/pkg/domain"
)

func TestColorize(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	if got := colorize(colorRed, "x"); got != "x" {
		t.Errorf("noColor=true 时不应包含颜色码: %q", got)
	}
	noColor = false
	if got := colorize(colorRed, "x"); !strings.Contains(got, "\033[") {
		t.Errorf("noColor=false 时应包含颜色码: %q", got)
	}
}

func strPtr(s string) *string { return &s }

func TestPrintPage(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()
	noColor = true

	p := mychart.NewPresenter(nil)
	view := p.PresentState(mychart.State{
		Params: domain.QueryParameters{Current: 1, PageSize: 4},
		Total:  3,
		Records: []domain.ChartRecord{
			{ID: 1, Name: "销量", ChartType: "柱状图", Goal: "看趋势", Status: domain.Succeeded, GenChart: `{"series":[]}`},
			{ID: 2, Name: "用户", Status: domain.Wait},
			{ID: 3, Name: "订单", Status: domain.Failed, ExecMessage: strPtr("数据为空")},
		},
	})

	var buf bytes.Buffer
	if err := printPage(&buf, view, &textRenderer{w: &buf}); err != nil {
		t.Fatalf("输出失败: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"共 3 个图表",
		"类型: 图表类型：柱状图",
		"目标: 分析目标：看趋势",
		`"series": []`,
		"状态: 待生成：当前图表生成队列繁忙，请耐心等候",
		"状态: 图表生成失败：数据为空",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("输出缺少 %q:\n%s", want, out)
		}
	}
}

func TestPrintPage_Empty(t *testing.T) {
	noColor = true
	var buf bytes.Buffer
	_ = printPage(&buf, mychart.PageView{}, nil)
	if !strings.Contains(buf.String(), "没有找到图表") {
		t.Errorf("output = %q", buf.String())
	}
}

func writeConfig(t *testing.T, backendURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vdms.yaml")
	content := "log:\n  level: disabled\nbackend:\n  baseUrl: " + backendURL + "\n  userId: 5\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	return path
}

func TestChartsCmd(t *testing.T) {
	var gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = r.Header.Get("X-User-Id")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"records":[{"id":9,"name":"周报","goal":"g","status":"running"}],"total":1}}`))
	}))
	defer srv.Close()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"charts", "--no-color", "--config", writeConfig(t, srv.URL), "--name", "周"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("执行失败: %v", err)
	}
	if gotUser != "5" {
		t.Errorf("user header = %q", gotUser)
	}
	if !strings.Contains(out.String(), "状态: 图表生成中") {
		t.Errorf("output = %s", out.String())
	}
}

func TestChartsCmd_BackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"charts", "--no-color", "--config", writeConfig(t, srv.URL)})

	if err := cmd.Execute(); err == nil {
		t.Fatal("后端失败时命令应返回错误")
	}
	if !strings.Contains(out.String(), "获取我的图表失败,server returned 502") {
		t.Errorf("output = %s", out.String())
	}
}
