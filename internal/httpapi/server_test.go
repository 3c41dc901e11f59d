package httpapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"vdms/internal/client"
	"vdms/internal/genjob"
	"vdms/internal/httpapi"
	"vdms/internal/mychart"
	"vdms/internal/pool"
	"vdms/internal/storage/db"
	"vdms/internal/storage/model"
	"vdms/internal/storage/repo"
	"vdms/pkg/api"
	"vdms/pkg/domain"
)

type testEnv struct {
	srv    *httptest.Server
	charts *repo.ChartRepo
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	gdb, err := db.New(db.Options{Name: ":memory:", Prefix: "test_"})
	if err != nil {
		t.Fatalf("创建内存数据库失败: %v", err)
	}
	if err := db.Migrate(gdb, &model.Chart{}); err != nil {
		t.Fatalf("迁移数据库失败: %v", err)
	}
	charts := repo.NewChartRepo(gdb, 20)

	p := pool.New(pool.Options{Workers: 1, QueueCap: 8})
	p.Start(context.Background())
	t.Cleanup(p.Stop)

	srv := httptest.NewServer(httpapi.NewHandler(httpapi.Deps{
		Charts:    charts,
		Generator: genjob.NewRunner(charts, p, genjob.Options{}),
	}))
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, charts: charts}
}

func (e *testEnv) seed(t *testing.T, userID int64, name, status, genChart string) int64 {
	t.Helper()
	c := &model.Chart{UserID: userID, Name: name, Goal: "g-" + name, ChartType: "柱状图", Status: status, GenChart: genChart}
	if err := e.charts.Create(context.Background(), c); err != nil {
		t.Fatalf("写入图表失败: %v", err)
	}
	return c.ID
}

func do(t *testing.T, method, url, userID, body string) (int, api.Response[json.RawMessage]) {
	t.Helper()
	req, _ := http.NewRequest(method, url, strings.NewReader(body))
	if userID != "" {
		req.Header.Set(httpapi.HeaderUserID, userID)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	defer resp.Body.Close()
	var out api.Response[json.RawMessage]
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	env := setup(t)
	status, res := do(t, http.MethodGet, env.srv.URL+"/health", "", "")
	if status != http.StatusOK || !res.Success {
		t.Errorf("health = %d %+v", status, res)
	}
}

func TestListMyCharts_Errors(t *testing.T) {
	env := setup(t)
	url := env.srv.URL + client.PathListMyCharts

	tests := []struct {
		name       string
		userID     string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"缺少用户", "", `{"current":1,"pageSize":4}`, http.StatusUnauthorized, api.CodeUnauthorized},
		{"非法请求体", "1", `{oops`, http.StatusBadRequest, api.CodeInvalidParams},
		{"页码非法", "1", `{"current":0,"pageSize":4}`, http.StatusBadRequest, api.CodeInvalidParams},
		{"超出每页上限", "1", `{"current":1,"pageSize":50}`, http.StatusBadRequest, api.CodeInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, res := do(t, http.MethodPost, url, tt.userID, tt.body)
			if status != tt.wantStatus || res.Success || res.Code != tt.wantCode {
				t.Errorf("got %d %+v, want %d %s", status, res, tt.wantStatus, tt.wantCode)
			}
		})
	}
}

func TestGetChart(t *testing.T) {
	env := setup(t)
	id := env.seed(t, 1, "mine", "succeed", `{"series":[]}`)
	other := env.seed(t, 2, "theirs", "wait", "")

	status, res := do(t, http.MethodGet, env.srv.URL+client.PathGetChart+strconv.FormatInt(id, 10), "1", "")
	if status != http.StatusOK || !res.Success {
		t.Fatalf("get = %d %+v", status, res)
	}
	var rec domain.ChartRecord
	if err := json.Unmarshal(res.Data, &rec); err != nil {
		t.Fatalf("解析图表失败: %v", err)
	}
	if rec.Name != "mine" || rec.Status.Kind() != domain.StatusSucceeded {
		t.Errorf("rec = %+v", rec)
	}

	if status, res := do(t, http.MethodGet, env.srv.URL+client.PathGetChart+strconv.FormatInt(other, 10), "1", ""); status != http.StatusNotFound || res.Code != api.CodeNotFound {
		t.Errorf("其他用户的图表应不可见: %d %+v", status, res)
	}
	if status, _ := do(t, http.MethodGet, env.srv.URL+"/api/chart/999", "1", ""); status != http.StatusNotFound {
		t.Errorf("不存在的图表 = %d", status)
	}
	if status, _ := do(t, http.MethodGet, env.srv.URL+"/api/chart/abc", "1", ""); status != http.StatusBadRequest {
		t.Errorf("非法 ID = %d", status)
	}
	if status, res := do(t, http.MethodGet, env.srv.URL+client.PathGetChart+strconv.FormatInt(id, 10), "", ""); status != http.StatusUnauthorized || res.Code != api.CodeUnauthorized {
		t.Errorf("缺少用户 = %d %+v", status, res)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := setup(t)
	do(t, http.MethodGet, env.srv.URL+"/health", "", "")

	resp, err := http.Get(env.srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	defer resp.Body.Close()
	buf := new(strings.Builder)
	_, _ = io.Copy(buf, resp.Body)
	if !strings.Contains(buf.String(), `vdms_http_requests_total{code="200",route="/health"} 1`) {
		t.Errorf("缺少请求指标:\n%s", buf.String())
	}
}

// noticeRecorder 记录控制器发出的提示
type noticeRecorder struct {
	notices []mychart.Notice
}

func (n *noticeRecorder) Notify(notice mychart.Notice) {
	n.notices = append(n.notices, notice)
}

// 端到端：客户端 + 控制器 + 展示层对接真实后端
func TestEndToEnd_ControllerAgainstServer(t *testing.T) {
	env := setup(t)
	env.seed(t, 1, "sales-a", "succeed", `{"title":{"text":"T"},"xAxis":{"type":"category"}}`)
	env.seed(t, 1, "sales-b", "failed", "")
	env.seed(t, 1, "users", "running", "")
	env.seed(t, 2, "sales-other", "wait", "")

	c := client.New(client.Options{BaseURL: env.srv.URL, UserID: 1, Timeout: 2 * time.Second})
	notices := &noticeRecorder{}
	ctrl := mychart.NewController(c, notices, mychart.Options{})

	state := ctrl.SetFilter(context.Background(), "sales")
	if len(notices.notices) != 0 {
		t.Fatalf("不应出现提示: %+v", notices.notices)
	}
	if state.Total != 2 || len(state.Records) != 2 {
		t.Fatalf("state = %+v", state)
	}

	view := mychart.NewPresenter(mychart.StaticIdentity("avatar.png")).PresentState(state)
	byName := map[string]mychart.ItemView{}
	for _, item := range view.Items {
		byName[item.Name] = item
	}
	if got := byName["sales-a"]; got.Kind != mychart.ViewSucceeded || got.Option["title"] != nil {
		t.Errorf("成功图表展示不符: %+v", got)
	}
	if got := byName["sales-b"]; got.Kind != mychart.ViewFailed {
		t.Errorf("失败图表展示不符: %+v", got)
	}

	// 非法页大小由后端拒绝，控制器提示并保留原数据
	state = ctrl.SetPage(context.Background(), 1, 50)
	if len(notices.notices) != 1 || notices.notices[0].Message != mychart.MsgFetchFailed {
		t.Errorf("notices = %+v", notices.notices)
	}
	if len(state.Records) != 2 {
		t.Errorf("失败时应保留上一次数据，实际 %d 条", len(state.Records))
	}
}

func TestGenChartAsync_EndToEnd(t *testing.T) {
	env := setup(t)
	c := client.New(client.Options{BaseURL: env.srv.URL, UserID: 3})

	res, err := c.GenChartAsync(context.Background(), domain.GenChartRequest{
		Name:      "趋势",
		Goal:      "分析趋势",
		ChartType: "折线图",
		CSVData:   "日期,数量\n1号,1\n2号,3",
	})
	if err != nil || !res.Success || res.Data == nil {
		t.Fatalf("提交失败: %v %+v", err, res)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got, err := c.GetChart(context.Background(), res.Data.ChartID)
		if err != nil {
			t.Fatalf("查询失败: %v", err)
		}
		if got.Data != nil && got.Data.Status.Kind() == domain.StatusSucceeded {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("生成任务未在期限内完成")
}

func TestGenChartAsync_Invalid(t *testing.T) {
	env := setup(t)
	status, res := do(t, http.MethodPost, env.srv.URL+client.PathGenChartAsync, "1", `{"goal":""}`)
	if status != http.StatusBadRequest || res.Code != api.CodeInvalidParams {
		t.Errorf("got %d %+v", status, res)
	}
}
