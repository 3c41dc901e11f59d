package repo

import (
	"context"
	"fmt"
	"strings"

	"vdms/internal/storage/model"
	"vdms/pkg/domain"

	"gorm.io/gorm"
)

// 排序字段白名单：前端字段名 -> 列名
var chartSortColumns = map[string]string{
	"createTime": "created_at",
	"updateTime": "updated_at",
	"name":       "name",
	"status":     "status",
	"id":         "id",
}

// defaultMaxPageSize 单页最大数量，防止一次拉取过多数据
const defaultMaxPageSize = 20

// likeEscaper 转义 LIKE 通配符，名称按字面匹配
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ChartFilter 图表名称模糊匹配
type ChartFilter struct {
	Name string
}

// Apply 实现 Filter 接口
func (f ChartFilter) Apply(db *gorm.DB) *gorm.DB {
	if f.Name == "" {
		return db
	}
	return db.Where(`name LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(f.Name)+"%")
}

// ownedBy 限定为指定用户的图表
func ownedBy(userID int64) ScopeFunc {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}

// ChartRepo 图表仓库
type ChartRepo struct {
	BaseRepository[model.Chart]
	maxPageSize int
}

// NewChartRepo 创建图表仓库实例，maxPageSize <= 0 时使用默认上限
func NewChartRepo(db *gorm.DB, maxPageSize int) *ChartRepo {
	if maxPageSize <= 0 {
		maxPageSize = defaultMaxPageSize
	}
	return &ChartRepo{
		BaseRepository: *NewBaseRepository[model.Chart](db),
		maxPageSize:    maxPageSize,
	}
}

// Get 根据 ID 获取图表
func (r *ChartRepo) Get(ctx context.Context, id int64) (*model.Chart, error) {
	chart, err := r.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if chart == nil {
		return nil, domain.ErrChartNotFound
	}
	return chart, nil
}

// GetOwned 获取指定用户的图表，其他用户的图表视为不存在
func (r *ChartRepo) GetOwned(ctx context.Context, userID, id int64) (*model.Chart, error) {
	chart, err := r.FindOne(ctx, id, WithScopes(ownedBy(userID)))
	if err != nil {
		return nil, err
	}
	if chart == nil {
		return nil, domain.ErrChartNotFound
	}
	return chart, nil
}

// Page 分页查询指定用户的图表，返回当前页记录与过滤后的总数
func (r *ChartRepo) Page(ctx context.Context, userID int64, params domain.QueryParameters) ([]model.Chart, int64, error) {
	if err := params.Validate(); err != nil {
		return nil, 0, err
	}
	if params.PageSize > r.maxPageSize {
		return nil, 0, fmt.Errorf("%w: pageSize exceeds %d", domain.ErrInvalidQuery, r.maxPageSize)
	}

	filter := ChartFilter{Name: params.Name}
	owner := WithScopes(ownedBy(userID))

	total, err := r.Count(ctx, filter, owner)
	if err != nil {
		return nil, 0, err
	}

	column, ok := chartSortColumns[params.SortField]
	if !ok {
		column = "created_at"
	}
	sort := "DESC"
	if params.SortOrder == domain.SortAsc {
		sort = "ASC"
	}

	charts, err := r.FindAll(ctx, filter,
		&Pagination{Page: params.Current, Limit: params.PageSize},
		Orders{{Field: column, Sort: sort}, {Field: "id", Sort: sort}},
		owner,
	)
	if err != nil {
		return nil, 0, err
	}
	return charts, total, nil
}

// MarkRunning 将等待中的任务置为运行中，返回是否成功抢占
func (r *ChartRepo) MarkRunning(ctx context.Context, id int64) (bool, error) {
	result := r.Db.WithContext(ctx).Model(&model.Chart{}).
		Where("id = ? AND status = ?", id, domain.Wait.String()).
		Updates(map[string]any{"status": domain.Running.String()})
	return result.RowsAffected > 0, result.Error
}

// MarkSucceeded 保存生成结果
func (r *ChartRepo) MarkSucceeded(ctx context.Context, id int64, genChart, genResult string) error {
	return r.finish(ctx, id, map[string]any{
		"status":       domain.Succeeded.String(),
		"gen_chart":    genChart,
		"gen_result":   genResult,
		"exec_message": nil,
	})
}

// MarkFailed 记录失败原因
func (r *ChartRepo) MarkFailed(ctx context.Context, id int64, execMessage string) error {
	return r.finish(ctx, id, map[string]any{
		"status":       domain.Failed.String(),
		"exec_message": execMessage,
	})
}

// finish 更新终态字段
func (r *ChartRepo) finish(ctx context.Context, id int64, fields map[string]any) error {
	rows, err := r.Updates(ctx, id, fields)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrChartNotFound
	}
	return nil
}
