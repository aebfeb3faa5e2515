package analytics

import (
	"context"
	"fmt"
	"time"

	"trexo-analytics/internal/domain"
	"trexo-analytics/internal/repository"

	"go.uber.org/zap"
)

// 管线默认回溯窗口（月）
const (
	DefaultProgressLookbackMonths    = 12
	DefaultReliabilityLookbackMonths = 6
	DefaultFacilityLookbackMonths    = 12
	DefaultUsageTrendLookbackMonths  = 12
	DefaultDashboardLookbackMonths   = 12
)

// Params 管线调用参数。
// AsOf 是显式注入的参考时钟：所有回溯窗口都相对它计算，
// 引擎内部绝不读取系统时钟，同一快照同一参数的输出完全可复现。
type Params struct {
	AsOf           time.Time
	LookbackMonths int // 0 表示使用该管线的默认窗口
}

func (p Params) lookback(defaultMonths int) int {
	if p.LookbackMonths > 0 {
		return p.LookbackMonths
	}
	return defaultMonths
}

// Engine 分析引擎：六个关系上的无状态批量求值器。
// 每次调用都是 (快照, 参考时钟) 的纯函数，不保留跨调用状态。
type Engine struct {
	store  repository.Warehouse
	logger *zap.Logger
}

// NewEngine 创建分析引擎
func NewEngine(store repository.Warehouse, logger *zap.Logger) *Engine {
	return &Engine{
		store:  store,
		logger: logger,
	}
}

// trailingRange 计算 [asOf - months, asOf] 闭区间
func trailingRange(asOf time.Time, months int) repository.DateRange {
	return repository.Between(asOf.AddDate(0, -months, 0), asOf)
}

// checkCancelled 在管线阶段之间轮询取消信号；
// 取消的运行不产生任何部分输出（整个管线 all-or-nothing）
func checkCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// requireRelation 必需关系为空时返回致命错误（与"零匹配行"区分）
func requireRelation(name string, count int) error {
	if count == 0 {
		return fmt.Errorf("%s: %w", name, repository.ErrEmptySnapshot)
	}
	return nil
}

// 维度索引构建

func patientIndex(patients []domain.Patient) map[string]domain.Patient {
	idx := make(map[string]domain.Patient, len(patients))
	for _, p := range patients {
		idx[p.PatientID] = p
	}
	return idx
}

func deviceIndex(devices []domain.Device) map[string]domain.Device {
	idx := make(map[string]domain.Device, len(devices))
	for _, d := range devices {
		idx[d.DeviceID] = d
	}
	return idx
}

func facilityIndex(facilities []domain.HealthcareFacility) map[string]domain.HealthcareFacility {
	idx := make(map[string]domain.HealthcareFacility, len(facilities))
	for _, f := range facilities {
		idx[f.FacilityID] = f
	}
	return idx
}

// validOutcomeScore 结局分数与 GMFCS 是否在有效范围内
func validOutcomeScore(f *domain.PatientOutcomeFact) bool {
	for _, s := range []float64{f.WalkingIndependenceScore, f.MobilityScore, f.QualityOfLifeScore} {
		if s < 0 || s > 100 {
			return false
		}
	}
	return f.GMFCSLevel >= 1 && f.GMFCSLevel <= 5
}
