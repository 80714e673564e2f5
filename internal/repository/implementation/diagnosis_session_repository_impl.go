package implementation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"org-diagnostics-be/internal/constant"
	"org-diagnostics-be/internal/entity"
	"org-diagnostics-be/internal/mapper"
	"org-diagnostics-be/internal/model"
	"org-diagnostics-be/internal/repository/contract"
	"org-diagnostics-be/internal/repository/specification"
)

// insightColumns is the only place a stage name becomes a column name. A
// fixed table instead of string formatting, so a typo cannot silently create
// a ghost column reference.
var insightColumns = map[string]string{
	constant.StageStrategy:     "data_strategy",
	constant.StageStructure:    "data_structure",
	constant.StagePerformance:  "data_performance",
	constant.StageCompensation: "data_compensation",
	constant.StageTalent:       "data_talent",
}

type DiagnosisSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DiagnosisMapper
}

func NewDiagnosisSessionRepository(db *gorm.DB) contract.DiagnosisSessionRepository {
	return &DiagnosisSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewDiagnosisMapper(),
	}
}

func (r *DiagnosisSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DiagnosisSessionRepositoryImpl) Create(ctx context.Context, session *entity.DiagnosisSession) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ToEntity(m)
	return nil
}

func (r *DiagnosisSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DiagnosisSession, error) {
	var m model.DiagnosisSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *DiagnosisSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DiagnosisSession, error) {
	var models []*model.DiagnosisSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.DiagnosisSession, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *DiagnosisSessionRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.DiagnosisSession{}, id).Error
}

func (r *DiagnosisSessionRepositoryImpl) UpdateStage(ctx context.Context, id uuid.UUID, stage string) error {
	if !constant.IsValidStage(stage) {
		return fmt.Errorf("unknown stage %q", stage)
	}
	return r.db.WithContext(ctx).
		Model(&model.DiagnosisSession{}).
		Where("id = ?", id).
		Update("current_stage", stage).Error
}

func (r *DiagnosisSessionRepositoryImpl) UpdateInsight(ctx context.Context, id uuid.UUID, stage string, insight *entity.DimensionInsight) error {
	column, ok := insightColumns[stage]
	if !ok {
		return fmt.Errorf("unknown stage %q", stage)
	}

	raw, err := mapper.EncodeInsight(insight)
	if err != nil {
		return err
	}

	// One UPDATE touching one column: the slot is replaced as a whole.
	return r.db.WithContext(ctx).
		Model(&model.DiagnosisSession{}).
		Where("id = ?", id).
		Update(column, raw).Error
}

func (r *DiagnosisSessionRepositoryImpl) Complete(ctx context.Context, id uuid.UUID, totalScore int, summaryReport string) error {
	return r.db.WithContext(ctx).
		Model(&model.DiagnosisSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         constant.SessionStatusCompleted,
			"total_score":    totalScore,
			"summary_report": summaryReport,
		}).Error
}
