package mapper

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"org-diagnostics-be/internal/constant"
	"org-diagnostics-be/internal/entity"
	"org-diagnostics-be/internal/model"
)

type DiagnosisMapper struct{}

func NewDiagnosisMapper() *DiagnosisMapper {
	return &DiagnosisMapper{}
}

func (m *DiagnosisMapper) ToEntity(s *model.DiagnosisSession) *entity.DiagnosisSession {
	if s == nil {
		return nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	insights := make(map[string]*entity.DimensionInsight)
	slots := map[string]datatypes.JSON{
		constant.StageStrategy:     s.DataStrategy,
		constant.StageStructure:    s.DataStructure,
		constant.StagePerformance:  s.DataPerformance,
		constant.StageCompensation: s.DataCompensation,
		constant.StageTalent:       s.DataTalent,
	}
	for stage, raw := range slots {
		if insight := decodeInsight(raw); insight != nil {
			insights[stage] = insight
		}
	}

	return &entity.DiagnosisSession{
		Id:            s.Id,
		UserId:        s.UserId,
		Status:        s.Status,
		CurrentStage:  s.CurrentStage,
		Insights:      insights,
		TotalScore:    s.TotalScore,
		SummaryReport: s.SummaryReport,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     updatedAt,
		DeletedAt:     deletedAt,
		IsDeleted:     s.DeletedAt.Valid,
	}
}

func (m *DiagnosisMapper) ToModel(s *entity.DiagnosisSession) *model.DiagnosisSession {
	if s == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if s.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	} else if s.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.DiagnosisSession{
		Id:               s.Id,
		UserId:           s.UserId,
		Status:           s.Status,
		CurrentStage:     s.CurrentStage,
		DataStrategy:     encodeInsight(s.Insights[constant.StageStrategy]),
		DataStructure:    encodeInsight(s.Insights[constant.StageStructure]),
		DataPerformance:  encodeInsight(s.Insights[constant.StagePerformance]),
		DataCompensation: encodeInsight(s.Insights[constant.StageCompensation]),
		DataTalent:       encodeInsight(s.Insights[constant.StageTalent]),
		TotalScore:       s.TotalScore,
		SummaryReport:    s.SummaryReport,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        updatedAt,
		DeletedAt:        deletedAt,
	}
}

// decodeInsight returns nil for empty or un-extracted slots ("{}" or null).
func decodeInsight(raw datatypes.JSON) *entity.DimensionInsight {
	if len(raw) == 0 || string(raw) == "{}" || string(raw) == "null" {
		return nil
	}
	var insight entity.DimensionInsight
	if err := json.Unmarshal(raw, &insight); err != nil {
		return nil
	}
	return &insight
}

func encodeInsight(insight *entity.DimensionInsight) datatypes.JSON {
	if insight == nil {
		return datatypes.JSON([]byte("{}"))
	}
	raw, err := json.Marshal(insight)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(raw)
}

// EncodeInsight marshals an insight for a single-slot JSONB update.
func EncodeInsight(insight *entity.DimensionInsight) (datatypes.JSON, error) {
	raw, err := json.Marshal(insight)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
