package rdb

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kompox/knative-charms/domain"
	"github.com/kompox/knative-charms/domain/model"
)

type UnitStateRepository struct{ db *gorm.DB }

func NewUnitStateRepository(db *gorm.DB) *UnitStateRepository { return &UnitStateRepository{db: db} }

func unitStateToRecord(s *model.UnitState) *UnitStateRecord {
	return &UnitStateRecord{
		UnitName:   s.UnitName,
		Charm:      string(s.Charm),
		Namespace:  s.Namespace,
		Started:    s.Started,
		ConfigHash: s.ConfigHash,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

func unitStateToModel(r *UnitStateRecord) *model.UnitState {
	return &model.UnitState{
		UnitName:   r.UnitName,
		Charm:      model.CharmName(r.Charm),
		Namespace:  r.Namespace,
		Started:    r.Started,
		ConfigHash: r.ConfigHash,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func (r *UnitStateRepository) Get(ctx context.Context, unitName string) (*model.UnitState, error) {
	var rec UnitStateRecord
	if err := r.db.WithContext(ctx).First(&rec, "unit_name = ?", unitName).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrUnitStateNotFound
		}
		return nil, err
	}
	return unitStateToModel(&rec), nil
}

// Save inserts the record or replaces every column of the existing one,
// including zero values such as Started=false.
func (r *UnitStateRepository) Save(ctx context.Context, s *model.UnitState) error {
	rec := unitStateToRecord(s)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing UnitStateRecord
		err := tx.First(&existing, "unit_name = ?", s.UnitName).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			rec.ID = "unit-" + uuid.NewString()
			if err := tx.Create(rec).Error; err != nil {
				return err
			}
			s.CreatedAt, s.UpdatedAt = rec.CreatedAt, rec.UpdatedAt
			return nil
		}
		if err != nil {
			return err
		}
		rec.ID = existing.ID
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = existing.CreatedAt
		}
		if err := tx.Save(rec).Error; err != nil {
			return err
		}
		s.CreatedAt, s.UpdatedAt = rec.CreatedAt, rec.UpdatedAt
		return nil
	})
}

func (r *UnitStateRepository) List(ctx context.Context) ([]*model.UnitState, error) {
	var recs []UnitStateRecord
	if err := r.db.WithContext(ctx).Order("unit_name ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*model.UnitState, 0, len(recs))
	for i := range recs {
		out = append(out, unitStateToModel(&recs[i]))
	}
	return out, nil
}

func (r *UnitStateRepository) Delete(ctx context.Context, unitName string) error {
	res := r.db.WithContext(ctx).Delete(&UnitStateRecord{}, "unit_name = ?", unitName)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrUnitStateNotFound
	}
	return nil
}

var _ domain.UnitStateRepository = (*UnitStateRepository)(nil)
