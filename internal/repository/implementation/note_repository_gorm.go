package implementation

import (
	"context"
	"time"

	"whiteboard-relay/internal/entity"
	"whiteboard-relay/internal/mapper"
	"whiteboard-relay/internal/model"
	"whiteboard-relay/internal/repository/contract"
	"whiteboard-relay/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormNoteRepository struct {
	db     *gorm.DB
	mapper *mapper.NoteMapper
}

func NewGormNoteRepository(db *gorm.DB) contract.NoteRepository {
	return &GormNoteRepository{
		db:     db,
		mapper: mapper.NewNoteMapper(),
	}
}

func (r *GormNoteRepository) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *GormNoteRepository) Name() string {
	return "postgres"
}

func (r *GormNoteRepository) FindAll(ctx context.Context) ([]*entity.Note, error) {
	var models []*model.Note
	query := r.applySpecifications(r.db.WithContext(ctx), specification.CreationOrder{})
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *GormNoteRepository) Upsert(ctx context.Context, note *entity.Note) error {
	m := r.mapper.ToModel(note)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(m).Error
}

func (r *GormNoteRepository) Merge(ctx context.Context, id string, patch entity.NotePatch) error {
	cols := r.mapper.ToUpdateColumns(patch)
	if len(cols) == 0 {
		return nil
	}
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Note{}), specification.ByNoteID{Id: id})
	return query.Updates(cols).Error
}

func (r *GormNoteRepository) Delete(ctx context.Context, id string) error {
	query := r.applySpecifications(r.db.WithContext(ctx), specification.ByNoteID{Id: id})
	return query.Delete(&model.Note{}).Error
}

func (r *GormNoteRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	query := r.applySpecifications(r.db.WithContext(ctx), specification.ExpiredBefore{Cutoff: cutoff})
	result := query.Delete(&model.Note{})
	return result.RowsAffected, result.Error
}

func (r *GormNoteRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *GormNoteRepository) Close(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
