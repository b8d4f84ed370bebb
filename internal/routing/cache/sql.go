package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/trailmark/routeplanner/internal/database"
	"github.com/trailmark/routeplanner/internal/routing"
	"github.com/trailmark/routeplanner/pkg/core"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Verify SQL implements routing.Cache at compile time.
var _ routing.Cache = (*SQL)(nil)

// CachedPath is one stored routing response.
type CachedPath struct {
	CacheKey  string         `gorm:"primaryKey;type:varchar(64)"`
	Path      datatypes.JSON `gorm:"not null"`
	Points    int
	CreatedAt time.Time `gorm:"index"`
}

// TableName implements gorm's tabler interface.
func (CachedPath) TableName() string {
	return "cached_paths"
}

// SQL stores paths in a gorm database.
type SQL struct {
	db         *gorm.DB
	maxEntries int
}

// NewSQL migrates the cache table on the manager's database.
func NewSQL(m *database.Manager, maxEntries int) (*SQL, error) {
	if err := m.Migrate(&CachedPath{}); err != nil {
		return nil, err
	}
	return &SQL{db: m.DB, maxEntries: maxEntries}, nil
}

// Get implements routing.Cache.
func (s *SQL) Get(ctx context.Context, key string) ([]core.Point, bool, error) {
	var row CachedPath
	err := s.db.WithContext(ctx).Where("cache_key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cached path: %w", err)
	}

	var path []core.Point
	if err := json.Unmarshal(row.Path, &path); err != nil {
		return nil, false, fmt.Errorf("decoding cached path: %w", err)
	}
	return path, true, nil
}

// Put implements routing.Cache.
func (s *SQL) Put(ctx context.Context, key string, path []core.Point) error {
	data, err := json.Marshal(path)
	if err != nil {
		return fmt.Errorf("encoding path: %w", err)
	}
	row := CachedPath{
		CacheKey:  key,
		Path:      datatypes.JSON(data),
		Points:    len(path),
		CreatedAt: time.Now(),
	}
	db := s.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("storing path: %w", err)
	}
	return s.evict(db)
}

func (s *SQL) evict(db *gorm.DB) error {
	if s.maxEntries <= 0 {
		return nil
	}
	var count int64
	if err := db.Model(&CachedPath{}).Count(&count).Error; err != nil {
		return fmt.Errorf("counting cached paths: %w", err)
	}
	excess := int(count) - s.maxEntries
	if excess <= 0 {
		return nil
	}
	oldest := db.Model(&CachedPath{}).Select("cache_key").Order("created_at asc").Limit(excess)
	if err := db.Where("cache_key IN (?)", oldest).Delete(&CachedPath{}).Error; err != nil {
		return fmt.Errorf("evicting cached paths: %w", err)
	}
	return nil
}

// Len returns the number of cached paths.
func (s *SQL) Len(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&CachedPath{}).Count(&count).Error
	return count, err
}
