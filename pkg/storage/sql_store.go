package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/matst80/slask-gallery/pkg/query"
	"github.com/matst80/slask-gallery/pkg/types"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var ErrNotFound = types.ErrNotFound

// SqlStore keeps photos in one table with an indexed column per facet.
type SqlStore struct {
	db      *gorm.DB
	catalog types.Catalog
}

type Options struct {
	Dsn          string
	Verbose      bool
	MaxOpenConns int
	MaxIdleConns int
}

func dialector(dsn string) gorm.Dialector {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return postgres.Open(dsn)
	}
	return sqlite.Open(dsn)
}

// Open connects to postgres for postgres dsns and to a sqlite file
// otherwise, then migrates the photos table.
func Open(opts Options, catalog types.Catalog) (*SqlStore, error) {
	gormLogger := logger.Default.LogMode(logger.Silent)
	if opts.Verbose {
		gormLogger = logger.Default.LogMode(logger.Info)
	}
	db, err := gorm.Open(dialector(opts.Dsn), &gorm.Config{
		Logger:  gormLogger,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open photo store: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		if opts.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
		}
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}
	s := NewSqlStore(db, catalog)
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	log.Printf("photo store connected (%s)", db.Dialector.Name())
	return s, nil
}

func NewSqlStore(db *gorm.DB, catalog types.Catalog) *SqlStore {
	return &SqlStore{db: db, catalog: catalog}
}

func (s *SqlStore) Migrate() error {
	return s.db.AutoMigrate(&types.Photo{})
}

func (s *SqlStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SqlStore) column(key types.FacetKey) (string, error) {
	f, ok := s.catalog.Get(key)
	if !ok || f.Column == "" {
		return "", fmt.Errorf("no column for facet %s", key)
	}
	return f.Column, nil
}

// scoped applies every predicate of the composed query as a WHERE clause.
func (s *SqlStore) scoped(ctx context.Context, q query.Query) (*gorm.DB, error) {
	tx := s.db.WithContext(ctx).Model(&types.Photo{})
	if q.IsVisibleOnly() {
		tx = tx.Where("hidden = ?", false)
	}
	for _, p := range q.All() {
		col, err := s.column(p.Facet)
		if err != nil {
			return nil, err
		}
		if p.IsEquality() {
			tx = tx.Where(col+" = ?", p.Values[0])
		} else {
			tx = tx.Where(col+" IN ?", p.Values)
		}
	}
	return tx, nil
}

func orderClause(sort string) string {
	switch sort {
	case types.SortOldest:
		return "taken_at ASC, id ASC"
	case types.SortTitle:
		return "title ASC, id ASC"
	default:
		return "taken_at DESC, id ASC"
	}
}

func (s *SqlStore) Find(ctx context.Context, q query.Query, page query.Page) (*query.ResultSet, error) {
	tx, err := s.scoped(ctx, q)
	if err != nil {
		return nil, err
	}
	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}
	photos := make([]types.Photo, 0)
	find := tx.Session(&gorm.Session{}).Order(orderClause(page.Sort))
	if page.Offset > 0 {
		find = find.Offset(page.Offset)
	}
	if page.Limit > 0 {
		find = find.Limit(page.Limit)
	}
	if err := find.Find(&photos).Error; err != nil {
		return nil, err
	}
	return &query.ResultSet{
		Items:     photos,
		TotalHits: int(total),
	}, nil
}

func (s *SqlStore) Count(ctx context.Context, q query.Query) (int, error) {
	tx, err := s.scoped(ctx, q)
	if err != nil {
		return 0, err
	}
	var total int64
	err = tx.Count(&total).Error
	return int(total), err
}

type groupRow struct {
	Value string
	Count int
}

func (s *SqlStore) GroupCount(ctx context.Context, q query.Query, key types.FacetKey) (map[string]int, error) {
	col, err := s.column(key)
	if err != nil {
		return nil, err
	}
	tx, err := s.scoped(ctx, q)
	if err != nil {
		return nil, err
	}
	rows := make([]groupRow, 0)
	err = tx.Select(col + " AS value, COUNT(*) AS count").
		Where(col + " <> ''").
		Group(col).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	ret := make(map[string]int, len(rows))
	for _, r := range rows {
		ret[r.Value] = r.Count
	}
	return ret, nil
}

func (s *SqlStore) Get(ctx context.Context, id uuid.UUID) (*types.Photo, error) {
	var p types.Photo
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SqlStore) Upsert(ctx context.Context, photos ...types.Photo) error {
	if len(photos) == 0 {
		return nil
	}
	batch := slices.Clone(photos)
	for i := range batch {
		batch[i].Normalize()
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).CreateInBatches(batch, 200).Error
}

func (s *SqlStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&types.Photo{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
