package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CheckInBlob is the single-row table backing GormBlobStore.
type CheckInBlob struct {
	Key       string    `gorm:"primaryKey;size:64"`
	Data      []byte    `gorm:"type:longblob"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for CheckInBlob.
func (CheckInBlob) TableName() string { return "checkin_blobs" }

// GormBlobStore keeps the collection as one row in MySQL. The write
// granularity stays "whole collection per Put", matching the other
// backends; the database only buys durability, not row-level access.
type GormBlobStore struct {
	db  *gorm.DB
	key string
}

func NewGormBlobStore(db *gorm.DB, key string) *GormBlobStore {
	return &GormBlobStore{db: db, key: key}
}

func (g *GormBlobStore) Get(ctx context.Context) ([]byte, bool, error) {
	var row CheckInBlob
	err := g.db.WithContext(ctx).First(&row, "`key` = ?", g.key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return row.Data, true, nil
}

func (g *GormBlobStore) Put(ctx context.Context, data []byte) error {
	row := CheckInBlob{Key: g.key, Data: data}
	return g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&row).Error
}
