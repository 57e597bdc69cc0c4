package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/ouvidoria/pkg/domain"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Row is one conversation in progress. State is duplicated out of the payload
// so operators can query where conversations stall.
type Row struct {
	ConversantID string `gorm:"primaryKey;size:255"`
	State        string `gorm:"size:64;index"`
	Payload      string `gorm:"type:text;not null"`
	UpdatedAt    time.Time
}

// TableName pins the table name regardless of naming strategy.
func (Row) TableName() string { return "ouvidoria_sessions" }

// Store implements ports.SessionStore on a SQL database through GORM.
type Store struct {
	db *gorm.DB
}

// Open connects to driver ("sqlite" or "mysql") at dsn and migrates the schema.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: connect %s: %w", driver, err)
	}
	return New(db)
}

// New wraps an existing connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Row{}); err != nil {
		return nil, fmt.Errorf("sqlstore: auto-migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Save upserts the session.
func (s *Store) Save(ctx context.Context, conversantID string, session *domain.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("sqlstore: marshal session: %w", err)
	}

	row := Row{
		ConversantID: conversantID,
		State:        string(session.State),
		Payload:      string(payload),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "conversant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "payload", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("sqlstore: save %s: %w", conversantID, err)
	}
	return nil
}

// Load retrieves the session.
func (s *Store) Load(ctx context.Context, conversantID string) (*domain.Session, error) {
	var row Row
	err := s.db.WithContext(ctx).Where("conversant_id = ?", conversantID).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("sqlstore: load %s: %w", conversantID, err)
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(row.Payload), &session); err != nil {
		return nil, fmt.Errorf("sqlstore: unmarshal session %s: %w", conversantID, err)
	}
	return &session, nil
}

// Delete removes the session. Deleting a missing session is a no-op.
func (s *Store) Delete(ctx context.Context, conversantID string) error {
	err := s.db.WithContext(ctx).Where("conversant_id = ?", conversantID).Delete(&Row{}).Error
	if err != nil {
		return fmt.Errorf("sqlstore: delete %s: %w", conversantID, err)
	}
	return nil
}

// List returns the conversants with a session, oldest activity first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&Row{}).Order("updated_at").Pluck("conversant_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list: %w", err)
	}
	return ids, nil
}

// CountByState reports how many conversations sit in each state.
func (s *Store) CountByState(ctx context.Context) (map[domain.State]int64, error) {
	var rows []struct {
		State string
		N     int64
	}
	err := s.db.WithContext(ctx).Model(&Row{}).Select("state, count(*) as n").Group("state").Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sqlstore: count by state: %w", err)
	}

	counts := make(map[domain.State]int64, len(rows))
	for _, r := range rows {
		counts[domain.State(r.State)] = r.N
	}
	return counts, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
