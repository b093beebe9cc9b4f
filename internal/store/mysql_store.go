package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/machofv/geolocation-api/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GeolocationModel is the GORM model for the geolocation table
// Struct tags map fields to columns; zip_code lives in column "zip"
type GeolocationModel struct {
	ID        int64   `gorm:"column:id;primaryKey;autoIncrement"`
	IPAddress string  `gorm:"column:ip_address;uniqueIndex:idx_geolocation_ip_address"`
	Country   string  `gorm:"column:country"`
	Region    string  `gorm:"column:region"`
	City      string  `gorm:"column:city"`
	ZipCode   int     `gorm:"column:zip"`
	Latitude  float64 `gorm:"column:latitude"`
	Longitude float64 `gorm:"column:longitude"`
}

// TableName overrides GORM's pluralized default ("geolocation_models")
func (GeolocationModel) TableName() string {
	return "geolocation"
}

// mysqlDuplicateEntry is the server error number for a unique-key violation
const mysqlDuplicateEntry = 1062

// MySQLStore implements Store using MySQL with GORM. It is the alternative
// backend for deployments that already run a MySQL server; the file-backed
// SQLite store remains the default.
type MySQLStore struct {
	db *gorm.DB
}

// NewMySQLStore creates a new MySQL store using GORM
//
// Parameters:
//   - dsn: Data Source Name
//     Format: user:password@tcp(host:port)/dbname?parseTime=true
//
// Returns:
//   - *MySQLStore: pointer to the created store
//   - error: any error that occurred during connection
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	config := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Set to Info for query debugging
	}

	db, err := gorm.Open(mysql.Open(dsn), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL with GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Connection pool configuration
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping MySQL database: %w", err)
	}

	return &MySQLStore{db: db}, nil
}

// FindByIP returns all rows stored for the exact ip_address.
// Implements the Store interface method.
func (s *MySQLStore) FindByIP(ctx context.Context, ip string) ([]models.Record, error) {
	var rows []GeolocationModel

	result := s.db.WithContext(ctx).Where("ip_address = ?", ip).Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("database query failed: %w", result.Error)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	return modelsToRecords(rows), nil
}

// Search chains one Where clause per supplied filter; GORM joins them with
// AND in call order, which matches the fixed declaration order of
// filterColumns.
func (s *MySQLStore) Search(ctx context.Context, filters models.RecordFilters) ([]models.Record, error) {
	tx := s.db.WithContext(ctx).Model(&GeolocationModel{})
	for _, fc := range filterColumns(filters) {
		tx = tx.Where(fc.column+" = ?", fc.value)
	}

	var rows []GeolocationModel
	result := tx.Limit(filters.Limit).Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("database query failed: %w", result.Error)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	return modelsToRecords(rows), nil
}

// Create inserts a new record. Existence is pre-checked so the store behaves
// the same on databases migrated without the unique index; a duplicate-entry
// error from the server (index present, concurrent insert) is still mapped
// to ErrDuplicate as the backstop.
func (s *MySQLStore) Create(ctx context.Context, rec models.Record) error {
	var count int64
	result := s.db.WithContext(ctx).Model(&GeolocationModel{}).
		Where("ip_address = ?", rec.IPAddress).Count(&count)
	if result.Error != nil {
		return fmt.Errorf("database query failed: %w", result.Error)
	}
	if count > 0 {
		return ErrDuplicate
	}

	row := recordToModel(rec)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		var mysqlErr *gomysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert record: %w", err)
	}

	return nil
}

// Update applies the supplied fields to the row with the given ip_address
// and returns it re-read. MySQL reports zero affected rows for a no-op
// update, so existence is checked explicitly instead of relying on
// RowsAffected.
func (s *MySQLStore) Update(ctx context.Context, ip string, updates models.RecordUpdates) (*models.Record, error) {
	var existing GeolocationModel
	result := s.db.WithContext(ctx).Where("ip_address = ?", ip).First(&existing)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database query failed: %w", result.Error)
	}

	// Updates with a map only touches the supplied columns.
	updateMap := make(map[string]interface{}, 6)
	for _, uc := range updateColumns(updates) {
		updateMap[uc.column] = uc.value
	}

	result = s.db.WithContext(ctx).Model(&GeolocationModel{}).
		Where("ip_address = ?", ip).Updates(updateMap)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update record: %w", result.Error)
	}

	records, err := s.FindByIP(ctx, ip)
	if err != nil {
		return nil, err
	}
	return &records[0], nil
}

// Close closes the database connection.
// Should be called when the application shuts down.
func (s *MySQLStore) Close() error {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// recordToModel converts a domain record to the GORM row model
func recordToModel(rec models.Record) GeolocationModel {
	return GeolocationModel{
		ID:        rec.ID,
		IPAddress: rec.IPAddress,
		Country:   rec.Country,
		Region:    rec.Region,
		City:      rec.City,
		ZipCode:   rec.ZipCode,
		Latitude:  rec.Latitude,
		Longitude: rec.Longitude,
	}
}

// modelsToRecords converts GORM rows to domain records
func modelsToRecords(rows []GeolocationModel) []models.Record {
	records := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, models.Record{
			ID:        row.ID,
			IPAddress: row.IPAddress,
			Country:   row.Country,
			Region:    row.Region,
			City:      row.City,
			ZipCode:   row.ZipCode,
			Latitude:  row.Latitude,
			Longitude: row.Longitude,
		})
	}
	return records
}
