package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Versteel/Shipping-Form-Creator-sub000/repository/models"
)

// PostgreSQL error codes
const (
	PgErrForeignKeyViolation = "23503"
	PgErrUniqueViolation     = "23505"
)

// unique index on (order_number, suffix), see models.Header
const orderKeyIndex = "idx_header_order_key"

// Error codes carried by RepositoryError
const (
	CodeDatabase           = "DATABASE_ERROR"
	CodeDuplicateOrder     = "DUPLICATE_ORDER"
	CodeInvalidDocument    = "INVALID_DOCUMENT"
	CodeInvalidPackingUnit = "INVALID_PACKING_UNIT"
)

// RepositoryError represents repository layer errors
type RepositoryError struct {
	Code    string
	Message string
	Detail  string
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Detail)
}

// Repository persists shipping documents in PostgreSQL
type Repository struct {
	db     *gorm.DB
	logger cmtlog.Logger
}

// NewRepository creates a new repository instance
func NewRepository(logger cmtlog.Logger) *Repository {
	return &Repository{logger: logger}
}

// gormWriter sends gorm's slow-query and error lines to the service logger
type gormWriter struct {
	logger cmtlog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.logger.Info(fmt.Sprintf(format, args...), "module", "gorm")
}

// ConnectDB establishes database connection and performs migrations
func (r *Repository) ConnectDB(dsn string) error {
	gormLogger := gormlogger.New(gormWriter{r.logger}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})

	for i := 0; i < 10; i++ {
		r.logger.Info("Database connection attempt", "attempt", i+1)
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
		if err != nil {
			r.logger.Error("Connection attempt failed", "attempt", i+1, "err", err)
			time.Sleep(2 * time.Second)
			continue
		}
		r.db = db
		r.logger.Info("Connected to database")

		if err := r.Migrate(); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		return nil
	}
	return fmt.Errorf("failed to connect to database after 10 attempts")
}

// Migrate performs database schema migrations
func (r *Repository) Migrate() error {
	r.logger.Info("Running database migrations...")

	migrator := r.db.Migrator()

	// Order matters due to foreign keys
	tables := []interface{}{
		&models.Document{},
		&models.Header{},
		&models.LineItem{},
		&models.LineItemDetail{},
		&models.LineItemPackingUnit{},
		&models.HandlingUnit{},
		&models.HandlingUnitMember{},
	}

	for _, table := range tables {
		if !migrator.HasTable(table) {
			if err := migrator.CreateTable(table); err != nil {
				return fmt.Errorf("failed to create table: %w", err)
			}
		}
	}

	r.logger.Info("Database migrations completed")
	return nil
}

func preloadDocument(db *gorm.DB) *gorm.DB {
	return db.Preload("Header").
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_item_number ASC")
		}).
		Preload("LineItems.Details", func(db *gorm.DB) *gorm.DB {
			return db.Order("model_item ASC, note_sequence_number ASC")
		}).
		Preload("LineItems.PackingUnits", func(db *gorm.DB) *gorm.DB {
			return db.Order("packing_unit_id ASC")
		}).
		Preload("HandlingUnits", func(db *gorm.DB) *gorm.DB {
			return db.Order("handling_unit_id ASC")
		}).
		Preload("HandlingUnits.Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("member_id ASC")
		})
}

func loadDocument(tx *gorm.DB, documentID uint) (*models.Document, error) {
	var doc models.Document
	if err := preloadDocument(tx).First(&doc, documentID).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadByOrderNumber returns the stored document of the order with the lowest
// suffix. found is false when the order has never been saved.
func (r *Repository) LoadByOrderNumber(ctx context.Context, orderNumber int) (*models.Document, bool, error) {
	var header models.Header
	err := r.db.WithContext(ctx).
		Where("order_number = ?", orderNumber).
		Order("suffix ASC").
		First(&header).Error
	return r.loadByHeader(ctx, header, err, fmt.Sprintf("order %d", orderNumber))
}

// LoadByOrderKey returns the stored document for an exact order key
func (r *Repository) LoadByOrderKey(ctx context.Context, key models.OrderKey) (*models.Document, bool, error) {
	var header models.Header
	err := r.db.WithContext(ctx).
		Where("order_number = ? AND suffix = ?", key.OrderNumber, key.Suffix).
		First(&header).Error
	return r.loadByHeader(ctx, header, err, "order "+key.String())
}

func (r *Repository) loadByHeader(ctx context.Context, header models.Header, err error, what string) (*models.Document, bool, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &RepositoryError{
			Code:    CodeDatabase,
			Message: "Failed to look up document header",
			Detail:  fmt.Sprintf("%s: %v", what, err),
		}
	}

	doc, err := loadDocument(r.db.WithContext(ctx), header.DocumentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &RepositoryError{
			Code:    CodeDatabase,
			Message: "Failed to load document",
			Detail:  fmt.Sprintf("%s: %v", what, err),
		}
	}
	return doc, true, nil
}

// LoadAllShippedOn returns every stored document whose ship date falls on
// the given calendar day, ordered by order key
func (r *Repository) LoadAllShippedOn(ctx context.Context, day time.Time) ([]models.Document, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var documentIDs []uint
	err := r.db.WithContext(ctx).Model(&models.Header{}).
		Where("ship_date >= ? AND ship_date < ?", start, end).
		Pluck("document_id", &documentIDs).Error
	if err != nil {
		return nil, &RepositoryError{
			Code:    CodeDatabase,
			Message: "Failed to list documents",
			Detail:  fmt.Sprintf("ship date %s: %v", start.Format(time.DateOnly), err),
		}
	}

	docs := []models.Document{}
	if len(documentIDs) == 0 {
		return docs, nil
	}
	if err := preloadDocument(r.db.WithContext(ctx)).Where("document_id IN ?", documentIDs).Find(&docs).Error; err != nil {
		return nil, &RepositoryError{
			Code:    CodeDatabase,
			Message: "Failed to load documents",
			Detail:  err.Error(),
		}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i].Header, docs[j].Header
		if a == nil || b == nil {
			return b != nil
		}
		if a.OrderNumber != b.OrderNumber {
			return a.OrderNumber < b.OrderNumber
		}
		return a.Suffix < b.Suffix
	})
	return docs, nil
}

// Save persists the whole document tree in one transaction. Each level is
// diffed by id against the stored tree: matched rows are updated, rows
// without a stored counterpart are inserted and stored rows missing from
// doc are deleted. Assigned ids are written back into doc.
func (r *Repository) Save(ctx context.Context, doc *models.Document) error {
	if doc == nil || doc.Header == nil {
		return &RepositoryError{
			Code:    CodeInvalidDocument,
			Message: "Document has no header",
			Detail:  "a document needs an order key before it can be saved",
		}
	}
	if err := doc.Validate(); err != nil {
		if errors.Is(err, models.ErrDuplicateLineItem) {
			return &RepositoryError{
				Code:    CodeInvalidDocument,
				Message: "Duplicate line item",
				Detail:  err.Error(),
			}
		}
		return &RepositoryError{
			Code:    CodeInvalidPackingUnit,
			Message: "Invalid packing unit",
			Detail:  err.Error(),
		}
	}

	key := doc.Header.Key()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, err := lockStored(tx, doc)
		if err != nil {
			return err
		}
		return saveTree(tx, doc, stored)
	})
	if err == nil {
		r.logger.Info("Saved document", "order", key.String(), "document_id", doc.ID)
		return nil
	}

	var repoErr *RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == PgErrUniqueViolation && pgErr.ConstraintName == orderKeyIndex {
		return &RepositoryError{
			Code:    CodeDuplicateOrder,
			Message: "Order already saved",
			Detail:  fmt.Sprintf("order %s is stored under another document", key),
		}
	}
	return &RepositoryError{
		Code:    CodeDatabase,
		Message: "Failed to save document",
		Detail:  err.Error(),
	}
}

func clauseUpdateLock() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

// lockStored finds the stored tree for doc (by id, else by order key) and
// locks its document row for the rest of the transaction. A stored tree
// found by id must carry the same order key as doc.
func lockStored(tx *gorm.DB, doc *models.Document) (*models.Document, error) {
	documentID := doc.ID
	if documentID == 0 {
		var header models.Header
		err := tx.Where("order_number = ? AND suffix = ?", doc.Header.OrderNumber, doc.Header.Suffix).First(&header).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		documentID = header.DocumentID
	}

	var row models.Document
	err := tx.Clauses(clauseUpdateLock()).First(&row, documentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	stored, err := loadDocument(tx, documentID)
	if err != nil {
		return nil, err
	}
	if stored.Header != nil && stored.Header.Key() != doc.Header.Key() {
		return nil, &RepositoryError{
			Code:    CodeInvalidDocument,
			Message: "Document id belongs to another order",
			Detail:  fmt.Sprintf("document %d is order %s, not %s", documentID, stored.Header.Key(), doc.Header.Key()),
		}
	}
	return stored, nil
}

func saveTree(tx *gorm.DB, doc, stored *models.Document) error {
	if stored == nil {
		doc.ID = 0
		row := models.Document{}
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return err
		}
		doc.ID, doc.CreatedAt, doc.UpdatedAt = row.ID, row.CreatedAt, row.UpdatedAt
		stored = &models.Document{ID: row.ID}
	} else {
		doc.ID = stored.ID
		doc.CreatedAt = stored.CreatedAt
		if err := tx.Model(&models.Document{ID: stored.ID}).Update("updated_at", time.Now()).Error; err != nil {
			return err
		}
	}

	doc.Header.DocumentID = doc.ID
	if stored.Header != nil {
		doc.Header.ID = stored.Header.ID
	} else {
		doc.Header.ID = 0
	}
	if err := upsert(tx, doc.Header, doc.Header.ID != 0); err != nil {
		return err
	}

	if err := saveLineItems(tx, doc, stored); err != nil {
		return err
	}
	return saveHandlingUnits(tx, doc, stored)
}

// upsert writes one row without touching its associations
func upsert(tx *gorm.DB, row interface{}, exists bool) error {
	if exists {
		return tx.Omit(clause.Associations).Save(row).Error
	}
	return tx.Omit(clause.Associations).Create(row).Error
}

func saveLineItems(tx *gorm.DB, doc, stored *models.Document) error {
	plan := planRows(
		ids(stored.LineItems, func(li *models.LineItem) uint { return li.ID }),
		ids(doc.LineItems, func(li *models.LineItem) uint { return li.ID }),
	)

	if len(plan.deletes) > 0 {
		if err := tx.Where("line_item_id IN ?", plan.deletes).Delete(&models.LineItemDetail{}).Error; err != nil {
			return err
		}
		if err := tx.Where("line_item_id IN ?", plan.deletes).Delete(&models.LineItemPackingUnit{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.LineItem{}, plan.deletes).Error; err != nil {
			return err
		}
	}

	byID := make(map[uint]*models.LineItem, len(stored.LineItems))
	for i := range stored.LineItems {
		byID[stored.LineItems[i].ID] = &stored.LineItems[i]
	}

	for _, i := range plan.inserts {
		li := &doc.LineItems[i]
		li.ID = 0
		li.DocumentID = doc.ID
		if err := upsert(tx, li, false); err != nil {
			return err
		}
		if err := saveLineChildren(tx, li, &models.LineItem{}); err != nil {
			return err
		}
	}
	for _, i := range plan.updates {
		li := &doc.LineItems[i]
		li.DocumentID = doc.ID
		if err := upsert(tx, li, true); err != nil {
			return err
		}
		if err := saveLineChildren(tx, li, byID[li.ID]); err != nil {
			return err
		}
	}
	return nil
}

func saveLineChildren(tx *gorm.DB, li, stored *models.LineItem) error {
	details := planRows(
		ids(stored.Details, func(d *models.LineItemDetail) uint { return d.ID }),
		ids(li.Details, func(d *models.LineItemDetail) uint { return d.ID }),
	)
	if len(details.deletes) > 0 {
		if err := tx.Delete(&models.LineItemDetail{}, details.deletes).Error; err != nil {
			return err
		}
	}
	for _, i := range details.inserts {
		d := &li.Details[i]
		d.ID, d.LineItemID = 0, li.ID
		if err := upsert(tx, d, false); err != nil {
			return err
		}
	}
	for _, i := range details.updates {
		d := &li.Details[i]
		d.LineItemID = li.ID
		if err := upsert(tx, d, true); err != nil {
			return err
		}
	}

	units := planRows(
		ids(stored.PackingUnits, func(u *models.LineItemPackingUnit) uint { return u.ID }),
		ids(li.PackingUnits, func(u *models.LineItemPackingUnit) uint { return u.ID }),
	)
	if len(units.deletes) > 0 {
		if err := tx.Delete(&models.LineItemPackingUnit{}, units.deletes).Error; err != nil {
			return err
		}
	}
	for _, i := range units.inserts {
		u := &li.PackingUnits[i]
		u.ID, u.LineItemID = 0, li.ID
		if err := upsert(tx, u, false); err != nil {
			return err
		}
	}
	for _, i := range units.updates {
		u := &li.PackingUnits[i]
		u.LineItemID = li.ID
		if err := upsert(tx, u, true); err != nil {
			return err
		}
	}
	return nil
}

func saveHandlingUnits(tx *gorm.DB, doc, stored *models.Document) error {
	// Members may point at units deleted above
	doc.RecomputeHandlingUnits()

	plan := planRows(
		ids(stored.HandlingUnits, func(h *models.HandlingUnit) uint { return h.ID }),
		ids(doc.HandlingUnits, func(h *models.HandlingUnit) uint { return h.ID }),
	)
	if len(plan.deletes) > 0 {
		if err := tx.Where("handling_unit_id IN ?", plan.deletes).Delete(&models.HandlingUnitMember{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.HandlingUnit{}, plan.deletes).Error; err != nil {
			return err
		}
	}

	byID := make(map[uint]*models.HandlingUnit, len(stored.HandlingUnits))
	for i := range stored.HandlingUnits {
		byID[stored.HandlingUnits[i].ID] = &stored.HandlingUnits[i]
	}

	save := func(h *models.HandlingUnit, prev *models.HandlingUnit, exists bool) error {
		h.DocumentID = doc.ID
		if err := upsert(tx, h, exists); err != nil {
			return err
		}
		members := planRows(
			ids(prev.Members, func(m *models.HandlingUnitMember) uint { return m.ID }),
			ids(h.Members, func(m *models.HandlingUnitMember) uint { return m.ID }),
		)
		if len(members.deletes) > 0 {
			if err := tx.Delete(&models.HandlingUnitMember{}, members.deletes).Error; err != nil {
				return err
			}
		}
		for _, i := range members.inserts {
			m := &h.Members[i]
			m.ID, m.HandlingUnitID = 0, h.ID
			if err := upsert(tx, m, false); err != nil {
				return err
			}
		}
		for _, i := range members.updates {
			m := &h.Members[i]
			m.HandlingUnitID = h.ID
			if err := upsert(tx, m, true); err != nil {
				return err
			}
		}
		return nil
	}

	for _, i := range plan.inserts {
		h := &doc.HandlingUnits[i]
		h.ID = 0
		if err := save(h, &models.HandlingUnit{}, false); err != nil {
			return err
		}
	}
	for _, i := range plan.updates {
		h := &doc.HandlingUnits[i]
		if err := save(h, byID[h.ID], true); err != nil {
			return err
		}
	}
	return nil
}
