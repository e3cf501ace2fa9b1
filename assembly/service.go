// Package assembly builds the document the forms are printed from: it
// fetches the canonical order, merges it with the locally saved packing
// data and hands the result to layout and aggregation.
package assembly

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/Versteel/Shipping-Form-Creator-sub000/aggregate"
	"github.com/Versteel/Shipping-Form-Creator-sub000/journal"
	"github.com/Versteel/Shipping-Form-Creator-sub000/layout"
	"github.com/Versteel/Shipping-Form-Creator-sub000/reconcile"
	"github.com/Versteel/Shipping-Form-Creator-sub000/repository/models"
)

var (
	// ErrNotFound is returned when the order system does not know the order
	ErrNotFound = errors.New("order not found")
	// ErrUpstream wraps failures talking to the order system
	ErrUpstream = errors.New("order system unavailable")
	// ErrStore wraps failures of the local store
	ErrStore = errors.New("document store failure")
	// ErrInvalidDocument rejects documents that cannot be saved
	ErrInvalidDocument = errors.New("invalid document")
)

// Fetcher reads canonical documents from the order system
type Fetcher interface {
	FetchByOrderKey(ctx context.Context, key models.OrderKey) (*models.Document, bool, error)
	FetchAllShippedOn(ctx context.Context, date time.Time) ([]models.Document, error)
}

// Store persists documents with their packing data
type Store interface {
	LoadByOrderNumber(ctx context.Context, orderNumber int) (*models.Document, bool, error)
	LoadByOrderKey(ctx context.Context, key models.OrderKey) (*models.Document, bool, error)
	LoadAllShippedOn(ctx context.Context, day time.Time) ([]models.Document, error)
	Save(ctx context.Context, doc *models.Document) error
}

// Journal remembers the last canonical snapshot per order
type Journal interface {
	Latest(key models.OrderKey) (journal.Snapshot, bool, error)
	Record(doc *models.Document, at time.Time) error
}

// LogoSet names the logo images a document can be printed with
type LogoSet struct {
	Default string
	Special string
}

// LoadOptions are caller inputs of one load
type LoadOptions struct {
	// SpecialPricing selects the special-pricing logo for new documents
	SpecialPricing bool
	// Peek reports changes against the latest snapshot without recording
	// a new one
	Peek bool
}

// Result is a reconciled document plus what the order system changed since
// the previous load
type Result struct {
	Document     *models.Document `json:"document"`
	Changes      string           `json:"changes"`
	PreviousLoad *time.Time       `json:"previous_load,omitempty"`
}

// Config wires a Service
type Config struct {
	Source  Fetcher
	Store   Store
	Journal Journal // optional
	Logos   LogoSet
	Layout  layout.Options
	Table   aggregate.Table
	Logger  cmtlog.Logger
}

// Service assembles documents
type Service struct {
	source  Fetcher
	store   Store
	journal Journal
	logos   LogoSet
	layout  layout.Options
	table   aggregate.Table
	logger  cmtlog.Logger
	now     func() time.Time
}

// NewService creates a Service. A nil table falls back to the default
// freight classification.
func NewService(cfg Config) *Service {
	table := cfg.Table
	if len(table) == 0 {
		table = aggregate.DefaultTable()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = cmtlog.NewNopLogger()
	}
	return &Service{
		source:  cfg.Source,
		store:   cfg.Store,
		journal: cfg.Journal,
		logos:   cfg.Logos,
		layout:  cfg.Layout,
		table:   table,
		logger:  logger,
		now:     time.Now,
	}
}

// Load fetches the canonical order, merges the saved packing data into it
// and assigns a logo when the document has none yet
func (s *Service) Load(ctx context.Context, rawKey string, opts LoadOptions) (*Result, error) {
	key, err := models.ParseOrderKey(rawKey)
	if err != nil {
		return nil, err
	}

	canonical, found, err := s.source.FetchByOrderKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %v", ErrUpstream, key, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err := checkQuantities(canonical); err != nil {
		return nil, err
	}

	cached, _, err := s.store.LoadByOrderKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: loading %s: %v", ErrStore, key, err)
	}

	doc, err := reconcile.Reconcile(canonical, cached)
	if err != nil {
		return nil, err
	}
	s.assignLogo(doc, opts)

	result := &Result{Document: doc}
	s.journalChanges(key, canonical, result, !opts.Peek)

	s.logger.Info("Loaded document", "order", key.String(), "cached", cached != nil,
		"line_items", len(doc.LineItems))
	return result, nil
}

// journalChanges fills in what changed since the previous snapshot and,
// when record is set, records the new one. Journal failures are logged,
// never returned.
func (s *Service) journalChanges(key models.OrderKey, canonical *models.Document, result *Result, record bool) {
	if s.journal == nil {
		return
	}
	prev, found, err := s.journal.Latest(key)
	if err != nil {
		s.logger.Error("Reading snapshot journal", "order", key.String(), "err", err)
	} else if found {
		result.Changes = journal.Changes(prev.Document, canonical)
		at := prev.RecordedAt
		result.PreviousLoad = &at
	}
	if !record {
		return
	}
	if err := s.journal.Record(canonical, s.now()); err != nil {
		s.logger.Error("Recording snapshot", "order", key.String(), "err", err)
	}
}

// Stored returns the saved document without consulting the order system.
// A key without a suffix picks the lowest saved suffix of the order.
func (s *Service) Stored(ctx context.Context, rawKey string) (*models.Document, error) {
	key, err := models.ParseOrderKey(rawKey)
	if err != nil {
		return nil, err
	}

	var (
		doc   *models.Document
		found bool
	)
	if strings.Contains(rawKey, "-") {
		doc, found, err = s.store.LoadByOrderKey(ctx, key)
	} else {
		doc, found, err = s.store.LoadByOrderNumber(ctx, key.OrderNumber)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: loading %s: %v", ErrStore, rawKey, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s has not been saved", ErrNotFound, strings.TrimSpace(rawKey))
	}
	return doc, nil
}

// LoadShippedOn returns every document shipping on date. Orders known to
// the order system are reconciled against their saved copies; saved orders
// the order system no longer lists are returned as saved.
func (s *Service) LoadShippedOn(ctx context.Context, date time.Time) ([]models.Document, error) {
	canonical, err := s.source.FetchAllShippedOn(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching shipments of %s: %v", ErrUpstream, date.Format(time.DateOnly), err)
	}
	cached, err := s.store.LoadAllShippedOn(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("%w: loading shipments of %s: %v", ErrStore, date.Format(time.DateOnly), err)
	}

	byKey := make(map[models.OrderKey]*models.Document, len(cached))
	for i := range cached {
		if k, ok := cached[i].Key(); ok {
			byKey[k] = &cached[i]
		}
	}

	docs := make([]models.Document, 0, len(canonical)+len(cached))
	for i := range canonical {
		c := &canonical[i]
		k, ok := c.Key()
		if !ok {
			continue
		}
		doc, err := reconcile.Reconcile(c, byKey[k])
		if err != nil {
			return nil, err
		}
		delete(byKey, k)
		s.assignLogo(doc, LoadOptions{})
		docs = append(docs, *doc)
	}
	for _, doc := range byKey {
		docs = append(docs, *doc)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		a, _ := docs[i].Key()
		b, _ := docs[j].Key()
		if a.OrderNumber != b.OrderNumber {
			return a.OrderNumber < b.OrderNumber
		}
		return a.Suffix < b.Suffix
	})
	return docs, nil
}

// Save stores the document with its packing data. Handling-unit totals are
// recomputed first so they always match their members.
func (s *Service) Save(ctx context.Context, doc *models.Document) error {
	if doc == nil || doc.Header == nil {
		return fmt.Errorf("%w: document has no header", ErrInvalidDocument)
	}
	doc.RecomputeHandlingUnits()
	if err := doc.Validate(); err != nil {
		return err
	}
	if err := s.store.Save(ctx, doc); err != nil {
		return fmt.Errorf("%w: saving %s: %w", ErrStore, doc.Header.Key(), err)
	}
	return nil
}

// Pages lays the document out for the given truck view
func (s *Service) Pages(doc *models.Document, view string) []layout.Page {
	return layout.Paginate(doc, view, s.layout, s.table)
}

// Summary aggregates the bill-of-lading rows for the given truck view
func (s *Service) Summary(doc *models.Document, view string) aggregate.Summary {
	return aggregate.SummarizeView(doc, view, s.table)
}

func (s *Service) assignLogo(doc *models.Document, opts LoadOptions) {
	if doc.Header == nil || doc.Header.LogoImagePath != "" {
		return
	}
	if opts.SpecialPricing && s.logos.Special != "" {
		doc.Header.LogoImagePath = s.logos.Special
		return
	}
	doc.Header.LogoImagePath = s.logos.Default
}

// checkQuantities rejects source quantities that do not fit whole units
func checkQuantities(doc *models.Document) error {
	for _, li := range doc.LineItems {
		for _, q := range []func() (int, error){li.Header.OrderedUnits, li.Header.PickedUnits, li.Header.BackOrderedUnits} {
			if _, err := q(); err != nil {
				return fmt.Errorf("line %s: %w", li.Header.LineItemNumber, err)
			}
		}
	}
	return nil
}
