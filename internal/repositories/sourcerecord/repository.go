package sourcerecord

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/lib/pq"

	"github.com/Ramsey-B/banksia/pkg/abn"
	"github.com/Ramsey-B/banksia/pkg/database"
	"github.com/Ramsey-B/banksia/pkg/models"
	"github.com/Ramsey-B/banksia/pkg/tracing"
)

var (
	crawlColumns    = []string{"id", "url", "name", "industry", "description", "title"}
	registryColumns = []string{"id", "registry_id", "legal_name", "status", "trading_names", "business_names", "locality", "region", "postal_code"}
)

// registryRow is the table shape of a registry record; name lists are postgres arrays
type registryRow struct {
	ID            string         `db:"id"`
	RegistryID    string         `db:"registry_id"`
	LegalName     string         `db:"legal_name"`
	Status        string         `db:"status"`
	TradingNames  pq.StringArray `db:"trading_names"`
	BusinessNames pq.StringArray `db:"business_names"`
	Locality      *string        `db:"locality"`
	Region        *string        `db:"region"`
	PostalCode    *string        `db:"postal_code"`
}

func (r registryRow) toModel() models.RegistryRecord {
	return models.RegistryRecord{
		ID:            r.ID,
		RegistryID:    abn.Normalize(r.RegistryID),
		LegalName:     r.LegalName,
		Status:        models.ParseRegistryStatus(r.Status),
		TradingNames:  []string(r.TradingNames),
		BusinessNames: []string(r.BusinessNames),
		Locality:      r.Locality,
		Region:        r.Region,
		PostalCode:    r.PostalCode,
	}
}

// Repository reads the crawl and registry records the matcher works on
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListCrawlRecords returns crawl records ordered by id. A limit of 0 returns every record.
func (r *Repository) ListCrawlRecords(ctx context.Context, limit int) ([]models.CrawlRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "sourcerecord.Repository.ListCrawlRecords")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(crawlColumns...)
	sb.From("crawl_records")
	sb.OrderBy("id")
	if limit > 0 {
		sb.Limit(limit)
	}

	query, args := sb.Build()
	var records []models.CrawlRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list crawl records")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list crawl records")
	}
	return records, nil
}

// ListActiveRegistryRecords returns active registry records with a valid registry number.
// Rows whose number fails the checksum are logged and skipped.
func (r *Repository) ListActiveRegistryRecords(ctx context.Context, limit int) ([]models.RegistryRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "sourcerecord.Repository.ListActiveRegistryRecords")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(registryColumns...)
	sb.From("registry_records")
	sb.Where(sb.In("LOWER(status)", "active", "act"))
	sb.OrderBy("registry_id")
	if limit > 0 {
		sb.Limit(limit)
	}

	query, args := sb.Build()
	var rows []registryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list registry records")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list registry records")
	}

	return toRegistryRecords(ctx, r.logger, rows), nil
}

func toRegistryRecords(ctx context.Context, logger ectologger.Logger, rows []registryRow) []models.RegistryRecord {
	records := make([]models.RegistryRecord, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		if !abn.Validate(row.RegistryID) {
			skipped++
			logger.WithContext(ctx).WithFields(map[string]any{
				"id":          row.ID,
				"registry_id": row.RegistryID,
			}).Warn("Skipping registry record with invalid registry number")
			continue
		}
		records = append(records, row.toModel())
	}
	if skipped > 0 {
		logger.WithContext(ctx).WithFields(map[string]any{"skipped": skipped}).Info("Skipped invalid registry records")
	}
	return records
}

// UpsertCrawlRecords inserts or refreshes crawl records keyed on id
func (r *Repository) UpsertCrawlRecords(ctx context.Context, records []models.CrawlRecord) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "sourcerecord.Repository.UpsertCrawlRecords")
	defer span.End()

	if len(records) == 0 {
		return 0, nil
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto("crawl_records")
	ib.Cols(crawlColumns...)
	for _, rec := range records {
		ib.Values(rec.ID, rec.URL, rec.Name, rec.Industry, rec.Description, rec.Title)
	}
	ib.OnConflictUpdate([]string{"id"}, "url", "name", "industry", "description", "title")

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"count": len(records)}).Error("Failed to upsert crawl records")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert crawl records")
	}
	return len(records), nil
}

// UpsertRegistryRecords inserts or refreshes registry records keyed on registry number.
// Records with an invalid number are skipped.
func (r *Repository) UpsertRegistryRecords(ctx context.Context, records []models.RegistryRecord) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "sourcerecord.Repository.UpsertRegistryRecords")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto("registry_records")
	ib.Cols(registryColumns...)
	count := 0
	for _, rec := range records {
		number := abn.Normalize(rec.RegistryID)
		if !abn.Validate(number) {
			r.logger.WithContext(ctx).WithFields(map[string]any{"registry_id": rec.RegistryID}).Warn("Skipping registry record with invalid registry number")
			continue
		}
		id := rec.ID
		if id == "" {
			id = number
		}
		ib.Values(id, number, rec.LegalName, string(rec.Status), pq.StringArray(nonNil(rec.TradingNames)), pq.StringArray(nonNil(rec.BusinessNames)), rec.Locality, rec.Region, rec.PostalCode)
		count++
	}
	if count == 0 {
		return 0, nil
	}
	ib.OnConflictUpdate([]string{"registry_id"}, "legal_name", "status", "trading_names", "business_names", "locality", "region", "postal_code")

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"count": count}).Error("Failed to upsert registry records")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert registry records")
	}
	return count, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
