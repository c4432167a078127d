// Package extract pulls closed repair orders from the remote system for one
// dealer and close date, keeps the ones carrying at least one of the dealer's
// eligible service codes, and shapes them into service records for the
// scheduler.
package extract

import (
	"context"
	"time"

	"nsa-scheduler/internal/common/logger"
	"nsa-scheduler/internal/dealer"
	"nsa-scheduler/internal/models"
	"nsa-scheduler/internal/provider/mykaarma"
)

// OrderSource is the slice of the provider client extraction depends on.
type OrderSource interface {
	SearchClosedOrders(ctx context.Context, departmentUUID string, closeDate time.Time, pageSize int) ([]mykaarma.OrderSummary, error)
	FetchOrderDetail(ctx context.Context, departmentUUID, orderUUID string) (*mykaarma.OrderDetail, error)
}

type Extractor struct {
	source   OrderSource
	pageSize int
	logger   logger.Logger
}

func New(source OrderSource, pageSize int, log logger.Logger) *Extractor {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Extractor{
		source:   source,
		pageSize: pageSize,
		logger:   log.WithFields(map[string]interface{}{"component": "extract"}),
	}
}

// Extract fetches every repair order closed on closeDate and returns records
// for the ones whose jobs intersect the dealer's eligible code set. A detail
// fetch that fails is logged and skipped so one bad order cannot sink the
// whole extraction.
func (e *Extractor) Extract(ctx context.Context, profile dealer.Profile, catalog map[string]string, closeDate time.Time) ([]models.ServiceRecord, error) {
	orders, err := e.source.SearchClosedOrders(ctx, profile.DepartmentUUID, closeDate, e.pageSize)
	if err != nil {
		return nil, err
	}
	e.logger.Info("Closed orders fetched", map[string]interface{}{
		"dealer_id":  profile.ID,
		"close_date": closeDate.Format("2006-01-02"),
		"count":      len(orders),
	})

	var records []models.ServiceRecord
	for _, summary := range orders {
		if summary.OrderUUID == "" {
			continue
		}
		detail, err := e.source.FetchOrderDetail(ctx, profile.DepartmentUUID, summary.OrderUUID)
		if err != nil {
			e.logger.WithError(err).Warn("Order detail fetch failed, skipping", map[string]interface{}{
				"order_uuid": summary.OrderUUID,
			})
			continue
		}
		if rec, ok := e.toRecord(profile, catalog, detail); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (e *Extractor) toRecord(profile dealer.Profile, catalog map[string]string, detail *mykaarma.OrderDetail) (models.ServiceRecord, bool) {
	codes := detail.Opcodes()
	if !anyEligible(codes, catalog) {
		return models.ServiceRecord{}, false
	}

	header := detail.Order.Header
	closeDate, err := time.Parse("2006-01-02", truncateDate(header.CloseDate))
	if err != nil {
		e.logger.Warn("Order has unparseable close date, skipping", map[string]interface{}{
			"order_uuid": detail.UUID,
			"close_date": header.CloseDate,
		})
		return models.ServiceRecord{}, false
	}

	return models.ServiceRecord{
		RecordID:  header.OrderNumber,
		OrderUUID: detail.UUID,
		DealerID:  profile.ID,
		CloseDate: closeDate,
		Customer: models.Customer{
			FirstName: detail.Order.Customer.FirstName,
			LastName:  detail.Order.Customer.LastName,
			Key:       detail.Order.Customer.Key,
			UUID:      detail.Order.Customer.UUID,
		},
		Vehicle: models.Vehicle{
			VIN:  detail.Order.Vehicle.VIN,
			UUID: detail.Order.Vehicle.UUID,
		},
		Opcodes: codes,
	}, true
}

func anyEligible(codes []string, catalog map[string]string) bool {
	for _, code := range codes {
		if _, ok := catalog[code]; ok {
			return true
		}
	}
	return false
}

// Close dates arrive as full timestamps; only the date portion matters.
func truncateDate(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}
