// Package scheduler drives each extracted service record through duplicate
// checking, slot search, appointment creation, cache persistence, and
// customer notification.
package scheduler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"nsa-scheduler/internal/common/config"
	apperrors "nsa-scheduler/internal/common/errors"
	"nsa-scheduler/internal/common/logger"
	"nsa-scheduler/internal/common/metrics"
	"nsa-scheduler/internal/common/observability"
	"nsa-scheduler/internal/dealer"
	"nsa-scheduler/internal/dedup"
	"nsa-scheduler/internal/models"
	"nsa-scheduler/internal/opcode"
)

// Provider is the remote booking surface the scheduler depends on.
type Provider interface {
	SlotSize(ctx context.Context, dealerUUID string) (time.Duration, error)
	FirstAvailableSlot(ctx context.Context, departmentUUID string, rec models.ServiceRecord, opcodes []string, day time.Time) (time.Time, bool, error)
	CreateAppointment(ctx context.Context, dealerUUID string, rec models.ServiceRecord, slot models.Slot, opcodes []string, descriptions map[string]string) (string, error)
}

// Notifier tells the customer about a freshly created appointment. Failures
// are reported through the returned status, never as an error that would
// undo the booking.
type Notifier interface {
	Notify(ctx context.Context, profile dealer.Profile, rec models.ServiceRecord, appt models.AppointmentRecord) string
}

type Scheduler struct {
	cfg      config.SchedulerConfig
	provider Provider
	store    dedup.Store
	notifier Notifier
	registry *dealer.Registry
	catalogs map[string]map[string]string
	logger   logger.Logger
	obs      *observability.Observability

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter
	perSecond float64

	now func() time.Time
}

type Options struct {
	Config   config.SchedulerConfig
	Provider Provider
	Store    dedup.Store
	Notifier Notifier
	Registry *dealer.Registry
	// Catalogs maps dealer id to that dealer's opcode set (code to
	// description), loaded from the dealer's workbook.
	Catalogs map[string]map[string]string
	Logger   logger.Logger
	Obs      *observability.Observability
	// RequestsPerSec caps outbound provider calls per dealer.
	RequestsPerSec float64
}

func New(opts Options) *Scheduler {
	if opts.Config.Workers < 1 {
		opts.Config.Workers = 1
	}
	return &Scheduler{
		cfg:       opts.Config,
		provider:  opts.Provider,
		store:     opts.Store,
		notifier:  opts.Notifier,
		registry:  opts.Registry,
		catalogs:  opts.Catalogs,
		logger:    opts.Logger.WithFields(map[string]interface{}{"component": "scheduler"}),
		obs:       opts.Obs,
		limiters:  make(map[string]*rate.Limiter),
		perSecond: opts.RequestsPerSec,
		now:       time.Now,
	}
}

// Run processes the records on a bounded worker pool and returns one result
// per record, in completion order. Cancelling the context stops dispatching
// new records; records already in flight run to completion so no appointment
// is created without its cache entry.
func (s *Scheduler) Run(ctx context.Context, records []models.ServiceRecord, decision models.Decision) []models.ScheduleResult {
	jobs := make(chan models.ServiceRecord)
	out := make(chan models.ScheduleResult)

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				out <- s.processRecord(ctx, rec, decision)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, rec := range records {
			select {
			case <-ctx.Done():
				return
			case jobs <- rec:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	results := make([]models.ScheduleResult, 0, len(records))
	for r := range out {
		results = append(results, r)
	}
	return results
}

func (s *Scheduler) processRecord(ctx context.Context, rec models.ServiceRecord, decision models.Decision) models.ScheduleResult {
	started := s.now()
	result := s.schedule(ctx, rec, decision)

	metrics.RecordsProcessed.WithLabelValues(rec.DealerID, string(result.Outcome)).Inc()
	if s.obs != nil {
		s.obs.RecordProcessed(ctx, string(result.Outcome))
		s.obs.RecordDuration(ctx, s.now().Sub(started), string(result.Outcome))
	}
	return result
}

func (s *Scheduler) schedule(ctx context.Context, rec models.ServiceRecord, decision models.Decision) models.ScheduleResult {
	log := s.logger.WithFields(map[string]interface{}{
		"record_id": rec.RecordID,
		"dealer_id": rec.DealerID,
	})

	profile, ok := s.registry.Get(rec.DealerID)
	if !ok {
		log.Warn("Dealer not in registry, skipping record", nil)
		return s.failed(rec, "dealer not in registry")
	}

	existing, found, err := s.store.Lookup(ctx, rec.RecordID)
	if err != nil {
		log.WithError(err).Error("Cache lookup failed", nil)
		return s.failed(rec, err.Error())
	}
	override := false
	if found {
		if decision != models.DecisionRecreate {
			log.Info("Appointment already exists, skipping", map[string]interface{}{
				"appointment_uuid": existing.AppointmentUUID,
			})
			return models.ScheduleResult{
				RecordID:        rec.RecordID,
				DealerID:        rec.DealerID,
				Outcome:         models.OutcomeSkippedDuplicate,
				ScheduledStart:  existing.ScheduledStart,
				AppointmentUUID: existing.AppointmentUUID,
				NotifyStatus:    models.NotifyStatusSkipped,
			}
		}
		override = true
	}

	catalog := s.catalogs[rec.DealerID]
	codes := opcode.Resolve(opcode.Filter(rec.Opcodes, catalog), profile.DefaultOpcode)
	descriptions := opcode.Descriptions(codes, catalog)

	months := profile.IntervalMonths
	if months <= 0 {
		months = s.cfg.DefaultIntervalMonths
	}
	target := NextServiceDate(rec.CloseDate, months, s.now())

	slotStart, found, err := s.searchSlot(ctx, profile, rec, codes, target)
	if err != nil {
		log.WithError(err).Error("Slot search failed", nil)
		return s.failed(rec, err.Error())
	}
	if !found {
		log.Warn("No slot available inside the search window", map[string]interface{}{
			"target_date": target.Format("2006-01-02"),
			"window_days": s.cfg.SearchWindowDays,
		})
		exhausted := apperrors.NewSlotExhaustedError(rec.RecordID, s.cfg.SearchWindowDays)
		return models.ScheduleResult{
			RecordID:      rec.RecordID,
			DealerID:      rec.DealerID,
			Outcome:       models.OutcomeSlotExhausted,
			NotifyStatus:  models.NotifyStatusSkipped,
			FailureReason: exhausted.Message,
		}
	}

	var slotSize time.Duration
	err = s.retryTransient(ctx, "hours_of_operation", func() error {
		var err error
		slotSize, err = s.provider.SlotSize(ctx, profile.DealerUUID)
		return err
	})
	if err != nil {
		log.WithError(err).Error("Slot size fetch failed", nil)
		return s.failed(rec, err.Error())
	}
	slot := models.Slot{Start: slotStart, Duration: slotSize}

	var apptUUID string
	err = s.retryTransient(ctx, "create_appointment", func() error {
		var err error
		apptUUID, err = s.provider.CreateAppointment(ctx, profile.DealerUUID, rec, slot, codes, descriptions)
		return err
	})
	if err != nil {
		log.WithError(err).Error("Appointment creation failed", nil)
		return s.failed(rec, err.Error())
	}
	metrics.AppointmentsCreated.WithLabelValues(rec.DealerID).Inc()

	entry := models.AppointmentRecord{
		RecordID:        rec.RecordID,
		AppointmentUUID: apptUUID,
		Customer:        rec.Customer,
		DealerID:        rec.DealerID,
		ScheduledStart:  slot.Start,
		CreatedAt:       s.now(),
		Opcodes:         codes,
	}
	// The cache entry must be durable before anyone is told about the
	// appointment; a crash after this point can at worst lose a
	// notification, never create a second booking.
	if err := s.store.Record(ctx, entry, override); err != nil {
		log.WithError(err).Error("Cache write failed after appointment creation", map[string]interface{}{
			"appointment_uuid": apptUUID,
		})
		return models.ScheduleResult{
			RecordID:        rec.RecordID,
			DealerID:        rec.DealerID,
			Outcome:         models.OutcomeFailed,
			ScheduledStart:  slot.Start,
			AppointmentUUID: apptUUID,
			NotifyStatus:    models.NotifyStatusSkipped,
			FailureReason:   err.Error(),
		}
	}

	notifyStatus := models.NotifyStatusSkipped
	if s.notifier != nil {
		notifyStatus = s.notifier.Notify(ctx, profile, rec, entry)
	}

	log.Info("Record scheduled", map[string]interface{}{
		"appointment_uuid": apptUUID,
		"scheduled_start":  slot.Start.Format(time.RFC3339),
		"notify_status":    notifyStatus,
	})
	return models.ScheduleResult{
		RecordID:        rec.RecordID,
		DealerID:        rec.DealerID,
		Outcome:         models.OutcomeDone,
		ScheduledStart:  slot.Start,
		AppointmentUUID: apptUUID,
		NotifyStatus:    notifyStatus,
	}
}

// searchSlot widens the search one day at a time from the target date until
// the provider offers a slot or the window is exhausted.
func (s *Scheduler) searchSlot(ctx context.Context, profile dealer.Profile, rec models.ServiceRecord, codes []string, target time.Time) (time.Time, bool, error) {
	timer := time.Now()
	defer func() {
		metrics.SlotSearchDuration.WithLabelValues(rec.DealerID).Observe(time.Since(timer).Seconds())
	}()

	for offset := 0; offset <= s.cfg.SearchWindowDays; offset++ {
		day := target.AddDate(0, 0, offset)
		if err := s.limiter(rec.DealerID).Wait(ctx); err != nil {
			return time.Time{}, false, apperrors.NewProviderTransientError("first_available_slot", err)
		}

		var start time.Time
		var offered bool
		err := s.retryTransient(ctx, "first_available_slot", func() error {
			var err error
			start, offered, err = s.provider.FirstAvailableSlot(ctx, profile.DepartmentUUID, rec, codes, day)
			return err
		})
		if err != nil {
			return time.Time{}, false, err
		}
		if offered {
			return start, true, nil
		}
	}
	return time.Time{}, false, nil
}

func (s *Scheduler) retryTransient(ctx context.Context, operation string, fn func() error) error {
	backoff := config.GetDuration(s.cfg.RetryBackoff)
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !apperrors.IsRetryable(err) || attempt >= s.cfg.MaxRetries {
			return err
		}
		metrics.ProviderRetries.WithLabelValues(operation).Inc()
		s.logger.Warn("Transient provider error, backing off", map[string]interface{}{
			"operation": operation,
			"attempt":   attempt + 1,
			"backoff":   backoff.String(),
		})
		select {
		case <-ctx.Done():
			return err
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func (s *Scheduler) limiter(dealerID string) *rate.Limiter {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()
	lim, ok := s.limiters[dealerID]
	if !ok {
		limit := rate.Limit(s.perSecond)
		if limit <= 0 {
			limit = rate.Inf
		}
		lim = rate.NewLimiter(limit, 1)
		s.limiters[dealerID] = lim
	}
	return lim
}

func (s *Scheduler) failed(rec models.ServiceRecord, reason string) models.ScheduleResult {
	return models.ScheduleResult{
		RecordID:      rec.RecordID,
		DealerID:      rec.DealerID,
		Outcome:       models.OutcomeFailed,
		NotifyStatus:  models.NotifyStatusSkipped,
		FailureReason: reason,
	}
}
