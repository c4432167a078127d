// Package audit indexes scheduling outcomes into Elasticsearch, one document
// per record per run. The sink is best effort: indexing failures are logged
// and reported but never interfere with scheduling.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"nsa-scheduler/internal/common/logger"
	"nsa-scheduler/internal/models"
)

type Sink struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
	now    func() time.Time
}

// document is the indexed shape of one scheduling outcome.
type document struct {
	RunID           string     `json:"runId"`
	RecordID        string     `json:"recordId"`
	DealerID        string     `json:"dealerId"`
	Outcome         string     `json:"outcome"`
	ScheduledStart  *time.Time `json:"scheduledStart,omitempty"`
	AppointmentUUID string     `json:"appointmentUuid,omitempty"`
	NotifyStatus    string     `json:"notifyStatus,omitempty"`
	FailureReason   string     `json:"failureReason,omitempty"`
	IndexedAt       time.Time  `json:"indexedAt"`
}

func New(client *elasticsearch.Client, index string, log logger.Logger) *Sink {
	return &Sink{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "audit"}),
		now:    time.Now,
	}
}

// IndexRun writes one document per result and returns the number indexed.
func (s *Sink) IndexRun(ctx context.Context, runID string, results []models.ScheduleResult) int {
	indexed := 0
	for _, r := range results {
		if err := s.indexResult(ctx, runID, r); err != nil {
			s.logger.WithError(err).Warn("Outcome document not indexed", map[string]interface{}{
				"record_id": r.RecordID,
			})
			continue
		}
		indexed++
	}
	return indexed
}

func (s *Sink) indexResult(ctx context.Context, runID string, r models.ScheduleResult) error {
	doc := document{
		RunID:           runID,
		RecordID:        r.RecordID,
		DealerID:        r.DealerID,
		Outcome:         string(r.Outcome),
		AppointmentUUID: r.AppointmentUUID,
		NotifyStatus:    r.NotifyStatus,
		FailureReason:   r.FailureReason,
		IndexedAt:       s.now(),
	}
	if !r.ScheduledStart.IsZero() {
		t := r.ScheduledStart
		doc.ScheduledStart = &t
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: fmt.Sprintf("%s-%s", runID, r.RecordID),
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index request returned %s", res.Status())
	}
	return nil
}
