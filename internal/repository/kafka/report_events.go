package kafka

import (
	"context"

	"github.com/NordCoder/autocheckin/internal/domain/checkin"

	"github.com/segmentio/kafka-go"
)

const reportEventType = "checkin.report"

// ReportEvents publishes one JSON message per checkin run, keyed by run id.
// Passwords never leave the process: results carry masked accounts only.
type ReportEvents struct {
	p *Producer
}

func NewReportEvents(p *Producer) *ReportEvents { return &ReportEvents{p: p} }

var _ checkin.ReportPublisher = (*ReportEvents)(nil)

func (e *ReportEvents) PublishReport(ctx context.Context, r *checkin.Report) error {
	return e.p.PublishJSON(ctx, []byte(r.RunID), r,
		kafka.Header{Key: headerEventType, Value: []byte(reportEventType)},
		kafka.Header{Key: headerTrigger, Value: []byte(r.Trigger)},
	)
}
