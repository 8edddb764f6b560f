package report

import (
	"context"
	"errors"
	"log/slog"

	"github.com/joseph-ayodele/certificates-processor/internal/certificate"
)

type multiSink struct {
	sinks  []Sink
	logger *slog.Logger
}

// Multi fans every call out to sinks. The first sink is required: its Init failure fails the
// folder. Later sinks that fail to Init are logged and left out for that folder.
func Multi(logger *slog.Logger, sinks ...Sink) Sink {
	if logger == nil {
		logger = slog.Default()
	}
	if len(sinks) == 1 {
		return sinks[0]
	}
	return &multiSink{sinks: sinks, logger: logger}
}

func (m *multiSink) Init(ctx context.Context, folder string) (Report, error) {
	var reports multiReport
	for i, s := range m.sinks {
		r, err := s.Init(ctx, folder)
		if err != nil {
			if i == 0 {
				for _, opened := range reports {
					_ = opened.FinalizeSummary(ctx, Counters{})
				}
				return nil, err
			}
			m.logger.Warn("report.sink.init_failed", "folder", folder, "sink", i, "error", err)
			continue
		}
		reports = append(reports, r)
	}
	return reports, nil
}

type multiReport []Report

func (m multiReport) AppendProcessed(ctx context.Context, rec certificate.Record, original, renamed string) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.AppendProcessed(ctx, rec, original, renamed))
	}
	return errors.Join(errs...)
}

func (m multiReport) AppendDuplicate(ctx context.Context, rec certificate.Record, original, owner, reason string) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.AppendDuplicate(ctx, rec, original, owner, reason))
	}
	return errors.Join(errs...)
}

func (m multiReport) AppendError(ctx context.Context, original, kind, detail string, partial *certificate.Record) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.AppendError(ctx, original, kind, detail, partial))
	}
	return errors.Join(errs...)
}

func (m multiReport) FinalizeSummary(ctx context.Context, c Counters) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.FinalizeSummary(ctx, c))
	}
	return errors.Join(errs...)
}
