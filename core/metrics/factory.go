// Package metrics defines interfaces and implementations for collecting
// matching metrics. Sinks like PromSink and InfluxSink record events such as
// donor assignments or notification outcomes and can be combined with
// NewMultiSink. The factory helpers return a MultiSink automatically when
// multiple sinks are configured.
package metrics

import "github.com/harsheyeditor/OneBlood/core/factory"

var sinkRegistry = factory.NewRegistry[MatchSink]()

// RegisterMatchSink adds a match sink factory identified by name.
func RegisterMatchSink(name string, f factory.Factory[MatchSink]) error {
	return sinkRegistry.Register(name, f)
}

// NewMatchSink creates a MatchSink from the provided configuration.
func NewMatchSink(cfgs []factory.ModuleConfig) (MatchSink, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	if len(cfgs) == 1 {
		return sinkRegistry.Create(cfgs[0])
	}
	sinks := make([]MatchSink, len(cfgs))
	for i, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			return nil, err
		}
		sinks[i] = s
	}
	return NewMultiSink(sinks...), nil
}

// MultiSink fans out match results to multiple sinks.
type MultiSink struct {
	Sinks []MatchSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MatchSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordMatchResult forwards the record to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordMatchResult(res []MatchResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordMatchResult(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordNotification forwards notification events.
func (m *MultiSink) RecordNotification(ev NotificationEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(NotificationRecorder); ok {
			if err := rec.RecordNotification(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordResponse forwards donor reply events.
func (m *MultiSink) RecordResponse(ev ResponseEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ResponseRecorder); ok {
			if err := rec.RecordResponse(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordSweep forwards sweep events.
func (m *MultiSink) RecordSweep(ev SweepEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SweepRecorder); ok {
			if err := rec.RecordSweep(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
