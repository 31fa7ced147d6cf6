package bootstrap

import (
	"context"
	"time"

	"github.com/kbukum/gobatch/component"
	"github.com/kbukum/gobatch/logger"
)

// ComponentSummary is one line of the startup summary.
type ComponentSummary struct {
	Name    string
	Type    string
	Details string
	Status  component.HealthStatus
}

// Summary collects what was started and how long it took.
type Summary struct {
	Service    string
	Version    string
	Startup    time.Duration
	Components []ComponentSummary
}

// Collect builds a summary from the registry. Components that do not
// implement component.Describable are listed by name only.
func Collect(ctx context.Context, reg *component.Registry) []ComponentSummary {
	names := reg.Names()
	health := make(map[string]component.HealthStatus)
	for _, h := range reg.HealthAll(ctx) {
		health[h.Name] = h.Status
	}

	out := make([]ComponentSummary, 0, len(names))
	for _, name := range names {
		c := reg.Get(name)
		if c == nil {
			continue
		}
		s := ComponentSummary{Name: name, Status: health[name]}
		if d, ok := c.(component.Describable); ok {
			desc := d.Describe()
			s.Type, s.Details = desc.Type, desc.Details
		}
		out = append(out, s)
	}
	return out
}

// Log writes the summary as one info line per component.
func (s *Summary) Log(log *logger.Logger) {
	log.Info("startup complete", logger.Fields(
		"name", s.Service,
		"version", s.Version,
		"components", len(s.Components),
		logger.FieldDuration, s.Startup.Milliseconds(),
	))
	for _, c := range s.Components {
		log.Info("component ready", logger.Fields(
			logger.FieldComponent, c.Name,
			"type", c.Type,
			"details", c.Details,
			"health", string(c.Status),
		))
	}
}
