package middleware

import (
	"github.com/deppfellow/restcore/internal/errs"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// AvailabilityRecorder reports requests refused with 503, which in this
// service means a pool could not hand out a connection in time or was
// closed.
type AvailabilityRecorder struct {
	nrApp *newrelic.Application
}

func NewAvailabilityRecorder(nrApp *newrelic.Application) *AvailabilityRecorder {
	return &AvailabilityRecorder{nrApp: nrApp}
}

// RecordUnavailableHit records a custom New Relic event. It is a no-op
// without New Relic.
func (a *AvailabilityRecorder) RecordUnavailableHit(endpoint string, cond errs.Condition) {
	if a == nil || a.nrApp == nil {
		return
	}
	a.nrApp.RecordCustomEvent("ServiceUnavailable", map[string]interface{}{
		"endpoint":  endpoint,
		"err_no":    cond.Code,
		"condition": string(cond.Name),
	})
}
