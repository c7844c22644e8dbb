package license

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/darasahq/darasa/metrics"
)

// Report is the aggregate availability view over all license seats.
// Licenses is always ordered by ascending license id, regardless of the order
// in which the presence checks complete.
type Report struct {
	Licenses           []Result  `json:"licenses"`
	FirstAvailable     *int      `json:"firstAvailable"`
	AllBusy            bool      `json:"allBusy"`
	ConfigurationValid bool      `json:"configurationValid"`
	Timestamp          time.Time `json:"timestamp"`
}

// Checker fans presence checks out over all license seats.
type Checker struct {
	registry *Registry
	presence *PresenceClient
}

func NewChecker(registry *Registry, presence *PresenceClient) *Checker {
	return &Checker{
		registry: registry,
		presence: presence,
	}
}

// CheckAll checks every seat concurrently and reduces to a Report.
// Unmapped seats short-circuit locally without a network call. A failing seat
// degrades to an unknown entry; it never aborts its siblings.
func (ch *Checker) CheckAll(ctx context.Context) Report {
	started := time.Now()
	validation := ch.registry.Validate()
	slots := ch.registry.Slots()

	results := make([]Result, len(slots))
	g, gctx := errgroup.WithContext(ctx) // branches return nil: no branch cancels its siblings
	for i, slot := range slots {
		i, slot := i, slot
		if slot.Host == "" {
			results[i] = Result{LicenseID: slot.ID, Status: StatusNotConfigured}
			continue
		}
		g.Go(func() error {
			res := ch.presence.IsAvailable(gctx, slot.Host)
			res.LicenseID = slot.ID
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	report := Report{
		Licenses:           results,
		ConfigurationValid: validation.Valid,
		Timestamp:          time.Now().UTC(),
	}
	for _, res := range results {
		if res.Available != nil && *res.Available {
			id := res.LicenseID
			report.FirstAvailable = &id
			break
		}
	}

	// allBusy holds only when nothing is available AND every seat was actually
	// checked; a block of unmapped or errored seats must not read as "all busy".
	allBusy := report.FirstAvailable == nil
	if allBusy {
		for _, res := range results {
			if res.Status == StatusError || res.Status == StatusNotConfigured {
				allBusy = false
				break
			}
		}
	}
	report.AllBusy = allBusy

	metrics.AvailabilityRequests.Inc()
	metrics.AvailabilityDuration.Observe(time.Since(started).Seconds())
	return report
}

// CheckOne checks a single seat. The range check runs before any lookup.
func (ch *Checker) CheckOne(ctx context.Context, id int) (Result, error) {
	host, err := ch.registry.Host(id)
	if err != nil {
		return Result{}, err
	}
	if host == "" {
		return Result{}, ErrLicenseNotConfigured
	}

	res := ch.presence.IsAvailable(ctx, host)
	res.LicenseID = id
	return res, nil
}
