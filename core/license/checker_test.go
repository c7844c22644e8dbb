package license

import (
	"context"
	"testing"
	"time"
)

func TestChecker_CheckAll_orderIsDeterministic(t *testing.T) {
	fz := newFakeZoom(t)
	fz.statuses["h1@test.cd"] = "In_Meeting"
	fz.statuses["h2@test.cd"] = "Available"
	fz.statuses["h3@test.cd"] = "Presenting"
	fz.statuses["h4@test.cd"] = "Available"
	// skew completion order: the lowest seats answer last
	fz.delays["h1@test.cd"] = 60 * time.Millisecond
	fz.delays["h2@test.cd"] = 40 * time.Millisecond
	fz.delays["h3@test.cd"] = 20 * time.Millisecond

	checker := newTestChecker(fz, fz.conf("h1@test.cd", "h2@test.cd", "h3@test.cd", "h4@test.cd"))
	report := checker.CheckAll(context.Background())

	if len(report.Licenses) != 4 {
		t.Fatalf("len(Licenses) = %d, want 4", len(report.Licenses))
	}
	for i, res := range report.Licenses {
		if res.LicenseID != i+1 {
			t.Errorf("Licenses[%d].LicenseID = %d, want %d", i, res.LicenseID, i+1)
		}
	}
	if report.FirstAvailable == nil || *report.FirstAvailable != 2 {
		t.Errorf("FirstAvailable = %v, want 2", report.FirstAvailable)
	}
	if report.AllBusy {
		t.Error("AllBusy = true, want false")
	}
	if !report.ConfigurationValid {
		t.Error("ConfigurationValid = false, want true")
	}
	if report.Timestamp.IsZero() {
		t.Error("Timestamp is zero")
	}
}

func TestChecker_CheckAll_allBusy(t *testing.T) {
	fz := newFakeZoom(t)
	fz.statuses["h1@test.cd"] = "In_Meeting"
	fz.statuses["h2@test.cd"] = "Do_Not_Disturb"
	fz.statuses["h3@test.cd"] = "On_Phone_Call"

	checker := newTestChecker(fz, fz.conf("h1@test.cd", "h2@test.cd", "h3@test.cd"))
	report := checker.CheckAll(context.Background())

	if report.FirstAvailable != nil {
		t.Errorf("FirstAvailable = %v, want nil", *report.FirstAvailable)
	}
	if !report.AllBusy {
		t.Error("AllBusy = false, want true")
	}
}

func TestChecker_CheckAll_errorBlocksAllBusy(t *testing.T) {
	fz := newFakeZoom(t)
	fz.statuses["h1@test.cd"] = "In_Meeting"
	fz.statuses["h2@test.cd"] = "Busy"
	fz.failHosts["h3@test.cd"] = true

	checker := newTestChecker(fz, fz.conf("h1@test.cd", "h2@test.cd", "h3@test.cd"))
	report := checker.CheckAll(context.Background())

	if report.FirstAvailable != nil {
		t.Errorf("FirstAvailable = %v, want nil", *report.FirstAvailable)
	}
	if report.AllBusy {
		t.Error("AllBusy = true, want false (a seat errored)")
	}
	if got := report.Licenses[2].Status; got != StatusError {
		t.Errorf("Licenses[2].Status = %q, want %q", got, StatusError)
	}
}

func TestChecker_CheckAll_unmappedSeat(t *testing.T) {
	fz := newFakeZoom(t)
	fz.statuses["h1@test.cd"] = "In_Meeting"
	fz.statuses["h3@test.cd"] = "Presenting"

	checker := newTestChecker(fz, fz.conf("h1@test.cd", "", "h3@test.cd"))
	report := checker.CheckAll(context.Background())

	if got := report.Licenses[1].Status; got != StatusNotConfigured {
		t.Errorf("Licenses[1].Status = %q, want %q", got, StatusNotConfigured)
	}
	if report.Licenses[1].Available != nil {
		t.Errorf("Licenses[1].Available = %v, want nil", *report.Licenses[1].Available)
	}
	if report.AllBusy {
		t.Error("AllBusy = true, want false (a seat is unmapped)")
	}
	if report.ConfigurationValid {
		t.Error("ConfigurationValid = true, want false")
	}
}

func TestChecker_CheckOne(t *testing.T) {
	fz := newFakeZoom(t)
	fz.statuses["h1@test.cd"] = "Available"
	fz.statuses["h3@test.cd"] = "In_Meeting"

	checker := newTestChecker(fz, fz.conf("h1@test.cd", "", "h3@test.cd"))
	ctx := context.Background()

	t.Run("available", func(t *testing.T) {
		res, err := checker.CheckOne(ctx, 1)
		if err != nil {
			t.Fatalf("CheckOne() failed: %v", err)
		}
		if res.LicenseID != 1 {
			t.Errorf("LicenseID = %d, want 1", res.LicenseID)
		}
		if res.Available == nil || !*res.Available {
			t.Errorf("Available = %v, want true", res.Available)
		}
	})

	t.Run("busy", func(t *testing.T) {
		res, err := checker.CheckOne(ctx, 3)
		if err != nil {
			t.Fatalf("CheckOne() failed: %v", err)
		}
		if res.Available == nil || *res.Available {
			t.Errorf("Available = %v, want false", res.Available)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		for _, id := range []int{0, -1, 4} {
			if _, err := checker.CheckOne(ctx, id); err != ErrInvalidLicenseID {
				t.Errorf("CheckOne(%d) error = %v, want %v", id, err, ErrInvalidLicenseID)
			}
		}
	})

	t.Run("unconfigured seat", func(t *testing.T) {
		if _, err := checker.CheckOne(ctx, 2); err != ErrLicenseNotConfigured {
			t.Errorf("CheckOne(2) error = %v, want %v", err, ErrLicenseNotConfigured)
		}
	})
}
