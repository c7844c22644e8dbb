package tests

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/darasahq/darasa/core/license"
	"github.com/darasahq/darasa/core/user"
	testutil "github.com/darasahq/darasa/tests"
)

type availabilityReport struct {
	Licenses           []license.Result `json:"licenses"`
	FirstAvailable     *int             `json:"firstAvailable"`
	AllBusy            bool             `json:"allBusy"`
	ConfigurationValid bool             `json:"configurationValid"`
}

func Test_licenseApi_checkAll(t *testing.T) {
	db.Reset()

	usr := testutil.CreateUser(t, usrRepo, "User", "awe", "awe@test.cd", "", []string{user.RoleTeacher}, true)
	token := getToken(t, usr)

	zoom.setStatus("h1@test.cd", "In_Meeting")
	zoom.setStatus("h2@test.cd", "Available")

	t.Run("auth required", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}
		req, rec := newRequest(http.MethodGet, "/v1/license-availability")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("report", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/license-availability", token)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var report availabilityReport
		if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if len(report.Licenses) != 3 {
			t.Fatalf("len(Licenses) = %d, want 3", len(report.Licenses))
		}
		for i, res := range report.Licenses {
			if res.LicenseID != i+1 {
				t.Errorf("Licenses[%d].LicenseID = %d, want %d", i, res.LicenseID, i+1)
			}
		}
		if report.FirstAvailable == nil || *report.FirstAvailable != 2 {
			t.Errorf("firstAvailable = %v, want 2", report.FirstAvailable)
		}
		if report.AllBusy {
			t.Error("allBusy = true, want false")
		}
		// seat 3 is unmapped
		if report.ConfigurationValid {
			t.Error("configurationValid = true, want false")
		}
		if got := report.Licenses[2].Status; got != license.StatusNotConfigured {
			t.Errorf("Licenses[2].Status = %q, want %q", got, license.StatusNotConfigured)
		}
	})
}

func Test_licenseApi_checkOne(t *testing.T) {
	db.Reset()

	usr := testutil.CreateUser(t, usrRepo, "User", "awe", "awe@test.cd", "", []string{user.RoleTeacher}, true)
	token := getToken(t, usr)

	zoom.setStatus("h1@test.cd", "Available")
	zoom.setStatus("h2@test.cd", "Presenting")

	t.Run("auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/license-availability/1")
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("available seat", func(t *testing.T) {
		body := marchallObj(t, map[string]int{"licenseId": 1})
		req, rec := newAuthRequest(http.MethodPost, "/v1/license-availability/1", token, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var res license.Result
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if res.LicenseID != 1 {
			t.Errorf("licenseId = %d, want 1", res.LicenseID)
		}
		if res.Available == nil || !*res.Available {
			t.Errorf("available = %v, want true", res.Available)
		}
	})

	t.Run("busy seat via path param", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/license-availability/2", token)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var res license.Result
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if res.Available == nil || *res.Available {
			t.Errorf("available = %v, want false", res.Available)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		body := marchallObj(t, map[string]int{"licenseId": 99})
		req, rec := newAuthRequest(http.MethodPost, "/v1/license-availability/99", token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("garbage id", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/license-availability/lol", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("unconfigured seat", func(t *testing.T) {
		body := marchallObj(t, map[string]int{"licenseId": 3})
		req, rec := newAuthRequest(http.MethodPost, "/v1/license-availability/3", token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusInternalServerError)
		}
	})
}

func Test_healthApi(t *testing.T) {
	req, rec := newRequest(http.MethodGet, "/health")
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Status             string `json:"status"`
		CredentialsSet     bool   `json:"credentialsSet"`
		ConfigurationValid bool   `json:"configurationValid"`
		MissingIDs         []int  `json:"missingIds"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !res.CredentialsSet {
		t.Error("credentialsSet = false, want true")
	}
	// seat 3 has no host mapped
	if res.Status != "degraded" {
		t.Errorf("status = %q, want %q", res.Status, "degraded")
	}
	if res.ConfigurationValid {
		t.Error("configurationValid = true, want false")
	}
	if len(res.MissingIDs) != 1 || res.MissingIDs[0] != 3 {
		t.Errorf("missingIds = %v, want [3]", res.MissingIDs)
	}
}

func Test_metricsEndpoint(t *testing.T) {
	req, rec := newRequest(http.MethodGet, "/metrics")
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "darasa_license_availability_requests_total") {
		t.Error("failed! availability requests counter not exposed")
	}
}
