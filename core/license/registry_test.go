package license

import (
	"reflect"
	"testing"

	"github.com/darasahq/darasa/core"
)

func registryConf(hosts ...string) *core.Config {
	return &core.Config{
		Zoom: core.ZoomConfig{
			LicenseCount: len(hosts),
			LicenseHosts: hosts,
		},
	}
}

func TestRegistry_Host(t *testing.T) {
	reg := NewRegistry(registryConf("a@test.cd", "", "c@test.cd", "d@test.cd"))

	tests := []struct {
		name    string
		id      int
		want    string
		wantErr error
	}{
		{name: "below range", id: 0, wantErr: ErrInvalidLicenseID},
		{name: "negative", id: -1, wantErr: ErrInvalidLicenseID},
		{name: "above range", id: 5, wantErr: ErrInvalidLicenseID},
		{name: "mapped", id: 1, want: "a@test.cd"},
		{name: "unmapped", id: 2, want: ""},
		{name: "last", id: 4, want: "d@test.cd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reg.Host(tt.id)
			if err != tt.wantErr {
				t.Fatalf("Host(%d) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Host(%d) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestRegistry_Slots(t *testing.T) {
	reg := NewRegistry(registryConf("a@test.cd", "", "c@test.cd"))

	want := []Slot{
		{ID: 1, Host: "a@test.cd"},
		{ID: 2, Host: ""},
		{ID: 3, Host: "c@test.cd"},
	}
	if got := reg.Slots(); !reflect.DeepEqual(got, want) {
		t.Errorf("Slots() = %v, want %v", got, want)
	}
}

func TestRegistry_Validate(t *testing.T) {
	t.Run("all mapped", func(t *testing.T) {
		v := NewRegistry(registryConf("a@test.cd", "b@test.cd")).Validate()
		if !v.Valid {
			t.Error("Validate().Valid = false, want true")
		}
		if v.MissingIDs != nil {
			t.Errorf("Validate().MissingIDs = %v, want nil", v.MissingIDs)
		}
	})

	t.Run("missing seats", func(t *testing.T) {
		v := NewRegistry(registryConf("", "b@test.cd", "", "d@test.cd")).Validate()
		if v.Valid {
			t.Error("Validate().Valid = true, want false")
		}
		if want := []int{1, 3}; !reflect.DeepEqual(v.MissingIDs, want) {
			t.Errorf("Validate().MissingIDs = %v, want %v", v.MissingIDs, want)
		}
	})
}
