package license

import (
	"github.com/darasahq/darasa/core"
)

// Slot is one license seat and the Zoom host mapped to it, if any.
type Slot struct {
	ID   int
	Host string
}

// Validation reports which license seats have no host mapped.
type Validation struct {
	Valid      bool  `json:"valid"`
	MissingIDs []int `json:"missing_ids,omitempty"`
}

// Registry is a pure view over configuration; mappings are re-read on every
// call so a config reload takes effect without restart plumbing.
type Registry struct {
	conf *core.Config
}

func NewRegistry(conf *core.Config) *Registry {
	return &Registry{conf: conf}
}

func (r *Registry) Count() int {
	return r.conf.Zoom.LicenseCount
}

// Host resolves a license id to its Zoom host; "" means the seat is unmapped.
func (r *Registry) Host(id int) (string, error) {
	if id < 1 || id > r.Count() {
		return "", ErrInvalidLicenseID
	}
	return r.conf.Zoom.LicenseHosts[id-1], nil
}

// Slots enumerates all seats in ascending id order.
func (r *Registry) Slots() []Slot {
	slots := make([]Slot, 0, r.Count())
	for id := 1; id <= r.Count(); id++ {
		host, _ := r.Host(id)
		slots = append(slots, Slot{ID: id, Host: host})
	}
	return slots
}

func (r *Registry) Validate() Validation {
	v := Validation{Valid: true}
	for _, slot := range r.Slots() {
		if slot.Host == "" {
			v.Valid = false
			v.MissingIDs = append(v.MissingIDs, slot.ID)
		}
	}
	return v
}
