// Package roster holds the technician directory and the eligibility and
// assignment rules used by the scheduler.
package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// SkillLevel orders technicians by seniority; higher values outrank lower.
type SkillLevel int

const (
	SkillApprentice SkillLevel = iota + 1
	SkillJourneyman
	SkillSenior
	SkillMaster
)

var skillNames = map[string]SkillLevel{
	"apprentice": SkillApprentice,
	"journeyman": SkillJourneyman,
	"senior":     SkillSenior,
	"master":     SkillMaster,
}

// String returns the lowercase skill name.
func (s SkillLevel) String() string {
	switch s {
	case SkillApprentice:
		return "apprentice"
	case SkillJourneyman:
		return "journeyman"
	case SkillSenior:
		return "senior"
	case SkillMaster:
		return "master"
	}
	return "unknown"
}

// UnmarshalJSON accepts skill levels by name.
func (s *SkillLevel) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	level, ok := skillNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return fmt.Errorf("roster: unknown skill level %q", name)
	}
	*s = level
	return nil
}

// Technician is immutable reference data within a scheduling transaction.
type Technician struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Skill               SkillLevel `json:"skill_level"`
	Certifications      []string   `json:"certifications"`
	ServiceAreaPrefixes []string   `json:"service_area_prefixes"`
	CanHandleEmergency  bool       `json:"can_handle_emergency"`
	CanHandleCommercial bool       `json:"can_handle_commercial"`
	OdooUserRef         int        `json:"odoo_user_ref"`
}

// CoversArea reports whether the technician serves the given location. An
// empty location skips the area filter entirely.
func (t Technician) CoversArea(location string) bool {
	if strings.TrimSpace(location) == "" {
		return true
	}
	loc := strings.ToLower(strings.TrimSpace(location))
	for _, prefix := range t.ServiceAreaPrefixes {
		p := strings.ToLower(strings.TrimSpace(prefix))
		if p == "" {
			continue
		}
		if strings.HasPrefix(loc, p) || strings.HasPrefix(p, loc) {
			return true
		}
	}
	return false
}

// Directory exposes technicians to the scheduler. Implementations may be a
// static table or a live lookup; the scheduler treats both uniformly.
type Directory interface {
	// ListEligible returns technicians able to take the job, ordered by
	// descending skill level.
	ListEligible(ctx context.Context, location string, isEmergency, isCommercial bool) ([]Technician, error)
	// Get returns a technician by id.
	Get(ctx context.Context, id string) (Technician, bool, error)
}

// StaticDirectory is a Directory backed by an in-memory technician table
// loaded at startup.
type StaticDirectory struct {
	technicians []Technician
}

// NewStaticDirectory builds a directory from the given technicians.
func NewStaticDirectory(technicians []Technician) *StaticDirectory {
	copied := make([]Technician, len(technicians))
	copy(copied, technicians)
	return &StaticDirectory{technicians: copied}
}

// LoadFile reads a roster JSON file into a StaticDirectory.
func LoadFile(path string) (*StaticDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("roster: read %s: %w", path, err)
	}
	var technicians []Technician
	if err := json.Unmarshal(data, &technicians); err != nil {
		return nil, fmt.Errorf("roster: parse %s: %w", path, err)
	}
	for _, tech := range technicians {
		if strings.TrimSpace(tech.ID) == "" {
			return nil, fmt.Errorf("roster: technician missing id in %s", path)
		}
	}
	return NewStaticDirectory(technicians), nil
}

// ListEligible filters by emergency capability, commercial capability, and
// service area, then orders by descending skill level. The order is stable
// for technicians of equal skill.
func (d *StaticDirectory) ListEligible(_ context.Context, location string, isEmergency, isCommercial bool) ([]Technician, error) {
	var eligible []Technician
	for _, tech := range d.technicians {
		if isEmergency && !tech.CanHandleEmergency {
			continue
		}
		if isCommercial && !tech.CanHandleCommercial {
			continue
		}
		if !tech.CoversArea(location) {
			continue
		}
		eligible = append(eligible, tech)
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Skill > eligible[j].Skill
	})
	return eligible, nil
}

// Get returns a technician by id.
func (d *StaticDirectory) Get(_ context.Context, id string) (Technician, bool, error) {
	for _, tech := range d.technicians {
		if tech.ID == id {
			return tech, true, nil
		}
	}
	return Technician{}, false, nil
}

// Assign picks the technician for a job. A preferred technician is honored
// only when they satisfy the emergency/commercial predicates; otherwise the
// first eligible technician wins. Returns false when nobody is eligible,
// which routes the request to human dispatch.
func Assign(ctx context.Context, dir Directory, location string, isEmergency, isCommercial bool, preferredID string) (Technician, bool, error) {
	if preferredID != "" {
		preferred, found, err := dir.Get(ctx, preferredID)
		if err != nil {
			return Technician{}, false, fmt.Errorf("roster: lookup preferred technician: %w", err)
		}
		if found && capableOf(preferred, isEmergency, isCommercial) && preferred.CoversArea(location) {
			return preferred, true, nil
		}
	}

	eligible, err := dir.ListEligible(ctx, location, isEmergency, isCommercial)
	if err != nil {
		return Technician{}, false, fmt.Errorf("roster: list eligible: %w", err)
	}
	if len(eligible) == 0 {
		return Technician{}, false, nil
	}
	return eligible[0], true, nil
}

func capableOf(tech Technician, isEmergency, isCommercial bool) bool {
	if isEmergency && !tech.CanHandleEmergency {
		return false
	}
	if isCommercial && !tech.CanHandleCommercial {
		return false
	}
	return true
}
