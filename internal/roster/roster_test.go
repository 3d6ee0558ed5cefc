package roster

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func testTechnicians() []Technician {
	return []Technician{
		{
			ID:                  "tech-apprentice",
			Name:                "Casey",
			Skill:               SkillApprentice,
			ServiceAreaPrefixes: []string{"752"},
		},
		{
			ID:                  "tech-master",
			Name:                "Jordan",
			Skill:               SkillMaster,
			ServiceAreaPrefixes: []string{"752", "750"},
			CanHandleEmergency:  true,
			CanHandleCommercial: true,
		},
		{
			ID:                  "tech-senior",
			Name:                "Riley",
			Skill:               SkillSenior,
			ServiceAreaPrefixes: []string{"752"},
			CanHandleEmergency:  true,
		},
	}
}

func TestListEligibleOrdersBySkill(t *testing.T) {
	dir := NewStaticDirectory(testTechnicians())

	eligible, err := dir.ListEligible(context.Background(), "75201", false, false)
	if err != nil {
		t.Fatalf("ListEligible: %v", err)
	}
	if len(eligible) != 3 {
		t.Fatalf("expected 3 eligible, got %d", len(eligible))
	}
	if eligible[0].ID != "tech-master" || eligible[1].ID != "tech-senior" || eligible[2].ID != "tech-apprentice" {
		t.Fatalf("unexpected order: %s, %s, %s", eligible[0].ID, eligible[1].ID, eligible[2].ID)
	}
}

func TestListEligibleFiltersCapabilities(t *testing.T) {
	dir := NewStaticDirectory(testTechnicians())
	ctx := context.Background()

	emergency, err := dir.ListEligible(ctx, "75201", true, false)
	if err != nil {
		t.Fatalf("ListEligible: %v", err)
	}
	if len(emergency) != 2 {
		t.Fatalf("expected 2 emergency-capable, got %d", len(emergency))
	}

	commercial, err := dir.ListEligible(ctx, "75201", false, true)
	if err != nil {
		t.Fatalf("ListEligible: %v", err)
	}
	if len(commercial) != 1 || commercial[0].ID != "tech-master" {
		t.Fatalf("expected only tech-master for commercial, got %v", commercial)
	}
}

func TestListEligibleAreaFilter(t *testing.T) {
	dir := NewStaticDirectory(testTechnicians())
	ctx := context.Background()

	outside, err := dir.ListEligible(ctx, "75034", false, false)
	if err != nil {
		t.Fatalf("ListEligible: %v", err)
	}
	if len(outside) != 1 || outside[0].ID != "tech-master" {
		t.Fatalf("expected only tech-master to cover 750 prefix, got %v", outside)
	}

	// Missing location skips the area filter.
	all, err := dir.ListEligible(ctx, "", false, false)
	if err != nil {
		t.Fatalf("ListEligible: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected all technicians without location, got %d", len(all))
	}
}

func TestAssignHonorsCapablePreferred(t *testing.T) {
	dir := NewStaticDirectory(testTechnicians())
	ctx := context.Background()

	tech, ok, err := Assign(ctx, dir, "75201", true, false, "tech-senior")
	if err != nil || !ok {
		t.Fatalf("Assign: ok=%v err=%v", ok, err)
	}
	if tech.ID != "tech-senior" {
		t.Fatalf("expected preferred tech-senior, got %s", tech.ID)
	}
}

func TestAssignFallsBackWhenPreferredNotCapable(t *testing.T) {
	dir := NewStaticDirectory(testTechnicians())
	ctx := context.Background()

	// Apprentice cannot take emergencies; fall back to best eligible.
	tech, ok, err := Assign(ctx, dir, "75201", true, false, "tech-apprentice")
	if err != nil || !ok {
		t.Fatalf("Assign: ok=%v err=%v", ok, err)
	}
	if tech.ID != "tech-master" {
		t.Fatalf("expected fallback to tech-master, got %s", tech.ID)
	}
}

func TestAssignEmptyEligibleSet(t *testing.T) {
	dir := NewStaticDirectory(testTechnicians())

	_, ok, err := Assign(context.Background(), dir, "99999", true, true, "")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if ok {
		t.Fatal("expected no assignment outside every service area")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.json")
	data, err := json.Marshal(testTechnicians())
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	dir, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	tech, found, err := dir.Get(context.Background(), "tech-master")
	if err != nil || !found {
		t.Fatalf("Get: found=%v err=%v", found, err)
	}
	if tech.Skill != SkillMaster {
		t.Errorf("skill level lost in round trip: %v", tech.Skill)
	}
}

func TestSkillLevelUnmarshal(t *testing.T) {
	var tech Technician
	payload := `{"id":"t1","name":"Sam","skill_level":"journeyman"}`
	if err := json.Unmarshal([]byte(payload), &tech); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tech.Skill != SkillJourneyman {
		t.Errorf("expected journeyman, got %v", tech.Skill)
	}

	if err := json.Unmarshal([]byte(`{"skill_level":"wizard"}`), &tech); err == nil {
		t.Error("expected error for unknown skill level")
	}
}
