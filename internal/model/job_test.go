package model

import "testing"

func TestMerge_AdditiveOnce(t *testing.T) {
	r := Record{JobTitle: "Auditor", Sector: "Banking"}
	first := &Attributes{JobCategory: "auditor"}
	second := &Attributes{JobCategory: "tax accountant"}

	if !r.Merge(first) {
		t.Fatal("expected first merge to apply")
	}
	if r.Merge(second) {
		t.Fatal("expected second merge to be refused")
	}
	if r.Enrichment.JobCategory != "auditor" {
		t.Errorf("JobCategory = %q, want auditor", r.Enrichment.JobCategory)
	}
	if r.Sector != "Banking" || r.JobTitle != "Auditor" {
		t.Errorf("source fields changed: %+v", r)
	}
}

func TestMerge_NilIsNoop(t *testing.T) {
	r := Record{}
	if r.Merge(nil) {
		t.Fatal("expected nil merge to be refused")
	}
	if r.Enrichment != nil {
		t.Fatal("expected enrichment to stay nil")
	}
}

func TestParseContractType(t *testing.T) {
	tests := []struct {
		in   string
		want ContractType
		ok   bool
	}{
		{"Full-time", ContractFullTime, true},
		{"full time", ContractFullTime, true},
		{"PART-TIME", ContractPartTime, true},
		{"internship", ContractInternship, true},
		{"Freelance", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseContractType(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseContractType(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseSizeClassAndEducation(t *testing.T) {
	if v, ok := ParseSizeClass("medium"); !ok || v != SizeMedium {
		t.Errorf("ParseSizeClass(medium) = %q, %v", v, ok)
	}
	if _, ok := ParseSizeClass("Meduim"); ok {
		t.Error("expected misspelled size class to be rejected")
	}
	if v, ok := ParseEducationLevel("MASTERS"); !ok || v != EducationMasters {
		t.Errorf("ParseEducationLevel(MASTERS) = %q, %v", v, ok)
	}
	if _, ok := ParseEducationLevel("PhD"); ok {
		t.Error("expected PhD to be rejected")
	}
}

func TestSkillGroups_OmitsAbsentLists(t *testing.T) {
	a := &Attributes{
		TechnicalSkills: []string{"Python"},
		SpokenLanguages: []string{"French", "English"},
	}
	groups := a.SkillGroups()
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Type != "technical_skills" || groups[1].Type != "languages" {
		t.Errorf("unexpected group order: %+v", groups)
	}
	var nilAttrs *Attributes
	if nilAttrs.SkillGroups() != nil {
		t.Error("expected nil groups for nil attributes")
	}
}

func TestClosedSetValid(t *testing.T) {
	if !SizeLarge.Valid() || SizeClass("large").Valid() {
		t.Error("SizeClass.Valid should accept only canonical spelling")
	}
	if !ContractInternship.Valid() || ContractType("Freelance").Valid() {
		t.Error("ContractType.Valid mismatch")
	}
	if !EducationOther.Valid() || EducationLevel("").Valid() {
		t.Error("EducationLevel.Valid mismatch")
	}
}
