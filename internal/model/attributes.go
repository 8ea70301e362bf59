package model

import "strings"

// SizeClass is the closed set of company size classes.
type SizeClass string

const (
	SizeStartup SizeClass = "Startup"
	SizeSmall   SizeClass = "Small"
	SizeMedium  SizeClass = "Medium"
	SizeLarge   SizeClass = "Large"
)

// ContractType is the closed set of contract types.
type ContractType string

const (
	ContractFullTime   ContractType = "Full-time"
	ContractPartTime   ContractType = "Part-time"
	ContractInternship ContractType = "Internship"
)

// EducationLevel is the closed set of education levels.
type EducationLevel string

const (
	EducationBachelors EducationLevel = "Bachelors"
	EducationMasters   EducationLevel = "Masters"
	EducationOther     EducationLevel = "Other"
)

// DefaultJobCategory is used when no taxonomy role matches.
const DefaultJobCategory = "Other"

// Attributes are the structured fields derived from a description by the
// language model. Every field is optional: nil pointers and nil slices mean
// the model did not provide a value. List fields are never empty when set.
type Attributes struct {
	CompanySector     *string
	CompanySizeClass  *SizeClass
	ContractType      *ContractType
	JobCategory       string // always set; DefaultJobCategory when unknown
	YearsOfExperience *float64
	EducationLevel    *EducationLevel
	TechnicalSkills   []string
	BehavioralSkills  []string
	Certifications    []string
	SpokenLanguages   []string
}

// ParseSizeClass matches s case-insensitively against the closed set.
func ParseSizeClass(s string) (SizeClass, bool) {
	for _, v := range []SizeClass{SizeStartup, SizeSmall, SizeMedium, SizeLarge} {
		if strings.EqualFold(s, string(v)) {
			return v, true
		}
	}
	return "", false
}

// ParseContractType matches s case-insensitively, ignoring the hyphen/space
// difference ("full time" == "Full-time").
func ParseContractType(s string) (ContractType, bool) {
	norm := strings.ReplaceAll(strings.ToLower(s), " ", "-")
	for _, v := range []ContractType{ContractFullTime, ContractPartTime, ContractInternship} {
		if norm == strings.ToLower(string(v)) {
			return v, true
		}
	}
	return "", false
}

// ParseEducationLevel matches s case-insensitively against the closed set.
func ParseEducationLevel(s string) (EducationLevel, bool) {
	for _, v := range []EducationLevel{EducationBachelors, EducationMasters, EducationOther} {
		if strings.EqualFold(s, string(v)) {
			return v, true
		}
	}
	return "", false
}

// SkillGroup is one list attribute, named by its storage key.
type SkillGroup struct {
	Type  string
	Items []string
}

// SkillGroups returns the set list attributes in a fixed order.
func (a *Attributes) SkillGroups() []SkillGroup {
	if a == nil {
		return nil
	}
	all := []SkillGroup{
		{"technical_skills", a.TechnicalSkills},
		{"behavioral_skills", a.BehavioralSkills},
		{"certifications", a.Certifications},
		{"languages", a.SpokenLanguages},
	}
	out := all[:0]
	for _, g := range all {
		if len(g.Items) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// Valid reports whether s is one of the canonical size classes.
func (s SizeClass) Valid() bool {
	v, ok := ParseSizeClass(string(s))
	return ok && v == s
}

// Valid reports whether c is one of the canonical contract types.
func (c ContractType) Valid() bool {
	v, ok := ParseContractType(string(c))
	return ok && v == c
}

// Valid reports whether e is one of the canonical education levels.
func (e EducationLevel) Valid() bool {
	v, ok := ParseEducationLevel(string(e))
	return ok && v == e
}
