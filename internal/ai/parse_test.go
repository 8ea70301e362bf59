package ai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobharvest/internal/model"
)

const cleanResponse = `{
  "company_sector": "Technology",
  "company_size": "Large",
  "contract_type": "Full-time",
  "job_category": "Business Analyst",
  "years_of_experience": 3,
  "educational_qualifications": "Masters",
  "technical_skills": ["Python", "Power BI"],
  "certifications": null,
  "behavioral_skills": ["Communication", "Teamwork"],
  "languages": ["French", "English"]
}`

const noisyResponse = "```json\n" + `{
  "company_sector": "Technology",
  "company_size": "Large",
  "contract_type": "Full-time",
  "job_category": "Business Analyst",
  "years_of_experience": 3,
  "educational_qualifications": "Masters",
  "technical_skills": ["Python", "Power BI",],
  "certifications": null,
  "behavioral_skills": ["Communication", "Teamwork"],
  "languages": ["French", "English"],
}` + "\n```\n"

func TestParseAttributes_RepairedEqualsClean(t *testing.T) {
	clean, err := ParseAttributes(cleanResponse)
	require.NoError(t, err)
	noisy, err := ParseAttributes(noisyResponse)
	require.NoError(t, err)
	assert.Equal(t, clean, noisy)
}

func TestParseAttributes_Fields(t *testing.T) {
	a, err := ParseAttributes(cleanResponse)
	require.NoError(t, err)

	require.NotNil(t, a.CompanySector)
	assert.Equal(t, "Technology", *a.CompanySector)
	require.NotNil(t, a.CompanySizeClass)
	assert.Equal(t, model.SizeLarge, *a.CompanySizeClass)
	require.NotNil(t, a.ContractType)
	assert.Equal(t, model.ContractFullTime, *a.ContractType)
	assert.Equal(t, "Business Analyst", a.JobCategory)
	require.NotNil(t, a.YearsOfExperience)
	assert.Equal(t, 3.0, *a.YearsOfExperience)
	require.NotNil(t, a.EducationLevel)
	assert.Equal(t, model.EducationMasters, *a.EducationLevel)
	assert.Equal(t, []string{"Python", "Power BI"}, a.TechnicalSkills)
	assert.Nil(t, a.Certifications)
	assert.Equal(t, []string{"French", "English"}, a.SpokenLanguages)
}

func TestParseAttributes_NotJSON(t *testing.T) {
	for _, raw := range []string{"invalid json", "", "```json\n```", `["a","b"]`, "null", `{"company_size": "Large"`} {
		a, err := ParseAttributes(raw)
		assert.Nil(t, a, "input %q", raw)
		assert.True(t, errors.Is(err, model.ErrResponseFormat), "input %q: %v", raw, err)
	}
}

func TestParseAttributes_AbsentValues(t *testing.T) {
	a, err := ParseAttributes(`{
		"company_sector": "null",
		"company_size": null,
		"Contract_type": "",
		"job_category": null,
		"years_of_experience": "null",
		"educational_qualifications": "N/A",
		"technical_skills": "null",
		"certifications": [],
		"behavioral_skills": ["null", ""],
		"languages": null
	}`)
	require.NoError(t, err)
	assert.Equal(t, &model.Attributes{JobCategory: model.DefaultJobCategory}, a)
}

func TestParseAttributes_CoercesBareStringsToLists(t *testing.T) {
	a, err := ParseAttributes(`{"technical_skills": "Excel", "languages": "French, English", "certifications": "CPA"}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Excel"}, a.TechnicalSkills)
	assert.Equal(t, []string{"French", "English"}, a.SpokenLanguages)
	assert.Equal(t, []string{"CPA"}, a.Certifications)
}

func TestParseAttributes_DropsLongTokens(t *testing.T) {
	a, err := ParseAttributes(`{"behavioral_skills": ["Teamwork", "ability to work under pressure", "Problem  solving"]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Teamwork", "Problem solving"}, a.BehavioralSkills)

	a, err = ParseAttributes(`{"technical_skills": ["deep knowledge of accounting standards"]}`)
	require.NoError(t, err)
	assert.Nil(t, a.TechnicalSkills, "no usable token leaves the field absent")
}

func TestParseAttributes_ClosedSetViolations(t *testing.T) {
	tests := map[string]string{
		"size":      `{"company_size": "Huge"}`,
		"contract":  `{"contract_type": "Freelance"}`,
		"education": `{"educational_qualifications": "PhD"}`,
		"category":  `{"job_category": "Astronaut"}`,
		"major":     `{"job_category": "Accounting"}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			a, err := ParseAttributes(raw)
			assert.Nil(t, a)
			assert.True(t, errors.Is(err, model.ErrResponseFormat), "got %v", err)
		})
	}
}

func TestParseAttributes_CanonicalizesSpelling(t *testing.T) {
	a, err := ParseAttributes(`{"company_size": "small", "contract_type": "part time", "job_category": "AUDITOR", "educational_qualifications": "Bachelor's degree"}`)
	require.NoError(t, err)
	assert.Equal(t, model.SizeSmall, *a.CompanySizeClass)
	assert.Equal(t, model.ContractPartTime, *a.ContractType)
	assert.Equal(t, "auditor", a.JobCategory)
	assert.Equal(t, model.EducationBachelors, *a.EducationLevel)
}

func TestParseAttributes_YearsFromText(t *testing.T) {
	tests := []struct {
		raw  string
		want *float64
	}{
		{`{"years_of_experience": "3-5"}`, ptr(3.0)},
		{`{"years_of_experience": "at least 2,5 years"}`, ptr(2.5)},
		{`{"years_of_experience": 1.5}`, ptr(1.5)},
		{`{"years_of_experience": "several"}`, nil},
		{`{"years_of_experience": ["3"]}`, nil},
	}
	for _, tt := range tests {
		a, err := ParseAttributes(tt.raw)
		require.NoError(t, err)
		assert.Equal(t, tt.want, a.YearsOfExperience, tt.raw)
	}
}

func TestRepair(t *testing.T) {
	assert.Equal(t, `{"a":[1,2]}`, Repair("```json\n{\"a\":[1,2,]}\n```"))
	assert.Equal(t, `{"a":1}`, Repair("  ```\n{\"a\":1,\n}```  "))
	assert.Equal(t, `{"a":1}`, Repair("```JSON\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, Repair("```Json\n{\"a\":1}\n```"))
}

func ptr(f float64) *float64 { return &f }
