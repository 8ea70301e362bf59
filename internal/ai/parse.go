package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/amishk599/jobharvest/internal/model"
)

var (
	codeFence     = regexp.MustCompile("(?i)```(?:json)?\\n?")
	trailingComma = regexp.MustCompile(`,\s*([\]}])`)
	firstNumber   = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
)

// maxTokenWords bounds list entries; longer phrases are sentences, not skills.
const maxTokenWords = 2

// Repair strips code fences and surrounding whitespace, then removes
// trailing commas before a closing brace or bracket.
func Repair(raw string) string {
	s := strings.TrimSpace(codeFence.ReplaceAllString(raw, ""))
	return trailingComma.ReplaceAllString(s, "$1")
}

// ParseAttributes converts a model response into attributes. Any response
// that is not a JSON object after repair, or that puts an out-of-set value in
// a closed-set field, fails with model.ErrResponseFormat and yields nothing.
func ParseAttributes(raw string) (*model.Attributes, error) {
	var loose map[string]any
	if err := json.Unmarshal([]byte(Repair(raw)), &loose); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrResponseFormat, err)
	}
	if loose == nil {
		return nil, fmt.Errorf("%w: response is null", model.ErrResponseFormat)
	}

	fields := make(map[string]any, len(loose))
	for k, v := range loose {
		fields[strings.ToLower(strings.TrimSpace(k))] = v
	}
	get := func(keys ...string) any {
		for _, k := range keys {
			if v, ok := fields[k]; ok {
				return v
			}
		}
		return nil
	}

	a := &model.Attributes{JobCategory: model.DefaultJobCategory}

	if s, ok := scalar(get("company_sector")); ok {
		a.CompanySector = &s
	}

	if s, ok := scalar(get("company_size")); ok {
		v, valid := model.ParseSizeClass(s)
		if !valid {
			return nil, fmt.Errorf("%w: company_size %q", model.ErrResponseFormat, s)
		}
		a.CompanySizeClass = &v
	}

	if s, ok := scalar(get("contract_type")); ok {
		v, valid := model.ParseContractType(s)
		if !valid {
			return nil, fmt.Errorf("%w: contract_type %q", model.ErrResponseFormat, s)
		}
		a.ContractType = &v
	}

	if s, ok := scalar(get("job_category")); ok {
		role, valid := CanonicalRole(s)
		if !valid {
			return nil, fmt.Errorf("%w: job_category %q is not a taxonomy role", model.ErrResponseFormat, s)
		}
		a.JobCategory = role
	}

	if y, ok := years(get("years_of_experience")); ok {
		a.YearsOfExperience = &y
	}

	if s, ok := scalar(get("educational_qualifications", "education_level")); ok {
		v, valid := parseEducation(s)
		if !valid {
			return nil, fmt.Errorf("%w: educational_qualifications %q", model.ErrResponseFormat, s)
		}
		a.EducationLevel = &v
	}

	a.TechnicalSkills = tokens(get("technical_skills"))
	a.BehavioralSkills = tokens(get("behavioral_skills"))
	a.Certifications = tokens(get("certifications"))
	a.SpokenLanguages = tokens(get("languages", "spoken_languages"))

	return a, nil
}

// absent reports whether s is one of the spellings models use for "no value".
func absent(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "null", "none", "n/a", "na", "not specified", "not mentioned", "unknown":
		return true
	}
	return false
}

// scalar returns v as a trimmed string when it carries a value. Numbers are
// formatted; lists and objects are not scalars.
func scalar(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	if absent(s) {
		return "", false
	}
	return s, true
}

func years(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		m := firstNumber.FindString(t)
		if m == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
		return f, err == nil
	}
	return 0, false
}

func parseEducation(s string) (model.EducationLevel, bool) {
	norm := strings.ToLower(s)
	norm = strings.NewReplacer("'s", "", "’s", "", " degree", "").Replace(norm)
	switch strings.TrimSpace(norm) {
	case "bachelor", "bachelors":
		return model.EducationBachelors, true
	case "master", "masters":
		return model.EducationMasters, true
	}
	return model.ParseEducationLevel(s)
}

// tokens coerces a list field into non-empty short tokens. A bare string is
// split on commas and semicolons. Returns nil when nothing usable remains.
func tokens(v any) []string {
	var raw []string
	switch t := v.(type) {
	case string:
		raw = strings.FieldsFunc(t, func(r rune) bool { return r == ',' || r == ';' })
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	default:
		return nil
	}

	var out []string
	for _, s := range raw {
		s = strings.Join(strings.Fields(s), " ")
		if absent(s) || len(strings.Fields(s)) > maxTokenWords {
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
