package ai

import "strings"

// Category is a major job category and the specific roles it contains.
type Category struct {
	Name  string
	Roles []string
}

// Taxonomy is the fixed two-level classification used for job_category.
// Every category ends with the catch-all role.
var Taxonomy = []Category{
	{Name: "Accounting", Roles: []string{
		"auditor", "financial accountant", "management accountant", "tax accountant",
		"budget analyst", "public accountant", "Other",
	}},
	{Name: "BUSINESS ANALYTICS", Roles: []string{
		"Data analysis", "Business intelligence", "Business Analyst", "Operations research",
		"Project manager", "Analytics Manager", "Consultant", "Database Administrator",
		"Supply chain management", "Chief Data Officer", "Management Consultant",
		"Management Analyst", "Business Development Manager", "Other",
	}},
	{Name: "Finance", Roles: []string{
		"financial services", "corporate financial management", "commercial banking",
		"investment banking", "capital markets", "Other",
	}},
	{Name: "INFORMATION TECHNOLOGY", Roles: []string{
		"Quality assurance manager", "Online content specialist",
		"Digital marketing and communication consultant", "Business process manager",
		"Information management specialist", "Project manager", "ICT manager", "Other",
	}},
	{Name: "MARKETING", Roles: []string{
		"marketing managers", "brand managers", "product managers",
		"customer relationship managers", "sales managers", "marketing consultants", "Other",
	}},
}

var roleIndex = func() map[string]string {
	idx := make(map[string]string)
	for _, c := range Taxonomy {
		for _, r := range c.Roles {
			idx[strings.ToLower(r)] = r
		}
	}
	return idx
}()

// CanonicalRole returns the taxonomy spelling of a leaf role, matched
// case-insensitively. Category names are not roles.
func CanonicalRole(s string) (string, bool) {
	r, ok := roleIndex[strings.ToLower(strings.TrimSpace(s))]
	return r, ok
}

// CategoryOf returns the major categories that list role. A role such as
// "Project manager" belongs to more than one.
func CategoryOf(role string) []string {
	var out []string
	for _, c := range Taxonomy {
		for _, r := range c.Roles {
			if strings.EqualFold(r, role) {
				out = append(out, c.Name)
				break
			}
		}
	}
	return out
}
