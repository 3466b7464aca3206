package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"internscout-engine/internal/domain"
)

func TestClassifyRole(t *testing.T) {
	cases := []struct {
		title string
		desc  string
		want  domain.Role
	}{
		{"Software Engineer Intern", "", domain.RoleSoftware},
		{"Backend Developer Intern", "", domain.RoleSoftware},
		{"SWE Intern - Summer 2026", "", domain.RoleSoftware},
		{"Machine Learning Intern", "", domain.RoleMachineLearning},
		{"Software Intern, Computer Vision", "", domain.RoleMachineLearning},
		{"Data Science Intern", "", domain.RoleData},
		{"Business Intelligence Intern", "", domain.RoleData},
		{"Security Engineering Intern", "", domain.RoleSecurity},
		{"Hardware Intern (FPGA)", "", domain.RoleHardware},
		{"Firmware Intern", "", domain.RoleHardware},
		{"Product Manager Intern", "", domain.RoleProduct},
		{"UX Design Intern", "", domain.RoleDesign},
		{"Quantitative Trading Intern", "", domain.RoleQuant},
		{"IT Support Intern", "", domain.RoleITSupport},
		{"Engineering Intern", "You will write software for our platform", domain.RoleSoftware},
		{"Intern", "", domain.RoleUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyRole(tc.title, tc.desc), "title=%q", tc.title)
	}
}

func TestClassifyRoleTitleWinsOverDescription(t *testing.T) {
	// The title says data; the description mentions software tooling. Title
	// signal takes precedence.
	got := ClassifyRole("Data Analyst Intern", "must know software development basics")
	assert.Equal(t, domain.RoleData, got)
}

func TestExtractSkills(t *testing.T) {
	desc := "Experience with Python, PostgreSQL and Docker. Golang or Rust a plus. Familiarity with k8s."
	got := ExtractSkills(desc)
	assert.Equal(t, []string{"docker", "go", "kubernetes", "python", "rust", "sql"}, got)

	assert.Empty(t, ExtractSkills("no technology mentioned here"))

	// "go" as a plain verb must not register as the language.
	assert.NotContains(t, ExtractSkills("go above and beyond"), "go")
}

func TestExtractMajors(t *testing.T) {
	got := ExtractMajors("Pursuing a degree in Computer Science, Statistics, or Mathematics")
	assert.Contains(t, got, domain.MajorComputerScience)
	assert.Contains(t, got, domain.MajorDataScience)
	assert.Contains(t, got, domain.MajorMath)
	assert.Empty(t, ExtractMajors("any degree welcome"))
}
