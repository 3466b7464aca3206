package normalize

import (
	"regexp"

	"internscout-engine/internal/domain"
)

// rolePatterns is an ordered table: the first pattern that matches wins, so
// more specific families (ML, quant) must sit above the software catch-all.
type rolePattern struct {
	role domain.Role
	re   *regexp.Regexp
}

var rolePatterns = []rolePattern{
	{domain.RoleMachineLearning, regexp.MustCompile(`(?i)\b(machine\s*learning|ml\s*engineer|deep\s*learning|computer\s*vision|nlp|ai\s*(engineer|research))\b`)},
	{domain.RoleQuant, regexp.MustCompile(`(?i)\b(quant|quantitative|trading\s*(analyst|intern|systems))\b`)},
	{domain.RoleData, regexp.MustCompile(`(?i)\b(data\s*(science|scientist|analyst|analytics|engineer)|business\s*intelligence)\b`)},
	{domain.RoleSecurity, regexp.MustCompile(`(?i)\b(security|infosec|cyber|penetration\s*test)\b`)},
	{domain.RoleHardware, regexp.MustCompile(`(?i)\b(hardware|fpga|asic|silicon|embedded|firmware)\b`)},
	{domain.RoleProduct, regexp.MustCompile(`(?i)\b(product\s*(manager|management)|apm\b)`)},
	{domain.RoleDesign, regexp.MustCompile(`(?i)\b(ux|ui\s*design|product\s*design|graphic\s*design|visual\s*design)\b`)},
	{domain.RoleITSupport, regexp.MustCompile(`(?i)\b(it\s*support|help\s*desk|desktop\s*support|service\s*desk)\b`)},
	{domain.RoleSoftware, regexp.MustCompile(`(?i)\b(software|swe|sde|developer|full\s*stack|fullstack|back\s*end|backend|front\s*end|frontend|mobile|ios|android|devops|site\s*reliability|platform\s*engineer)\b`)},
}

// ClassifyRole matches the title first, then the description; no match is
// RoleUnknown, which is a valid outcome, not an error.
func ClassifyRole(title, description string) domain.Role {
	for _, p := range rolePatterns {
		if p.re.MatchString(title) {
			return p.role
		}
	}
	for _, p := range rolePatterns {
		if p.re.MatchString(description) {
			return p.role
		}
	}
	return domain.RoleUnknown
}
