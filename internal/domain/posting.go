package domain

import (
	"encoding/json"
	"time"
)

// Role is the normalized internship role family.
type Role string

const (
	RoleSoftware        Role = "software"
	RoleData            Role = "data"
	RoleMachineLearning Role = "machine_learning"
	RoleSecurity        Role = "security"
	RoleHardware        Role = "hardware"
	RoleProduct         Role = "product"
	RoleDesign          Role = "design"
	RoleQuant           Role = "quant"
	RoleITSupport       Role = "it_support"
	RoleUnknown         Role = "unknown"
)

// WorkType describes how (or whether) the internship pays.
type WorkType string

const (
	WorkTypePaid    WorkType = "paid"
	WorkTypeUnpaid  WorkType = "unpaid"
	WorkTypeStipend WorkType = "stipend"
	WorkTypeUnknown WorkType = "unknown"
)

// EligibilityYear is a class year the posting is open to.
type EligibilityYear string

const (
	YearFreshman  EligibilityYear = "freshman"
	YearSophomore EligibilityYear = "sophomore"
	YearJunior    EligibilityYear = "junior"
	YearSenior    EligibilityYear = "senior"
	YearMasters   EligibilityYear = "masters"
	YearPhD       EligibilityYear = "phd"
)

// Major is an academic field a posting is relevant to.
type Major string

const (
	MajorComputerScience       Major = "computer_science"
	MajorDataScience           Major = "data_science"
	MajorElectricalEngineering Major = "electrical_engineering"
	MajorComputerEngineering   Major = "computer_engineering"
	MajorMath                  Major = "math"
	MajorBusiness              Major = "business"
	MajorDesign                Major = "design"
)

// RawPosting is the provider-native shape of one internship posting. It lives
// for a single ingestion pass and is never persisted as-is; only Payload (the
// untouched provider response item) may be archived for auditability.
type RawPosting struct {
	Source      string
	Title       string
	Company     string
	URL         string
	Description string
	Location    string
	PostedAt    *time.Time
	Payload     json.RawMessage
}

// NormalizedPosting is the canonical posting shape produced by the
// canonicalizer. Set-valued fields (Skills, RelevantMajors, EligibilityYears)
// are deduplicated and sorted so the struct compares deterministically.
type NormalizedPosting struct {
	Title            string
	Company          Company
	ExactRole        string
	NormalizedRole   Role
	RelevantMajors   []Major
	Skills           []string
	EligibilityYears []EligibilityYear
	WorkType         WorkType

	PayRateMin  float64
	PayRateMax  float64
	PayCurrency string
	PayType     string // hourly | weekly | monthly | yearly | stipend

	Location          string
	IsRemote          bool
	IsProgramSpecific bool
	InternshipCycle   string // e.g. "summer_2027", empty when not stated

	Description         string
	ApplicationURL      string
	PostedAt            time.Time
	ApplicationDeadline *time.Time

	// ContentHash is the dedup key: a deterministic fingerprint of the
	// normalized company + title + location. Two postings for the same
	// real-world opportunity hash identically regardless of provider.
	ContentHash string

	Source string
}
