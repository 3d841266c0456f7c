package certificate

import (
	"strings"

	"github.com/iliyamo/citizen-services/internal/model"
)

// DefaultAcademicYear is printed on education certificates unless the
// mapper is configured otherwise.
const DefaultAcademicYear = "2024-25"

// Revenue fallbacks used when the form does not carry the subtype fields.
const (
	defaultIncome      = "50000"
	defaultIncomeWords = "Fifty Thousand Only"
	defaultCategory    = "General"
	defaultCommunity   = "Hindu"
	defaultCommunityBC = "BC"
	defaultYears       = "15"
	defaultBirthPlace  = "Tamil Nadu"
	defaultDistrict    = "Chennai"
	defaultPurpose     = "Government Service"
)

type scheme struct{ name, amount string }

var scholarships = map[string]scheme{
	"scholarship":       {"Government Merit Scholarship", "25000"},
	"fee-reimbursement": {"Fee Reimbursement Scheme", "50000"},
	"education-loan":    {"Education Loan Subsidy", "100000"},
}

var defaultScholarship = scheme{"Government Educational Support", "25000"}

type program struct{ name, duration string }

var programs = map[string]program{
	"technical-skills":  {"Technical Skills Development Program", "6 Months"},
	"soft-skills":       {"Soft Skills Enhancement Program", "3 Months"},
	"entrepreneurship":  {"Entrepreneurship Development Program", "4 Months"},
	"digital-literacy":  {"Digital Literacy Program", "2 Months"},
	"industry-specific": {"Industry Specific Training Program", "8 Months"},
}

var defaultProgram = program{"Skill Development Program", "3 Months"}

var revenueServiceNames = map[string]string{
	"income":       "Income Certificate",
	"community":    "Community Certificate",
	"nativity":     "Nativity Certificate",
	"property":     "Property Certificate",
	"land-records": "Land Records",
}

// Mapper converts application forms into certificate data.  It never fails:
// absent fields map to empty values, which the engine renders as blanks.
type Mapper struct {
	AcademicYear string
}

// NewMapper returns a mapper printing academicYear on education
// certificates.  An empty value selects DefaultAcademicYear.
func NewMapper(academicYear string) Mapper {
	if strings.TrimSpace(academicYear) == "" {
		academicYear = DefaultAcademicYear
	}
	return Mapper{AcademicYear: academicYear}
}

// MapToCertificateData maps form using the default academic year.
func MapToCertificateData(serviceType, serviceName string, form model.FormData) model.CertificateData {
	return NewMapper("").Map(serviceType, serviceName, form)
}

// Map dispatches on the form variant.  A form whose variant does not match
// serviceType is mapped by its own variant.
func (m Mapper) Map(serviceType, serviceName string, form model.FormData) model.CertificateData {
	switch f := form.(type) {
	case model.RevenueForm:
		return mapRevenue(serviceName, f)
	case *model.RevenueForm:
		return mapRevenue(serviceName, deref(f))
	case model.EducationForm:
		return m.mapEducation(serviceName, f)
	case *model.EducationForm:
		return m.mapEducation(serviceName, deref(f))
	case model.NaanMudhalvanForm:
		return mapNaanMudhalvan(f)
	case *model.NaanMudhalvanForm:
		return mapNaanMudhalvan(deref(f))
	case model.GenericForm:
		return mapGeneric(f)
	}
	return mapGeneric(nil)
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// RevenueSubtype picks the revenue subtype from a service name.  income wins
// over community, which wins over nativity.
func RevenueSubtype(serviceName string) string {
	n := strings.ToLower(serviceName)
	for _, s := range []string{"income", "community", "nativity"} {
		if strings.Contains(n, s) {
			return s
		}
	}
	return "general"
}

// RevenueServiceName returns the display name of a revenue certificate type
// submitted on the form, or "" when it is not known.
func RevenueServiceName(certificateType string) string {
	return revenueServiceNames[strings.ToLower(strings.TrimSpace(certificateType))]
}

func relation(gender string) string {
	if strings.EqualFold(strings.TrimSpace(gender), "female") {
		return "D/o"
	}
	return "S/o"
}

func mapRevenue(serviceName string, f model.RevenueForm) model.CertificateData {
	subtype := RevenueSubtype(serviceName)
	segments := addressSegments(f.Address)
	placeOfBirth, district := defaultBirthPlace, defaultDistrict
	if len(segments) > 0 && segments[0] != "" {
		placeOfBirth = segments[0]
	}
	if len(segments) > 1 && segments[len(segments)-2] != "" {
		district = segments[len(segments)-2]
	}

	data := model.CertificateData{
		"citizenName":  f.FullName,
		"relation":     relation(f.Gender),
		"parentName":   f.FatherName,
		"address":      f.Address,
		"purpose":      f.Purpose,
		"dateOfBirth":  f.DateOfBirth,
		"placeOfBirth": placeOfBirth,
		"district":     district,
		SubtypeKey:     subtype,
	}

	switch subtype {
	case "income":
		income := or(f.AnnualIncome, defaultIncome)
		words := f.IncomeWords
		if words == "" {
			if f.AnnualIncome != "" {
				words = AmountInWords(f.AnnualIncome)
			} else {
				words = defaultIncomeWords
			}
		}
		data["income"] = income
		data["incomeWords"] = words
		data["category"] = or(f.Category, defaultCategory)
	case "community":
		data["community"] = or(f.Community, defaultCommunity)
		data["category"] = or(f.Category, defaultCommunityBC)
	case "nativity":
		data["years"] = or(f.YearsOfResidence, defaultYears)
	}
	return data
}

func (m Mapper) mapEducation(serviceName string, f model.EducationForm) model.CertificateData {
	key := strings.ToLower(strings.TrimSpace(f.Scheme))
	if key == "" {
		key = strings.ToLower(strings.TrimSpace(serviceName))
	}
	s, ok := scholarships[key]
	if !ok {
		s = defaultScholarship
	}
	return model.CertificateData{
		"studentName":     or(f.StudentName, f.FullName),
		"relation":        relation(f.Gender),
		"fatherName":      f.FatherName,
		"motherName":      f.MotherName,
		"course":          f.Course,
		"institution":     f.Institution,
		"yearOfStudy":     f.YearOfStudy,
		"familyIncome":    f.FamilyIncome,
		"category":        f.Category,
		"scholarshipName": s.name,
		"amount":          s.amount,
		"academicYear":    or(m.AcademicYear, DefaultAcademicYear),
		"duration":        "1 Academic Year",
	}
}

func mapNaanMudhalvan(f model.NaanMudhalvanForm) model.CertificateData {
	p, ok := programs[strings.ToLower(strings.TrimSpace(f.ProgramType))]
	if !ok {
		p = defaultProgram
	}
	return model.CertificateData{
		"participantName":  f.FullName,
		"relation":         relation(f.Gender),
		"fatherName":       f.FatherName,
		"programName":      p.name,
		"duration":         p.duration,
		"skills":           f.SkillInterest,
		"center":           strings.TrimSpace(f.PreferredLocation + " Training Center"),
		"qualification":    f.Qualification,
		"employmentStatus": f.EmploymentStatus,
	}
}

func mapGeneric(f model.GenericForm) model.CertificateData {
	return model.CertificateData{
		"citizenName": or(f.String("fullName"), f.String("studentName")),
		"purpose":     or(f.String("purpose"), defaultPurpose),
	}
}

// CitizenName returns the holder name from mapped data.
func CitizenName(data model.CertificateData) string {
	return or(data["citizenName"], data["studentName"], data["participantName"])
}

func addressSegments(address string) []string {
	if strings.TrimSpace(address) == "" {
		return nil
	}
	parts := strings.Split(address, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// or returns the first non-blank value.
func or(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
