package certificate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/citizen-services/internal/model"
)

func TestMapRevenueIncome(t *testing.T) {
	form := model.RevenueForm{
		FullName:   "Suresh",
		Gender:     "male",
		FatherName: "Babu",
		Address:    "Anna Nagar, Chennai, Tamil Nadu",
		Purpose:    "Bank loan",
	}
	data := MapToCertificateData(model.ServiceRevenue, "Income Certificate", form)

	assert.Equal(t, "income", data[SubtypeKey])
	assert.Equal(t, "S/o", data["relation"])
	assert.Equal(t, "Anna Nagar", data["placeOfBirth"])
	assert.Equal(t, "Chennai", data["district"])
	assert.Equal(t, "Suresh", data["citizenName"])
	assert.Equal(t, "Babu", data["parentName"])
	assert.Equal(t, "50000", data["income"])
	assert.Equal(t, "Fifty Thousand Only", data["incomeWords"])
	assert.Equal(t, "General", data["category"])
}

func TestMapRevenuePrefersFormValues(t *testing.T) {
	form := model.RevenueForm{
		FullName:     "Meena",
		Gender:       "Female",
		AnnualIncome: "120000",
		Category:     "OBC",
	}
	data := MapToCertificateData(model.ServiceRevenue, "income certificate", form)

	assert.Equal(t, "D/o", data["relation"])
	assert.Equal(t, "120000", data["income"])
	assert.Equal(t, "One Lakh Twenty Thousand Only", data["incomeWords"])
	assert.Equal(t, "OBC", data["category"])
	assert.Equal(t, "Tamil Nadu", data["placeOfBirth"])
	assert.Equal(t, "Chennai", data["district"])
}

func TestRevenueSubtype(t *testing.T) {
	cases := map[string]string{
		"Income Certificate":    "income",
		"Community Certificate": "community",
		"NATIVITY certificate":  "nativity",
		"Community and Income":  "income",
		"Land Records":          "general",
		"":                      "general",
	}
	for name, want := range cases {
		assert.Equal(t, want, RevenueSubtype(name), name)
	}
}

func TestMapRevenueCommunityAndNativity(t *testing.T) {
	data := MapToCertificateData(model.ServiceRevenue, "Community Certificate", model.RevenueForm{})
	assert.Equal(t, "Hindu", data["community"])
	assert.Equal(t, "BC", data["category"])

	data = MapToCertificateData(model.ServiceRevenue, "Nativity Certificate", model.RevenueForm{
		Address:          "12 Main Road, Madurai, Tamil Nadu",
		YearsOfResidence: "22",
	})
	assert.Equal(t, "22", data["years"])
	assert.Equal(t, "Madurai", data["district"])
}

func TestMapEducationScholarship(t *testing.T) {
	data := MapToCertificateData(model.ServiceEducation, "Scholarship", model.EducationForm{Scheme: "scholarship"})
	assert.Equal(t, "Government Merit Scholarship", data["scholarshipName"])
	assert.Equal(t, "25000", data["amount"])
	assert.Equal(t, "2024-25", data["academicYear"])
	assert.Equal(t, "1 Academic Year", data["duration"])

	data = MapToCertificateData(model.ServiceEducation, "", model.EducationForm{Scheme: "education-loan", FullName: "Kavya"})
	assert.Equal(t, "Education Loan Subsidy", data["scholarshipName"])
	assert.Equal(t, "100000", data["amount"])
	assert.Equal(t, "Kavya", data["studentName"])

	data = NewMapper("2025-26").Map(model.ServiceEducation, "", model.EducationForm{})
	assert.Equal(t, "Government Educational Support", data["scholarshipName"])
	assert.Equal(t, "2025-26", data["academicYear"])
}

func TestMapNaanMudhalvan(t *testing.T) {
	data := MapToCertificateData(model.ServiceNaanMudhalvan, "", model.NaanMudhalvanForm{
		FullName:          "Arun",
		ProgramType:       "digital-literacy",
		SkillInterest:     "Spreadsheets",
		PreferredLocation: "Coimbatore",
	})
	assert.Equal(t, "Digital Literacy Program", data["programName"])
	assert.Equal(t, "2 Months", data["duration"])
	assert.Equal(t, "Coimbatore Training Center", data["center"])
	assert.Equal(t, "Arun", CitizenName(data))

	data = MapToCertificateData(model.ServiceNaanMudhalvan, "", model.NaanMudhalvanForm{})
	assert.Equal(t, "Skill Development Program", data["programName"])
	assert.Equal(t, "3 Months", data["duration"])
}

func TestMapGeneric(t *testing.T) {
	form, err := model.DecodeFormData("transport", []byte(`{"studentName":"Lata"}`))
	require.NoError(t, err)

	data := MapToCertificateData("transport", "Bus Pass", form)
	assert.Equal(t, "Lata", data["citizenName"])
	assert.Equal(t, "Government Service", data["purpose"])
}

func TestAmountInWords(t *testing.T) {
	cases := map[string]string{
		"50000":     "Fifty Thousand Only",
		"0":         "Zero Only",
		"115":       "One Hundred Fifteen Only",
		"250000":    "Two Lakh Fifty Thousand Only",
		"123456789": "Twelve Crore Thirty Four Lakh Fifty Six Thousand Seven Hundred Eighty Nine Only",
		"abc":       "",
	}
	for in, want := range cases {
		assert.Equal(t, want, AmountInWords(in), in)
	}
}
