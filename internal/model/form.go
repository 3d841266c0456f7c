package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// FormData is the citizen-supplied form of an application.  The concrete
// type depends on the service type: RevenueForm, EducationForm,
// NaanMudhalvanForm or GenericForm for service types without a dedicated
// form.
type FormData interface {
	// Validate checks field formats.  Missing fields are accepted; the
	// certificate renderer blanks them out.
	Validate() error
}

// ErrInvalidForm is wrapped by every form decoding or validation error.
var ErrInvalidForm = errors.New("invalid form data")

// RevenueForm is submitted for income, community, nativity and other
// revenue certificates.  The income, community and residence fields are
// optional; certificates fall back to default values when they are absent.
type RevenueForm struct {
	CertificateType  string `json:"certificateType"`
	FullName         string `json:"fullName"`
	FatherName       string `json:"fatherName"`
	MotherName       string `json:"motherName"`
	Gender           string `json:"gender,omitempty"`
	DateOfBirth      string `json:"dateOfBirth"`
	Address          string `json:"address"`
	Pincode          string `json:"pincode"`
	MobileNumber     string `json:"mobileNumber"`
	Email            string `json:"email"`
	Purpose          string `json:"purpose"`
	AdditionalInfo   string `json:"additionalInfo,omitempty"`
	AnnualIncome     string `json:"annualIncome,omitempty"`
	IncomeWords      string `json:"incomeWords,omitempty"`
	Community        string `json:"community,omitempty"`
	Category         string `json:"category,omitempty"`
	YearsOfResidence string `json:"yearsOfResidence,omitempty"`
}

func (f RevenueForm) Validate() error {
	return firstError(
		checkGender(f.Gender),
		checkDigits("pincode", f.Pincode, 6),
		checkPhone(f.MobileNumber),
		checkEmail(f.Email),
		checkDigits("annualIncome", f.AnnualIncome, 0),
		checkDigits("yearsOfResidence", f.YearsOfResidence, 0),
	)
}

// EducationForm is submitted for scholarships and fee schemes.  Scheme
// holds the form's own "serviceType" field (scholarship,
// fee-reimbursement, education-loan), which selects the scholarship.
type EducationForm struct {
	Scheme        string `json:"serviceType"`
	StudentName   string `json:"studentName"`
	FullName      string `json:"fullName,omitempty"`
	FatherName    string `json:"fatherName"`
	MotherName    string `json:"motherName"`
	DateOfBirth   string `json:"dateOfBirth"`
	Gender        string `json:"gender"`
	Category      string `json:"category"`
	Qualification string `json:"qualification"`
	Institution   string `json:"institution"`
	Course        string `json:"course"`
	YearOfStudy   string `json:"yearOfStudy"`
	FamilyIncome  string `json:"familyIncome"`
	Address       string `json:"address"`
	MobileNumber  string `json:"mobileNumber"`
	Email         string `json:"email"`
	BankAccount   string `json:"bankAccount"`
	IFSCCode      string `json:"ifscCode"`
}

func (f EducationForm) Validate() error {
	return firstError(
		checkGender(f.Gender),
		checkPhone(f.MobileNumber),
		checkEmail(f.Email),
		checkDigits("familyIncome", f.FamilyIncome, 0),
		checkDigits("bankAccount", f.BankAccount, 0),
	)
}

// NaanMudhalvanForm is submitted for skill development programmes.
type NaanMudhalvanForm struct {
	ProgramType       string `json:"programType"`
	FullName          string `json:"fullName"`
	FatherName        string `json:"fatherName,omitempty"`
	DateOfBirth       string `json:"dateOfBirth"`
	Gender            string `json:"gender"`
	Qualification     string `json:"qualification"`
	Experience        string `json:"experience"`
	SkillInterest     string `json:"skillInterest"`
	PreferredLocation string `json:"preferredLocation"`
	MobileNumber      string `json:"mobileNumber"`
	Email             string `json:"email"`
	Address           string `json:"address"`
	EmploymentStatus  string `json:"employmentStatus"`
	PreviousTraining  bool   `json:"previousTraining"`
	AgreementAccepted bool   `json:"agreementAccepted"`
}

func (f NaanMudhalvanForm) Validate() error {
	return firstError(
		checkGender(f.Gender),
		checkPhone(f.MobileNumber),
		checkEmail(f.Email),
	)
}

// GenericForm carries the form of a service type that has no dedicated
// variant.  Values are kept as submitted.
type GenericForm map[string]any

func (f GenericForm) Validate() error { return nil }

// String returns the value stored under key formatted as text, or "" when
// the key is absent or null.
func (f GenericForm) String(key string) string {
	v, ok := f[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// DecodeFormData decodes raw JSON into the form variant of serviceType and
// validates it.  Empty input yields an empty form of the right variant.
func DecodeFormData(serviceType string, raw []byte) (FormData, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}
	var (
		form FormData
		err  error
	)
	switch serviceType {
	case ServiceRevenue:
		var f RevenueForm
		err = json.Unmarshal(raw, &f)
		form = f
	case ServiceEducation:
		var f EducationForm
		err = json.Unmarshal(raw, &f)
		form = f
	case ServiceNaanMudhalvan:
		var f NaanMudhalvanForm
		err = json.Unmarshal(raw, &f)
		form = f
	default:
		f := GenericForm{}
		err = json.Unmarshal(raw, &f)
		form = f
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}
	return form, nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func checkGender(g string) error {
	switch strings.ToLower(strings.TrimSpace(g)) {
	case "", "male", "female", "other", "transgender":
		return nil
	}
	return fmt.Errorf("%w: unknown gender %q", ErrInvalidForm, g)
}

// checkDigits accepts an empty value.  A positive length requires exactly
// that many digits.
func checkDigits(field, v string, length int) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	for _, r := range v {
		if !unicode.IsDigit(r) {
			return fmt.Errorf("%w: %s must contain digits only", ErrInvalidForm, field)
		}
	}
	if length > 0 && len(v) != length {
		return fmt.Errorf("%w: %s must have %d digits", ErrInvalidForm, field, length)
	}
	return nil
}

func checkPhone(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	digits := 0
	for _, r := range v {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' || r == ' ' || r == '-':
		default:
			return fmt.Errorf("%w: invalid mobile number", ErrInvalidForm)
		}
	}
	if digits < 10 || digits > 13 {
		return fmt.Errorf("%w: invalid mobile number", ErrInvalidForm)
	}
	return nil
}

func checkEmail(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	at := strings.Index(v, "@")
	if at <= 0 || at == len(v)-1 || strings.ContainsAny(v, " \t") {
		return fmt.Errorf("%w: invalid email", ErrInvalidForm)
	}
	return nil
}
