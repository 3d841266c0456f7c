package certificate

import "github.com/iliyamo/citizen-services/internal/model"

// SubtypeKey is the certificate data key that selects a subtype paragraph.
const SubtypeKey = "certificateSubType"

// subtypeSlot is the body placeholder replaced by the subtype paragraph
// before generic substitution.
const subtypeSlot = "{certificateSpecificContent}"

// Template describes one certificate type.  Body holds {field}
// placeholders.  When Subtypes is non-empty the body also holds
// {certificateSpecificContent}, which is replaced by the paragraph keyed by
// the certificateSubType field, or by DefaultSubtype when no paragraph
// matches.
type Template struct {
	Name           string
	Title          string
	Body           string
	Footer         string
	Department     string
	Subtypes       map[string]string
	DefaultSubtype string
}

const revenueBody = `This is to certify that {citizenName}, {relation} {parentName}, residing at {address}, is a bonafide resident of Tamil Nadu State.

{certificateSpecificContent}

This certificate is issued for the purpose of {purpose} and is valid for one year from the date of issue.

Place: Chennai
State: Tamil Nadu`

const educationBody = `This is to certify that {studentName}, {relation} {fatherName} and {motherName}, studying {course} ({yearOfStudy}) in {institution}, has been awarded {scholarshipName} for the academic year {academicYear}.

Student Details:
- Course: {course}
- Year of Study: {yearOfStudy}
- Institution: {institution}
- Category: {category}
- Family Income: Rs. {familyIncome}/-

Scholarship Details:
- Scholarship Amount: Rs. {amount}/-
- Duration: {duration}

The scholarship is awarded based on merit and family income criteria as per Government of Tamil Nadu guidelines.

Place: Chennai
State: Tamil Nadu`

const naanMudhalvanBody = `This is to certify that {participantName}, {relation} {fatherName}, has successfully completed the {programName} under Naan Mudhalvan Skill Development Initiative.

Participant Details:
- Qualification: {qualification}
- Employment Status: {employmentStatus}

Program Details:
- Program Duration: {duration}
- Skills Acquired: {skills}
- Training Center: {center}

The participant has demonstrated proficiency in the above mentioned skills and is ready for employment opportunities in the relevant field.

This certificate is recognized by the Government of Tamil Nadu and affiliated industry partners.

Place: Chennai
State: Tamil Nadu`

var revenueSubtypes = map[string]string{
	"income": `The annual family income from all sources is Rs. {income}/- ({incomeWords}).

Income Details:
- Annual Family Income: Rs. {income}/-
- Category: {category}`,
	"community": `The above mentioned person belongs to {community} community which is recognized as {category} category.

Personal Details:
- Date of Birth: {dateOfBirth}
- Place of Birth: {placeOfBirth}
- Community: {community}
- Category: {category}`,
	"nativity": `The family has been residing in {district} District, Tamil Nadu for the past {years} years.

Nativity Details:
- District: {district}
- Years of Residence: {years} years
- Native Place: Tamil Nadu`,
}

// DefaultTemplates returns the templates of the three departments keyed by
// certificate type.
func DefaultTemplates() map[string]Template {
	return map[string]Template{
		model.ServiceRevenue: {
			Name:           "Revenue Certificate",
			Title:          "GOVERNMENT OF TAMIL NADU\nREVENUE DEPARTMENT\nOFFICIAL CERTIFICATE",
			Body:           revenueBody,
			Footer:         "Issued under the authority of Revenue Department, Government of Tamil Nadu",
			Department:     "Revenue Department",
			Subtypes:       revenueSubtypes,
			DefaultSubtype: "This person is a permanent resident of the above mentioned address and is known to be of good character.",
		},
		model.ServiceEducation: {
			Name:       "Education Certificate",
			Title:      "GOVERNMENT OF TAMIL NADU\nEDUCATION DEPARTMENT\nSCHOLARSHIP CERTIFICATE",
			Body:       educationBody,
			Footer:     "Issued under the authority of Education Department, Government of Tamil Nadu",
			Department: "Education Department",
		},
		model.ServiceNaanMudhalvan: {
			Name:       "Skill Development Certificate",
			Title:      "GOVERNMENT OF TAMIL NADU\nNAAN MUDHALVAN INITIATIVE\nSKILL DEVELOPMENT CERTIFICATE",
			Body:       naanMudhalvanBody,
			Footer:     "Issued under the authority of Naan Mudhalvan Initiative, Government of Tamil Nadu",
			Department: "Naan Mudhalvan Initiative",
		},
	}
}
