package model

import "time"

// CertificateData is the normalized field set rendered into a certificate
// template.  Keys are template placeholder names.
type CertificateData map[string]string

// Certificate is the document issued for an approved application, stored in
// the `certificates` table.  At most one certificate exists per
// application and the record never changes after it is created.
//
// Fields:
//  ID                – primary key identifier (UUID).
//  ApplicationID     – Application.ID of the owning application (unique).
//  CertificateNumber – <TYPE>/<year>/<month>/<random>.
//  CertificateType   – service type of the application.
//  IssuedDate        – time of issuance.
//  IssuedBy          – officer name printed as signatory.
//  CitizenName       – name of the certificate holder.
//  CertificateData   – mapped template fields.
//  DigitalSignature  – opaque token printed on the document.
type Certificate struct {
	ID                string          `json:"id"`                // certificates.id
	ApplicationID     string          `json:"applicationId"`     // certificates.application_id
	CertificateNumber string          `json:"certificateNumber"` // certificates.certificate_number
	CertificateType   string          `json:"certificateType"`   // certificates.certificate_type
	IssuedDate        time.Time       `json:"issuedDate"`        // certificates.issued_date
	IssuedBy          string          `json:"issuedBy"`          // certificates.issued_by
	CitizenName       string          `json:"citizenName"`       // certificates.citizen_name
	CertificateData   CertificateData `json:"certificateData"`   // certificates.certificate_data (JSON)
	DigitalSignature  string          `json:"digitalSignature"`  // certificates.digital_signature
}
