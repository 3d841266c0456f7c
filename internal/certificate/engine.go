// Package certificate turns application form data into issued certificate
// documents.  The Mapper normalizes per-service form data into template
// fields and the Engine renders those fields into an HTML document.
package certificate

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/citizen-services/internal/model"
)

// ErrUnknownTemplate is returned when no template is registered for a
// certificate type.
var ErrUnknownTemplate = errors.New("unknown certificate template")

// Issuance carries the metadata printed around the certificate body.
type Issuance struct {
	CertificateNumber string
	IssuedBy          string
	IssuedDate        time.Time
	DigitalSignature  string
}

// ist is used for the printed issue date.  A fixed zone avoids depending on
// the host's tzdata.
var ist = time.FixedZone("IST", 5*60*60+30*60)

// IssueDateLayout renders dates as DD Month YYYY.
const IssueDateLayout = "02 January 2006"

var placeholderRE = regexp.MustCompile(`\{[^{}]*\}`)

// Engine renders certificates from registered templates.  It is safe for
// concurrent use.
type Engine struct {
	mu        sync.RWMutex
	templates map[string]Template
	page      *template.Template
}

// NewEngine returns an engine loaded with DefaultTemplates.
func NewEngine() *Engine {
	return &Engine{
		templates: DefaultTemplates(),
		page:      template.Must(template.New("certificate").Parse(pageHTML)),
	}
}

// Register adds or replaces the template for certType.
func (e *Engine) Register(certType string, t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[certType] = t
}

// Has reports whether a template is registered for certType.
func (e *Engine) Has(certType string) bool {
	_, ok := e.lookup(certType)
	return ok
}

// Department returns the issuing department title printed for certType.
func (e *Engine) Department(certType string) string {
	t, _ := e.lookup(certType)
	return departmentOf(t)
}

func departmentOf(t Template) string {
	if t.Department == "" {
		return "Government Department"
	}
	return t.Department
}

func (e *Engine) lookup(certType string) (Template, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.templates[certType]
	return t, ok
}

// RenderBody fills the template body of certType with data.  The subtype
// paragraph is injected first so that its own placeholders are filled in
// the same substitution pass.  Placeholders without a value and braces in
// values are removed.
func (e *Engine) RenderBody(certType string, data model.CertificateData) (string, error) {
	t, ok := e.lookup(certType)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, certType)
	}
	body := t.Body
	if len(t.Subtypes) > 0 {
		paragraph, ok := t.Subtypes[data[SubtypeKey]]
		if !ok {
			paragraph = t.DefaultSubtype
		}
		body = strings.Replace(body, subtypeSlot, paragraph, 1)
	}
	return placeholderRE.ReplaceAllStringFunc(body, func(token string) string {
		return cleanValue(data[token[1:len(token)-1]])
	}), nil
}

// Render produces the complete HTML document for a certificate.  Field
// values are HTML-escaped.
func (e *Engine) Render(certType string, iss Issuance, data model.CertificateData) (string, error) {
	body, err := e.RenderBody(certType, data)
	if err != nil {
		return "", err
	}
	t, _ := e.lookup(certType)
	dept := departmentOf(t)
	view := pageView{
		Name:              t.Name,
		TitleLines:        strings.Split(t.Title, "\n"),
		CertificateNumber: cleanValue(iss.CertificateNumber),
		Body:              body,
		IssuedDate:        iss.IssuedDate.In(ist).Format(IssueDateLayout),
		IssuedBy:          cleanValue(iss.IssuedBy),
		Department:        dept,
		Footer:            t.Footer,
		DigitalSignature:  cleanValue(iss.DigitalSignature),
	}
	var buf bytes.Buffer
	if err := e.page.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render %s certificate: %w", certType, err)
	}
	return buf.String(), nil
}

// cleanValue drops placeholder tokens and stray braces from a value so the
// output never carries template syntax.
func cleanValue(v string) string {
	v = placeholderRE.ReplaceAllString(v, "")
	return strings.NewReplacer("{", "", "}", "").Replace(v)
}

type pageView struct {
	Name              string
	TitleLines        []string
	CertificateNumber string
	Body              string
	IssuedDate        string
	IssuedBy          string
	Department        string
	Footer            string
	DigitalSignature  string
}

// pageHTML uses inline styles only, so the rendered document contains no
// brace characters.
const pageHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Name}}</title>
</head>
<body style="font-family: 'Times New Roman', serif; margin: 0; padding: 40px; background: #eef2f7;">
<div class="certificate" style="max-width: 800px; margin: 0 auto; background: white; border: 8px solid #2c5aa0; border-radius: 15px; padding: 40px;">
<div class="emblem" style="float: left; width: 80px; height: 80px; border-radius: 50%; background: #f7931e; color: white; font-weight: bold; font-size: 10px; text-align: center; line-height: 40px;">TN<br>GOVT</div>
<div class="seal" style="float: right; width: 100px; height: 100px; border: 3px solid #2c5aa0; border-radius: 50%; color: #2c5aa0; font-size: 12px; font-weight: bold; text-align: center; line-height: 50px;">OFFICIAL<br>SEAL</div>
<div class="header" style="text-align: center; margin-bottom: 30px;">
<div class="title" style="font-size: 22px; font-weight: bold; color: #2c5aa0; line-height: 1.4; margin-bottom: 20px;">{{range $i, $l := .TitleLines}}{{if $i}}<br>{{end}}{{$l}}{{end}}</div>
<div class="cert-number" style="font-size: 14px; color: #666; font-weight: bold;">Certificate No: {{.CertificateNumber}}</div>
</div>
<div class="content" style="clear: both; font-size: 16px; line-height: 1.8; text-align: justify; margin: 30px 0; color: #333; white-space: pre-line;">{{.Body}}</div>
<div class="signature-section" style="display: flex; justify-content: space-between; margin-top: 50px;">
<div class="date-issued"><strong>Date of Issue:</strong><br>{{.IssuedDate}}</div>
<div class="signature-box" style="text-align: center; min-width: 200px;">
<div class="signature-line" style="border-bottom: 2px solid #333; margin-bottom: 10px; font-style: italic; color: #2c5aa0; font-weight: bold;">{{.IssuedBy}}</div>
<div><strong>Authorized Signatory</strong></div>
<div style="font-size: 12px; margin-top: 5px;">{{.Department}}</div>
</div>
</div>
<div class="footer" style="text-align: center; font-size: 12px; color: #666; margin-top: 30px; font-style: italic;">{{.Footer}}</div>
<div class="digital-signature" style="font-size: 10px; color: #999; margin-top: 20px; text-align: center;">Digital Signature: {{.DigitalSignature}}<br>This is a digitally generated certificate. Verify authenticity at www.tngovt.in/verify</div>
</div>
</body>
</html>
`
