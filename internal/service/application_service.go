package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/iliyamo/citizen-services/internal/certificate"
	"github.com/iliyamo/citizen-services/internal/lifecycle"
	"github.com/iliyamo/citizen-services/internal/metrics"
	"github.com/iliyamo/citizen-services/internal/model"
	"github.com/iliyamo/citizen-services/internal/queue"
)

const (
	maxRemarksLength  = 1000
	maxServiceTypeLen = 32
	publishTimeout    = 3 * time.Second
	numberAttempts    = 3
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID     string
	Name       string
	UserType   string
	Department string
}

// DisplayName is the name recorded as officer or signatory.
func (a Actor) DisplayName() string {
	if strings.TrimSpace(a.Name) != "" {
		return a.Name
	}
	return a.UserID
}

// NewApplication is a citizen's submission.
type NewApplication struct {
	ServiceType string
	ServiceName string
	Priority    string
	FormData    json.RawMessage
	Documents   []model.DocumentRef
}

// Document is a rendered certificate ready for download.
type Document struct {
	Filename    string
	ContentType string
	Body        string
}

// Verification is the public view of an issued certificate.
type Verification struct {
	CertificateNumber string    `json:"certificateNumber"`
	CertificateType   string    `json:"certificateType"`
	IssuedDate        time.Time `json:"issuedDate"`
	IssuedBy          string    `json:"issuedBy"`
	CitizenName       string    `json:"citizenName"`
	Department        string    `json:"department"`
}

// ApplicationService runs the application workflow: submission, department
// review, certificate issuance and download.
type ApplicationService struct {
	apps    ApplicationRepository
	certs   CertificateRepository
	engine  *certificate.Engine
	mapper  certificate.Mapper
	events  EventPublisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	locks   *keyedMutex
	now     func() time.Time
}

type Option func(s *ApplicationService)

func WithLogger(logger *slog.Logger) Option {
	return func(s *ApplicationService) {
		s.logger = logger
	}
}

func WithEventPublisher(events EventPublisher) Option {
	return func(s *ApplicationService) {
		s.events = events
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *ApplicationService) {
		s.metrics = m
	}
}

func WithEngine(e *certificate.Engine) Option {
	return func(s *ApplicationService) {
		s.engine = e
	}
}

func WithMapper(m certificate.Mapper) Option {
	return func(s *ApplicationService) {
		s.mapper = m
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *ApplicationService) {
		s.now = now
	}
}

// NewApplicationService constructs an ApplicationService.
func NewApplicationService(apps ApplicationRepository, certs CertificateRepository, opts ...Option) *ApplicationService {
	s := &ApplicationService{
		apps:   apps,
		certs:  certs,
		mapper: certificate.NewMapper(""),
		events: queue.NopPublisher{},
		logger: slog.Default(),
		locks:  newKeyedMutex(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = certificate.NewEngine()
	}
	return s
}

// CreateApplication stores a new pending application owned by citizenID.
func (s *ApplicationService) CreateApplication(ctx context.Context, citizenID string, in NewApplication) (model.Application, error) {
	citizenID = strings.TrimSpace(citizenID)
	if citizenID == "" {
		return model.Application{}, validation("citizen id is required")
	}
	serviceType := strings.ToLower(strings.TrimSpace(in.ServiceType))
	if err := checkServiceType(serviceType); err != nil {
		return model.Application{}, err
	}
	priority, ok := model.NormalizePriority(in.Priority)
	if !ok {
		return model.Application{}, validation("unknown priority %q", in.Priority)
	}
	form, err := model.DecodeFormData(serviceType, in.FormData)
	if err != nil {
		return model.Application{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := s.timestamp()
	docs, err := normalizeDocuments(in.Documents, now)
	if err != nil {
		return model.Application{}, err
	}

	app := model.Application{
		ID:            uuid.NewString(),
		ApplicationID: certificate.ApplicationNumber(serviceType, now),
		CitizenID:     citizenID,
		ServiceType:   serviceType,
		ServiceName:   serviceName(serviceType, strings.TrimSpace(in.ServiceName), form),
		Status:        model.StatusPending,
		Priority:      priority,
		FormData:      form,
		SubmittedDate: now,
		LastUpdated:   now,
		Documents:     docs,
		Version:       1,
	}
	if err := s.apps.Create(ctx, app); err != nil {
		return model.Application{}, storeErr("create application", err)
	}

	s.metrics.IncSubmitted(serviceType)
	s.logger.InfoContext(ctx, "application submitted",
		"application_id", app.ID, "number", app.ApplicationID, "service_type", serviceType)
	s.publish(ctx, queue.ApplicationEvent{
		Type:              queue.EventSubmitted,
		ApplicationID:     app.ID,
		ApplicationNumber: app.ApplicationID,
		CitizenID:         citizenID,
		ServiceType:       serviceType,
		ToStatus:          string(app.Status),
		OccurredAt:        queue.Timestamp(now),
	})
	return app, nil
}

// GetApplicationsByUser lists the citizen's applications, newest first.
func (s *ApplicationService) GetApplicationsByUser(ctx context.Context, citizenID string) ([]model.Application, error) {
	apps, err := s.apps.ListByCitizen(ctx, citizenID)
	if err != nil {
		return nil, storeErr("list applications", err)
	}
	return apps, nil
}

// GetApplicationsByDepartment lists the applications of serviceType, newest
// first, optionally restricted to one status.
func (s *ApplicationService) GetApplicationsByDepartment(ctx context.Context, serviceType, status string) ([]model.Application, error) {
	st := model.ApplicationStatus(strings.ToLower(strings.TrimSpace(status)))
	if st != "" && !st.Valid() {
		return nil, validation("unknown status %q", status)
	}
	apps, err := s.apps.ListByServiceType(ctx, serviceType, st)
	if err != nil {
		return nil, storeErr("list applications", err)
	}
	return apps, nil
}

// GetApplication returns one application to its owner or its department.
func (s *ApplicationService) GetApplication(ctx context.Context, actor Actor, id string) (model.Application, error) {
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return model.Application{}, storeErr("application "+id, err)
	}
	if err := canRead(actor, app); err != nil {
		return model.Application{}, err
	}
	return app, nil
}

// TransitionApplication applies a department action.  The action must be
// legal from the current status; remarks replace the previous remarks.
func (s *ApplicationService) TransitionApplication(ctx context.Context, id, action, remarks string, actor Actor) (model.Application, error) {
	act, err := lifecycle.ParseAction(action)
	if err != nil {
		return model.Application{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	remarks = strings.TrimSpace(remarks)
	if utf8.RuneCountInString(remarks) > maxRemarksLength {
		return model.Application{}, validation("remarks exceed %d characters", maxRemarksLength)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return model.Application{}, storeErr("application "+id, err)
	}
	if err := canWrite(actor, app); err != nil {
		return model.Application{}, err
	}

	from := app.Status
	to, err := lifecycle.Next(from, act)
	if err != nil {
		s.metrics.IncRejectedTransition(string(act), string(from))
		return app, err
	}

	officer := actor.DisplayName()
	app.Status = to
	app.Remarks = remarks
	app.AssignedOfficer = officer
	if lifecycle.RecordsApprover(act) {
		app.ApprovedBy = officer
	}
	app.LastUpdated = s.after(app.LastUpdated)

	if err := s.apps.Update(ctx, app); err != nil {
		err = storeErr("update application "+id, err)
		if errors.Is(err, ErrConflict) {
			s.metrics.IncConflict("transition")
		}
		return model.Application{}, err
	}
	app.Version++

	s.metrics.IncTransition(string(act), string(to))
	s.logger.InfoContext(ctx, "application transitioned",
		"application_id", app.ID, "action", act, "from", from, "to", to, "officer", officer)
	s.publish(ctx, queue.ApplicationEvent{
		Type:              queue.EventTransitioned,
		ApplicationID:     app.ID,
		ApplicationNumber: app.ApplicationID,
		CitizenID:         app.CitizenID,
		ServiceType:       app.ServiceType,
		FromStatus:        string(from),
		ToStatus:          string(to),
		Action:            string(act),
		Actor:             officer,
		Remarks:           remarks,
		OccurredAt:        queue.Timestamp(app.LastUpdated),
	})
	return app, nil
}

// GenerateCertificate issues the certificate of an approved application.
// At most one certificate exists per application; a second call fails with
// ErrAlreadyExists.  The application itself is not modified.
func (s *ApplicationService) GenerateCertificate(ctx context.Context, id string, actor Actor) (model.Certificate, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return model.Certificate{}, storeErr("application "+id, err)
	}
	if err := canWrite(actor, app); err != nil {
		return model.Certificate{}, err
	}
	if app.Status != model.StatusApproved {
		return model.Certificate{}, fmt.Errorf("%w: status is %s", ErrNotApproved, app.Status)
	}
	if _, err := s.certs.GetByApplicationID(ctx, app.ID); err == nil {
		s.metrics.IncConflict("certificate")
		return model.Certificate{}, fmt.Errorf("certificate for application %s: %w", app.ID, ErrAlreadyExists)
	} else if err = storeErr("certificate lookup", err); !errors.Is(err, ErrNotFound) {
		return model.Certificate{}, err
	}
	if !s.engine.Has(app.ServiceType) {
		return model.Certificate{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, app.ServiceType)
	}

	data := s.mapper.Map(app.ServiceType, app.ServiceName, app.FormData)
	now := s.timestamp()
	cert := model.Certificate{
		ID:               uuid.NewString(),
		ApplicationID:    app.ID,
		CertificateType:  app.ServiceType,
		IssuedDate:       now,
		IssuedBy:         actor.DisplayName(),
		CitizenName:      certificate.CitizenName(data),
		CertificateData:  data,
		DigitalSignature: certificate.DigitalSignature(),
	}

	for attempt := 1; ; attempt++ {
		cert.CertificateNumber = certificate.CertificateNumber(cert.CertificateType, now)
		if _, err := s.render(cert); err != nil {
			return model.Certificate{}, err
		}
		err = s.certs.Create(ctx, cert)
		if err == nil {
			break
		}
		err = storeErr("create certificate", err)
		if !errors.Is(err, ErrAlreadyExists) {
			return model.Certificate{}, err
		}
		// A duplicate is either a second certificate or a number collision.
		if _, lookupErr := s.certs.GetByApplicationID(ctx, app.ID); lookupErr == nil || attempt == numberAttempts {
			s.metrics.IncConflict("certificate")
			return model.Certificate{}, err
		}
	}

	s.metrics.IncIssued(cert.CertificateType)
	s.logger.InfoContext(ctx, "certificate issued",
		"application_id", app.ID, "certificate_id", cert.ID, "number", cert.CertificateNumber)
	s.publish(ctx, queue.ApplicationEvent{
		Type:              queue.EventCertificateIssued,
		ApplicationID:     app.ID,
		ApplicationNumber: app.ApplicationID,
		CitizenID:         app.CitizenID,
		ServiceType:       app.ServiceType,
		ToStatus:          string(app.Status),
		Actor:             cert.IssuedBy,
		CertificateNumber: cert.CertificateNumber,
		OccurredAt:        queue.Timestamp(now),
	})
	return cert, nil
}

// GetCertificatesByUser returns the certificates of the citizen's
// applications, newest first.
func (s *ApplicationService) GetCertificatesByUser(ctx context.Context, citizenID string) ([]model.Certificate, error) {
	apps, err := s.apps.ListByCitizen(ctx, citizenID)
	if err != nil {
		return nil, storeErr("list applications", err)
	}
	ids := make([]string, len(apps))
	for i, a := range apps {
		ids[i] = a.ID
	}
	certs, err := s.certs.ListByApplicationIDs(ctx, ids)
	if err != nil {
		return nil, storeErr("list certificates", err)
	}
	return certs, nil
}

// RenderCertificateDocument renders a stored certificate for download by
// the application's owner or department.
func (s *ApplicationService) RenderCertificateDocument(ctx context.Context, actor Actor, certificateID string) (Document, error) {
	cert, err := s.certs.GetByID(ctx, certificateID)
	if err != nil {
		return Document{}, storeErr("certificate "+certificateID, err)
	}
	app, err := s.apps.GetByID(ctx, cert.ApplicationID)
	if err != nil {
		return Document{}, storeErr("application "+cert.ApplicationID, err)
	}
	if err := canRead(actor, app); err != nil {
		return Document{}, err
	}
	body, err := s.render(cert)
	if err != nil {
		return Document{}, err
	}
	return Document{
		Filename:    strings.ReplaceAll(cert.CertificateNumber, "/", "-") + ".html",
		ContentType: "text/html; charset=UTF-8",
		Body:        body,
	}, nil
}

// VerifyCertificate looks up an issued certificate by number.
func (s *ApplicationService) VerifyCertificate(ctx context.Context, number string) (Verification, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return Verification{}, validation("certificate number is required")
	}
	cert, err := s.certs.GetByNumber(ctx, number)
	if err != nil {
		return Verification{}, storeErr("certificate "+number, err)
	}
	return Verification{
		CertificateNumber: cert.CertificateNumber,
		CertificateType:   cert.CertificateType,
		IssuedDate:        cert.IssuedDate,
		IssuedBy:          cert.IssuedBy,
		CitizenName:       cert.CitizenName,
		Department:        s.engine.Department(cert.CertificateType),
	}, nil
}

func (s *ApplicationService) render(cert model.Certificate) (string, error) {
	defer s.metrics.ObserveRender(time.Now())
	return s.engine.Render(cert.CertificateType, certificate.Issuance{
		CertificateNumber: cert.CertificateNumber,
		IssuedBy:          cert.IssuedBy,
		IssuedDate:        cert.IssuedDate,
		DigitalSignature:  cert.DigitalSignature,
	}, cert.CertificateData)
}

// publish sends event without letting a broker failure reach the caller.
func (s *ApplicationService) publish(ctx context.Context, event queue.ApplicationEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.events.Publish(ctx, event); err != nil {
		s.metrics.IncPublishFailure()
		s.logger.WarnContext(ctx, "event publish failed",
			"event", event.Type, "application_id", event.ApplicationID, "error", err)
	}
}

// timestamp is the current time at the precision the stores keep.
func (s *ApplicationService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// after returns the current time, or prev plus one millisecond when the
// clock has not moved past prev.
func (s *ApplicationService) after(prev time.Time) time.Time {
	now := s.timestamp()
	if !now.After(prev) {
		return prev.Add(time.Millisecond)
	}
	return now
}

func canRead(actor Actor, app model.Application) error {
	switch actor.UserType {
	case model.UserTypeCitizen:
		if actor.UserID != "" && app.CitizenID == actor.UserID {
			return nil
		}
	case model.UserTypeDepartment:
		if actor.Department != "" && app.ServiceType == actor.Department {
			return nil
		}
	}
	return fmt.Errorf("application %s: %w", app.ID, ErrForbidden)
}

func canWrite(actor Actor, app model.Application) error {
	if actor.UserType == model.UserTypeDepartment && actor.Department != "" && app.ServiceType == actor.Department {
		return nil
	}
	return fmt.Errorf("application %s: %w", app.ID, ErrForbidden)
}

func checkServiceType(t string) error {
	if t == "" {
		return validation("service type is required")
	}
	if len(t) > maxServiceTypeLen {
		return validation("service type is too long")
	}
	for _, r := range t {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return validation("invalid service type %q", t)
		}
	}
	return nil
}

var defaultServiceNames = map[string]string{
	model.ServiceRevenue:       "Revenue Certificate",
	model.ServiceEducation:     "Educational Scheme",
	model.ServiceNaanMudhalvan: "Skill Development Program",
}

// serviceName keeps a submitted name, derives revenue names from the form's
// certificate type and falls back to a per-service default.
func serviceName(serviceType, submitted string, form model.FormData) string {
	if submitted != "" {
		return submitted
	}
	if f, ok := form.(model.RevenueForm); ok {
		if n := certificate.RevenueServiceName(f.CertificateType); n != "" {
			return n
		}
	}
	if n, ok := defaultServiceNames[serviceType]; ok {
		return n
	}
	return serviceType
}

func normalizeDocuments(refs []model.DocumentRef, now time.Time) ([]model.DocumentInfo, error) {
	docs := make([]model.DocumentInfo, 0, len(refs))
	for i, ref := range refs {
		d := ref.DocumentInfo
		d.Name = strings.TrimSpace(d.Name)
		if d.Name == "" {
			return nil, validation("document %d has no name", i+1)
		}
		if d.Size < 0 {
			return nil, validation("document %q has a negative size", d.Name)
		}
		if strings.TrimSpace(d.Type) == "" {
			d.Type = "application/octet-stream"
		}
		if d.UploadedAt.IsZero() {
			d.UploadedAt = now
		}
		docs = append(docs, d)
	}
	return docs, nil
}
