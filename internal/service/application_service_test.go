package service

//go:generate mockgen -destination=mocks/mocks.go -package=mocks github.com/iliyamo/citizen-services/internal/service EventPublisher

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/iliyamo/citizen-services/internal/metrics"
	"github.com/iliyamo/citizen-services/internal/model"
	"github.com/iliyamo/citizen-services/internal/queue"
	"github.com/iliyamo/citizen-services/internal/repository"
	"github.com/iliyamo/citizen-services/internal/repository/memory"
	"github.com/iliyamo/citizen-services/internal/service/mocks"
)

var (
	citizen        = Actor{UserID: "citizen-1", Name: "Suresh Babu", UserType: model.UserTypeCitizen}
	otherCitizen   = Actor{UserID: "citizen-2", UserType: model.UserTypeCitizen}
	revenueOfficer = Actor{UserID: "officer-1", Name: "Rajesh Kumar", UserType: model.UserTypeDepartment, Department: model.ServiceRevenue}
	eduOfficer     = Actor{UserID: "officer-2", Name: "Priya Sharma", UserType: model.UserTypeDepartment, Department: model.ServiceEducation}
)

const incomeForm = `{"fullName":"Suresh","gender":"male","fatherName":"Babu","address":"Anna Nagar, Chennai, Tamil Nadu","purpose":"Bank loan"}`

type ApplicationServiceSuite struct {
	suite.Suite
	ctx     context.Context
	ctrl    *gomock.Controller
	events  *mocks.MockEventPublisher
	apps    *memory.ApplicationStore
	certs   *memory.CertificateStore
	metrics *metrics.Metrics
	svc     *ApplicationService
}

func TestApplicationServiceSuite(t *testing.T) {
	suite.Run(t, new(ApplicationServiceSuite))
}

func (s *ApplicationServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.events = mocks.NewMockEventPublisher(s.ctrl)
	s.apps = memory.NewApplicationStore()
	s.certs = memory.NewCertificateStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.svc = NewApplicationService(s.apps, s.certs,
		WithEventPublisher(s.events),
		WithMetrics(s.metrics),
	)
}

func (s *ApplicationServiceSuite) allowEvents() {
	s.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func (s *ApplicationServiceSuite) submitIncome() model.Application {
	app, err := s.svc.CreateApplication(s.ctx, citizen.UserID, NewApplication{
		ServiceType: model.ServiceRevenue,
		ServiceName: "Income Certificate",
		FormData:    json.RawMessage(incomeForm),
	})
	s.Require().NoError(err)
	return app
}

func (s *ApplicationServiceSuite) approve(id string) model.Application {
	app, err := s.svc.TransitionApplication(s.ctx, id, "approve", "verified", revenueOfficer)
	s.Require().NoError(err)
	return app
}

func (s *ApplicationServiceSuite) TestIncomeCertificateEndToEnd() {
	var published []queue.ApplicationEvent
	s.events.EXPECT().Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev queue.ApplicationEvent) error {
			published = append(published, ev)
			return nil
		}).Times(4)

	app := s.submitIncome()
	s.Equal(model.StatusPending, app.Status)
	s.Regexp(`^REV\d{6}$`, app.ApplicationID)
	s.Equal(model.PriorityMedium, app.Priority)
	s.Equal(app.SubmittedDate, app.LastUpdated)

	reviewed, err := s.svc.TransitionApplication(s.ctx, app.ID, "start-review", "checking documents", revenueOfficer)
	s.Require().NoError(err)
	s.Equal(model.StatusInReview, reviewed.Status)
	s.Equal("checking documents", reviewed.Remarks)
	s.Equal("Rajesh Kumar", reviewed.AssignedOfficer)
	s.Empty(reviewed.ApprovedBy)

	approved := s.approve(app.ID)
	s.Equal(model.StatusApproved, approved.Status)
	s.Equal("verified", approved.Remarks)
	s.Equal("Rajesh Kumar", approved.ApprovedBy)
	s.True(approved.LastUpdated.After(reviewed.LastUpdated))

	cert, err := s.svc.GenerateCertificate(s.ctx, app.ID, revenueOfficer)
	s.Require().NoError(err)
	s.Equal(app.ID, cert.ApplicationID)
	s.Equal("income", cert.CertificateData["certificateSubType"])
	s.Equal("S/o", cert.CertificateData["relation"])
	s.Equal("Anna Nagar", cert.CertificateData["placeOfBirth"])
	s.Equal("Suresh", cert.CitizenName)
	s.Equal("Rajesh Kumar", cert.IssuedBy)
	s.Regexp(`^RE/\d{4}/\d{2}/[0-9A-Z]{6}$`, cert.CertificateNumber)
	s.Regexp(`^DIGITAL_SIGNATURE_[0-9A-Z]{13}$`, cert.DigitalSignature)

	stored, err := s.apps.GetByID(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusApproved, stored.Status, "issuing does not change the status")

	s.Require().Len(published, 4)
	s.Equal(queue.EventSubmitted, published[0].Type)
	s.Equal(queue.EventTransitioned, published[1].Type)
	s.Equal("pending", published[1].FromStatus)
	s.Equal("in-review", published[1].ToStatus)
	s.Equal(queue.EventCertificateIssued, published[3].Type)
	s.Equal(cert.CertificateNumber, published[3].CertificateNumber)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.CertificatesIssued.WithLabelValues(model.ServiceRevenue)))
}

func (s *ApplicationServiceSuite) TestGenerateCertificateTwiceFails() {
	s.allowEvents()
	app := s.submitIncome()
	s.approve(app.ID)

	_, err := s.svc.GenerateCertificate(s.ctx, app.ID, revenueOfficer)
	s.Require().NoError(err)

	_, err = s.svc.GenerateCertificate(s.ctx, app.ID, revenueOfficer)
	s.ErrorIs(err, ErrAlreadyExists)

	certs, err := s.svc.GetCertificatesByUser(s.ctx, citizen.UserID)
	s.Require().NoError(err)
	s.Len(certs, 1)
}

func (s *ApplicationServiceSuite) TestApproveRejectedFails() {
	s.allowEvents()
	app := s.submitIncome()
	_, err := s.svc.TransitionApplication(s.ctx, app.ID, "reject", "incomplete", revenueOfficer)
	s.Require().NoError(err)

	_, err = s.svc.TransitionApplication(s.ctx, app.ID, "approve", "", revenueOfficer)
	s.ErrorIs(err, ErrInvalidTransition)

	stored, err := s.apps.GetByID(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusRejected, stored.Status)
	s.Equal("incomplete", stored.Remarks)
}

func (s *ApplicationServiceSuite) TestForwardedIsDeadEnd() {
	s.allowEvents()
	app := s.submitIncome()
	_, err := s.svc.TransitionApplication(s.ctx, app.ID, "review", "", revenueOfficer)
	s.Require().NoError(err)
	fwd, err := s.svc.TransitionApplication(s.ctx, app.ID, "forward", "to tahsildar", revenueOfficer)
	s.Require().NoError(err)
	s.Equal(model.StatusForwarded, fwd.Status)

	for _, action := range []string{"start-review", "approve", "reject", "forward"} {
		_, err := s.svc.TransitionApplication(s.ctx, app.ID, action, "", revenueOfficer)
		s.ErrorIs(err, ErrInvalidTransition, action)
	}
}

func (s *ApplicationServiceSuite) TestTransitionErrors() {
	s.allowEvents()
	app := s.submitIncome()

	_, err := s.svc.TransitionApplication(s.ctx, "missing", "approve", "", revenueOfficer)
	s.ErrorIs(err, ErrNotFound)

	_, err = s.svc.TransitionApplication(s.ctx, app.ID, "approved", "", revenueOfficer)
	s.ErrorIs(err, ErrValidation)

	_, err = s.svc.TransitionApplication(s.ctx, app.ID, "approve", "", eduOfficer)
	s.ErrorIs(err, ErrForbidden)

	_, err = s.svc.TransitionApplication(s.ctx, app.ID, "approve", "", citizen)
	s.ErrorIs(err, ErrForbidden)

	_, err = s.svc.TransitionApplication(s.ctx, app.ID, "approve", strings.Repeat("x", maxRemarksLength+1), revenueOfficer)
	s.ErrorIs(err, ErrValidation)
}

func (s *ApplicationServiceSuite) TestGenerateCertificatePreconditions() {
	s.allowEvents()
	app := s.submitIncome()

	_, err := s.svc.GenerateCertificate(s.ctx, app.ID, revenueOfficer)
	s.ErrorIs(err, ErrNotApproved)

	_, err = s.svc.GenerateCertificate(s.ctx, "missing", revenueOfficer)
	s.ErrorIs(err, ErrNotFound)

	s.approve(app.ID)
	_, err = s.svc.GenerateCertificate(s.ctx, app.ID, eduOfficer)
	s.ErrorIs(err, ErrForbidden)
}

func (s *ApplicationServiceSuite) TestGenerateCertificateUnknownTemplate() {
	s.allowEvents()
	app, err := s.svc.CreateApplication(s.ctx, citizen.UserID, NewApplication{
		ServiceType: "transport",
		FormData:    json.RawMessage(`{"fullName":"Ravi"}`),
	})
	s.Require().NoError(err)
	s.Regexp(`^APP\d{6}$`, app.ApplicationID)

	officer := Actor{UserID: "officer-9", UserType: model.UserTypeDepartment, Department: "transport"}
	_, err = s.svc.TransitionApplication(s.ctx, app.ID, "approve", "", officer)
	s.Require().NoError(err)

	_, err = s.svc.GenerateCertificate(s.ctx, app.ID, officer)
	s.ErrorIs(err, ErrUnknownTemplate)

	_, err = s.certs.GetByApplicationID(s.ctx, app.ID)
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *ApplicationServiceSuite) TestConcurrentCertificateGeneration() {
	s.allowEvents()
	app := s.submitIncome()
	s.approve(app.ID)

	var ok, dup atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.svc.GenerateCertificate(s.ctx, app.ID, revenueOfficer)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, ErrAlreadyExists):
				dup.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), ok.Load())
	s.Equal(int32(19), dup.Load())
	s.Equal(0, s.svc.locks.size())
}

func (s *ApplicationServiceSuite) TestConcurrentTransitions() {
	s.allowEvents()
	app := s.submitIncome()

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.svc.TransitionApplication(s.ctx, app.ID, "approve", "", revenueOfficer); err == nil {
				ok.Add(1)
			} else {
				assert.ErrorIs(s.T(), err, ErrInvalidTransition)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), ok.Load())

	stored, err := s.apps.GetByID(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(int64(2), stored.Version)
}

func (s *ApplicationServiceSuite) TestStaleUpdateIsConflict() {
	s.allowEvents()
	app := s.submitIncome()

	svc := NewApplicationService(staleApps{s.apps}, s.certs, WithEventPublisher(s.events), WithMetrics(s.metrics))
	_, err := svc.TransitionApplication(s.ctx, app.ID, "approve", "", revenueOfficer)
	s.ErrorIs(err, ErrConflict)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Conflicts.WithLabelValues("transition")))
}

func (s *ApplicationServiceSuite) TestPublishFailureDoesNotFailRequest() {
	s.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down")).Times(1)

	app := s.submitIncome()
	s.Equal(model.StatusPending, app.Status)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.EventPublishFailures))
}

func (s *ApplicationServiceSuite) TestCreateApplicationValidation() {
	cases := map[string]NewApplication{
		"missing service type": {FormData: json.RawMessage(`{}`)},
		"bad service type":     {ServiceType: "Rev enue"},
		"bad priority":         {ServiceType: model.ServiceRevenue, Priority: "urgent"},
		"bad email":            {ServiceType: model.ServiceRevenue, FormData: json.RawMessage(`{"email":"nope"}`)},
		"malformed form":       {ServiceType: model.ServiceEducation, FormData: json.RawMessage(`[1,2]`)},
		"unnamed document":     {ServiceType: model.ServiceRevenue, Documents: []model.DocumentRef{{}}},
	}
	for name, in := range cases {
		_, err := s.svc.CreateApplication(s.ctx, citizen.UserID, in)
		s.ErrorIs(err, ErrValidation, name)
	}

	_, err := s.svc.CreateApplication(s.ctx, " ", NewApplication{ServiceType: model.ServiceRevenue})
	s.ErrorIs(err, ErrValidation)
}

func (s *ApplicationServiceSuite) TestCreateApplicationDefaults() {
	s.allowEvents()
	var docs []model.DocumentRef
	s.Require().NoError(json.Unmarshal([]byte(`["aadhaar.pdf", {"name":"ration.jpg","size":2048,"type":"image/jpeg"}]`), &docs))

	app, err := s.svc.CreateApplication(s.ctx, citizen.UserID, NewApplication{
		ServiceType: "Revenue",
		Priority:    "HIGH",
		FormData:    json.RawMessage(`{"certificateType":"community","fullName":"Meena"}`),
		Documents:   docs,
	})
	s.Require().NoError(err)
	s.Equal(model.ServiceRevenue, app.ServiceType)
	s.Equal("Community Certificate", app.ServiceName)
	s.Equal(model.PriorityHigh, app.Priority)
	s.Require().Len(app.Documents, 2)
	s.Equal(model.DocumentInfo{Name: "aadhaar.pdf", Type: "application/octet-stream", UploadedAt: app.SubmittedDate}, app.Documents[0])
	s.Equal(int64(2048), app.Documents[1].Size)
	s.Equal("image/jpeg", app.Documents[1].Type)

	form, ok := app.FormData.(model.RevenueForm)
	s.Require().True(ok)
	s.Equal("Meena", form.FullName)
}

func (s *ApplicationServiceSuite) TestListsAndReads() {
	s.allowEvents()
	first := s.submitIncome()
	second, err := s.svc.CreateApplication(s.ctx, citizen.UserID, NewApplication{ServiceType: model.ServiceEducation})
	s.Require().NoError(err)
	_, err = s.svc.CreateApplication(s.ctx, otherCitizen.UserID, NewApplication{ServiceType: model.ServiceRevenue})
	s.Require().NoError(err)
	s.approve(first.ID)

	mine, err := s.svc.GetApplicationsByUser(s.ctx, citizen.UserID)
	s.Require().NoError(err)
	s.Len(mine, 2)

	all, err := s.svc.GetApplicationsByDepartment(s.ctx, model.ServiceRevenue, "")
	s.Require().NoError(err)
	s.Len(all, 2)

	approved, err := s.svc.GetApplicationsByDepartment(s.ctx, model.ServiceRevenue, "approved")
	s.Require().NoError(err)
	s.Require().Len(approved, 1)
	s.Equal(first.ID, approved[0].ID)

	_, err = s.svc.GetApplicationsByDepartment(s.ctx, model.ServiceRevenue, "done")
	s.ErrorIs(err, ErrValidation)

	got, err := s.svc.GetApplication(s.ctx, citizen, second.ID)
	s.Require().NoError(err)
	s.Equal(second.ID, got.ID)

	_, err = s.svc.GetApplication(s.ctx, otherCitizen, second.ID)
	s.ErrorIs(err, ErrForbidden)
	_, err = s.svc.GetApplication(s.ctx, revenueOfficer, second.ID)
	s.ErrorIs(err, ErrForbidden)
	_, err = s.svc.GetApplication(s.ctx, eduOfficer, second.ID)
	s.NoError(err)
}

func (s *ApplicationServiceSuite) TestRenderAndVerify() {
	s.allowEvents()
	app := s.submitIncome()
	s.approve(app.ID)
	cert, err := s.svc.GenerateCertificate(s.ctx, app.ID, revenueOfficer)
	s.Require().NoError(err)

	doc, err := s.svc.RenderCertificateDocument(s.ctx, citizen, cert.ID)
	s.Require().NoError(err)
	s.Contains(doc.Body, cert.CertificateNumber)
	s.False(strings.ContainsAny(doc.Body, "{}"))
	s.Equal(strings.ReplaceAll(cert.CertificateNumber, "/", "-")+".html", doc.Filename)
	s.Contains(doc.ContentType, "text/html")

	_, err = s.svc.RenderCertificateDocument(s.ctx, revenueOfficer, cert.ID)
	s.NoError(err)
	_, err = s.svc.RenderCertificateDocument(s.ctx, otherCitizen, cert.ID)
	s.ErrorIs(err, ErrForbidden)
	_, err = s.svc.RenderCertificateDocument(s.ctx, citizen, "missing")
	s.ErrorIs(err, ErrNotFound)

	v, err := s.svc.VerifyCertificate(s.ctx, strings.ToLower(cert.CertificateNumber))
	s.Require().NoError(err)
	s.Equal("Suresh", v.CitizenName)
	s.Equal("Revenue Department", v.Department)

	_, err = s.svc.VerifyCertificate(s.ctx, "RE/2000/01/ZZZZZZ")
	s.ErrorIs(err, ErrNotFound)
	_, err = s.svc.VerifyCertificate(s.ctx, "")
	s.ErrorIs(err, ErrValidation)
}

func (s *ApplicationServiceSuite) TestLastUpdatedAdvancesWithFrozenClock() {
	s.allowEvents()
	frozen := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	svc := NewApplicationService(s.apps, s.certs, WithEventPublisher(s.events), WithClock(func() time.Time { return frozen }))

	app, err := svc.CreateApplication(s.ctx, citizen.UserID, NewApplication{ServiceType: model.ServiceRevenue})
	s.Require().NoError(err)
	reviewed, err := svc.TransitionApplication(s.ctx, app.ID, "start-review", "", revenueOfficer)
	s.Require().NoError(err)
	approved, err := svc.TransitionApplication(s.ctx, app.ID, "approve", "", revenueOfficer)
	s.Require().NoError(err)

	s.True(reviewed.LastUpdated.After(app.LastUpdated))
	s.True(approved.LastUpdated.After(reviewed.LastUpdated))
	s.Equal(frozen, approved.SubmittedDate)
}

// staleApps reports every update as lost to a concurrent writer.
type staleApps struct {
	*memory.ApplicationStore
}

func (staleApps) Update(context.Context, model.Application) error {
	return repository.ErrStale
}

func TestKeyedMutexReleasesEntries(t *testing.T) {
	k := newKeyedMutex()
	unlock := k.Lock("a")
	require.Equal(t, 1, k.size())

	done := make(chan struct{})
	go func() {
		defer close(done)
		k.Lock("a")()
	}()
	k.Lock("b")()
	unlock()
	<-done
	require.Equal(t, 0, k.size())
}
