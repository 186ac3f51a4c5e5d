package service

import (
	"context"
	"fmt"
	"strings"

	"didcom/service-report/internal/config"
	"didcom/service-report/internal/export"
	"didcom/service-report/internal/models"
	"didcom/service-report/internal/session"

	"go.uber.org/zap"
)

// ErrBusy is returned when a submit is already running for the session
var ErrBusy = session.ErrBusy

// Sender delivers payloads to a webhook
type Sender interface {
	Send(ctx context.Context, url string, payload models.WebhookPayload) error
	SendOpaque(ctx context.Context, url string, payload models.WebhookPayload) error
}

// Renderer turns a document into PDF bytes
type Renderer interface {
	Render(doc export.Document) ([]byte, error)
}

// ConfigError means a required webhook URL is not configured
type ConfigError struct {
	Variable string
}

func (e *ConfigError) Error() string {
	return "webhook URL not configured: " + e.Variable
}

// TransportError is a submit that could not be delivered. Fallback is nil
// when no fallback was attempted.
type TransportError struct {
	Primary  error
	Fallback error
}

func (e *TransportError) Error() string {
	if e.Fallback != nil {
		return fmt.Sprintf("webhook delivery failed: %v; fallback: %v", e.Primary, e.Fallback)
	}
	return fmt.Sprintf("webhook delivery failed: %v", e.Primary)
}

func (e *TransportError) Unwrap() []error {
	if e.Fallback != nil {
		return []error{e.Primary, e.Fallback}
	}
	return []error{e.Primary}
}

// SubmitResult describes a delivered report
type SubmitResult struct {
	Company models.Company
	Records int
	// Unconfirmed is set when only the fire-and-forget fallback went through.
	Unconfirmed bool
}

// ExportResult is a rendered PDF ready for download
type ExportResult struct {
	Filename string
	Data     []byte
}

// ReportService validates, submits and exports report sessions
type ReportService struct {
	profile   session.Profile
	webhooks  config.WebhookConfig
	brandName string
	sender    Sender
	renderer  Renderer
	logger    *zap.Logger
}

// NewReportService creates the report service
func NewReportService(
	profile session.Profile,
	webhooks config.WebhookConfig,
	brandName string,
	sender Sender,
	renderer Renderer,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		profile:   profile,
		webhooks:  webhooks,
		brandName: brandName,
		sender:    sender,
		renderer:  renderer,
		logger:    logger,
	}
}

// Profile returns the variant rules in use
func (s *ReportService) Profile() session.Profile {
	return s.profile
}

// Submit checks the session, posts it to the webhook and, on success,
// marks it sent and empties its list. Every check runs before any network
// call. On failure the list is left untouched.
func (s *ReportService) Submit(ctx context.Context, sess *session.ReportSession) (*SubmitResult, error) {
	if !sess.BeginSend() {
		return nil, ErrBusy
	}
	defer sess.EndSend()

	state := sess.Snapshot()
	if err := s.checkSubmit(state); err != nil {
		return nil, err
	}

	url, err := s.endpointFor(state.Company)
	if err != nil {
		s.logger.Error("Webhook not configured",
			zap.String("session_id", state.ID),
			zap.Error(err),
		)
		return nil, err
	}

	payload := models.WebhookPayload{
		TechnicianName: state.Technician,
		RequestDate:    state.RequestDate,
		Equipment:      state.Records,
	}

	unconfirmed := false
	if err := s.sender.Send(ctx, url, payload); err != nil {
		s.logger.Warn("Primary webhook post failed",
			zap.String("session_id", state.ID),
			zap.Error(err),
		)
		if !s.profile.FallbackTransportOnFailure {
			return nil, &TransportError{Primary: err}
		}
		if ferr := s.sender.SendOpaque(ctx, url, payload); ferr != nil {
			return nil, &TransportError{Primary: err, Fallback: ferr}
		}
		unconfirmed = true
	}

	sess.MarkSent(session.SentReport{
		Company:     state.Company,
		Technician:  state.Technician,
		RequestDate: state.RequestDate,
		Records:     state.Records,
		Unconfirmed: unconfirmed,
	})

	s.logger.Info("Report submitted",
		zap.String("session_id", state.ID),
		zap.String("company", string(state.Company)),
		zap.Int("equipment_count", len(state.Records)),
		zap.Bool("unconfirmed", unconfirmed),
	)
	return &SubmitResult{Company: state.Company, Records: len(state.Records), Unconfirmed: unconfirmed}, nil
}

func (s *ReportService) checkSubmit(state session.State) error {
	if state.Technician == "" || state.RequestDate == "" {
		return &session.ValidationError{
			Title:   "Faltan datos",
			Message: "Completa el nombre del técnico y la fecha de solicitud.",
		}
	}
	if len(state.Records) == 0 {
		return &session.ValidationError{
			Title:   "Listado vacío",
			Message: "Agrega al menos un equipo al listado antes de enviar.",
		}
	}
	if !s.profile.ValidateRecordsOnSubmit {
		return nil
	}
	for i, r := range state.Records {
		if missing := session.MissingFields(r); len(missing) > 0 {
			return &session.ValidationError{
				Title:   fmt.Sprintf("Equipo #%d incompleto", i+1),
				Message: "Faltan: " + strings.Join(missing, ", "),
				Row:     i + 1,
				Missing: missing,
			}
		}
	}
	return nil
}

func (s *ReportService) endpointFor(company models.Company) (string, error) {
	if s.profile.EndpointResolution == session.EndpointSingle {
		if s.webhooks.URL == "" {
			return "", &ConfigError{Variable: "SHEETS_WEBHOOK_URL"}
		}
		return s.webhooks.URL, nil
	}

	url := s.webhooks.WebhookFor(company)
	if url == "" {
		return "", &ConfigError{Variable: "SHEETS_WEBHOOK_" + string(company)}
	}
	return url, nil
}

// Export renders the session as a PDF. The source is the last delivered
// report while the session is in the sent state, the current list otherwise.
func (s *ReportService) Export(sess *session.ReportSession) (*ExportResult, error) {
	state := sess.Snapshot()

	if s.profile.ExportGatedBySuccessfulSend && !state.Sent {
		return nil, &session.ValidationError{
			Title:   "Reporte no enviado",
			Message: "Envía el reporte antes de descargar el PDF.",
		}
	}

	company, technician, requestDate, records := state.Company, state.Technician, state.RequestDate, state.Records
	if state.Sent && state.LastSent != nil {
		sent := state.LastSent
		company, technician, requestDate, records = sent.Company, sent.Technician, sent.RequestDate, sent.Records
	}

	if s.profile.ValidateBeforeExport {
		if technician == "" || requestDate == "" {
			return nil, &session.ValidationError{
				Title:   "Faltan datos",
				Message: "Completa el nombre del técnico y la fecha de solicitud.",
			}
		}
		if len(records) == 0 {
			return nil, &session.ValidationError{
				Title:   "Listado vacío",
				Message: "No hay equipos para incluir en el PDF.",
			}
		}
	}

	data, err := s.renderer.Render(export.Document{
		Title:       s.title(company),
		Technician:  technician,
		RequestDate: requestDate,
		Records:     records,
	})
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		Filename: export.Filename(string(company), technician, requestDate, s.profile.CompanyInFilename),
		Data:     data,
	}, nil
}

func (s *ReportService) title(company models.Company) string {
	const base = "Reporte de Servicio"
	if s.profile.CompanySelectable {
		return base + " " + string(company)
	}
	if s.brandName != "" {
		return base + " " + s.brandName
	}
	return base
}
