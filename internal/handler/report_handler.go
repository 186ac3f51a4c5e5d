package handler

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"mime"
	"net/http"
	"slices"
	"strconv"

	"didcom/service-report/internal/config"
	"didcom/service-report/internal/export"
	"didcom/service-report/internal/models"
	"didcom/service-report/internal/service"
	"didcom/service-report/internal/session"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var templates embed.FS

//go:embed static
var static embed.FS

// SessionCookie carries the report session id
const SessionCookie = "report_session"

// ReportHandler serves the report form and its actions. Every action is a
// POST of the whole form followed by a redirect back to the index.
type ReportHandler struct {
	service *service.ReportService
	store   *session.Store
	tmpl    *template.Template
	static  http.Handler

	deviceType string
	primary    template.CSS
	accent     template.CSS

	logger *zap.Logger
}

// NewReportHandler parses the embedded templates and validates the brand colours
func NewReportHandler(svc *service.ReportService, store *session.Store, brand config.BrandConfig, logger *zap.Logger) (*ReportHandler, error) {
	tmpl, err := template.ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	scripts, err := fs.Sub(static, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to load static files: %w", err)
	}

	for _, c := range []string{brand.PrimaryColor, brand.AccentColor} {
		if _, err := export.HexColor(c); err != nil {
			return nil, fmt.Errorf("invalid brand colour: %w", err)
		}
	}

	return &ReportHandler{
		service:    svc,
		store:      store,
		tmpl:       tmpl,
		static:     http.StripPrefix("/static/", http.FileServerFS(scripts)),
		deviceType: brand.DeviceType,
		primary:    template.CSS(brand.PrimaryColor),
		accent:     template.CSS(brand.AccentColor),
		logger:     logger,
	}, nil
}

type pageView struct {
	Profile      session.Profile
	State        session.State
	Companies    []models.Company
	Activities   []string
	Devices      []string
	Notices      []models.Notice
	AutoDownload bool
	CanExport    bool
	Primary      template.CSS
	Accent       template.CSS
}

// Index renders the form with any pending notices
func (h *ReportHandler) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	sess := h.session(w, r)
	profile := sess.Profile()
	state := sess.Snapshot()

	devices := []string{h.deviceType}
	if profile.CompanySelectable {
		devices = models.DeviceTypesFor(state.Company)
	}

	view := pageView{
		Profile:      profile,
		State:        state,
		Companies:    models.Companies,
		Activities:   models.ActivityTypes,
		Devices:      devices,
		Notices:      sess.TakeNotices(),
		AutoDownload: sess.TakeDownload(),
		CanExport:    state.Sent || (!profile.ExportGatedBySuccessfulSend && len(state.Records) > 0),
		Primary:      h.primary,
		Accent:       h.accent,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.tmpl.ExecuteTemplate(w, "index.html", view); err != nil {
		h.logger.Error("Failed to render form", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// Update stores the posted form without any other action
func (h *ReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.editable(w, r)
	if !ok {
		return
	}
	h.applyForm(sess, r)
	h.redirect(w, r)
}

// Add appends the draft to the equipment list
func (h *ReportHandler) Add(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.editable(w, r)
	if !ok {
		return
	}
	h.applyForm(sess, r)

	// AddDraft queues its own validation notices.
	if err := sess.AddDraft(); errors.Is(err, session.ErrBusy) {
		sess.PushNotice(busyNotice())
	} else if err != nil {
		h.logger.Debug("Draft rejected",
			zap.String("session_id", sess.ID()),
			zap.Error(err),
		)
	} else {
		h.logger.Debug("Equipment added",
			zap.String("session_id", sess.ID()),
			zap.Int("equipment_count", sess.Len()),
		)
	}
	h.redirect(w, r)
}

// Remove deletes the row named by the index path value
func (h *ReportHandler) Remove(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.editable(w, r)
	if !ok {
		return
	}
	h.applyForm(sess, r)

	index, err := strconv.Atoi(r.PathValue("index"))
	if err == nil {
		err = sess.Remove(index)
	}
	switch {
	case errors.Is(err, session.ErrBusy):
		sess.PushNotice(busyNotice())
	case err != nil:
		h.logger.Warn("Rejected equipment removal",
			zap.String("session_id", sess.ID()),
			zap.String("index", r.PathValue("index")),
			zap.Error(err),
		)
		sess.PushNotice(models.Notice{
			Level: models.NoticeWarning,
			Title: "Equipo no encontrado",
			Text:  "El equipo ya no está en el listado.",
		})
	}
	h.redirect(w, r)
}

// Submit posts the report to the webhook
func (h *ReportHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if !sess.Sending() {
		h.applyForm(sess, r)
	}

	// A send that has started is not aborted by the browser going away.
	ctx := context.WithoutCancel(r.Context())
	result, err := h.service.Submit(ctx, sess)
	if err != nil {
		sess.PushNotice(submitNotice(err))
		if !isValidation(err) && !errors.Is(err, service.ErrBusy) {
			h.logger.Error("Report submission failed",
				zap.String("session_id", sess.ID()),
				zap.Error(err),
			)
		}
		h.redirect(w, r)
		return
	}

	text := "Reporte enviado correctamente."
	if sess.Profile().CompanySelectable {
		text = fmt.Sprintf("Reporte enviado a la hoja %s correctamente.", result.Company)
	}
	if result.Unconfirmed {
		text = "Reporte enviado sin confirmación del servidor. Verifica la hoja antes de volver a enviarlo."
	}
	sess.PushNotice(models.Notice{Level: models.NoticeSuccess, Title: "Enviado", Text: text, Blocking: true})

	if sess.Profile().ExportAfterSubmit {
		sess.RequestDownload()
	}
	h.redirect(w, r)
}

// Export streams the PDF as an attachment. Failures are reported on the form.
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)

	result, err := h.service.Export(sess)
	if err != nil {
		var verr *session.ValidationError
		if errors.As(err, &verr) {
			sess.PushNotice(validationNotice(verr))
		} else {
			h.logger.Error("Report export failed",
				zap.String("session_id", sess.ID()),
				zap.Error(err),
			)
			sess.PushNotice(models.Notice{
				Level:    models.NoticeError,
				Title:    "Error",
				Text:     "Ocurrió un error al generar el PDF.",
				Blocking: true,
			})
		}
		h.redirect(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(result.Data); err != nil {
		h.logger.Warn("Failed to write PDF", zap.Error(err))
		return
	}

	h.logger.Info("Report exported",
		zap.String("session_id", sess.ID()),
		zap.String("filename", result.Filename),
		zap.Int("bytes", len(result.Data)),
	)
}

// Static serves the embedded scripts under /static/
func (h *ReportHandler) Static() http.Handler {
	return h.static
}

// session returns the caller's session, creating it and setting the cookie
// when the request has none or it expired
func (h *ReportHandler) session(w http.ResponseWriter, r *http.Request) *session.ReportSession {
	var id string
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}

	sess, created := h.store.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sess.ID(),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		h.logger.Debug("Session created", zap.String("session_id", sess.ID()))
	}
	return sess
}

// editable returns the session unless a submit is running on it. The list
// is emptied when that submit succeeds, so edits are refused meanwhile.
// AddDraft and Remove repeat the check under the session lock.
func (h *ReportHandler) editable(w http.ResponseWriter, r *http.Request) (*session.ReportSession, bool) {
	sess := h.session(w, r)
	if sess.Sending() {
		sess.PushNotice(busyNotice())
		h.redirect(w, r)
		return nil, false
	}
	return sess, true
}

// applyForm copies every posted field into the session. Fields absent from
// the form keep their value.
func (h *ReportHandler) applyForm(sess *session.ReportSession, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("Failed to parse form", zap.Error(err))
		return
	}
	form := r.PostForm

	if form.Has("empresa") {
		company := models.Company(form.Get("empresa"))
		if slices.Contains(models.Companies, company) {
			sess.SetCompany(company)
		}
	}
	if form.Has("tecnico") {
		sess.SetTechnician(form.Get("tecnico"))
	}
	if form.Has("fechaSolicitud") {
		sess.SetRequestDate(form.Get("fechaSolicitud"))
	}

	draft := sess.Draft()
	fields := []struct {
		name string
		dst  *string
	}{
		{"fechaRealizacion", &draft.CompletionDate},
		{"actividad", &draft.ActivityType},
		{"dispositivo", &draft.DeviceType},
		{"unidad", &draft.UnitLabel},
		{"detalles", &draft.Details},
		{"comentarios", &draft.Comments},
	}
	for _, f := range fields {
		if form.Has(f.name) {
			*f.dst = form.Get(f.name)
		}
	}
	sess.UpdateDraft(draft)
}

func (h *ReportHandler) redirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func isValidation(err error) bool {
	var verr *session.ValidationError
	return errors.As(err, &verr)
}

func validationNotice(err *session.ValidationError) models.Notice {
	return models.Notice{Level: models.NoticeWarning, Title: err.Title, Text: err.Message, Blocking: true}
}

func busyNotice() models.Notice {
	return models.Notice{Level: models.NoticeInfo, Title: "Enviando", Text: "Espera a que termine el envío del reporte."}
}

func submitNotice(err error) models.Notice {
	var (
		verr *session.ValidationError
		cerr *service.ConfigError
	)
	switch {
	case errors.As(err, &verr):
		return validationNotice(verr)
	case errors.As(err, &cerr):
		return models.Notice{
			Level:    models.NoticeError,
			Title:    "Configuración",
			Text:     "Falta configurar URL del webhook en tu archivo .env",
			Blocking: true,
		}
	case errors.Is(err, service.ErrBusy):
		return busyNotice()
	default:
		return models.Notice{
			Level:    models.NoticeError,
			Title:    "Error",
			Text:     "No se pudo enviar el reporte.",
			Blocking: true,
		}
	}
}
