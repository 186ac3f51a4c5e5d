package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"didcom/service-report/internal/models"
)

// DateLayout is the format of every date field, as produced by a date input
const DateLayout = "2006-01-02"

// ErrIndexOutOfRange is returned when removing a row that no longer exists
var ErrIndexOutOfRange = errors.New("equipment index out of range")

// ErrBusy is returned when the list is changed or submitted while a submit
// is running on the session
var ErrBusy = errors.New("submission already in progress")

// Field labels as shown in the form, used when reporting missing values
const (
	LabelCompletionDate = "Fecha de Realización"
	LabelActivity       = "Actividad Realizada"
	LabelDevice         = "Dispositivo a tratar"
	LabelUnit           = "Unidad"
	LabelDetails        = "Detalles de la solicitud"
	LabelComments       = "Comentarios de la Visita"
)

// Draft is the equipment record being edited before it is added to the list
type Draft models.EquipmentRecord

// ValidationError reports missing input. Row is 1-based and zero when the
// error is not about a specific list entry.
type ValidationError struct {
	Title   string
	Message string
	Row     int
	Missing []string
}

func (e *ValidationError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("validation failed for row %d: %s", e.Row, e.Message)
	}
	return "validation failed: " + e.Message
}

// SentReport is what was posted by the last successful submit
type SentReport struct {
	Company     models.Company
	Technician  string
	RequestDate string
	Records     []models.EquipmentRecord
	Unconfirmed bool
	SentAt      time.Time
}

// State is a copy of everything the form renders
type State struct {
	ID          string
	Company     models.Company
	Technician  string
	RequestDate string
	Draft       Draft
	Records     []models.EquipmentRecord
	Sent        bool
	Sending     bool
	LastSent    *SentReport
}

// ReportSession holds one technician's in-progress report.
// All methods are safe for concurrent use.
type ReportSession struct {
	mu sync.Mutex

	id      string
	profile Profile
	now     func() time.Time

	company     models.Company
	technician  string
	requestDate string
	draft       Draft
	records     []models.EquipmentRecord

	sent     bool
	lastSent *SentReport
	sending  bool

	notices         []models.Notice
	pendingDownload bool
	lastAccess      time.Time
}

// New creates an empty session. now may be nil, in which case time.Now is used.
func New(id string, profile Profile, now func() time.Time) *ReportSession {
	if now == nil {
		now = time.Now
	}
	s := &ReportSession{
		id:         id,
		profile:    profile,
		now:        now,
		company:    models.CompanyDidcom,
		lastAccess: now(),
	}
	s.draft = s.defaultDraft()
	return s
}

// ID returns the session identifier
func (s *ReportSession) ID() string {
	return s.id
}

// Profile returns the rules this session was created with
func (s *ReportSession) Profile() Profile {
	return s.profile
}

func (s *ReportSession) defaultDraft() Draft {
	return Draft{CompletionDate: s.now().Format(DateLayout)}
}

// SetCompany replaces the selected company. Ignored when the profile has no selector.
func (s *ReportSession) SetCompany(company models.Company) {
	if !s.profile.CompanySelectable {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.company = company
}

// SetTechnician replaces the technician name
func (s *ReportSession) SetTechnician(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.technician = name
}

// SetRequestDate replaces the request date
func (s *ReportSession) SetRequestDate(date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requestDate = date
}

// UpdateDraft replaces all draft fields at once
func (s *ReportSession) UpdateDraft(d Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = d
}

// ResetDraft restores the draft defaults: today's date, everything else empty
func (s *ReportSession) ResetDraft() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = s.defaultDraft()
}

// Company returns the selected company
func (s *ReportSession) Company() models.Company {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.company
}

// Technician returns the technician name
func (s *ReportSession) Technician() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.technician
}

// RequestDate returns the request date
func (s *ReportSession) RequestDate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestDate
}

// Draft returns the current draft
func (s *ReportSession) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// AddDraft validates the current draft against the profile and appends a
// copy of it to the list. On success the draft is reset. It fails with
// ErrBusy while a submit is running.
func (s *ReportSession) AddDraft() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sending {
		return ErrBusy
	}

	missing := MissingFields(models.EquipmentRecord(s.draft))
	if s.profile.RequireAllFieldsOnAdd && len(missing) > 0 {
		err := &ValidationError{
			Title:   "Campos incompletos",
			Message: "Debes llenar todos los campos antes de agregar al listado.",
			Missing: missing,
		}
		s.pushLocked(models.Notice{Level: models.NoticeWarning, Title: err.Title, Text: err.Message, Blocking: true})
		return err
	}
	if len(missing) == len(fieldLabels) {
		err := &ValidationError{
			Title:   "Registro vacío",
			Message: "Llena al menos un campo antes de agregar al listado.",
			Missing: missing,
		}
		s.pushLocked(models.Notice{Level: models.NoticeWarning, Title: err.Title, Text: err.Message, Blocking: true})
		return err
	}

	record := models.EquipmentRecord(s.draft)
	s.records = append(s.records, record)
	// A new record starts a new report; the previous one stays exportable via lastSent.
	s.sent = false

	if s.profile.ConfirmOnAdd {
		s.pushLocked(models.Notice{
			Level: models.NoticeSuccess,
			Title: "Agregado",
			Text:  fmt.Sprintf("La unidad %q fue agregada al listado.", record.UnitLabel),
		})
	}
	s.draft = s.defaultDraft()
	return nil
}

// Remove deletes the record at index; later records shift down by one.
// It fails with ErrBusy while a submit is running.
func (s *ReportSession) Remove(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sending {
		return ErrBusy
	}
	if index < 0 || index >= len(s.records) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(s.records))
	}
	s.records = append(s.records[:index:index], s.records[index+1:]...)
	return nil
}

// Clear empties the list
func (s *ReportSession) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sending {
		return ErrBusy
	}
	s.records = nil
	return nil
}

// Records returns a copy of the list
func (s *ReportSession) Records() []models.EquipmentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRecords(s.records)
}

// Len returns the number of records in the list
func (s *ReportSession) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// BeginSend sets the busy flag. It returns false if a submit is already running.
func (s *ReportSession) BeginSend() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sending {
		return false
	}
	s.sending = true
	return true
}

// EndSend clears the busy flag
func (s *ReportSession) EndSend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sending = false
}

// Sending reports whether a submit is in flight
func (s *ReportSession) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// MarkSent records the delivered report, sets the sent flag and empties the list
func (s *ReportSession) MarkSent(report SentReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	report.Records = copyRecords(report.Records)
	if report.SentAt.IsZero() {
		report.SentAt = s.now()
	}
	s.lastSent = &report
	s.sent = true
	s.records = nil
}

// Sent reports whether the current report was delivered
func (s *ReportSession) Sent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

// LastSent returns a copy of the last delivered report, or nil
func (s *ReportSession) LastSent() *SentReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSent == nil {
		return nil
	}
	report := *s.lastSent
	report.Records = copyRecords(report.Records)
	return &report
}

// PushNotice queues a message for the next render
func (s *ReportSession) PushNotice(n models.Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushLocked(n)
}

func (s *ReportSession) pushLocked(n models.Notice) {
	s.notices = append(s.notices, n)
}

// TakeNotices returns and clears the queued messages
func (s *ReportSession) TakeNotices() []models.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	notices := s.notices
	s.notices = nil
	return notices
}

// RequestDownload asks the next render to start the PDF download
func (s *ReportSession) RequestDownload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingDownload = true
}

// TakeDownload returns and clears the pending download request
func (s *ReportSession) TakeDownload() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.pendingDownload
	s.pendingDownload = false
	return pending
}

// Snapshot copies the renderable state
func (s *ReportSession) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := State{
		ID:          s.id,
		Company:     s.company,
		Technician:  s.technician,
		RequestDate: s.requestDate,
		Draft:       s.draft,
		Records:     copyRecords(s.records),
		Sent:        s.sent,
		Sending:     s.sending,
	}
	if s.lastSent != nil {
		report := *s.lastSent
		report.Records = copyRecords(report.Records)
		state.LastSent = &report
	}
	return state
}

func (s *ReportSession) touch() {
	s.mu.Lock()
	s.lastAccess = s.now()
	s.mu.Unlock()
}

func (s *ReportSession) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

var fieldLabels = []string{
	LabelCompletionDate,
	LabelActivity,
	LabelDevice,
	LabelUnit,
	LabelDetails,
	LabelComments,
}

// MissingFields returns the labels of the empty fields of r, in form order
func MissingFields(r models.EquipmentRecord) []string {
	values := []string{r.CompletionDate, r.ActivityType, r.DeviceType, r.UnitLabel, r.Details, r.Comments}
	var missing []string
	for i, v := range values {
		if v == "" {
			missing = append(missing, fieldLabels[i])
		}
	}
	return missing
}

func copyRecords(records []models.EquipmentRecord) []models.EquipmentRecord {
	if len(records) == 0 {
		return nil
	}
	out := make([]models.EquipmentRecord, len(records))
	copy(out, records)
	return out
}
