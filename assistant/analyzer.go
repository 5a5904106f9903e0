package assistant

import (
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/aschepis/backscratcher/autocare/dates"
	"github.com/aschepis/backscratcher/autocare/screens"
)

// Status is the one-line state label of a screen.
type Status string

const (
	StatusAppointmentsToday Status = "Citas hoy"
	StatusHasAppointments   Status = "Con citas"
	StatusNoAppointments    Status = "Sin citas"
	StatusPending           Status = "Pendientes"
	StatusAllCompleted      Status = "Todo completado"
	StatusEmptyAgenda       Status = "Vacía"
	StatusConfigured        Status = "Configurado"
	StatusNotConfigured     Status = "No configurado"
	StatusOverdueTasks      Status = "Con tareas vencidas"
	StatusInProgress        Status = "En progreso"
	StatusProtected         Status = "Protegido"
	StatusCritical          Status = "Crítico"
	StatusProfileLoaded     Status = "Perfil cargado"
	StatusIncomplete        Status = "Incompleto"
	StatusUpcomingExpiry    Status = "Vencimientos próximos"
	StatusExpiredDocuments  Status = "Documentos vencidos"
	StatusEmptyRoutes       Status = "Vacío"
	StatusUnknown           Status = "Desconocido"
)

// NeedsAttention reports whether the status should be flagged in summaries.
func (s Status) NeedsAttention() bool {
	switch s {
	case StatusCritical, StatusIncomplete, StatusPending, StatusUpcomingExpiry,
		StatusExpiredDocuments, StatusOverdueTasks:
		return true
	}
	return false
}

// maxBullets caps the highlight lines of an Analysis.
const maxBullets = 3

const notAvailable = "N/D"

// Analysis summarizes a single screen.
type Analysis struct {
	Status  Status
	Details string
	Bullets []string
}

// Analyzer computes per-screen summaries from a snapshot taken at a fixed
// instant. It never mutates the snapshot.
type Analyzer struct {
	state       screens.State
	now         time.Time
	warningDays int
}

// NewAnalyzer creates an Analyzer. warningDays is the horizon within which
// an expiry counts as upcoming.
func NewAnalyzer(state screens.State, now time.Time, warningDays int) *Analyzer {
	return &Analyzer{state: state, now: now, warningDays: warningDays}
}

// Analyze summarizes the given screen. Missing screens read as empty and
// unknown identifiers yield StatusUnknown.
func (a *Analyzer) Analyze(id screens.ID) Analysis {
	switch id {
	case screens.Daily:
		return a.daily()
	case screens.Agenda:
		return a.agenda()
	case screens.General:
		return a.general()
	case screens.Preventive:
		return a.preventive()
	case screens.Emergency:
		return a.emergency()
	case screens.Profile:
		return a.profile()
	case screens.Route:
		return a.route()
	default:
		return Analysis{Status: StatusUnknown, Details: "Pantalla no reconocida", Bullets: []string{}}
	}
}

func (a *Analyzer) daily() Analysis {
	var apps []screens.Appointment
	if a.state.Daily != nil {
		apps = a.state.Daily.Appointments
	}
	todayCount := lo.CountBy(apps, func(ap screens.Appointment) bool {
		return ap.Date.Set() && dates.SameDay(a.now, ap.Date.Time)
	})
	upcoming := lo.CountBy(apps, func(ap screens.Appointment) bool {
		return ap.Date.Set() && ap.Date.After(a.now)
	})

	status := StatusNoAppointments
	switch {
	case todayCount > 0:
		status = StatusAppointmentsToday
	case len(apps) > 0:
		status = StatusHasAppointments
	}
	return Analysis{
		Status:  status,
		Details: fmt.Sprintf("Daily: %d en total, %d hoy, %d próximas.", len(apps), todayCount, upcoming),
		Bullets: appointmentBullets(apps),
	}
}

func (a *Analyzer) agenda() Analysis {
	var apps []screens.Appointment
	if a.state.Agenda != nil {
		apps = a.state.Agenda.Appointments
	}
	completed := lo.CountBy(apps, func(ap screens.Appointment) bool { return ap.Completed })
	pending := len(apps) - completed

	status := StatusEmptyAgenda
	switch {
	case pending > 0:
		status = StatusPending
	case len(apps) > 0:
		status = StatusAllCompleted
	}
	return Analysis{
		Status:  status,
		Details: fmt.Sprintf("Agenda: %d en total, %d completadas, %d pendientes.", len(apps), completed, pending),
		Bullets: appointmentBullets(apps),
	}
}

func (a *Analyzer) general() Analysis {
	st := a.state.General
	if st == nil {
		st = &screens.GeneralState{}
	}
	status := StatusNotConfigured
	if len(st.Services) > 0 {
		status = StatusConfigured
	}
	return Analysis{
		Status:  status,
		Details: fmt.Sprintf("General: %d servicios. Último: %s.", len(st.Services), orNA(st.LastService)),
		Bullets: firstN(st.Services),
	}
}

func (a *Analyzer) preventive() Analysis {
	st := a.state.Preventive
	if st == nil {
		st = &screens.PreventiveState{}
	}
	completed := lo.CountBy(st.Tasks, func(t screens.Task) bool { return t.Completed })
	if st.Completed != nil {
		completed = *st.Completed
	}
	overdue := lo.CountBy(st.Tasks, func(t screens.Task) bool {
		return t.DueDate.Set() && t.DueDate.Before(a.now) && !t.Completed
	})

	status := StatusNotConfigured
	switch {
	case overdue > 0:
		status = StatusOverdueTasks
	case len(st.Tasks) > 0:
		status = StatusInProgress
	}
	return Analysis{
		Status:  status,
		Details: fmt.Sprintf("Preventivo: %d tareas, %d completadas, %d vencidas.", len(st.Tasks), completed, overdue),
		Bullets: lo.Map(lo.Slice(st.Tasks, 0, maxBullets), func(t screens.Task, _ int) string {
			return fmt.Sprintf("%s — vence %s", t.Description, formatDate(t.DueDate))
		}),
	}
}

func (a *Analyzer) emergency() Analysis {
	var contacts []string
	if a.state.Emergency != nil {
		contacts = a.state.Emergency.Contacts
	}
	status := StatusCritical
	if len(contacts) > 0 {
		status = StatusProtected
	}
	return Analysis{
		Status:  status,
		Details: fmt.Sprintf("Emergencia: %d contactos.", len(contacts)),
		Bullets: firstN(contacts),
	}
}

func (a *Analyzer) profile() Analysis {
	st := a.state.Profile
	if st == nil {
		st = &screens.ProfileState{}
	}
	exp := expiryOf(st)
	soatDays, tecDays := a.documentDays(exp)

	status := StatusIncomplete
	if len(st.Documents) > 0 {
		status = StatusProfileLoaded
	}
	if within(soatDays, a.warningDays) || within(tecDays, a.warningDays) {
		status = StatusUpcomingExpiry
	}
	if within(soatDays, 0) || within(tecDays, 0) {
		status = StatusExpiredDocuments
	}

	bullets := []string{"SOAT: " + notAvailable, "Técnico: " + notAvailable, "Pico y Placa: " + notAvailable}
	if exp.SOAT.Set() {
		bullets[0] = fmt.Sprintf("SOAT vence: %s%s", dates.FormatLong(exp.SOAT.Time), daysSuffix(soatDays))
	}
	if exp.Tecnico.Set() {
		bullets[1] = fmt.Sprintf("Técnico vence: %s%s", dates.FormatLong(exp.Tecnico.Time), daysSuffix(tecDays))
	}
	if exp.PicoPlacaDay != "" {
		bullets[2] = "Pico y Placa: " + exp.PicoPlacaDay
	}

	return Analysis{
		Status: status,
		Details: fmt.Sprintf("Perfil: %s. Documentos: %d. Estado: %s.",
			orNA(st.Name), len(st.Documents), orNA(st.DocumentsStatus)),
		Bullets: bullets,
	}
}

func (a *Analyzer) route() Analysis {
	st := a.state.Route
	if st == nil {
		st = &screens.RouteState{}
	}
	status := StatusEmptyRoutes
	if len(st.Routes) > 0 {
		status = StatusConfigured
	}
	return Analysis{
		Status:  status,
		Details: fmt.Sprintf("Rutas: %d. Favorita: %s.", len(st.Routes), orNA(st.Favorite)),
		Bullets: firstN(st.Routes),
	}
}

// documentDays returns the days left for SOAT and the technical inspection,
// nil when the document has no expiry date.
func (a *Analyzer) documentDays(exp screens.DocumentsExpiry) (soat, tecnico *int) {
	if exp.SOAT.Set() {
		soat = lo.ToPtr(dates.DaysUntil(exp.SOAT.Time, a.now))
	}
	if exp.Tecnico.Set() {
		tecnico = lo.ToPtr(dates.DaysUntil(exp.Tecnico.Time, a.now))
	}
	return soat, tecnico
}

func expiryOf(st *screens.ProfileState) screens.DocumentsExpiry {
	if st == nil || st.DocumentsExpiry == nil {
		return screens.DocumentsExpiry{}
	}
	return *st.DocumentsExpiry
}

func within(days *int, limit int) bool {
	return days != nil && *days <= limit
}

func daysSuffix(days *int) string {
	if days == nil {
		return ""
	}
	return fmt.Sprintf(" (%d días)", *days)
}

func appointmentBullets(apps []screens.Appointment) []string {
	return lo.Map(lo.Slice(apps, 0, maxBullets), func(ap screens.Appointment, _ int) string {
		return fmt.Sprintf("%s — %s", ap.Title, formatDate(ap.Date))
	})
}

func firstN(items []string) []string {
	return append([]string{}, lo.Slice(items, 0, maxBullets)...)
}

func formatDate(d screens.Date) string {
	if !d.Set() {
		return notAvailable
	}
	return dates.FormatLong(d.Time)
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
