// Package screens defines the per-screen domain records that the app screens
// persist and the assistant reads.
package screens

import "encoding/json"

// ID identifies one functional screen of the app.
type ID string

const (
	Daily      ID = "Daily"
	Agenda     ID = "Agenda"
	General    ID = "General"
	Preventive ID = "Preventive"
	Emergency  ID = "Emergency"
	Profile    ID = "Profile"
	Route      ID = "Route"
)

// All lists every screen in the order summaries are rendered.
var All = []ID{Daily, Agenda, General, Preventive, Emergency, Profile, Route}

// Valid reports whether id is one of the known screens.
func (id ID) Valid() bool {
	for _, s := range All {
		if s == id {
			return true
		}
	}
	return false
}

// Appointment is an entry on the Daily or Agenda screen.
type Appointment struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        Date   `json:"date,omitzero"`
	Completed   bool   `json:"completed,omitempty"`
}

// Task is a preventive maintenance task.
type Task struct {
	ID          string `json:"id,omitempty"`
	Description string `json:"description"`
	DueDate     Date   `json:"dueDate,omitzero"`
	Completed   bool   `json:"completed,omitempty"`
}

// DailyState is the Daily screen snapshot.
type DailyState struct {
	Appointments []Appointment `json:"appointments,omitempty"`
	Total        *int          `json:"total,omitempty"`
}

// AgendaState is the Agenda screen snapshot.
type AgendaState struct {
	Appointments []Appointment `json:"appointments,omitempty"`
	Total        *int          `json:"total,omitempty"`
	Today        *int          `json:"today,omitempty"`
	Upcoming     *int          `json:"upcoming,omitempty"`
}

// GeneralState lists the configured services.
type GeneralState struct {
	Services    []string `json:"services,omitempty"`
	LastService string   `json:"lastService,omitempty"`
	NextService string   `json:"nextService,omitempty"`
}

// PreventiveState holds preventive maintenance tasks. Completed, when set,
// overrides the count derived from Tasks.
type PreventiveState struct {
	Tasks      []Task `json:"tasks,omitempty"`
	TotalTasks *int   `json:"totalTasks,omitempty"`
	Completed  *int   `json:"completed,omitempty"`
}

// EmergencyState holds emergency contacts.
type EmergencyState struct {
	Contacts          []string `json:"contacts,omitempty"`
	EmergencyProtocol string   `json:"emergencyProtocol,omitempty"`
}

// DocumentsExpiry tracks the vehicle documents with an expiry date.
type DocumentsExpiry struct {
	SOAT         Date   `json:"soat,omitzero"`
	Tecnico      Date   `json:"tecnico,omitzero"`
	PicoPlacaDay string `json:"picoPlacaDay,omitempty"`
}

// ProfileState is the user's profile. A nil Documents slice means the
// screen never recorded documents; a nil DocumentsExpiry means expirations
// were never configured.
type ProfileState struct {
	Name            string           `json:"name,omitempty"`
	Documents       []string         `json:"documents"`
	DocumentsStatus string           `json:"documentsStatus,omitempty"`
	DocumentsExpiry *DocumentsExpiry `json:"documentsExpiry,omitempty"`
}

// RouteState lists saved routes.
type RouteState struct {
	Routes        []string `json:"routes,omitempty"`
	Favorite      string   `json:"favorite,omitempty"`
	TotalDistance string   `json:"totalDistance,omitempty"`
}

// State is the full snapshot keyed by screen. A nil entry means the screen
// is not configured yet.
type State struct {
	Daily      *DailyState      `json:"Daily,omitempty"`
	Agenda     *AgendaState     `json:"Agenda,omitempty"`
	General    *GeneralState    `json:"General,omitempty"`
	Preventive *PreventiveState `json:"Preventive,omitempty"`
	Emergency  *EmergencyState  `json:"Emergency,omitempty"`
	Profile    *ProfileState    `json:"Profile,omitempty"`
	Route      *RouteState      `json:"Route,omitempty"`
}

// LegacyProfileExtras is the older Profile tab record. Dates are free-form
// strings typed by the user.
type LegacyProfileExtras struct {
	SOAT                      string `json:"soat,omitempty"`
	Tecnico                   string `json:"tecnico,omitempty"`
	PicoYPlaca                string `json:"picoyplaca,omitempty"`
	SOATReminderDaysBefore    *int   `json:"soatReminderDaysBefore,omitempty"`
	TecnicoReminderDaysBefore *int   `json:"tecnicoReminderDaysBefore,omitempty"`
}

// HistoryEntry is one user-visible action recorded by a screen.
type HistoryEntry struct {
	ID        string          `json:"id"`
	Action    string          `json:"action"`
	Screen    string          `json:"screen"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp Date            `json:"timestamp,omitzero"`
}
