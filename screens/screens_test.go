package screens

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDecodeStateLenientDates(t *testing.T) {
	raw := []byte(`{
		"Daily": {"appointments": [
			{"title": "Oil change", "date": "2025-10-15"},
			{"title": "Wash", "date": "2025-10-16T14:00:00.000Z"},
			{"title": "Broken", "date": "not a date"},
			{"title": "Missing"}
		]},
		"Preventive": {"tasks": [{"id": "1", "description": "Frenos", "dueDate": 1760486400000, "completed": false}]},
		"Profile": {"name": "Ana", "documents": [], "documentsExpiry": {"soat": "2025-11-01", "picoPlacaDay": "Lunes"}},
		"Unknown": {"foo": 1}
	}`)

	st, failed, err := DecodeState(raw)
	if err != nil || len(failed) != 0 {
		t.Fatalf("DecodeState: %v (failed %v)", err, failed)
	}

	apps := st.Daily.Appointments
	if len(apps) != 4 {
		t.Fatalf("expected 4 appointments, got %d", len(apps))
	}
	want := time.Date(2025, time.October, 15, 0, 0, 0, 0, time.Local)
	if !apps[0].Date.Equal(want) {
		t.Fatalf("date-only value = %v, want local midnight %v", apps[0].Date.Time, want)
	}
	if !apps[1].Date.Set() || apps[1].Date.UTC().Hour() != 14 {
		t.Fatalf("RFC3339 value decoded as %v", apps[1].Date.Time)
	}
	if apps[2].Date.Set() || apps[3].Date.Set() {
		t.Fatalf("invalid or missing dates must be unset")
	}
	if !st.Preventive.Tasks[0].DueDate.Set() {
		t.Fatalf("epoch millis should decode")
	}
	if st.Profile.Documents == nil || len(st.Profile.Documents) != 0 {
		t.Fatalf("empty documents list should be kept as empty, got %#v", st.Profile.Documents)
	}
	if st.Profile.DocumentsExpiry == nil || st.Profile.DocumentsExpiry.Tecnico.Set() {
		t.Fatalf("unexpected expiry %#v", st.Profile.DocumentsExpiry)
	}
	if st.Agenda != nil || st.Route != nil {
		t.Fatalf("absent screens must stay nil")
	}
}

func TestDecodeStateErrors(t *testing.T) {
	if _, _, err := DecodeState([]byte(`{"Daily": [`)); err == nil {
		t.Fatalf("expected error for malformed JSON")
	}
	if _, _, err := DecodeState([]byte(`["Daily"]`)); err == nil {
		t.Fatalf("expected error for a non-object snapshot")
	}
	st, failed, err := DecodeState(nil)
	if err != nil || st.Daily != nil || failed != nil {
		t.Fatalf("empty input should decode to empty state, got %#v, %v, %v", st, failed, err)
	}
}

func TestDecodeStateKeepsValidScreens(t *testing.T) {
	raw := []byte(`{
  "Route": {"routes": ["Casa", "Trabajo"]},
  "Emergency": {"contacts": ["Mamá (300)"]},
  "Daily": {"total": "0"},
  "Agenda": null,
  "Profile": {"documents": "SOAT"}
}`)
	st, failed, err := DecodeState(raw)
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if st.Route == nil || len(st.Route.Routes) != 2 || st.Route.Routes[1] != "Trabajo" {
		t.Fatalf("route screen lost: %#v", st.Route)
	}
	if st.Emergency == nil || len(st.Emergency.Contacts) != 1 {
		t.Fatalf("emergency screen lost: %#v", st.Emergency)
	}
	if st.Daily != nil || st.Profile != nil || st.Agenda != nil {
		t.Fatalf("malformed or null screens must stay nil, got %#v %#v %#v", st.Daily, st.Profile, st.Agenda)
	}
	if len(failed) != 2 || failed[0].Screen != Daily || failed[1].Screen != Profile {
		t.Fatalf("failed = %v, want Daily and Profile", failed)
	}
	var typeErr *json.UnmarshalTypeError
	if !errors.As(failed[0], &typeErr) {
		t.Fatalf("screen error should wrap the decode error, got %v", failed[0].Err)
	}
}

func TestDateRoundTripKeepsUnsetAsNull(t *testing.T) {
	in := DocumentsExpiry{SOAT: NewDate(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC))}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"soat":"2025-12-01T00:00:00Z"}` {
		t.Fatalf("unexpected JSON %s", b)
	}
}

func TestDecodeHistoryAndExtras(t *testing.T) {
	entries, err := DecodeHistory([]byte(`[{"id":"1","action":"Cita creada","screen":"Daily","data":{"x":1},"timestamp":"2025-10-01T10:00:00Z"}]`))
	if err != nil || len(entries) != 1 || entries[0].Action != "Cita creada" {
		t.Fatalf("DecodeHistory = %#v, %v", entries, err)
	}

	ex, err := DecodeLegacyExtras([]byte(`{"soat":"2025-12-20","picoyplaca":"Martes","soatReminderDaysBefore":3}`))
	if err != nil {
		t.Fatalf("DecodeLegacyExtras: %v", err)
	}
	if ex.SOAT != "2025-12-20" || ex.PicoYPlaca != "Martes" || ex.SOATReminderDaysBefore == nil || *ex.SOATReminderDaysBefore != 3 {
		t.Fatalf("unexpected extras %#v", ex)
	}
}

func TestIDValid(t *testing.T) {
	for _, id := range All {
		if !id.Valid() {
			t.Fatalf("%s should be valid", id)
		}
	}
	if ID("Settings").Valid() {
		t.Fatalf("unknown screen reported valid")
	}
}
