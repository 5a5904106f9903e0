package screens

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ScreenError reports a screen record that did not match its type.
type ScreenError struct {
	Screen ID
	Err    error
}

func (e ScreenError) Error() string {
	return fmt.Sprintf("decode %s screen: %v", e.Screen, e.Err)
}

func (e ScreenError) Unwrap() error { return e.Err }

// DecodeState parses a persisted snapshot one screen at a time. Unknown
// screens are ignored and missing screens stay nil. A screen whose record
// does not match its type is left nil and reported in the returned slice;
// the other screens are still decoded. The error is non-nil only when raw is
// not a JSON object.
func DecodeState(raw []byte) (State, []ScreenError, error) {
	var st State
	if len(raw) == 0 {
		return st, nil, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return State{}, nil, fmt.Errorf("decode screen states: %w", err)
	}

	var failed []ScreenError
	st.Daily = decodeScreen[DailyState](fields, Daily, &failed)
	st.Agenda = decodeScreen[AgendaState](fields, Agenda, &failed)
	st.General = decodeScreen[GeneralState](fields, General, &failed)
	st.Preventive = decodeScreen[PreventiveState](fields, Preventive, &failed)
	st.Emergency = decodeScreen[EmergencyState](fields, Emergency, &failed)
	st.Profile = decodeScreen[ProfileState](fields, Profile, &failed)
	st.Route = decodeScreen[RouteState](fields, Route, &failed)
	return st, failed, nil
}

func decodeScreen[T any](fields map[string]json.RawMessage, id ID, failed *[]ScreenError) *T {
	raw, ok := fields[string(id)]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		*failed = append(*failed, ScreenError{Screen: id, Err: err})
		return nil
	}
	return &v
}

// DecodeLegacyExtras parses the legacy Profile tab record.
func DecodeLegacyExtras(raw []byte) (LegacyProfileExtras, error) {
	var ex LegacyProfileExtras
	if len(raw) == 0 {
		return ex, nil
	}
	if err := json.Unmarshal(raw, &ex); err != nil {
		return LegacyProfileExtras{}, fmt.Errorf("decode profile extras: %w", err)
	}
	return ex, nil
}

// DecodeHistory parses the chronological action log.
func DecodeHistory(raw []byte) ([]HistoryEntry, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var entries []HistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode action history: %w", err)
	}
	return entries, nil
}
