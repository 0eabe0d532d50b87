package log

import (
	"testing"
	"time"
)

func TestNoopLoggerDoesNotPanic(t *testing.T) {
	logger := NoopLogger{}

	event := Event{
		Timestamp: time.Now(),
		CarID:     "car-1",
		Direction: DirectionIn,
		Category:  CategoryMessage,
	}
	logger.Log(event)

	event.Message = &MessageEvent{Namespace: "Std_Coupler", Identifier: "Sanding"}
	logger.Log(event)

	event.Message = nil
	event.StateChange = &StateChangeEvent{Entity: StateEntityCoupling, NewState: "coupled"}
	logger.Log(event)

	event.StateChange = nil
	event.Error = &ErrorEventData{Kind: ErrorKindDecode, Message: "test error"}
	logger.Log(event)
}

func TestNoopLoggerIsZeroValue(t *testing.T) {
	var logger NoopLogger
	logger.Log(Event{})
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) should return NoopLogger")
	}

	m := &mockLogger{}
	if OrNoop(m) != Logger(m) {
		t.Error("OrNoop should return a non-nil logger unchanged")
	}
}

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{DirectionIn.String(), "IN"},
		{DirectionOut.String(), "OUT"},
		{DirectionLocal.String(), "LOCAL"},
		{Direction(9).String(), "UNKNOWN"},
		{CategoryMessage.String(), "MESSAGE"},
		{CategoryState.String(), "STATE"},
		{CategoryError.String(), "ERROR"},
		{StateEntityCoupling.String(), "COUPLING"},
		{StateEntityLine.String(), "LINE"},
		{StateEntityPermission.String(), "PERMISSION"},
		{StateEntityArbitration.String(), "ARBITRATION"},
		{ErrorKindDecode.String(), "DECODE"},
		{ErrorKindSettle.String(), "SETTLE"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
