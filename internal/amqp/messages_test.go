package amqp

import "testing"

func TestForecastChangedMessageJSON(t *testing.T) {
	msg := NewForecastChangedMessage("alice", "cell")
	if msg.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	back, err := ForecastChangedMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if back.UserID != "alice" || back.Reason != "cell" {
		t.Errorf("round trip = %+v, want alice/cell", back)
	}
}

func TestForecastChangedMessageFromJSON_Invalid(t *testing.T) {
	if _, err := ForecastChangedMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("malformed payload accepted")
	}
}
