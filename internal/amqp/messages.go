package amqp

import (
	"encoding/json"
	"time"
)

// ForecastChangedMessage signals that a user's forecast model changed and
// any derived state (alerts, exports) should be recomputed. It carries only
// the user id and the mutation reason; consumers rebuild the grid from
// storage.
type ForecastChangedMessage struct {
	UserID    string    `json:"user_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

func NewForecastChangedMessage(userID, reason string) *ForecastChangedMessage {
	return &ForecastChangedMessage{
		UserID:    userID,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

func (m *ForecastChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ForecastChangedMessageFromJSON(data []byte) (*ForecastChangedMessage, error) {
	var msg ForecastChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
