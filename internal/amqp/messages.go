package amqp

import (
	"encoding/json"
	"time"
)

// MirrorMessage asks the worker to append one approved journal row to the
// committee spreadsheet. It carries only the source table and row id; the
// worker fetches the full row from the database, so a stale message can
// never mirror stale data.
type MirrorMessage struct {
	Source    string    `json:"source"` // "expenses" or "special"
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMirrorMessage(source string, id int64) *MirrorMessage {
	return &MirrorMessage{
		Source:    source,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *MirrorMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MirrorMessageFromJSON(data []byte) (*MirrorMessage, error) {
	var msg MirrorMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
