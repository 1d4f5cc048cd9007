// Package wire defines the JSON frames exchanged over the realtime status
// websocket.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/aussiebroadwan/stranger/pkg/presence"
)

// Path is the websocket endpoint served by the realtime hub.
const Path = "/v1/realtime"

// Client operations.
const (
	OpWrite       = "write"
	OpArm         = "arm"
	OpDisarm      = "disarm"
	OpSubscribe   = "subscribe"
	OpUnsubscribe = "unsubscribe"
	OpPing        = "ping"
)

// Server frame types.
const (
	TypeHello    = "hello"
	TypeAck      = "ack"
	TypeSnapshot = "snapshot"
	TypeChange   = "change"
	TypePong     = "pong"
)

// Ack error codes.
const (
	ErrCodePermissionDenied = "permission_denied"
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeServerError      = "server_error"
)

// ClientFrame is sent by clients. RID correlates the server's ack.
type ClientFrame struct {
	Op     string           `json:"op"`
	RID    uint64           `json:"rid,omitempty"`
	UID    string           `json:"uid,omitempty"`
	Record *presence.Record `json:"record,omitempty"`
}

// ServerFrame is sent by the hub.
type ServerFrame struct {
	Type    string                     `json:"type"`
	RID     uint64                     `json:"rid,omitempty"`
	Error   string                     `json:"error,omitempty"`
	ConnID  string                     `json:"conn_id,omitempty"`
	UID     string                     `json:"uid,omitempty"`
	Record  *presence.Record           `json:"record,omitempty"`
	Records map[string]presence.Record `json:"records,omitempty"`
}

// AckError is a failed ack surfaced to the caller of a write.
type AckError struct {
	Op   string
	Code string
}

func (e *AckError) Error() string {
	return fmt.Sprintf("wire: %s rejected: %s", e.Op, e.Code)
}

// Event converts a snapshot or change frame into a collection event.
func (f ServerFrame) Event() (presence.CollectionEvent, bool) {
	switch f.Type {
	case TypeSnapshot:
		return presence.SnapshotEvent(f.Records), true
	case TypeChange:
		if f.UID == "" || f.Record == nil {
			return presence.CollectionEvent{}, false
		}
		return presence.ChangeEvent(f.UID, *f.Record), true
	default:
		return presence.CollectionEvent{}, false
	}
}

// Encode marshals a frame for a websocket text message.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}
