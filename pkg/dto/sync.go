package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Message kinds on the sync socket.
const (
	KindSync         = "sync"
	KindChange       = "change"
	KindDoc          = "doc"
	KindSyncComplete = "sync_complete"
	KindSyncError    = "sync_error"
	KindError        = "error"
)

// Change operations.
const (
	OpCreate = "+"
	OpModify = "M"
	OpDelete = "-"
)

// Error codes carried by sync_error and error messages.
const (
	CodeInvalidRequest = "invalid_request"
	CodeNotFound       = "not_found"
	CodeAccessDenied   = "access_denied"
	CodeInternal       = "internal_error"
)

var ErrInvalidMessage = errors.New("invalid message")

// ClientMessage is either of the two inbound frame shapes. Kind selects
// which fields are meaningful; Validate enforces the shape.
type ClientMessage struct {
	Kind     string          `json:"kind"`
	Col      string          `json:"col"`
	Colrev   *int64          `json:"colrev,omitempty"`
	ID       string          `json:"id,omitempty"`
	ChangeID string          `json:"changeid,omitempty"`
	Op       string          `json:"op,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

func (m *ClientMessage) Validate() error {
	switch m.Kind {
	case KindSync:
		if m.Col == "" {
			return fmt.Errorf("%w: sync without col", ErrInvalidMessage)
		}
		return nil
	case KindChange:
		if m.Col == "" || m.ID == "" || m.ChangeID == "" {
			return fmt.Errorf("%w: change missing col, id or changeid", ErrInvalidMessage)
		}
		switch m.Op {
		case OpCreate:
			var s string
			if len(m.Data) == 0 || json.Unmarshal(m.Data, &s) != nil {
				return fmt.Errorf("%w: create data must be a base64 string", ErrInvalidMessage)
			}
		case OpModify:
			var ss []string
			if len(m.Data) == 0 || json.Unmarshal(m.Data, &ss) != nil {
				return fmt.Errorf("%w: modify data must be an array of base64 strings", ErrInvalidMessage)
			}
		case OpDelete:
			if len(m.Data) != 0 {
				return fmt.Errorf("%w: delete carries no data", ErrInvalidMessage)
			}
		default:
			return fmt.Errorf("%w: unknown op %q", ErrInvalidMessage, m.Op)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidMessage, m.Kind)
	}
}

// DecodeCreateData decodes the single base64 payload of a create.
func (m *ClientMessage) DecodeCreateData() ([]byte, error) {
	var s string
	if err := json.Unmarshal(m.Data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return data, nil
}

// DecodeChanges decodes the base64 change list of a modify.
func (m *ClientMessage) DecodeChanges() ([][]byte, error) {
	var ss []string
	if err := json.Unmarshal(m.Data, &ss); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	changes := make([][]byte, len(ss))
	for i, s := range ss {
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
		}
		changes[i] = data
	}
	return changes, nil
}

// DocMessage streams one document during the snapshot phase. Data is
// nil for tombstones.
type DocMessage struct {
	Kind      string    `json:"kind"`
	Col       string    `json:"col"`
	ID        string    `json:"id"`
	Data      *string   `json:"data"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type SyncCompleteMessage struct {
	Kind   string `json:"kind"`
	Col    string `json:"col"`
	Colrev int64  `json:"colrev"`
}

type SyncErrorMessage struct {
	Kind string `json:"kind"`
	Col  string `json:"col"`
	Code string `json:"code"`
}

// ChangeErrorMessage is sent only to the requester whose change failed.
type ChangeErrorMessage struct {
	Kind     string `json:"kind"`
	ID       string `json:"id"`
	ChangeID string `json:"changeid"`
	Code     string `json:"code"`
}

// ChangeBroadcast echoes a successful change to every subscriber of the
// collection, stamped with the authoritative colrev. Data mirrors the
// request: a base64 string for create, the change list for modify,
// absent for delete.
type ChangeBroadcast struct {
	Kind      string     `json:"kind"`
	Col       string     `json:"col"`
	ID        string     `json:"id"`
	ChangeID  string     `json:"changeid"`
	Op        string     `json:"op"`
	Data      any        `json:"data,omitempty"`
	Colrev    int64      `json:"colrev"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// EncodeDocData converts a stored blob to its wire form; tombstones stay
// nil.
func EncodeDocData(data []byte) *string {
	if data == nil {
		return nil
	}
	s := base64.StdEncoding.EncodeToString(data)
	return &s
}
