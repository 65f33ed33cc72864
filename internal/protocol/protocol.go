package protocol

import "encoding/json"

const Version = "1.0"

// Client -> server message types.
const (
	TypeHello    = "HELLO"
	TypeSelect   = "SELECT"
	TypeRotate   = "ROTATE"
	TypeFlip     = "FLIP"
	TypeHover    = "HOVER"
	TypeStamp    = "STAMP"
	TypeSetStuff = "SET_STUFF"
)

// Server -> client message types.
const (
	TypeWelcome = "WELCOME"
	TypeGhost   = "GHOST"
	TypeWarn    = "WARN"
	TypeStamped = "STAMPED"
	TypeError   = "ERROR"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
