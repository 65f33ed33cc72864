package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	Map             MapInfo        `json:"map"`
	Templates       []TemplateRef  `json:"templates"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type MapInfo struct {
	Width int `json:"width"`
	Depth int `json:"depth"`
}

type TemplateRef struct {
	Name     string `json:"name"`
	Size     [2]int `json:"size"`
	Entries  int    `json:"entries"`
	Exported bool   `json:"exported"`
}

type CatalogDigests struct {
	Things   DigestRef `json:"things"`
	Terrains DigestRef `json:"terrains"`
	Stuff    DigestRef `json:"stuff"`
}

type DigestRef struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

// SELECT picks the template to preview.
type SelectMsg struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// ROTATE turns the selected template; Direction is "cw" or "ccw".
type RotateMsg struct {
	Type      string `json:"type"`
	Direction string `json:"direction"`
}

type FlipMsg struct {
	Type string `json:"type"`
}

// HOVER moves the preview origin.
type HoverMsg struct {
	Type string `json:"type"`
	Pos  [2]int `json:"pos"`
}

type StampMsg struct {
	Type     string `json:"type"`
	Pos      [2]int `json:"pos"`
	Planning bool   `json:"planning,omitempty"`
}

type SetStuffMsg struct {
	Type  string `json:"type"`
	Def   string `json:"def"`
	Stuff string `json:"stuff"`
}

// GHOST (server -> client): the preview of the selected template at Origin.
type GhostMsg struct {
	Type      string      `json:"type"`
	Template  string      `json:"template"`
	Origin    [2]int      `json:"origin"`
	Size      [2]int      `json:"size"`
	CanPlace  bool        `json:"can_place"`
	Cells     []GhostCell `json:"cells"`
	Cost      []ItemCount `json:"cost"`
	Remaining []ItemCount `json:"remaining"`
}

type GhostCell struct {
	Pos    [2]int `json:"pos"`
	Kind   string `json:"kind"` // thing | linked | terrain
	Def    string `json:"def"`
	Rot    int    `json:"rot,omitempty"`
	Links  int    `json:"links,omitempty"`
	Report string `json:"report"`
}

type ItemCount struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

// WARN (server -> client): transform warnings shown for the first time.
type WarnMsg struct {
	Type     string   `json:"type"`
	Template string   `json:"template"`
	Messages []string `json:"messages"`
}

type StampedMsg struct {
	Type       string `json:"type"`
	Template   string `json:"template"`
	Origin     [2]int `json:"origin"`
	Designated int    `json:"designated"`
	Planned    int    `json:"planned"`
	Skipped    int    `json:"skipped"`
	Blocked    int    `json:"blocked"`
}

type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}
