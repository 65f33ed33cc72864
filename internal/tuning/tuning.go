// Package tuning loads the blueprints.yaml settings shared by the binaries.
package tuning

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	SaveDir   string `yaml:"save_dir"`
	IndexDB   string `yaml:"index_db"`
	AuditDir  string `yaml:"audit_dir"`
	ConfigDir string `yaml:"config_dir"`
	Scene     string `yaml:"scene"`

	// empty keeps the built-in English messages
	LocaleDir string `yaml:"locale_dir"`
	Language  string `yaml:"language"`

	Server Server `yaml:"server"`
	Ghost  Ghost  `yaml:"ghost"`
}

type Server struct {
	ListenAddr      string `yaml:"listen_addr"`
	MaxMessageBytes int64  `yaml:"max_message_bytes"`
	WriteTimeoutMs  int    `yaml:"write_timeout_ms"`
	PingIntervalMs  int    `yaml:"ping_interval_ms"`
	SendQueue       int    `yaml:"send_queue"`
}

// Ghost holds the preview colours, as lipgloss colour strings.
type Ghost struct {
	Blocked   string `yaml:"blocked"`
	Placeable string `yaml:"placeable"`
	Present   string `yaml:"present"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion: "1.0",
		SaveDir:         "data/blueprints",
		IndexDB:         "data/index.db",
		AuditDir:        "data/audit",
		ConfigDir:       "configs",
		Scene:           "configs/scene.yaml",
		Server: Server{
			ListenAddr:      ":8090",
			MaxMessageBytes: 1 << 20,
			WriteTimeoutMs:  5000,
			PingIntervalMs:  20000,
			SendQueue:       64,
		},
		Ghost: Ghost{
			Blocked:   "#d04040",
			Placeable: "#40c0d0",
			Present:   "#707070",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if strings.TrimSpace(path) == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("blueprints.yaml: %w", err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("blueprints.yaml: %w", err)
	}
	return t, nil
}

// Normalize trims strings and puts back defaults for cleared or zero values.
func (t *Tuning) Normalize() {
	if t == nil {
		return
	}
	d := Defaults()
	trim := func(s *string, def string) {
		*s = strings.TrimSpace(*s)
		if *s == "" {
			*s = def
		}
	}
	trim(&t.ProtocolVersion, d.ProtocolVersion)
	trim(&t.SaveDir, d.SaveDir)
	trim(&t.ConfigDir, d.ConfigDir)
	trim(&t.Server.ListenAddr, d.Server.ListenAddr)
	trim(&t.Ghost.Blocked, d.Ghost.Blocked)
	trim(&t.Ghost.Placeable, d.Ghost.Placeable)
	trim(&t.Ghost.Present, d.Ghost.Present)
	// an empty index, audit or scene path turns the feature off
	t.IndexDB = strings.TrimSpace(t.IndexDB)
	t.AuditDir = strings.TrimSpace(t.AuditDir)
	t.Scene = strings.TrimSpace(t.Scene)
	t.LocaleDir = strings.TrimSpace(t.LocaleDir)
	t.Language = strings.TrimSpace(t.Language)

	if t.Server.MaxMessageBytes == 0 {
		t.Server.MaxMessageBytes = d.Server.MaxMessageBytes
	}
	if t.Server.WriteTimeoutMs == 0 {
		t.Server.WriteTimeoutMs = d.Server.WriteTimeoutMs
	}
	if t.Server.PingIntervalMs == 0 {
		t.Server.PingIntervalMs = d.Server.PingIntervalMs
	}
	if t.Server.SendQueue == 0 {
		t.Server.SendQueue = d.Server.SendQueue
	}
}

func (t Tuning) Validate() error {
	if t.Server.MaxMessageBytes < 256 {
		return fmt.Errorf("server.max_message_bytes must be >= 256")
	}
	if t.Server.WriteTimeoutMs < 0 || t.Server.PingIntervalMs < 0 {
		return fmt.Errorf("server timeouts must be >= 0")
	}
	if t.Server.SendQueue < 1 {
		return fmt.Errorf("server.send_queue must be >= 1")
	}
	if (t.LocaleDir == "") != (t.Language == "") {
		return fmt.Errorf("locale_dir and language must be set together")
	}
	if t.ProtocolVersion != "1.0" {
		return fmt.Errorf("unsupported protocol_version %q", t.ProtocolVersion)
	}
	return nil
}
