package registry

import "time"

// Audit ops.
const (
	OpCapture = "capture"
	OpSave    = "save"
	OpDelete  = "delete"
	OpRename  = "rename"
	OpImport  = "import"
	OpStamp   = "stamp"
)

// AuditEntry records one change to the template set or the host map.
type AuditEntry struct {
	At     int64          `json:"at"` // unix ms
	Op     string         `json:"op"`
	Name   string         `json:"name"`
	To     string         `json:"to,omitempty"`
	Origin *[2]int        `json:"origin,omitempty"`
	Result map[string]int `json:"result,omitempty"`
}

type AuditLogger interface {
	WriteAudit(e AuditEntry) error
}

func (c *Controller) audit(e AuditEntry) {
	if c.auditLog == nil {
		return
	}
	e.At = time.Now().UnixMilli()
	if err := c.auditLog.WriteAudit(e); err != nil {
		c.logger.Printf("audit %s %s: %v", e.Op, e.Name, err)
	}
}
