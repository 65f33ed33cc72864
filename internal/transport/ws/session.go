package ws

import (
	"encoding/json"
	"errors"

	"blueprints.ai/internal/blueprint"
	"blueprints.ai/internal/catalogs"
	"blueprints.ai/internal/geom"
	"blueprints.ai/internal/protocol"
	"blueprints.ai/internal/registry"
)

// session is one preview client: the template it holds and where it hovers.
type session struct {
	id     string
	client string
	out    chan []byte

	selected string
	origin   geom.Cell
}

// send queues v for the writer. It reports false when the queue is full.
func (s *session) send(v any) bool {
	b, err := json.Marshal(v)
	if err != nil {
		return false
	}
	select {
	case s.out <- b:
		return true
	default:
		return false
	}
}

type sizer interface {
	Width() int
	Depth() int
}

func welcomeFor(c *registry.Controller, id string) protocol.WelcomeMsg {
	w := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       id,
		Templates:       []protocol.TemplateRef{},
	}
	if m, ok := c.Host().(sizer); ok {
		w.Map = protocol.MapInfo{Width: m.Width(), Depth: m.Depth()}
	}
	for _, t := range c.Registry().List() {
		w.Templates = append(w.Templates, protocol.TemplateRef{
			Name:     t.Name(),
			Size:     [2]int{t.Size().X, t.Size().Z},
			Entries:  t.Len(),
			Exported: t.Exported(),
		})
	}
	if cats := c.Catalogs(); cats != nil {
		w.Catalogs = protocol.CatalogDigests{
			Things:   protocol.DigestRef{Digest: cats.Things.Digest, Count: len(cats.Things.Names)},
			Terrains: protocol.DigestRef{Digest: cats.Terrains.Digest, Count: len(cats.Terrains.Names)},
			Stuff:    protocol.DigestRef{Digest: cats.Stuff.Digest, Count: len(cats.Stuff.Names)},
		}
	}
	return w
}

func errorMsg(code, message string) protocol.ErrorMsg {
	return protocol.ErrorMsg{Type: protocol.TypeError, Code: code, Message: message}
}

// handle applies one client message and returns the replies in send order.
func (s *session) handle(c *registry.Controller, msg []byte) []any {
	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type == "" {
		return []any{errorMsg(protocol.ErrProtoBadRequest, "malformed message")}
	}

	switch base.Type {
	case protocol.TypeSelect:
		var m protocol.SelectMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return []any{errorMsg(protocol.ErrProtoBadRequest, err.Error())}
		}
		t, err := c.SelectByName(m.Name)
		if err != nil {
			return []any{errorMsg(protocol.ErrNotFound, err.Error())}
		}
		s.selected = t.Name()
		return []any{ghostOf(t, s.origin)}

	case protocol.TypeHover:
		var m protocol.HoverMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return []any{errorMsg(protocol.ErrProtoBadRequest, err.Error())}
		}
		s.origin = geom.Cell{X: m.Pos[0], Z: m.Pos[1]}
		t, code := s.current(c)
		if t == nil {
			// Hovering without a template just moves the cursor.
			if code == protocol.ErrNoSelection {
				return nil
			}
			return []any{errorMsg(code, "selected template is gone")}
		}
		return []any{ghostOf(t, s.origin)}

	case protocol.TypeRotate:
		var m protocol.RotateMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return []any{errorMsg(protocol.ErrProtoBadRequest, err.Error())}
		}
		dir, ok := geom.ParseDirection(m.Direction)
		if !ok {
			return []any{errorMsg(protocol.ErrBadRequest, "direction must be cw or ccw")}
		}
		t, code := s.current(c)
		if t == nil {
			return []any{errorMsg(code, "no template selected")}
		}
		return s.transformed(t, t.Rotate(dir))

	case protocol.TypeFlip:
		t, code := s.current(c)
		if t == nil {
			return []any{errorMsg(code, "no template selected")}
		}
		return s.transformed(t, t.Flip())

	case protocol.TypeStamp:
		var m protocol.StampMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return []any{errorMsg(protocol.ErrProtoBadRequest, err.Error())}
		}
		t, code := s.current(c)
		if t == nil {
			return []any{errorMsg(code, "no template selected")}
		}
		origin := geom.Cell{X: m.Pos[0], Z: m.Pos[1]}
		res := c.Stamp(t, origin, m.Planning)
		if !res.Succeeded() && res.Skipped == 0 && res.Blocked > 0 {
			return []any{errorMsg(protocol.ErrBlocked, "nothing can be placed at "+origin.String())}
		}
		s.origin = origin
		return []any{
			protocol.StampedMsg{
				Type:       protocol.TypeStamped,
				Template:   t.Name(),
				Origin:     m.Pos,
				Designated: res.Designated,
				Planned:    res.Planned,
				Skipped:    res.Skipped,
				Blocked:    res.Blocked,
			},
			ghostOf(t, origin),
		}

	case protocol.TypeSetStuff:
		var m protocol.SetStuffMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return []any{errorMsg(protocol.ErrProtoBadRequest, err.Error())}
		}
		t, code := s.current(c)
		if t == nil {
			return []any{errorMsg(code, "no template selected")}
		}
		cats := c.Catalogs()
		def, ok := cats.Thing(m.Def)
		if !ok {
			return []any{errorMsg(protocol.ErrInvalidTarget, "unknown thing "+m.Def)}
		}
		var stuff *catalogs.StuffDef
		if m.Stuff != "" {
			if stuff, ok = cats.StuffDef(m.Stuff); !ok {
				return []any{errorMsg(protocol.ErrInvalidTarget, "unknown stuff "+m.Stuff)}
			}
		}
		if err := t.SetStuffFor(def, stuff); err != nil {
			if errors.Is(err, blueprint.ErrStuffNotApplicable) {
				return []any{errorMsg(protocol.ErrConflict, err.Error())}
			}
			return []any{errorMsg(protocol.ErrInternal, err.Error())}
		}
		return []any{ghostOf(t, s.origin)}

	case protocol.TypeHello:
		return []any{errorMsg(protocol.ErrProtoBadRequest, "already greeted")}
	}
	return []any{errorMsg(protocol.ErrProtoBadRequest, "unknown type "+base.Type)}
}

// current resolves the session's template, making it the controller's active
// one so availability is fresh.
func (s *session) current(c *registry.Controller) (*blueprint.Template, string) {
	if s.selected == "" {
		return nil, protocol.ErrNoSelection
	}
	t, err := c.SelectByName(s.selected)
	if err != nil {
		s.selected = ""
		return nil, protocol.ErrNotFound
	}
	return t, ""
}

func (s *session) transformed(t *blueprint.Template, warnings []blueprint.FailReason) []any {
	var out []any
	if len(warnings) > 0 {
		w := protocol.WarnMsg{Type: protocol.TypeWarn, Template: t.Name()}
		for _, f := range warnings {
			w.Messages = append(w.Messages, f.Reason())
		}
		out = append(out, w)
	}
	return append(out, ghostOf(t, s.origin))
}
