package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"blueprints.ai/internal/app"
	"blueprints.ai/internal/blueprint"
	"blueprints.ai/internal/catalogs"
	"blueprints.ai/internal/geom"
	"blueprints.ai/internal/persistence/record"
	"blueprints.ai/internal/render"
	"blueprints.ai/internal/tuning"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "blueprints:", err)
		os.Exit(1)
	}
}

type command struct {
	name  string
	usage string
	run   func(e *env, fs *flag.FlagSet, args []string) error
	flags func(fs *flag.FlagSet)
}

var commands = []command{
	{name: "capture", usage: "capture --rect x0,z0,x1,z1 [--name N] [--things]", run: captureCmd, flags: captureFlags},
	{name: "list", usage: "list", run: listCmd},
	{name: "show", usage: "show NAME [--at x,z] [--plain]", run: showCmd, flags: showFlags},
	{name: "rotate", usage: "rotate NAME [--ccw] [--times n]", run: rotateCmd, flags: rotateFlags},
	{name: "flip", usage: "flip NAME", run: flipCmd},
	{name: "set-stuff", usage: "set-stuff NAME DEF [STUFF]", run: setStuffCmd},
	{name: "rename", usage: "rename NAME NEW", run: renameCmd},
	{name: "delete", usage: "delete NAME", run: deleteCmd},
	{name: "stamp", usage: "stamp NAME --at x,z [--planning] [--plain]", run: stampCmd, flags: stampFlags},
	{name: "share", usage: "share NAME", run: shareCmd},
	{name: "import", usage: "import CODE", run: importCmd},
	{name: "history", usage: "history", run: historyCmd},
}

// env is the opened application plus the output of one command run.
type env struct {
	*app.App
	out io.Writer
}

func usage(out io.Writer) {
	fmt.Fprintln(out, "usage: blueprints <command> [flags]")
	for _, c := range commands {
		fmt.Fprintf(out, "  %s\n", c.usage)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		usage(out)
		return nil
	}
	var cmd *command
	for i := range commands {
		if commands[i].name == args[0] {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		usage(out)
		return fmt.Errorf("unknown command %q", args[0])
	}

	fs := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", "./configs/blueprints.yaml", "path to blueprints.yaml")
	verbose := fs.BoolP("verbose", "v", false, "log to stderr")
	if cmd.flags != nil {
		cmd.flags(fs)
	}
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	tune, err := tuning.Load(*configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		tune = tuning.Defaults()
	}
	logger := log.New(io.Discard, "", 0)
	if *verbose {
		logger = log.New(os.Stderr, "[blueprints] ", log.LstdFlags)
	}
	a, err := app.Open(tune, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return cmd.run(&env{App: a, out: out}, fs, fs.Args())
}

func parseCell(s string) (geom.Cell, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geom.Cell{}, fmt.Errorf("want x,z, got %q", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return geom.Cell{}, fmt.Errorf("bad x in %q", s)
	}
	z, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return geom.Cell{}, fmt.Errorf("bad z in %q", s)
	}
	return geom.Cell{X: x, Z: z}, nil
}

func parseRect(s string) (geom.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geom.Rect{}, fmt.Errorf("want x0,z0,x1,z1, got %q", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return geom.Rect{}, fmt.Errorf("bad number %q in %q", p, s)
		}
		v[i] = n
	}
	return geom.Rect{MinX: min(v[0], v[2]), MinZ: min(v[1], v[3]), MaxX: max(v[0], v[2]), MaxZ: max(v[1], v[3])}, nil
}

func nArgs(args []string, n int, what string) error {
	if len(args) < n {
		return fmt.Errorf("missing %s", what)
	}
	return nil
}

func (e *env) template(name string) (*blueprint.Template, error) {
	t := e.Ctrl.Registry().Find(name)
	if t == nil {
		return nil, fmt.Errorf("no blueprint named %q", name)
	}
	return t, nil
}

func (e *env) printCost(label string, costs []catalogs.ItemCount) {
	if len(costs) == 0 {
		fmt.Fprintf(e.out, "%s: nothing\n", label)
		return
	}
	parts := make([]string, 0, len(costs))
	for _, c := range costs {
		parts = append(parts, fmt.Sprintf("%s x%d", c.Item, c.Count))
	}
	fmt.Fprintf(e.out, "%s: %s\n", label, strings.Join(parts, ", "))
}

func (e *env) printWarnings(ws []blueprint.FailReason) {
	for _, w := range ws {
		fmt.Fprintf(e.out, "warning: %s\n", w.Reason())
	}
}

func (e *env) canvas(t *blueprint.Template, origin geom.Cell, ghost, plain bool) {
	view := geom.Rect{MaxX: e.Map.Width() - 1, MaxZ: e.Map.Depth() - 1}
	c := render.NewCanvas(view, e.Tuning.Ghost)
	c.DrawWorld(e.Map)
	if ghost {
		t.DrawGhost(origin, c)
	}
	if plain {
		fmt.Fprint(e.out, c.Plain())
		return
	}
	fmt.Fprint(e.out, c.String())
	fmt.Fprintln(e.out, c.Legend())
}

var (
	captureRect   string
	captureName   string
	captureThings bool
)

func captureFlags(fs *flag.FlagSet) {
	fs.StringVar(&captureRect, "rect", "", "cells to capture, x0,z0,x1,z1 inclusive")
	fs.StringVar(&captureName, "name", "", "name for the new blueprint")
	fs.BoolVar(&captureThings, "things", false, "capture only the buildings in rect, not floors")
}

func captureCmd(e *env, _ *flag.FlagSet, _ []string) error {
	if captureRect == "" {
		return errors.New("--rect is required")
	}
	rect, err := parseRect(captureRect)
	if err != nil {
		return err
	}
	var t *blueprint.Template
	if captureThings {
		var things []*blueprint.Thing
		for _, c := range rect.Cells() {
			things = append(things, e.Map.ThingsAt(c)...)
		}
		t, err = e.Ctrl.CreateFromThings(things)
	} else {
		t, err = e.Ctrl.Create(rect.Cells())
	}
	if err != nil {
		return err
	}
	if captureName != "" {
		if err := e.Ctrl.Rename(t, captureName); err != nil {
			return err
		}
	}
	if err := e.Ctrl.Save(t); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "captured %s\n", t)
	e.printCost("cost", t.CostListAdjusted())
	return nil
}

func listCmd(e *env, _ *flag.FlagSet, _ []string) error {
	infos, err := e.Store.List()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Fprintln(e.out, "no blueprints")
		return nil
	}
	digests := map[string]string{}
	if rows, err := e.Index.List(); err == nil {
		for _, r := range rows {
			digests[r.Name] = r.Digest
		}
	}
	for _, info := range infos {
		t := e.Ctrl.Registry().Find(info.Name)
		if t == nil {
			fmt.Fprintf(e.out, "%-24s (unreadable)\n", info.Name)
			continue
		}
		d := digests[info.Name]
		if len(d) > 12 {
			d = d[:12]
		}
		fmt.Fprintf(e.out, "%-24s %-6s %3d entries  %s  %s\n",
			t.Name(), t.Size(), t.Len(), info.ModTime.Format("2006-01-02 15:04"), d)
	}
	return nil
}

var (
	showAt    string
	showPlain bool
)

func showFlags(fs *flag.FlagSet) {
	fs.StringVar(&showAt, "at", "", "preview origin x,z (default: map center)")
	fs.BoolVar(&showPlain, "plain", false, "no colours")
}

func (e *env) origin(at string) (geom.Cell, error) {
	if at == "" {
		return geom.Cell{X: e.Map.Width() / 2, Z: e.Map.Depth() / 2}, nil
	}
	return parseCell(at)
}

func showCmd(e *env, _ *flag.FlagSet, args []string) error {
	if err := nArgs(args, 1, "NAME"); err != nil {
		return err
	}
	t, err := e.template(args[0])
	if err != nil {
		return err
	}
	origin, err := e.origin(showAt)
	if err != nil {
		return err
	}
	if err := e.Ctrl.Select(t); err != nil {
		return err
	}
	e.canvas(t, origin, true, showPlain)
	fmt.Fprintf(e.out, "%s at %v: can place=%v\n", t, origin, t.CanPlace(origin))
	e.printCost("cost", t.CostListAdjusted())
	e.printCost("remaining", t.RemainingCost(origin))

	for _, g := range t.GroupedBuildables() {
		fmt.Fprintf(e.out, "  %-20s x%d\n", g.Buildable.LabelCap(), len(g.Entries))
	}
	return nil
}

var (
	rotateCCW   bool
	rotateTimes int
)

func rotateFlags(fs *flag.FlagSet) {
	fs.BoolVar(&rotateCCW, "ccw", false, "rotate counterclockwise")
	fs.IntVar(&rotateTimes, "times", 1, "number of quarter turns")
}

func rotateCmd(e *env, _ *flag.FlagSet, args []string) error {
	if err := nArgs(args, 1, "NAME"); err != nil {
		return err
	}
	t, err := e.template(args[0])
	if err != nil {
		return err
	}
	dir := geom.Clockwise
	if rotateCCW {
		dir = geom.Counterclockwise
	}
	for i := 0; i < rotateTimes; i++ {
		e.printWarnings(t.Rotate(dir))
	}
	if err := e.Ctrl.Save(t); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "rotated %s %s x%d\n", t, dir, rotateTimes)
	return nil
}

func flipCmd(e *env, _ *flag.FlagSet, args []string) error {
	if err := nArgs(args, 1, "NAME"); err != nil {
		return err
	}
	t, err := e.template(args[0])
	if err != nil {
		return err
	}
	e.printWarnings(t.Flip())
	if err := e.Ctrl.Save(t); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "flipped %s\n", t)
	return nil
}

func setStuffCmd(e *env, _ *flag.FlagSet, args []string) error {
	if err := nArgs(args, 2, "NAME DEF"); err != nil {
		return err
	}
	t, err := e.template(args[0])
	if err != nil {
		return err
	}
	def, ok := e.Catalogs.Thing(args[1])
	if !ok {
		return fmt.Errorf("unknown thing %q", args[1])
	}
	var stuff *catalogs.StuffDef
	if len(args) > 2 {
		if stuff, ok = e.Catalogs.StuffDef(args[2]); !ok {
			return fmt.Errorf("unknown stuff %q", args[2])
		}
	}
	if err := t.SetStuffFor(def, stuff); err != nil {
		return err
	}
	if err := e.Ctrl.Save(t); err != nil {
		return err
	}
	e.printCost("cost", t.CostListAdjusted())
	return nil
}

func renameCmd(e *env, _ *flag.FlagSet, args []string) error {
	if err := nArgs(args, 2, "NAME NEW"); err != nil {
		return err
	}
	t, err := e.template(args[0])
	if err != nil {
		return err
	}
	if err := e.Ctrl.Rename(t, args[1]); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "renamed %s to %s\n", args[0], t.Name())
	return nil
}

func deleteCmd(e *env, _ *flag.FlagSet, args []string) error {
	if err := nArgs(args, 1, "NAME"); err != nil {
		return err
	}
	t, err := e.template(args[0])
	if err != nil {
		return err
	}
	if err := e.Ctrl.Remove(t, true); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "deleted %s\n", args[0])
	return nil
}

var (
	stampAt       string
	stampPlanning bool
	stampPlain    bool
)

func stampFlags(fs *flag.FlagSet) {
	fs.StringVar(&stampAt, "at", "", "origin x,z")
	fs.BoolVar(&stampPlanning, "planning", false, "place plan designations for walls instead of blueprints")
	fs.BoolVar(&stampPlain, "plain", false, "no colours")
}

// stampCmd stamps onto the scene loaded for this run; the scene file is not
// changed.
func stampCmd(e *env, _ *flag.FlagSet, args []string) error {
	if err := nArgs(args, 1, "NAME"); err != nil {
		return err
	}
	if stampAt == "" {
		return errors.New("--at is required")
	}
	t, err := e.template(args[0])
	if err != nil {
		return err
	}
	origin, err := parseCell(stampAt)
	if err != nil {
		return err
	}
	if err := e.Ctrl.Select(t); err != nil {
		return err
	}
	res := e.Ctrl.Stamp(t, origin, stampPlanning)
	e.canvas(t, origin, false, stampPlain)
	fmt.Fprintf(e.out, "designated=%d planned=%d skipped=%d blocked=%d\n",
		res.Designated, res.Planned, res.Skipped, res.Blocked)
	if !res.Succeeded() && res.Skipped == 0 {
		return fmt.Errorf("nothing placed at %v", origin)
	}
	return nil
}

func shareCmd(e *env, _ *flag.FlagSet, args []string) error {
	if err := nArgs(args, 1, "NAME"); err != nil {
		return err
	}
	t, err := e.template(args[0])
	if err != nil {
		return err
	}
	code, err := e.Ctrl.ShareCode(t)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.out, code)
	return nil
}

func importCmd(e *env, _ *flag.FlagSet, args []string) error {
	if err := nArgs(args, 1, "CODE"); err != nil {
		return err
	}
	if !strings.HasPrefix(args[0], record.SharePrefix) {
		return fmt.Errorf("not a share code")
	}
	t, err := e.Ctrl.ImportShareCode(args[0])
	if err != nil {
		return err
	}
	if err := e.Ctrl.Save(t); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "imported %s\n", t)
	return nil
}

func historyCmd(e *env, _ *flag.FlagSet, _ []string) error {
	if e.Audit == nil {
		return errors.New("audit_dir is not set")
	}
	// The logger only appends; what earlier runs wrote is already closed.
	trail, err := e.Audit.ReadAll()
	if err != nil {
		return err
	}
	for _, a := range trail {
		line := fmt.Sprintf("%s  %-8s %s", time.UnixMilli(a.At).Format("2006-01-02 15:04:05"), a.Op, a.Name)
		if a.To != "" {
			line += " -> " + a.To
		}
		if a.Origin != nil {
			line += fmt.Sprintf(" at (%d, %d)", a.Origin[0], a.Origin[1])
		}
		fmt.Fprintln(e.out, line)
	}
	return nil
}
