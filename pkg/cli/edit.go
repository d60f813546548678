package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/Fepozopo/tokenmaker/pkg/imgops"
	"github.com/Fepozopo/tokenmaker/pkg/pipeline"
	"github.com/Fepozopo/tokenmaker/pkg/render"
)

// errQuit is returned by HandleLine for the quit command.
var errQuit = errors.New("quit")

const editHelp = `Commands:
  open [path]                 open a source image (fzf picker without a path)
  size WxH                    set the export size
  pan dx dy                   move the image by dx, dy source pixels
  offset x y                  set the pan offset
  zoom z                      set the zoom factor
  key [#color] [range] [soft] add a greenscreen key (defaults: white 0.1 0.01)
  wand x,y [threshold] [soft] hide the region around a source pixel
  bg #color | bg image path   add a colour or image background
  frame path [mask | x,y]     add a frame; the opening comes from mask or a seed
  caption text                add a caption in white with the built-in font
  set i field value           change a setting of modifier i (key, range, soft,
                              threshold, color, offset x,y, zoom, text)
  ls                          list modifiers
  rm [i]                      remove modifier i (fzf picker without an index)
  mv from to                  move modifier from one position to another
  chain                       print the current operation chain
  ops                         describe the chain operations
  status                      show the render status
  show                        preview the latest render
  preview on|off              preview every finished render
  save path                   render and save the composition
  update                      check for a newer release
  help                        show this help
  quit                        exit`

// Editor is the interactive line editor. It owns one workspace and renders it in the
// background with a render.Scheduler while commands are read.
type Editor struct {
	cfg    Config
	in     *bufio.Reader
	out    *syncWriter
	ws     *render.Workspace
	sched  *render.Scheduler
	format string

	mu      sync.Mutex
	preview bool
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// NewEditor returns an editor reading commands from in and writing to out.
func NewEditor(in io.Reader, out io.Writer, cfg Config) *Editor {
	e := &Editor{
		cfg:     cfg,
		in:      bufio.NewReader(in),
		out:     &syncWriter{w: out},
		ws:      render.NewWorkspace(nil),
		preview: cfg.Preview != "off" && cfg.Preview != "none",
	}
	if err := e.ws.SetExportSize(cfg.ExportSize); err != nil {
		slog.Warn("Ignoring configured export size", "size", cfg.ExportSize, "error", err)
	}
	e.sched = render.NewScheduler(e.ws,
		render.WithInterval(cfg.TickInterval),
		render.WithBandRows(cfg.BandRows),
		render.WithOnComplete(e.rendered),
	)
	return e
}

// Workspace returns the workspace being edited.
func (e *Editor) Workspace() *render.Workspace { return e.ws }

// Run renders in the background and handles input lines until quit, end of input or ctx
// cancellation.
func (e *Editor) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		e.sched.Wait()
	}()
	go e.sched.Run(ctx)

	fmt.Fprintln(e.out, "tokenmaker editor, type 'help' for commands")
	for {
		fmt.Fprint(e.out, "> ")
		line, err := e.in.ReadString('\n')
		if line != "" {
			if herr := e.HandleLine(ctx, line); herr != nil {
				if errors.Is(herr, errQuit) {
					return nil
				}
				fmt.Fprintf(e.out, "error: %v\n", herr)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (e *Editor) rendered(r render.Result) {
	if r.Err != nil {
		if !errors.Is(r.Err, render.ErrNoSource) {
			fmt.Fprintf(e.out, "\nrender %d failed: %v\n", r.Job, r.Err)
		}
		return
	}
	e.mu.Lock()
	show := e.preview
	e.mu.Unlock()
	if show {
		if err := PreviewImage(e.out, r.Image, e.previewMode()); err != nil && !errors.Is(err, ErrNoPreview) {
			slog.Debug("Preview failed", "job", r.Job, "error", err)
		}
	}
}

// HandleLine runs one editor command.
func (e *Editor) HandleLine(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "open", "o":
		return e.open(args)
	case "size":
		if len(args) != 1 {
			return fmt.Errorf("usage: size WxH")
		}
		size, err := ParseSize(args[0])
		if err != nil {
			return err
		}
		return e.ws.SetExportSize(size)
	case "pan":
		p, err := floatArgs(args, 2, "pan dx dy")
		if err != nil {
			return err
		}
		e.ws.Pan(p[0], p[1])
	case "offset":
		p, err := floatArgs(args, 2, "offset x y")
		if err != nil {
			return err
		}
		e.ws.SetOffset(imgops.PointF{X: p[0], Y: p[1]})
	case "zoom":
		p, err := floatArgs(args, 1, "zoom z")
		if err != nil {
			return err
		}
		return e.ws.SetZoom(p[0])
	case "key":
		return e.addKey(args)
	case "wand":
		return e.addWand(args)
	case "bg":
		return e.addBackground(args)
	case "frame":
		return e.addFrame(args)
	case "caption":
		if len(args) == 0 {
			return fmt.Errorf("usage: caption text")
		}
		e.ws.AddModifier(render.NewCaption(strings.Join(args, " "), color.NRGBA{255, 255, 255, 255}, nil))
	case "set":
		return e.set(args)
	case "ls":
		e.list()
	case "rm":
		if len(args) == 0 && fzfAvailable() {
			picked, err := e.pickModifier()
			if err != nil {
				return err
			}
			args = []string{picked}
		}
		i, err := indexArg(args, 0, "rm i")
		if err != nil {
			return err
		}
		return e.ws.RemoveModifier(i)
	case "mv":
		if len(args) != 2 {
			return fmt.Errorf("usage: mv from to")
		}
		from, err := indexArg(args, 0, "mv from to")
		if err != nil {
			return err
		}
		to, err := indexArg(args, 1, "mv from to")
		if err != nil {
			return err
		}
		return e.ws.MoveModifier(from, to)
	case "chain":
		chain, err := e.ws.Chain()
		if err != nil {
			return err
		}
		fmt.Fprintln(e.out, chain.String())
	case "ops":
		for _, spec := range pipeline.Registry {
			fmt.Fprintln(e.out, OperationTooltip(spec))
		}
	case "status":
		state := "clean"
		if e.sched.Dirty() {
			state = "dirty"
		}
		fmt.Fprintf(e.out, "%s, %s\n", e.sched.Status(), state)
		if err := e.sched.Err(); err != nil && !errors.Is(err, render.ErrNoSource) {
			fmt.Fprintf(e.out, "last render failed: %v\n", err)
		}
	case "show":
		img := e.sched.Latest()
		if img == nil {
			return fmt.Errorf("nothing rendered yet")
		}
		if err := PreviewImage(e.out, img, e.previewMode()); err != nil {
			return err
		}
		fmt.Fprintln(e.out, ImageInfo(img, e.format))
	case "preview":
		if len(args) != 1 {
			return fmt.Errorf("usage: preview on|off")
		}
		on, err := parseBoolLike(args[0])
		if err != nil {
			return err
		}
		e.mu.Lock()
		e.preview = on
		e.mu.Unlock()
	case "save", "s":
		if len(args) != 1 {
			return fmt.Errorf("usage: save path")
		}
		return e.save(args[0])
	case "update", "u":
		return CheckForUpdates(ctx, e.out, e.confirm)
	case "help", "h", "?":
		fmt.Fprintln(e.out, editHelp)
	case "quit", "q", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q, type 'help'", cmd)
	}
	return nil
}

// previewMode is the configured backend, or auto detection when previews were configured
// off and then switched on.
func (e *Editor) previewMode() string {
	if e.cfg.Preview == "off" || e.cfg.Preview == "none" {
		return "auto"
	}
	return e.cfg.Preview
}

func (e *Editor) confirm(prompt string) (bool, error) {
	fmt.Fprint(e.out, prompt)
	line, err := e.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	ok, perr := parseBoolLike(line)
	if perr != nil {
		return false, nil
	}
	return ok, nil
}

func (e *Editor) open(args []string) error {
	var path string
	switch {
	case len(args) > 0:
		path = strings.Join(args, " ")
	case fzfAvailable():
		p, err := SelectFileWithFzf(".")
		if err != nil {
			return err
		}
		path = p
	default:
		return fmt.Errorf("usage: open path")
	}
	img, format, err := LoadImage(path)
	if err != nil {
		return err
	}
	e.format = format
	e.ws.SetSource(img)
	slog.Info("Opened source", "path", path, "workspace_id", e.ws.ID.String())
	fmt.Fprintln(e.out, ImageInfo(img, format))
	return nil
}

func (e *Editor) addKey(args []string) error {
	g := render.NewGreenscreen()
	if len(args) > 0 {
		c, err := imgops.ParseHexColor(args[0])
		if err != nil {
			return err
		}
		g.SetKey(c)
	}
	if len(args) > 1 {
		v, err := ParseFraction(args[1])
		if err != nil {
			return err
		}
		g.SetRange(v)
	}
	if len(args) > 2 {
		v, err := ParseFraction(args[2])
		if err != nil {
			return err
		}
		g.SetSoftBorder(v)
	}
	e.ws.AddModifier(g)
	return nil
}

func (e *Editor) addWand(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: wand x,y [threshold] [soft]")
	}
	src := e.ws.Source()
	if src == nil {
		return render.ErrNoSource
	}
	seed, err := ParsePoint(args[0])
	if err != nil {
		return err
	}
	f := render.NewFloodMask()
	if len(args) > 1 {
		v, err := ParseFraction(args[1])
		if err != nil {
			return err
		}
		if err := f.SetThreshold(v); err != nil {
			return err
		}
	}
	if len(args) > 2 {
		v, err := ParseFraction(args[2])
		if err != nil {
			return err
		}
		if err := f.SetSoftBorder(v); err != nil {
			return err
		}
	}
	if err := f.Pick(src, seed); err != nil {
		return err
	}
	e.ws.AddModifier(f)
	return nil
}

func (e *Editor) addBackground(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: bg #color | bg image path")
	}
	if strings.ToLower(args[0]) == "image" {
		if len(args) < 2 {
			return fmt.Errorf("usage: bg image path")
		}
		img, _, err := LoadImage(strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		e.ws.AddModifier(render.NewImageBackground(img))
		return nil
	}
	c, err := imgops.ParseHexColor(args[0])
	if err != nil {
		return err
	}
	e.ws.AddModifier(render.NewColorBackground(c))
	return nil
}

func (e *Editor) addFrame(args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return fmt.Errorf("usage: frame path [mask | x,y]")
	}
	img, _, err := LoadImage(args[0])
	if err != nil {
		return err
	}
	name := filepath.Base(args[0])
	var f *render.Frame
	switch {
	case len(args) == 1:
		f, err = render.NewFrameFromSeed(name, img, image.Point{X: img.Rect.Dx() / 2, Y: img.Rect.Dy() / 2})
	case strings.Contains(args[1], ","):
		var seed image.Point
		if seed, err = ParsePoint(args[1]); err != nil {
			return err
		}
		f, err = render.NewFrameFromSeed(name, img, seed)
	default:
		var mask *image.Gray
		if mask, err = LoadMask(args[1]); err != nil {
			return err
		}
		f, err = render.NewFrame(name, img, mask)
	}
	if err != nil {
		return err
	}
	e.ws.AddModifier(f)
	return nil
}

func (e *Editor) set(args []string) error {
	const usage = "set i field value"
	if len(args) < 3 {
		return fmt.Errorf("usage: %s", usage)
	}
	i, err := indexArg(args, 0, usage)
	if err != nil {
		return err
	}
	mods := e.ws.Modifiers()
	if i >= len(mods) {
		return fmt.Errorf("no modifier %d", i)
	}
	field, value := strings.ToLower(args[1]), strings.Join(args[2:], " ")

	switch m := mods[i].(type) {
	case *render.Greenscreen:
		switch field {
		case "key", "color":
			c, err := imgops.ParseHexColor(value)
			if err != nil {
				return err
			}
			m.SetKey(c)
			return nil
		case "range", "soft":
			v, err := ParseFraction(value)
			if err != nil {
				return err
			}
			if field == "range" {
				m.SetRange(v)
			} else {
				m.SetSoftBorder(v)
			}
			return nil
		}
	case *render.FloodMask:
		switch field {
		case "threshold":
			v, err := ParseFraction(value)
			if err != nil {
				return err
			}
			return m.SetThreshold(v)
		case "soft":
			v, err := ParseFraction(value)
			if err != nil {
				return err
			}
			return m.SetSoftBorder(v)
		}
	case *render.Caption:
		switch field {
		case "text":
			m.SetText(value)
			return nil
		case "color":
			c, err := imgops.ParseHexColor(value)
			if err != nil {
				return err
			}
			m.SetColor(c)
			return nil
		}
	case *render.Background:
		switch field {
		case "color":
			c, err := imgops.ParseHexColor(value)
			if err != nil {
				return err
			}
			m.SetColor(c)
			return nil
		case "offset":
			p, err := ParsePoint(value)
			if err != nil {
				return err
			}
			m.SetOffset(imgops.PointF{X: float64(p.X), Y: float64(p.Y)})
			return nil
		case "zoom":
			z, err := strconv.ParseFloat(value, 64)
			if err != nil || z <= 0 {
				return fmt.Errorf("invalid zoom %q", value)
			}
			m.SetZoom(z)
			return nil
		}
	}
	return fmt.Errorf("modifier %d (%s) has no setting %q", i, mods[i].Label(), field)
}

func (e *Editor) pickModifier() (string, error) {
	mods := e.ws.Modifiers()
	if len(mods) == 0 {
		return "", fmt.Errorf("no modifiers")
	}
	items := make([]string, len(mods))
	for i, m := range mods {
		items[i] = fmt.Sprintf("%d: %s", i, m.Label())
	}
	return SelectWithFzf(items)
}

func (e *Editor) list() {
	mods := e.ws.Modifiers()
	if len(mods) == 0 {
		fmt.Fprintln(e.out, "no modifiers")
		return
	}
	for i, m := range mods {
		fmt.Fprintf(e.out, "%d) %s\n", i, m.Label())
	}
}

// save renders the current state synchronously so the file matches what was asked for
// even while a background job is in flight.
func (e *Editor) save(path string) error {
	chain, err := e.ws.Chain()
	if err != nil {
		return err
	}
	img, err := pipeline.ExecuteBands(chain, e.cfg.BandRows)
	if err != nil {
		return err
	}
	if err := SaveImage(path, img); err != nil {
		return err
	}
	slog.Info("Saved composition", "path", path, "workspace_id", e.ws.ID.String())
	fmt.Fprintf(e.out, "Saved to %s\n", path)
	return nil
}

func floatArgs(args []string, n int, usage string) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("usage: %s", usage)
	}
	out := make([]float64, n)
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[i] = v
	}
	return out, nil
}

func indexArg(args []string, i int, usage string) (int, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	v, err := strconv.Atoi(args[i])
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid index %q", args[i])
	}
	return v, nil
}
