package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Fepozopo/tokenmaker/pkg/imgops"
	"github.com/Fepozopo/tokenmaker/pkg/pipeline"
)

// Version is the release version, set with -ldflags at build time.
var Version = "0.1.0"

type app struct {
	cfg       Config
	logLevel  string
	logFormat string
	envFiles  []string
	preview   string
}

// NewRootCommand builds the tokenmaker command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "tokenmaker",
		Short: "Compose tabletop tokens from photos, keys, backgrounds and frames",
		Long: `tokenmaker crops, pans and zooms a source image onto a fixed size canvas,
removes backgrounds by colour key or flood fill, fills the gaps with a colour or
another image and cuts the result to a frame.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format (text, json)")
	root.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", nil, "Env files to load (default .env)")
	root.PersistentFlags().StringVar(&a.preview, "preview", "", "Terminal preview (auto, kitty, inline, chafa, off)")

	root.AddCommand(
		a.composeCommand(),
		a.frameMaskCommand(),
		a.wandCommand(),
		a.editCommand(),
		opsCommand(),
		versionCommand(),
		updateCommand(),
	)
	return root
}

// Execute runs the root command with os.Args. ctx is handed to commands that block.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := LoadConfig(a.envFiles...)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		cfg.LogFormat = a.logFormat
	}
	if a.preview != "" {
		cfg.Preview = a.preview
	}
	a.cfg = cfg
	slog.SetDefault(NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat))
	return nil
}

func (a *app) composeCommand() *cobra.Command {
	var source, out, size string
	cmd := &cobra.Command{
		Use:   "compose RECIPE",
		Short: "Render a recipe to an image file",
		Long: `Renders the composition described by a TOML recipe. --source and --size
override the recipe's source image and export size.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recipe, err := LoadRecipe(args[0])
			if err != nil {
				return err
			}
			srcPath := recipe.SourcePath()
			if source != "" {
				srcPath = source
			}
			if srcPath == "" {
				return fmt.Errorf("no source image: set source in the recipe or pass --source")
			}
			src, format, err := LoadImage(srcPath)
			if err != nil {
				return err
			}
			slog.Info("Loaded source", "path", srcPath, "format", format,
				"width", src.Rect.Dx(), "height", src.Rect.Dy())

			exportSize := a.cfg.ExportSize
			if recipe.Size != "" {
				exportSize = image.Point{}
			}
			if size != "" {
				if exportSize, err = ParseSize(size); err != nil {
					return err
				}
			}
			ws, err := recipe.Workspace(src, exportSize)
			if err != nil {
				return err
			}
			chain, err := ws.Chain()
			if err != nil {
				return err
			}
			slog.Debug("Built chain", "workspace_id", ws.ID.String(), "chain", chain.String())

			start := time.Now()
			img, err := pipeline.ExecuteBands(chain, a.cfg.BandRows)
			if err != nil {
				return err
			}
			slog.Info("Rendered", "workspace_id", ws.ID.String(), "elapsed", time.Since(start),
				"operations", chain.Len())

			if err := SaveImage(out, img); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved to %s\n", out)
			a.maybePreview(cmd.OutOrStdout(), img)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Source image (overrides the recipe)")
	cmd.Flags().StringVarP(&out, "out", "o", "token.png", "Output image path")
	cmd.Flags().StringVar(&size, "size", "", "Export size WxH (overrides the recipe)")
	return cmd
}

func (a *app) frameMaskCommand() *cobra.Command {
	var seed, out, previewOut string
	cmd := &cobra.Command{
		Use:   "framemask FRAME",
		Short: "Derive the opening mask of a frame image",
		Long: `Flood fills the see-through region of a frame from a seed pixel (the centre by
default) up to the first opaque pixel and writes the mask.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			frame, _, err := LoadImage(args[0])
			if err != nil {
				return err
			}
			p, err := seedPoint(seed, frame)
			if err != nil {
				return err
			}
			mask, err := imgops.FrameMask(frame, p)
			if err != nil {
				return err
			}
			if err := SaveImage(out, mask); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved mask to %s\n", out)

			preview, err := imgops.FramePreview(frame, mask)
			if err != nil {
				return err
			}
			if previewOut != "" {
				if err := SaveImage(previewOut, preview); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved preview to %s\n", previewOut)
			}
			a.maybePreview(cmd.OutOrStdout(), preview)
			return nil
		},
	}
	cmd.Flags().StringVar(&seed, "seed", "", "Seed pixel x,y (default: centre)")
	cmd.Flags().StringVarP(&out, "out", "o", "frame-mask.png", "Output mask path")
	cmd.Flags().StringVar(&previewOut, "preview-out", "", "Also write the frame over a checkerboard opening")
	return cmd
}

func (a *app) wandCommand() *cobra.Command {
	var seed, threshold, soft, out string
	cmd := &cobra.Command{
		Use:   "wand IMAGE",
		Short: "Write a magic wand mask hiding the region around a seed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, _, err := LoadImage(args[0])
			if err != nil {
				return err
			}
			p, err := seedPoint(seed, src)
			if err != nil {
				return err
			}
			t, err := ParseFraction(threshold)
			if err != nil {
				return err
			}
			s, err := ParseFraction(soft)
			if err != nil {
				return err
			}
			mask, err := imgops.WandMask(src, p, t, s)
			if err != nil {
				return err
			}
			if err := SaveImage(out, mask); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved mask to %s\n", out)
			masked, err := imgops.ApplyMask(src, mask)
			if err != nil {
				return err
			}
			a.maybePreview(cmd.OutOrStdout(), masked)
			return nil
		},
	}
	cmd.Flags().StringVar(&seed, "seed", "", "Seed pixel x,y (default: centre)")
	cmd.Flags().StringVar(&threshold, "threshold", "0.1", "Colour distance threshold, fraction or percent")
	cmd.Flags().StringVar(&soft, "soft", "0.1", "Soft border width, fraction or percent")
	cmd.Flags().StringVarP(&out, "out", "o", "wand-mask.png", "Output mask path")
	return cmd
}

func (a *app) editCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit [IMAGE]",
		Short: "Edit a composition interactively with live rendering",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := NewEditor(cmd.InOrStdin(), cmd.OutOrStdout(), a.cfg)
			if len(args) == 1 {
				if err := e.HandleLine(cmd.Context(), "open "+args[0]); err != nil {
					return err
				}
			}
			return e.Run(cmd.Context())
		},
	}
}

func opsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "Describe chain operations and recipe steps",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Chain operations:")
			for _, spec := range pipeline.Registry {
				fmt.Fprintln(w, OperationTooltip(spec))
			}
			fmt.Fprintln(w, "\nRecipe steps:")
			for _, s := range StepKinds {
				fmt.Fprintln(w, StepTooltip(s))
			}
		},
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tokenmaker version %s\n", Version)
		},
	}
}

func updateCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check GitHub for a newer release and install it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			return CheckForUpdates(cmd.Context(), out, func(prompt string) (bool, error) {
				if yes {
					return true, nil
				}
				fmt.Fprint(out, prompt)
				line, err := in.ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return false, err
				}
				ok, perr := parseBoolLike(line)
				return ok && perr == nil, nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Install without asking")
	return cmd
}

func (a *app) maybePreview(w io.Writer, img image.Image) {
	if err := PreviewImage(w, img, a.cfg.Preview); err != nil && !errors.Is(err, ErrNoPreview) {
		slog.Warn("Preview failed", "error", err)
	}
}

// seedPoint parses s as x,y, or returns the centre of img when s is empty.
func seedPoint(s string, img image.Image) (image.Point, error) {
	if s == "" {
		b := img.Bounds()
		return image.Point{X: b.Min.X + b.Dx()/2, Y: b.Min.Y + b.Dy()/2}, nil
	}
	return ParsePoint(s)
}
