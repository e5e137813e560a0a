package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ivlev/reelcomposer/internal/config"
	"github.com/ivlev/reelcomposer/internal/engine"
	"github.com/ivlev/reelcomposer/internal/logging"
	"github.com/ivlev/reelcomposer/internal/presets"
	"github.com/ivlev/reelcomposer/internal/source"
	"github.com/ivlev/reelcomposer/internal/spec"
	"github.com/ivlev/reelcomposer/internal/system"
	"github.com/ivlev/reelcomposer/internal/timeline"
)

var (
	cfgFile string
	logFile string
	verbose bool
	output  string
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "reelcomposer",
	Short:        "reelcomposer - timeline composition for short-form video",
	Long:         "Builds multi-track timelines from scripts, slides and media, then previews or renders them with ffmpeg.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logFile != "" {
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return err
			}
			logging.Init(verbose, f)
		} else {
			logging.Init(verbose)
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cmd.SetContext(config.WithConfig(cmd.Context(), cfg))

		system.InitResourceLimits()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./reelcomposer.yaml)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also append JSON log lines to this file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	for _, c := range []*cobra.Command{buildCmd, storyboardCmd, renderCmd, slidesCmd} {
		c.Flags().StringVarP(&output, "output", "o", "", "output file (default: generated in the output directory)")
	}
	slidesCmd.Flags().String("audio", "", "soundtrack (default: newest file in input/audio/)")
	slidesCmd.Flags().String("title", "", "title of the reel")
	slidesCmd.Flags().Bool("storyboard", false, "write a contact sheet instead of rendering")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(storyboardCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(slidesCmd)
	rootCmd.AddCommand(presetsCmd)
}

func project(cmd *cobra.Command) *engine.Project {
	return engine.NewProject(config.FromContext(cmd.Context()))
}

var buildCmd = &cobra.Command{
	Use:   "build [script]",
	Short: "Replay a script and write the resulting specification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := project(cmd)
		s, err := p.Load(args[0])
		if err != nil {
			return err
		}

		out := output
		if out == "" {
			out = p.OutputPath(s, "yaml")
		}
		if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
			return err
		}
		if err := s.WriteFile(out); err != nil {
			return err
		}

		log.Info().
			Str("output", out).
			Int("clips", s.ClipCount()).
			Float64("duration", s.Duration()).
			Msg("specification written")
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [script|specification]",
	Short: "Print the tracks, clips and transitions of a timeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := project(cmd).Load(args[0])
		if err != nil {
			return err
		}
		return printSpec(cmd, s)
	},
}

var storyboardCmd = &cobra.Command{
	Use:   "storyboard [script|specification]",
	Short: "Write a contact sheet sampled over the timeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := project(cmd)
		s, err := p.Load(args[0])
		if err != nil {
			return err
		}
		return p.Storyboard(cmd.Context(), s, output)
	},
}

var renderCmd = &cobra.Command{
	Use:   "render [script|specification]",
	Short: "Render a timeline to video with ffmpeg",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := project(cmd)
		s, err := p.Load(args[0])
		if err != nil {
			return err
		}
		return p.Render(cmd.Context(), s, output)
	},
}

var slidesCmd = &cobra.Command{
	Use:   "slides [pdf|image folder]",
	Short: "Turn a PDF or a folder of images into a slideshow reel",
	Long:  "Without an argument the newest PDF in input/pdf/ is used.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := project(cmd)

		input := ""
		if len(args) == 1 {
			input = args[0]
		} else {
			latest, err := system.FindLatest("input/pdf", system.PDFExtensions)
			if err != nil {
				return fmt.Errorf("%w; put a PDF in input/pdf/ or pass a path", err)
			}
			input = latest
			log.Info().Str("input", input).Msg("picked newest PDF")
		}

		audio, _ := cmd.Flags().GetString("audio")
		if audio == "" {
			if latest, err := system.FindLatest("input/audio", system.AudioExtensions); err == nil {
				audio = latest
				log.Info().Str("audio", audio).Msg("picked newest soundtrack")
			}
		}
		title, _ := cmd.Flags().GetString("title")
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		}

		src, err := source.Open(input)
		if err != nil {
			return err
		}
		defer src.Close()

		workDir, err := os.MkdirTemp("", "reelcomposer-pages-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(workDir)

		s, err := p.Slides(cmd.Context(), engine.SlidesInput{
			Source:  src,
			WorkDir: workDir,
			Audio:   audio,
			Title:   title,
		})
		if err != nil {
			return err
		}

		if sheet, _ := cmd.Flags().GetBool("storyboard"); sheet {
			return p.Storyboard(cmd.Context(), s, output)
		}
		return p.Render(cmd.Context(), s, output)
	},
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the built-in presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := presets.Default()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, name := range reg.Names() {
			p, err := reg.Get(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.Category, p.Description)
		}
		return w.Flush()
	},
}

func printSpec(cmd *cobra.Command, s *spec.Specification) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s  %q\n", s.ID, s.Title)
	fmt.Fprintf(out, "%dx%d @ %g fps, %s, %.2fs\n\n",
		s.Settings.Width, s.Settings.Height, s.Settings.FPS, s.Settings.Format, s.Duration())

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, tr := range s.AllTracks() {
		fmt.Fprintf(w, "%s\t%s\t%d clips\n", tr.Name, tr.Kind, len(tr.Clips))
		for _, c := range tr.SortedClips() {
			end := "open"
			if e, ok := c.EndTime(); ok {
				end = fmt.Sprintf("%.2f", e)
			}
			fmt.Fprintf(w, "  %s\t%.2f-%s\t%s\n", c.ClipKind(), c.StartTime(), end, c.Source())
		}
	}
	if len(s.Transitions) > 0 {
		fmt.Fprintln(w, "transitions")
		for _, t := range s.Transitions {
			fmt.Fprintf(w, "  %s\t%.2f-%.2f\t%s\n", t.Type, t.Start, t.Start+t.Duration, bridge(t))
		}
	}
	return w.Flush()
}

func bridge(t *timeline.Transition) string {
	if len(t.From) == 0 && len(t.To) == 0 {
		return "all tracks"
	}
	return strings.Join(t.From, ",") + " -> " + strings.Join(t.To, ",")
}
