package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gen2brain/mpeg2"
	"github.com/gen2brain/mpeg2/internal/cli"
)

var version = "dev"

var (
	verbose bool

	threads   int
	maxWidth  int
	maxHeight int
	format    string

	output string
	image  string
	limit  int
)

var rootCmd = &cobra.Command{
	Use:           "m2vdec",
	Short:         "Decode MPEG-1 and MPEG-2 video elementary streams.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		cli.StartLogging(filepath.Base(os.Args[0]), verbose)
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode [flags] <input>",
	Short: "Decode a stream to images or a raw file",
	Long: "Decode a stream to one image per frame (--image) or to one raw file in --format.\n" +
		"The input is a path, - for stdin, an http(s) URL, or a .zst compressed file.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config()
		if err != nil {
			return err
		}

		out := output
		if out == "" {
			out = "frames"
			if image == "" {
				out = "out." + cfg.Format.String()
			}
		}

		return cli.Decode(cli.DecodeOptions{
			Input:  args[0],
			Output: out,
			Image:  image,
			Config: cfg,
			Limit:  limit,
		}, cmd.OutOrStdout())
	},
}

var infoCmd = &cobra.Command{
	Use:   "info <input>",
	Short: "Print sequence parameters and count frames by type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config()
		if err != nil {
			return err
		}

		return cli.Info(args[0], cfg, cmd.OutOrStdout())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print m2vdec version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cli.Version(cmd.OutOrStdout())
		return nil
	},
	DisableFlagsInUseLine: true,
}

func config() (mpeg2.Config, error) {
	f, err := mpeg2.ParseFormat(format)
	if err != nil {
		return mpeg2.Config{}, err
	}

	return mpeg2.Config{
		Threads:   threads,
		MaxWidth:  maxWidth,
		MaxHeight: maxHeight,
		Format:    f,
	}, nil
}

func init() {
	cli.SetVersion(resolveVersion())

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log decoder details")
	rootCmd.PersistentFlags().IntVarP(&threads, "threads", "t", runtime.NumCPU(), "decoding goroutines per picture")
	rootCmd.PersistentFlags().IntVar(&maxWidth, "max-width", mpeg2.DefaultMaxWidth, "largest accepted picture width")
	rootCmd.PersistentFlags().IntVar(&maxHeight, "max-height", mpeg2.DefaultMaxHeight, "largest accepted picture height")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "native", "output format: native, yuv420p, nv12, nv21, yuyv")

	decodeCmd.Flags().StringVarP(&output, "output", "o", "", "output directory for images, or raw output file (- for stdout)")
	decodeCmd.Flags().StringVarP(&image, "image", "i", "", "write one image per frame: "+strings.Join(cli.ImageFormats(), ", "))
	decodeCmd.Flags().IntVarP(&limit, "limit", "n", 0, "stop after this many frames")

	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func resolveVersion() string {
	if version != "" && version != "dev" {
		return strings.TrimPrefix(version, "v")
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return strings.TrimPrefix(info.Main.Version, "v")
		}
	}

	return "dev"
}
