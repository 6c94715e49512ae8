package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yzays8/ppng/logging"
	"github.com/yzays8/ppng/pngdecoder"
	"github.com/yzays8/ppng/utils"
)

var (
	verbose    bool
	outputPath string
)

var rootCmd = &cobra.Command{
	Use:           "ppng <file>",
	Short:         "Decode a PNG image and write it out as Netpbm",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		logging.SetVerbose(verbose)
		if err := run(args[0]); err != nil {
			logging.Error().Err(err).Str("file", args[0]).Msg("failed to decode")
			return err
		}
		return nil
	},
}

func run(inputPath string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}

	decoder, err := pngdecoder.NewDecoder(data)
	if err != nil {
		return err
	}
	img, err := decoder.Decode()
	if err != nil {
		return err
	}
	logging.Info().
		Int("width", img.Width).
		Int("height", img.Height).
		Int("channels", img.Channels).
		Int("sample_depth", img.SampleDepth).
		Msg("decoded")

	out := outputPath
	if out == "" {
		out = strings.TrimSuffix(inputPath, ".png") + utils.NetpbmExt(img.Channels)
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := utils.WriteNetpbm(f, img.Width, img.Height, img.Channels, img.SampleDepth, img.Pix); err != nil {
		return err
	}
	logging.Info().Str("output", out).Msg("wrote image")
	return nil
}

func init() {
	rootCmd.Flags().BoolVarP(&verbose, "logging", "l", false, "enable verbose decode logging")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output path (default: input with a Netpbm extension)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
