package cli

import (
	"github.com/capseg/capseg/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	logger  *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "capseg",
	Short: "Caption format converter and transcript re-segmenter",
	Long: `Capseg converts between caption/subtitle formats (SRT, VTT, ASS/SSA,
SBV, TXT, TextGrid, TTML, LRC, structured markdown transcripts, JSON)
and re-segments rough transcripts into alignment-ready units.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.NewLogger(verbose)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
}
