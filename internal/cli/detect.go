package cli

import (
	"fmt"
	"os"

	"github.com/capseg/capseg/internal/caption"
	"github.com/spf13/cobra"
)

var detectCmd = &cobra.Command{
	Use:   "detect [caption_file]",
	Short: "Report the detected format of a caption file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	content, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", inputPath, err)
	}

	registry := caption.NewRegistry()
	name, err := registry.Detect(inputPath, content)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), name)
	return nil
}
