package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/capseg/capseg/internal/caption"
	"github.com/capseg/capseg/internal/resegment"
	"github.com/capseg/capseg/internal/segment"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert [caption_file]",
	Short: "Convert a caption file to another format",
	Long: `Convert reads a caption file (format detected from its extension or
content unless --from is given) and writes it in the requested format.

Examples:
  capseg convert talk.srt --format vtt
  capseg convert talk.vtt -f ass --word-level --karaoke-effect kf
  capseg convert transcript.md -f srt --resegment --include-speaker
  capseg convert lyrics.lrc -f json -o lyrics.json`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().
		StringP("format", "f", "srt", "Output format (srt, vtt, ass, sbv, txt, lrc, sub, ttml, textgrid, json)")
	convertCmd.Flags().
		String("from", "", "Input format (default: detect from extension/content)")
	convertCmd.Flags().
		Bool("word-level", false, "Emit per-word timing when alignment is present")
	convertCmd.Flags().
		Bool("include-speaker", false, "Inline speaker labels into the output")
	convertCmd.Flags().
		Bool("normalize", false, "Decode HTML entities and collapse whitespace")
	convertCmd.Flags().
		Bool("resegment", false, "Re-split segments at sentence/speaker/event boundaries")
	convertCmd.Flags().
		Bool("dialogue-only", false, "Drop section headers and event markers")
	convertCmd.Flags().
		Bool("strict", false, "Abort on the first malformed record instead of skipping it")
	convertCmd.Flags().
		Bool("fallback-latin1", false, "Re-decode non-UTF-8 input as latin-1")
	convertCmd.Flags().
		String("karaoke-effect", "kf", "ASS karaoke tag: kf (sweep), k (instant), ko (outline)")
	convertCmd.Flags().
		Float64("frame-rate", 25, "Frame rate for frame-based timestamps")
	convertCmd.Flags().
		Bool("lrc-centiseconds", false, "Use centisecond precision in LRC tags")

	rootCmd.AddCommand(resegmentCmd)
	resegmentCmd.Flags().
		String("from", "", "Input format (default: detect from extension/content)")
	resegmentCmd.Flags().
		StringP("format", "f", "", "Output format (default: same as input)")
	resegmentCmd.Flags().
		Bool("strict", false, "Abort on the first malformed record instead of skipping it")
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", inputPath)
	}

	formatName, _ := cmd.Flags().GetString("format")
	fromName, _ := cmd.Flags().GetString("from")
	wordLevel, _ := cmd.Flags().GetBool("word-level")
	includeSpeaker, _ := cmd.Flags().GetBool("include-speaker")
	normalize, _ := cmd.Flags().GetBool("normalize")
	doResegment, _ := cmd.Flags().GetBool("resegment")
	dialogueOnly, _ := cmd.Flags().GetBool("dialogue-only")
	strict, _ := cmd.Flags().GetBool("strict")
	fallbackLatin1, _ := cmd.Flags().GetBool("fallback-latin1")
	karaokeEffect, _ := cmd.Flags().GetString("karaoke-effect")
	frameRate, _ := cmd.Flags().GetFloat64("frame-rate")
	lrcCentis, _ := cmd.Flags().GetBool("lrc-centiseconds")
	outputPath, _ := cmd.Flags().GetString("output")

	registry := caption.NewRegistry()

	segments, warnings, err := registry.ReadFile(inputPath, fromName, caption.ReadOptions{
		Strict:         strict,
		FallbackLatin1: fallbackLatin1,
		FrameRate:      frameRate,
	})
	if err != nil {
		return err
	}
	reportWarnings(inputPath, warnings)

	if dialogueOnly {
		segments = caption.DialogueOnly(segments)
	}
	if doResegment {
		segments = resegment.NewResegmenter().Resplit(segments)
	}
	if err := segment.Validate(segments); err != nil {
		return fmt.Errorf("inconsistent segments: %w", err)
	}

	if outputPath == "" {
		outputPath = defaultOutputPath(inputPath, formatName)
	}

	if err := registry.WriteFile(outputPath, formatName, segments, caption.WriteOptions{
		IncludeSpeaker:  includeSpeaker,
		WordLevel:       wordLevel,
		NormalizeText:   normalize,
		KaraokeEffect:   karaokeEffect,
		LRCCentiseconds: lrcCentis,
		FrameRate:       frameRate,
	}); err != nil {
		return err
	}

	logger.Infof("wrote %d segments to %s", len(segments), outputPath)
	return nil
}

var resegmentCmd = &cobra.Command{
	Use:   "resegment [caption_file]",
	Short: "Re-split a caption file at sentence and speaker boundaries",
	Args:  cobra.ExactArgs(1),
	RunE:  runResegment,
}

func runResegment(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	fromName, _ := cmd.Flags().GetString("from")
	formatName, _ := cmd.Flags().GetString("format")
	strict, _ := cmd.Flags().GetBool("strict")
	outputPath, _ := cmd.Flags().GetString("output")

	registry := caption.NewRegistry()

	segments, warnings, err := registry.ReadFile(inputPath, fromName, caption.ReadOptions{Strict: strict})
	if err != nil {
		return err
	}
	reportWarnings(inputPath, warnings)

	before := len(segments)
	segments = resegment.NewResegmenter().Resplit(segments)
	logger.Debugf("re-segmented %d units into %d", before, len(segments))

	if formatName == "" {
		if formatName, err = registry.Detect(inputPath, nil); err != nil {
			return err
		}
	}
	if outputPath == "" {
		base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
		outputPath = base + ".resegmented." + formatName
	}

	if err := registry.WriteFile(outputPath, formatName, segments, caption.WriteOptions{}); err != nil {
		return err
	}

	logger.Infof("wrote %d segments to %s", len(segments), outputPath)
	return nil
}

func reportWarnings(path string, warnings []caption.Warning) {
	for _, warn := range warnings {
		logger.Warnf("%s: %s", path, warn)
	}
}

func defaultOutputPath(inputPath, formatName string) string {
	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	return base + "." + formatName
}
