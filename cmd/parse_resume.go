package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobboard-assistant/internal/ai"
	"github.com/spigell/jobboard-assistant/internal/resumetext"
)

var parseResumeCmd = &cobra.Command{
	Use:   "parse-resume",
	Short: "Extract a structured profile from a resume file",
	RunE:  parseResume,
}

func init() {
	rootCmd.AddCommand(parseResumeCmd)

	parseResumeCmd.Flags().StringP("file", "f", "", "resume file: txt, md, html, pdf or docx")
	parseResumeCmd.Flags().Bool("text-only", false, "print the extracted text without calling the model")

	parseResumeCmd.MarkFlagRequired("file")
}

func parseResume(cmd *cobra.Command, _ []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	filename, _ := cmd.Flags().GetString("file")
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("read resume: %w", err)
	}

	mimeType := resumetext.DetectMIME(filename, data)
	text, err := resumetext.ExtractText(mimeType, data)
	if err != nil {
		return fmt.Errorf("extract text from %s: %w", filename, err)
	}
	log.Info("extracted resume text", zap.String("mime", mimeType), zap.Int("length", len(text)))

	if textOnly, _ := cmd.Flags().GetBool("text-only"); textOnly {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), text)
		return err
	}

	config, err := getConfig()
	if err != nil {
		return err
	}

	assistant, err := newAssistant(cmd.Context(), config.AI.Gemini, log)
	if err != nil {
		return fmt.Errorf("%w: %w", ai.ErrNotConfigured, err)
	}

	resume, err := assistant.ParseResume(cmd.Context(), text)
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), resume)
}
