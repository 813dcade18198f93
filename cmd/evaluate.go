package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/picwrite/internal/pipeline"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate one paragraph about an image and print the JSON report",
	Example: `  picwrite evaluate --image https://example.com/park.jpg --paragraph "Two children play in the park."
  picwrite evaluate --image https://example.com/park.jpg --paragraph-file essay.txt --model google/gemini-2.0-flash-exp:free`,
	RunE: func(cmd *cobra.Command, args []string) error {
		imageURL, _ := cmd.Flags().GetString("image")
		paragraph, _ := cmd.Flags().GetString("paragraph")
		paragraphFile, _ := cmd.Flags().GetString("paragraph-file")
		model, _ := cmd.Flags().GetString("model")
		language, _ := cmd.Flags().GetString("language")

		if paragraph != "" && paragraphFile != "" {
			return errors.New("use either --paragraph or --paragraph-file, not both")
		}
		if paragraphFile != "" {
			b, err := os.ReadFile(paragraphFile)
			if err != nil {
				return fmt.Errorf("read paragraph: %w", err)
			}
			paragraph = string(b)
		}
		paragraph = strings.TrimSpace(paragraph)
		if strings.TrimSpace(imageURL) == "" {
			return errors.New("--image is required")
		}
		if paragraph == "" {
			return errors.New("a paragraph is required (--paragraph or --paragraph-file)")
		}
		if model != "" && !pipeline.IsKnownModel(model) {
			return fmt.Errorf("unknown vision model %q (see `picwrite models`)", model)
		}

		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		p, err := pipeline.NewFromConfig(ctx, cfg, logger, nil)
		if err != nil {
			return fmt.Errorf("build pipeline: %w", err)
		}

		out, err := p.Run(ctx, pipeline.Request{
			ImageURL:  strings.TrimSpace(imageURL),
			Paragraph: paragraph,
			Model:     model,
			Language:  language,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	evaluateCmd.Flags().String("image", "", "Image URL to describe")
	evaluateCmd.Flags().String("paragraph", "", "Paragraph written about the image")
	evaluateCmd.Flags().String("paragraph-file", "", "Read the paragraph from a file")
	evaluateCmd.Flags().String("model", "", "Vision model (default "+pipeline.KnownModels[0].ID+")")
	evaluateCmd.Flags().String("language", "", "Language the paragraph is written in (default English)")
}
