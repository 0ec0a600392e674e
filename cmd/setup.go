package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

const envFile = ".env"

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Collect API keys and defaults interactively and write them to a .env file",
	RunE: func(_ *cobra.Command, _ []string) error {
		return setup()
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func setup() error {
	geminiPrompt := promptui.Prompt{
		Label: "GEMINI_API_KEY (required - embeddings and optional LLM scoring)",
		Mask:  '*',
	}
	geminiKey, err := geminiPrompt.Run()
	if err != nil {
		return err
	}

	firecrawlPrompt := promptui.Prompt{
		Label: "FIRECRAWL_API_KEY (optional - leave empty to score a stored corpus)",
		Mask:  '*',
	}
	firecrawlKey, err := firecrawlPrompt.Run()
	if err != nil {
		return err
	}

	queryPrompt := promptui.Prompt{
		Label:   "Search query",
		Default: "data engineer",
	}
	query, err := queryPrompt.Run()
	if err != nil {
		return err
	}

	resumePrompt := promptui.Prompt{
		Label:   "Resume file",
		Default: "resume.md",
		Validate: func(path string) error {
			if strings.TrimSpace(path) == "" {
				return fmt.Errorf("resume path must not be empty")
			}
			return nil
		},
	}
	resume, err := resumePrompt.Run()
	if err != nil {
		return err
	}

	var b strings.Builder
	writeEnv := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		fmt.Fprintf(&b, "%s=%s\n", key, strings.TrimSpace(value))
	}

	writeEnv("GEMINI_API_KEY", geminiKey)
	writeEnv("FIRECRAWL_API_KEY", firecrawlKey)
	writeEnv("JOB_RADAR_QUERY", query)
	writeEnv("JOB_RADAR_RESUME", resume)

	if err := os.WriteFile(envFile, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", envFile, err)
	}

	fmt.Printf("wrote %s; run '%s run' to start a triage run\n", envFile, app)
	return nil
}
