package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// initAnswers collects the interactive form results for config init.
type initAnswers struct {
	Listen        string
	CorpusPath    string
	EmbeddingURL  string
	EmbeddingName string
	ChatURL       string
	ChatName      string
	Backend       string
	SQLitePath    string
	AdminToken    string
}

func configInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create a configuration file interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := "vitrine.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists, remove it first", path)
			}

			answers := initAnswers{
				Listen:        ":8080",
				CorpusPath:    "corpus.json",
				EmbeddingURL:  "http://localhost:11434/v1",
				EmbeddingName: "nomic-embed-text",
				ChatURL:       "http://localhost:11434/v1",
				ChatName:      "llama3.1",
				Backend:       "memory",
			}
			if err := initForm(&answers).Run(); err != nil {
				return err
			}

			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			if err := os.WriteFile(path, renderConfig(answers), 0o600); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	return cmd
}

func initForm(a *initAnswers) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen address").
				Description("Host:port for the HTTP gateway").
				Value(&a.Listen),
			huh.NewInput().
				Title("Corpus file").
				Description("JSON file with embedded portfolio chunks").
				Value(&a.CorpusPath),
			huh.NewInput().
				Title("Admin token").
				Description("Protects session admin endpoints; leave empty to disable them").
				Value(&a.AdminToken),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Embedding API base URL").
				Value(&a.EmbeddingURL),
			huh.NewInput().
				Title("Embedding model").
				Value(&a.EmbeddingName),
			huh.NewInput().
				Title("Completion API base URL").
				Value(&a.ChatURL),
			huh.NewInput().
				Title("Completion model").
				Value(&a.ChatName),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Session store").
				Options(
					huh.NewOption("In-memory (sessions lost on restart)", "memory"),
					huh.NewOption("SQLite (sessions survive restarts)", "sqlite"),
				).
				Value(&a.Backend),
			huh.NewInput().
				Title("SQLite database path").
				Description("Used only with the sqlite store").
				Value(&a.SQLitePath),
		),
	)
}

func renderConfig(a initAnswers) []byte {
	cfg := fmt.Sprintf(`version: "1"

server:
  listen: %q
`, a.Listen)
	if a.AdminToken != "" {
		cfg += fmt.Sprintf("  admin_token: %q\n", a.AdminToken)
	}
	cfg += fmt.Sprintf(`
corpus:
  path: %q

embedding:
  base_url: %q
  model: %q

completion:
  base_url: %q
  model: %q
  api_key_env: "VITRINE_API_KEY"

memory:
  backend: %q
`, a.CorpusPath, a.EmbeddingURL, a.EmbeddingName, a.ChatURL, a.ChatName, a.Backend)
	if a.Backend == "sqlite" {
		path := a.SQLitePath
		if path == "" {
			path = "vitrine.db"
		}
		cfg += fmt.Sprintf("  path: %q\n", path)
	}
	return []byte(cfg)
}
