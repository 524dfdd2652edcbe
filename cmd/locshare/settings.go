package main

import (
	"fmt"
	"io"

	"github.com/nao1215/locshare/internal/config"
	"github.com/nao1215/locshare/internal/report"
)

// applyConfigFile overlays the configuration file onto cfg.
// If the user explicitly named a file that does not exist, it is an error;
// otherwise a missing file leaves cfg untouched.
func applyConfigFile(cfg *config.Config, path string) error {
	found := config.FindConfigFile(path)
	if found == "" {
		if path != "" {
			return fmt.Errorf("configuration file not found: %s", path)
		}
		return nil
	}

	file, err := config.LoadConfigFile(found)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", found, err)
	}
	file.Apply(cfg)
	cfg.ConfigFilePath = found

	return nil
}

// applyEnvironment overlays the process environment and the dotenv file.
func applyEnvironment(cfg *config.Config, envFile string) error {
	lookup, err := config.EnvLookup(envFile)
	if err != nil {
		return err
	}
	return config.ApplyEnv(cfg, lookup)
}

// newReportWriter returns the writer for the selected output format.
func newReportWriter(out io.Writer, jsonReport, markdownReport, verbose bool) report.Writer {
	switch {
	case jsonReport:
		return report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case markdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(verbose))
	}
}
