package cli

import (
	"github.com/spf13/cobra"

	"github.com/forPelevin/presserdigest/internal/pipeline"
)

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <run-dir>",
		Short: "Rebuild the digest plan of a previous run from its saved artifacts",
		Long: "Reloads transcripts.json and candidates.json from a run directory and reruns\n" +
			"validation, deduplication and selection offline with the run's saved policy.\n" +
			"--max-clips overrides the saved value. No network access is needed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			p, err := pipeline.ReplayPolicy(args[0], cfg.Policy())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-clips") {
				p.MaxClips = cfg.Digest.MaxClips
			}
			_, err = pipeline.Replay(args[0], p, cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().Int("max-clips", 0, "Maximum clips in the digest")
	return cmd
}
