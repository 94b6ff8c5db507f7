package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "presserdigest",
		Short:        "Build a daily digest of NBA press-conference moments",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runDigest,
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.PersistentFlags().String("config", "", "Path to presserdigest.toml (default ./presserdigest.toml)")
	root.Flags().Int("hours", 0, "Look back this many hours for new videos")
	root.Flags().Int("max-clips", 0, "Maximum clips in the digest")
	root.Flags().String("out", "", "Output directory")
	root.Flags().Bool("dry-run", false, "Stop after the digest plan; download and render nothing")

	root.AddCommand(newReplayCmd(), newConfigCmd())
	return root
}
