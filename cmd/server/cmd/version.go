package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/hackbox-events/server/internal/api"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the version number, git commit, build date, and Go runtime version.

With --json the output matches the body served at GET /version, which makes it
easy to check that a deployed server runs the expected build.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := api.NewBuildInfo(Version, GitCommit, BuildDate)
		out := cmd.OutOrStdout()
		if versionJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}
		fmt.Fprintf(out, "Hackbox Events Server %s\n", info.Version)
		fmt.Fprintf(out, "  commit:   %s\n", info.GitCommit)
		fmt.Fprintf(out, "  built:    %s\n", info.BuildDate)
		fmt.Fprintf(out, "  go:       %s\n", info.GoVersion)
		fmt.Fprintf(out, "  platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "print the /version response body")
}
