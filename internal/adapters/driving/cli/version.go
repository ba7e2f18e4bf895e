package cli

import (
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docia/internal/core/domain"
)

var versionJSON bool

// versionInfo is the machine-readable form of `docia version --json`.
type versionInfo struct {
	Version    string `json:"version"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
	Collection string `json:"default_collection"`
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print the version number",
	Annotations: map[string]string{annotationNoBootstrap: "true"},
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := currentVersion()
		if versionJSON {
			return outputJSON(cmd, info)
		}
		cmd.Printf("docia version %s\n", info.Version)
		cmd.Printf("  %s %s\n", info.GoVersion, info.Platform)
		return nil
	},
}

// currentVersion prefers the -ldflags version and falls back to the module
// version recorded by `go install`.
func currentVersion() versionInfo {
	v := version
	if v == "dev" {
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			v = bi.Main.Version
		}
	}
	return versionInfo{
		Version:    v,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
		Collection: domain.DefaultCollection,
	}
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(versionCmd)
}
