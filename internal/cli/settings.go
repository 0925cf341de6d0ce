package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cogload/internal/settings"
)

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect or edit the user-tunable settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openSettings()
		if err != nil {
			return err
		}
		return printJSON(st.Current())
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set key=value [key=value ...]",
	Short: "Patch one or more settings fields",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch, err := parseSettingsArgs(args)
		if err != nil {
			return err
		}
		st, err := openSettings()
		if err != nil {
			return err
		}
		updated, err := st.Update(patch)
		if err != nil {
			return err
		}
		return printJSON(updated)
	},
}

func openSettings() (*settings.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return settings.Open(filepath.Join(cfg.DataDir, "settings.json")), nil
}

// parseSettingsArgs turns ["high_load_threshold=0.8", "short_break_seconds=300"]
// into a patch map, coercing values that look numeric.
func parseSettingsArgs(args []string) (map[string]any, error) {
	patch := make(map[string]any, len(args))
	for _, a := range args {
		key, val, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("malformed assignment %q, want key=value", a)
		}
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			patch[key] = f
			continue
		}
		patch[key] = val
	}
	return patch, nil
}

func printJSON(v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}
