package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javanhut/artgit/internal/colors"
	"github.com/javanhut/artgit/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get and set configuration options",
	Long: `Get and set artgit configuration options.

Configuration can be set at two levels:
- Global (~/.artgit.yaml) - applies everywhere
- Local (./.artgit.yaml) - applies in the current directory only

Examples:
  artgit config image.model dall-e-2
  artgit config --global layout.damping 0.9
  artgit config --list
  artgit config image.size`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

var (
	configGlobal bool
	configList   bool
)

func init() {
	configCmd.Flags().BoolVar(&configGlobal, "global", false, "Use global config file")
	configCmd.Flags().BoolVar(&configList, "list", false, "List all configuration")
}

func runConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	switch {
	case configList:
		return listConfig(out)
	case len(args) == 1:
		return getConfigValue(out, args[0])
	case len(args) == 2:
		return setConfigValue(out, args[0], args[1], configGlobal)
	}
	return fmt.Errorf("invalid usage. See: artgit config --help")
}

func listConfig(out io.Writer) error {
	section := ""
	for _, key := range config.Keys() {
		value, err := cfg.GetValue(key)
		if err != nil {
			return err
		}
		if s, _, _ := strings.Cut(key, "."); s != section {
			if section != "" {
				fmt.Fprintln(out)
			}
			section = s
			fmt.Fprintln(out, colors.SectionHeader(s+":"))
		}
		fmt.Fprintf(out, "  %s = %s\n", key, colors.InfoText(value))
	}
	key := colors.Gray("(not set)")
	if cfg.Image.APIKey != "" {
		key = colors.Gray("(set)")
	}
	fmt.Fprintf(out, "\n%s %s\n", colors.SectionHeader("API key:"), key)
	return nil
}

func getConfigValue(out io.Writer, key string) error {
	value, err := cfg.GetValue(key)
	if err != nil {
		return err
	}
	if value == "" {
		fmt.Fprintf(out, "%s is %s\n", key, colors.Gray("(not set)"))
	} else {
		fmt.Fprintln(out, value)
	}
	return nil
}

func setConfigValue(out io.Writer, key, value string, global bool) error {
	path := config.FileName
	scope := "local"
	if global {
		p, err := config.GlobalPath()
		if err != nil {
			return err
		}
		path, scope = p, "global"
	}
	if err := config.SetFileValue(path, key, value); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s config: %s = %s\n",
		colors.SuccessText("Set"),
		scope,
		colors.Bold(key),
		colors.InfoText(value))
	return nil
}
