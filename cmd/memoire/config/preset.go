package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fahd-noodleseed/memoire/pkg/cliui"
	"github.com/fahd-noodleseed/memoire/pkg/config"
)

const presetLongDesc string = `Apply a provider preset to the configuration.

Presets set the embedding and intelligence providers together so a single
command yields a working pipeline against that provider. The resulting
config is written to config.toml and can be adjusted afterwards with
"memoire config set".

Available presets: openai, anthropic, ollama.

Examples:
  memoire config preset openai
  memoire config preset ollama`

const presetShortDesc string = "Apply a provider preset"

func newPresetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset <name>",
		Short: presetShortDesc,
		Long:  presetLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runPreset(args[0], configDir)
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.ValidPresetNames(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	return cmd
}

func runPreset(name, configDir string) error {
	cfg, err := config.PresetConfig(name)
	if err != nil {
		return fmt.Errorf("%w\n\nAvailable presets: %s",
			err, strings.Join(config.ValidPresetNames(), ", "))
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Printf("\n  %s Applied preset %s %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(name),
		cliui.DimStyle.Render(cfger.GetTarget()),
	)
	return nil
}
