// Package memoirecmder
package memoirecmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/fahd-noodleseed/memoire/cmd/memoire/config"
	seedcmder "github.com/fahd-noodleseed/memoire/cmd/memoire/seed"
	servecmder "github.com/fahd-noodleseed/memoire/cmd/memoire/serve"
	versioncmder "github.com/fahd-noodleseed/memoire/cmd/memoire/version"
)

const memoireLongDesc string = `Memoire is semantic memory for your agents.

Store free-form text with:
  memoire serve        Run the API and MCP servers
  memoire seed         Ingest a text file through the emergent pipeline
  memoire config       Manage persistent configuration`

const memoireShortDesc string = "Memoire - Agent Semantic Memory"

func NewMemoireCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memoire",
		Short: memoireShortDesc,
		Long:  memoireLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .memoire/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(seedcmder.NewSeedCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
