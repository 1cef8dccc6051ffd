package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"lorentztie/pkg/config"
)

// init-config: write a default configuration file to edit by hand.
func initConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.CreateDefaultConfigFile(configPath); err != nil {
				return err
			}
			fmt.Printf("Wrote default configuration to %s\n", configPath)
			return nil
		},
	}
}
