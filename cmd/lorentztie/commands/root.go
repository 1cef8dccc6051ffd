package commands

import (
	"github.com/spf13/cobra"

	"lorentztie/pkg/config"
)

var (
	configPath string
	cfg        *config.Config

	unflipDir string
	flipDir   string
	outDir    string
)

func Execute() error {
	root := &cobra.Command{
		Use:   "lorentztie",
		Short: "TIE phase retrieval and magnetic induction mapping",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadConfig(configPath)
			return err
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "lorentztie.yaml", "path to YAML configuration")

	root.AddCommand(tieCmd(), sitieCmd(), initConfigCmd())
	return root.Execute()
}
