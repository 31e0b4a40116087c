package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newSnapshotCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "snapshot FILE",
		Short: "Print the structure of a machine config as YAML or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(args[0])
			if err != nil {
				return err
			}

			snap := config.Snapshot()

			var data []byte
			if asJSON {
				data, err = json.MarshalIndent(snap, "", "  ")
				data = append(data, '\n')
			} else {
				data, err = yaml.Marshal(snap)
			}

			if err != nil {
				return fmt.Errorf("encode snapshot: %w", err)
			}

			_, err = cmd.OutOrStdout().Write(data)

			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of YAML")

	return cmd
}
