package main

import (
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dartlab/divcollect/internal/registry"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Load the company registry, refreshing the cache if stale",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("refresh")

		client := newDARTClient()
		cache := registry.NewCache(client, filepath.Join(cfg.Data.Dir, cfg.Data.RegistryFile), cfg.RegistryMaxAge())

		companies, err := cache.Load(cmd.Context(), force)
		if err != nil {
			return eris.Wrap(err, "registry")
		}

		fmt.Printf("%d listed companies\n", len(companies))
		return nil
	},
}

func init() {
	registryCmd.Flags().Bool("refresh", false, "force a refresh even if the cache is fresh")
	rootCmd.AddCommand(registryCmd)
}
