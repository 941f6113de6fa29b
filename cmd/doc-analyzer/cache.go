package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/doc-analyzer/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the conversion result cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached conversion results",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.Open(appConfig().Cache)
		if err != nil {
			return fmt.Errorf("opening result cache: %w", err)
		}
		defer store.Close()

		n, err := store.Len()
		if err != nil {
			return err
		}
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Printf("removed %d cached results\n", n)
		return nil
	},
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the number of cached conversion results",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.Open(appConfig().Cache)
		if err != nil {
			return fmt.Errorf("opening result cache: %w", err)
		}
		defer store.Close()

		n, err := store.Len()
		if err != nil {
			return err
		}
		fmt.Printf("%d cached results\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
	rootCmd.AddCommand(cacheCmd)
}
