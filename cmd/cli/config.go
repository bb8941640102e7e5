package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/mp3-extract-go/internal/app"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := app.LoadConfig(configPath)
		if err != nil {
			return err
		}

		fmt.Printf("# %s\n", app.FindConfigFile(configPath))
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, key := range app.ConfigKeys() {
			value, _ := app.ConfigValue(config, key)
			fmt.Fprintf(w, "%s\t%v\n", key, value)
		}
		return w.Flush()
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting and save the config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := app.LoadConfig(configPath)
		if err != nil {
			return err
		}

		updated, err := app.UpdateConfig(config, args[0], args[1])
		if err != nil {
			return err
		}

		path := app.FindConfigFile(configPath)
		if err := app.SaveConfig(updated, path); err != nil {
			return err
		}

		value, _ := app.ConfigValue(updated, args[0])
		fmt.Printf("%s = %v (saved to %s)\n", args[0], value, path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
