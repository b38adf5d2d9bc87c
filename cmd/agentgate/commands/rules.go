package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentgate-ai/agentgate/internal/config"
	"github.com/agentgate-ai/agentgate/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and manage the approval rule set",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the effective rule set",
	RunE: func(cmd *cobra.Command, args []string) error {
		ruleSet := rules.DefaultRules()
		if rulesFile != "" {
			loaded, err := config.LoadRules(rulesFile)
			if err != nil {
				return err
			}
			ruleSet = loaded
		}

		out, err := json.MarshalIndent(map[string]any{"rules": ruleSet}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var rulesInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default rule set to a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := rulesFile
		if path == "" {
			path = config.GetPaths().RulesPath()
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}

		if err := config.SaveRules(rules.DefaultRules(), path); err != nil {
			return err
		}
		fmt.Printf("Wrote default rules to %s\n", path)
		return nil
	},
}

var rulesFile string

func init() {
	rulesCmd.PersistentFlags().StringVarP(&rulesFile, "file", "f", "", "Rules file path")
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesInitCmd)
}
