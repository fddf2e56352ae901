// cmd/tools/registry-updater/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"ticket-triage/pkg/registry"
)

const defaultPath = "configs/agents.yaml"

func main() {
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	listPath := listCmd.String("path", defaultPath, "Path to registry file")

	updatePath := updateCmd.String("path", defaultPath, "Path to registry file")
	id := updateCmd.String("id", "", "Agent ID to update")
	field := updateCmd.String("field", "", "Field to update (displayName, description, stage, timeout, retries, llmBacked)")
	value := updateCmd.String("value", "", "New value for the field")

	validatePath := validateCmd.String("path", defaultPath, "Path to registry file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "list":
		listCmd.Parse(os.Args[2:])
		reg := mustLoad(*listPath)
		for _, a := range reg.Agents {
			kind := "heuristic"
			if a.LLMBacked {
				kind = "llm"
			}
			fmt.Printf("%-26s %-20s %-9s %s\n", a.TaskType, a.Stage, kind, a.DisplayName)
		}

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *id == "" || *field == "" || *value == "" {
			fmt.Println("Error: id, field, and value are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		reg := mustLoad(*updatePath)
		if err := reg.Set(*id, *field, *value); err != nil {
			fmt.Printf("Error updating agent: %v\n", err)
			os.Exit(1)
		}
		reg.LastUpdated = time.Now().Format("2006-01-02")
		if err := reg.Save(*updatePath); err != nil {
			fmt.Printf("Error saving registry: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated agent %s, field %s to %s\n", *id, *field, *value)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		reg := mustLoad(*validatePath)
		if err := reg.Validate(); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registry validation passed. Found %d agents.\n", len(reg.Agents))

	default:
		help()
	}
}

func mustLoad(path string) *registry.AgentRegistry {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		fmt.Printf("Error loading registry: %v\n", err)
		os.Exit(1)
	}
	return reg
}

func help() {
	fmt.Println(`
Usage: registry-updater <command> [flags]

Commands:
  list     Print the registered agents
  update   Update one field of an agent
  validate Validate the registry file
  help     Show this help message

Examples:
  registry-updater list
  registry-updater update -id router -field timeout -value 45s
  registry-updater validate -path configs/agents.yaml`)
}
