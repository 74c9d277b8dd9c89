// cmd/tools/registry-updater/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	"ewaybill-workers/pkg/registry"
)

func main() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	var registryPath string
	for _, fs := range []*flag.FlagSet{addCmd, updateCmd, validateCmd} {
		fs.StringVar(&registryPath, "path", "configs/activity-registry.json", "Path to registry file")
	}

	// Add command flags
	idAdd := addCmd.String("id", "", "Activity ID (e.g., bulk-extend)")
	displayName := addCmd.String("displayName", "", "Display Name (e.g., Bulk Extend eWay Bills)")
	description := addCmd.String("description", "", "Description")
	category := addCmd.String("category", "", "Category (e.g., ewaybill)")
	taskType := addCmd.String("taskType", "", "Zeebe Task Type (e.g., ewaybill.validity.bulk-extend)")
	version := addCmd.String("version", "1.0.0", "Version")
	implStatus := addCmd.String("status", "planned", "Implementation Status (planned, in-progress, completed, verified)")
	timeout := addCmd.String("timeout", "30s", "Job timeout")

	// Update command flags
	idUpdate := updateCmd.String("id", "", "Activity ID to update")
	field := updateCmd.String("field", "", "Field to update (status, version, timeout, retries, etc.)")
	value := updateCmd.String("value", "", "New value for the field")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		addCmd.Parse(os.Args[2:])
		if *idAdd == "" || *displayName == "" || *category == "" || *taskType == "" {
			fmt.Println("Error: id, displayName, category, and taskType are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		reg, err := registry.LoadRegistry(registryPath)
		if os.IsNotExist(err) {
			reg, err = registry.New(), nil
		}
		exitOnError("failed to load registry", err)

		err = reg.Add(registry.Activity{
			ID:                   *idAdd,
			DisplayName:          *displayName,
			Description:          *description,
			Category:             *category,
			Version:              *version,
			TaskType:             *taskType,
			ImplementationStatus: *implStatus,
			InputSchema:          map[string]interface{}{},
			OutputSchema:         map[string]interface{}{},
			ErrorCodes:           []string{},
			Timeout:              *timeout,
			Workflows:            []string{},
			Tags:                 []string{},
		})
		exitOnError("Error adding activity", err)
		exitOnError("Error saving registry", reg.Save(registryPath))
		fmt.Printf("Added activity: %s\n", *idAdd)

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *idUpdate == "" || *field == "" || *value == "" {
			fmt.Println("Error: id, field, and value are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		reg, err := registry.LoadRegistry(registryPath)
		exitOnError("failed to load registry", err)
		exitOnError("Error updating activity", reg.Update(*idUpdate, *field, *value))
		exitOnError("Error saving registry", reg.Save(registryPath))
		fmt.Printf("Updated activity %s, field %s to %s\n", *idUpdate, *field, *value)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		reg, err := registry.LoadRegistry(registryPath)
		exitOnError("failed to load registry", err)
		exitOnError("Registry validation failed", reg.Validate())
		fmt.Printf("Registry validation passed. Found %d activities.\n", len(reg.Activities))

	case "help":
		fallthrough
	default:
		help()
	}
}

func exitOnError(msg string, err error) {
	if err != nil {
		fmt.Printf("%s: %v\n", msg, err)
		os.Exit(1)
	}
}

func help() {
	fmt.Print(`
Usage: registry-updater <command> [flags]

Commands:
  add      Add a new activity to the registry
  update   Update an existing activity's field
  validate Validate the registry file
  help     Show this help message

Examples:
  registry-updater add -id fetch-ewaybill -displayName "Fetch eWay Bill" -category ewaybill -taskType ewaybill.document.fetch
  registry-updater update -id fetch-ewaybill -field status -value completed
  registry-updater validate -path configs/activity-registry.json

Use 'registry-updater <command> -h' for more information about a command.
` + "\n")
}
