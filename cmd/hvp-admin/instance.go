package main

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tendant/simple-hvp/pkg/hvp"
	"github.com/tendant/simple-hvp/pkg/hvp/packagestore"
)

var instanceCmd = &cobra.Command{
	Use:     "instance",
	Aliases: []string{"instances"},
	Short:   "Manage content instances",
}

var (
	instanceName    string
	instanceCourse  int64
	instancePackage string
	instanceJSON    string
	instanceLibrary int64
)

func init() {
	instanceCmd.AddCommand(instanceGetCmd)
	instanceCmd.AddCommand(instanceCreateCmd)
	instanceCmd.AddCommand(instanceUpdateCmd)
	instanceCmd.AddCommand(instanceDeleteCmd)
	instanceCmd.AddCommand(instanceLibrariesCmd)

	instanceCreateCmd.Flags().StringVar(&instanceName, "name", "", "Instance name")
	instanceCreateCmd.Flags().Int64Var(&instanceCourse, "course", 0, "Course id")
	instanceCreateCmd.Flags().StringVar(&instancePackage, "package", "", "Directory holding an unpacked package")
	instanceCreateCmd.MarkFlagRequired("name")

	instanceUpdateCmd.Flags().StringVar(&instanceName, "name", "", "New instance name")
	instanceUpdateCmd.Flags().StringVar(&instanceJSON, "json-content", "", "New JSON content")
	instanceUpdateCmd.Flags().Int64Var(&instanceLibrary, "main-library", 0, "New main library id")
	instanceUpdateCmd.Flags().StringVar(&instancePackage, "package", "", "Directory holding a replacement package")
}

var instanceGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a content instance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		components, err := openComponents(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer components.Close()

		instance, err := components.Service.GetInstance(cmd.Context(), id)
		if err != nil {
			return err
		}

		if structured() {
			return printOutput(out(cmd), instance)
		}
		printTable(out(cmd), []string{"ID", "Name", "Course", "Main Library", "Fullscreen", "Content"}, [][]string{{
			strconv.FormatInt(instance.ID, 10),
			instance.Name,
			strconv.FormatInt(instance.Course, 10),
			fmt.Sprintf("%s %d.%d", instance.MainLibrary.MachineName, instance.MainLibrary.MajorVersion, instance.MainLibrary.MinorVersion),
			strconv.FormatBool(instance.Fullscreen),
			truncate(instance.JSONContent, 40),
		}})
		return nil
	},
}

var instanceCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a content instance, optionally from an unpacked package",
	RunE: func(cmd *cobra.Command, args []string) error {
		components, err := openComponents(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer components.Close()

		req := hvp.CreateInstanceRequest{Name: instanceName, Course: instanceCourse}
		if instancePackage != "" {
			files, err := readPackageDir(instancePackage)
			if err != nil {
				return err
			}
			if req.UploadKey, err = components.Packages.Stage(cmd.Context(), files); err != nil {
				return err
			}
		}

		id, err := components.Service.CreateInstance(cmd.Context(), req)
		if err != nil && id == 0 {
			return err
		}
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: instance %d created but its package was not saved: %v\n", id, err)
		}

		if structured() {
			return printOutput(out(cmd), map[string]int64{"id": id})
		}
		fmt.Fprintf(out(cmd), "Created instance %d\n", id)
		return nil
	},
}

var instanceUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a content instance row and optionally replace its package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		components, err := openComponents(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer components.Close()

		instance, err := components.Repository.GetInstanceRow(cmd.Context(), id)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("name") {
			instance.Name = instanceName
		}
		if cmd.Flags().Changed("json-content") {
			instance.JSONContent = instanceJSON
		}
		if cmd.Flags().Changed("main-library") {
			instance.MainLibraryID = instanceLibrary
		}

		req := hvp.UpdateInstanceRequest{Instance: instance}
		if instancePackage != "" {
			files, err := readPackageDir(instancePackage)
			if err != nil {
				return err
			}
			if req.UploadKey, err = components.Packages.Stage(cmd.Context(), files); err != nil {
				return err
			}
		}

		result, err := components.Service.UpdateInstance(cmd.Context(), req)
		if err != nil {
			return err
		}

		packageError := ""
		if result.PackageErr != nil {
			packageError = result.PackageErr.Error()
		}
		if structured() {
			return printOutput(out(cmd), map[string]any{
				"row_updated":     result.RowUpdated,
				"package_updated": result.PackageUpdated,
				"package_error":   packageError,
			})
		}
		printTable(out(cmd), []string{"Row Updated", "Package Updated", "Package Error"}, [][]string{{
			strconv.FormatBool(result.RowUpdated),
			strconv.FormatBool(result.PackageUpdated),
			packageError,
		}})
		return nil
	},
}

var instanceDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a content instance and its package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		components, err := openComponents(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer components.Close()

		deleted, err := components.Service.DeleteInstance(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("instance %d: %w", id, hvp.ErrInstanceNotFound)
		}
		fmt.Fprintf(out(cmd), "Deleted instance %d\n", id)
		return nil
	},
}

var instanceLibrariesCmd = &cobra.Command{
	Use:   "set-libraries <id> <library-id>...",
	Short: "Replace the preloaded libraries of a content instance, in weight order",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		usages := make([]hvp.LibraryUsage, 0, len(args)-1)
		for i, arg := range args[1:] {
			libraryID, err := parseID(arg)
			if err != nil {
				return err
			}
			usages = append(usages, hvp.LibraryUsage{LibraryID: libraryID, Weight: i + 1})
		}

		components, err := openComponents(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer components.Close()

		if err := components.Service.SetContentLibraries(cmd.Context(), id, usages); err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "Instance %d uses %d libraries\n", id, len(usages))
		return nil
	},
}

// readPackageDir loads every file under dir, keyed by its slash-separated
// path relative to dir.
func readPackageDir(dir string) ([]packagestore.File, error) {
	var files []packagestore.File
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		files = append(files, packagestore.File{Path: filepath.ToSlash(rel), Body: bytes.NewReader(data)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read package directory: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("package directory %s is empty", dir)
	}
	return files, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
