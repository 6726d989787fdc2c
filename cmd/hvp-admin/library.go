package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tendant/simple-hvp/pkg/hvp"
	"github.com/tendant/simple-hvp/pkg/hvp/core"
)

var libraryCmd = &cobra.Command{
	Use:     "library",
	Aliases: []string{"libraries"},
	Short:   "Manage registered libraries",
}

var (
	libraryTitle      string
	libraryJS         string
	libraryCSS        string
	libraryEmbedTypes string
	libraryFullscreen bool
	libraryRunnable   bool
	libraryPatch      int
)

func init() {
	libraryCmd.AddCommand(libraryAddCmd)
	libraryCmd.AddCommand(libraryGetCmd)

	libraryAddCmd.Flags().StringVar(&libraryTitle, "title", "", "Library title")
	libraryAddCmd.Flags().StringVar(&libraryJS, "js", "", "Comma separated preloaded scripts")
	libraryAddCmd.Flags().StringVar(&libraryCSS, "css", "", "Comma separated preloaded styles")
	libraryAddCmd.Flags().StringVar(&libraryEmbedTypes, "embed-types", "div,iframe", "Supported embed types")
	libraryAddCmd.Flags().BoolVar(&libraryFullscreen, "fullscreen", false, "Library supports fullscreen")
	libraryAddCmd.Flags().BoolVar(&libraryRunnable, "runnable", true, "Library can be a main library")
	libraryAddCmd.Flags().IntVar(&libraryPatch, "patch", 0, "Patch version")
}

var libraryAddCmd = &cobra.Command{
	Use:   "add <Name-major.minor>",
	Short: "Register a library, or update the one with the same name and version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		library, ok := core.ParseLibraryString(args[0])
		if !ok {
			return fmt.Errorf("invalid library %q (expected e.g. H5P.MultiChoice-1.16)", args[0])
		}

		components, err := openComponents(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer components.Close()

		title := libraryTitle
		if title == "" {
			title = library.MachineName
		}
		id, err := components.Service.SaveLibrary(cmd.Context(), &hvp.LibraryRecord{
			Library:      library,
			Title:        title,
			PatchVersion: libraryPatch,
			Runnable:     libraryRunnable,
			Fullscreen:   libraryFullscreen,
			EmbedTypes:   libraryEmbedTypes,
			PreloadedJS:  libraryJS,
			PreloadedCSS: libraryCSS,
		})
		if err != nil {
			return err
		}

		if structured() {
			return printOutput(out(cmd), map[string]int64{"id": id})
		}
		fmt.Fprintf(out(cmd), "Saved library %s as %d\n", core.LibraryToString(library, false), id)
		return nil
	},
}

var libraryGetCmd = &cobra.Command{
	Use:   "get <id|Name-major.minor>",
	Short: "Show a registered library by id or by name and version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		components, err := openComponents(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer components.Close()

		var library *hvp.LibraryRecord
		if name, ok := core.ParseLibraryString(args[0]); ok {
			library, err = components.Service.GetLibraryByName(cmd.Context(), name)
		} else {
			id, parseErr := parseID(args[0])
			if parseErr != nil {
				return fmt.Errorf("invalid library %q (expected an id or e.g. H5P.MultiChoice-1.16)", args[0])
			}
			library, err = components.Service.GetLibrary(cmd.Context(), id)
		}
		if err != nil {
			return err
		}

		if structured() {
			return printOutput(out(cmd), library)
		}
		printTable(out(cmd), []string{"ID", "Library", "Title", "Preloaded JS", "Preloaded CSS"}, [][]string{{
			strconv.FormatInt(library.ID, 10),
			core.LibraryToString(library.Library, true),
			library.Title,
			library.PreloadedJS,
			library.PreloadedCSS,
		}})
		return nil
	},
}
