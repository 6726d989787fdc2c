package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tendant/simple-hvp/pkg/hvp"
	"github.com/tendant/simple-hvp/pkg/hvp/page"
)

var (
	viewEmbed string
	viewHTML  bool
)

func init() {
	viewCmd.Flags().StringVar(&viewEmbed, "embed", string(hvp.EmbedDiv), "Embed type: div or iframe")
	viewCmd.Flags().BoolVar(&viewHTML, "html", false, "Print the page head and footer markup")
}

var assetsCmd = &cobra.Command{
	Use:   "assets <id>",
	Short: "List the preloaded scripts and styles of a content instance",
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

		manifest, err := components.Service.ResolveAssetPaths(cmd.Context(), id)
		if err != nil {
			return err
		}

		if structured() {
			return printOutput(out(cmd), manifest)
		}
		rows := make([][]string, 0, len(manifest.PreloadedJS)+len(manifest.PreloadedCSS))
		for _, js := range manifest.PreloadedJS {
			rows = append(rows, []string{"script", js})
		}
		for _, css := range manifest.PreloadedCSS {
			rows = append(rows, []string{"style", css})
		}
		printTable(out(cmd), []string{"Type", "URL"}, rows)
		return nil
	},
}

var viewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Render the page requirements and settings of a content instance",
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

		reqs := page.New()
		settings, err := components.Service.AddScriptsAndStyles(cmd.Context(), instance, hvp.EmbedType(viewEmbed), reqs)
		if err != nil {
			return err
		}

		if viewHTML {
			if err := reqs.WriteHead(out(cmd)); err != nil {
				return err
			}
			return reqs.WriteFooter(out(cmd))
		}
		if structured() {
			return printOutput(out(cmd), map[string]any{
				"requirements": reqs.Snapshot(),
				"settings":     settings,
			})
		}

		snap := reqs.Snapshot()
		var rows [][]string
		for _, css := range snap.Stylesheets {
			rows = append(rows, []string{"stylesheet", css})
		}
		for _, js := range snap.HeadScripts {
			rows = append(rows, []string{"script", js})
		}
		for component, keys := range snap.Strings {
			rows = append(rows, []string{"string", component + ": " + strings.Join(keys, ", ")})
		}
		if entry := settings.Content[hvp.ContentKey(id)]; entry != nil {
			for _, js := range entry.Scripts {
				rows = append(rows, []string{"bundle script", js})
			}
			for _, css := range entry.Styles {
				rows = append(rows, []string{"bundle style", css})
			}
		}
		printTable(out(cmd), []string{"Kind", "Value"}, rows)
		fmt.Fprintf(out(cmd), "\nSettings bundle %q registered for %s\n", hvp.SettingsNamespace, hvp.ContentKey(id))
		return nil
	},
}
