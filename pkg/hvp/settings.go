package hvp

import (
	"context"
	"fmt"
	"strings"
)

// DefaultModulePath is the URL path of the host module.
const DefaultModulePath = "/mod/hvp"

// SettingsNamespace is the name the settings bundle is registered under.
const SettingsNamespace = "hvp"

// Settings is the data bundle the embedded runtime reads on page load.
type Settings struct {
	Content       map[string]*InstanceSettings `json:"content"`
	ContentPath   string                       `json:"contentPath"`
	ExportEnabled bool                         `json:"exportEnabled"`
	LibraryPath   string                       `json:"libraryPath"`
	LoadedJS      []string                     `json:"loadedJs,omitempty"`
	LoadedCSS     []string                     `json:"loadedCss,omitempty"`
	Core          *CoreAssets                  `json:"core,omitempty"`
}

// InstanceSettings holds the per-instance part of the bundle.
type InstanceSettings struct {
	JSONContent string   `json:"jsonContent"`
	FullScreen  bool     `json:"fullScreen"`
	Scripts     []string `json:"scripts,omitzero"`
	Styles      []string `json:"styles,omitzero"`
}

// CoreAssets lists the runtime's own assets for standalone embeds.
type CoreAssets struct {
	Scripts []string `json:"scripts"`
	Styles  []string `json:"styles"`
}

// ContentKey returns the bundle key of a content instance.
func ContentKey(id int64) string {
	return fmt.Sprintf("cid-%d", id)
}

// SettingsAssembler registers the assets a content instance needs with a
// Renderer and builds its settings bundle.
type SettingsAssembler struct {
	resolver   *AssetResolver
	core       Core
	wwwRoot    string
	modulePath string
	filesPath  string
}

// NewSettingsAssembler creates an assembler. wwwRoot is the absolute site
// URL prefixed to paths the runtime loads itself. filesPath is where package
// content and libraries are served and defaults to modulePath + "/files".
func NewSettingsAssembler(resolver *AssetResolver, core Core, wwwRoot, modulePath, filesPath string) *SettingsAssembler {
	if modulePath == "" {
		modulePath = DefaultModulePath
	}
	modulePath = strings.TrimRight(modulePath, "/")
	if filesPath == "" {
		filesPath = modulePath + "/files"
	}
	return &SettingsAssembler{
		resolver:   resolver,
		core:       core,
		wwwRoot:    strings.TrimRight(wwwRoot, "/"),
		modulePath: modulePath,
		filesPath:  strings.TrimRight(filesPath, "/"),
	}
}

func (a *SettingsAssembler) coreStyles() []string {
	styles := make([]string, 0, len(a.core.Styles()))
	for _, style := range a.core.Styles() {
		styles = append(styles, a.modulePath+"/library/"+style)
	}
	return styles
}

func (a *SettingsAssembler) coreScripts() []string {
	scripts := make([]string, 0, len(a.core.Scripts()))
	for _, script := range a.core.Scripts() {
		scripts = append(scripts, a.modulePath+"/library/"+script)
	}
	return scripts
}

// Assemble registers the runtime assets and the instance's dependencies with
// renderer and returns the settings bundle, which is also registered as data.
//
// For EmbedDiv the dependency assets are registered on the page. For any
// other embed type nothing from the manifest reaches the page; scripts and
// styles are carried in the bundle together with the runtime's own assets.
func (a *SettingsAssembler) Assemble(ctx context.Context, instance *ContentInstance, embedType EmbedType, renderer Renderer) (*Settings, error) {
	hvpScript := a.modulePath + "/hvp.js"
	coreStyles := a.coreStyles()
	coreScripts := a.coreScripts()

	for _, style := range coreStyles {
		renderer.Stylesheet(style)
	}
	renderer.Script(hvpScript, true)
	renderer.LocalizedString("fullscreen", SettingsNamespace)
	for _, script := range coreScripts {
		renderer.Script(script, true)
	}

	key := ContentKey(instance.ID)
	settings := &Settings{
		Content: map[string]*InstanceSettings{
			key: {
				JSONContent: instance.JSONContent,
				FullScreen:  instance.Fullscreen,
			},
		},
		ContentPath:   a.wwwRoot + a.filesPath + "/content/",
		ExportEnabled: false,
		LibraryPath:   a.wwwRoot + a.filesPath + "/libraries/",
	}

	manifest, err := a.resolver.Resolve(ctx, instance.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve assets for instance %d: %w", instance.ID, err)
	}

	if embedType == EmbedDiv {
		for _, script := range manifest.PreloadedJS {
			renderer.Script(script, true)
			settings.LoadedJS = append(settings.LoadedJS, a.wwwRoot+script)
		}
		for _, style := range manifest.PreloadedCSS {
			renderer.Stylesheet(style)
			settings.LoadedCSS = append(settings.LoadedCSS, a.wwwRoot+style)
		}
	} else {
		settings.Core = &CoreAssets{
			Scripts: append([]string{hvpScript}, coreScripts...),
			Styles:  coreStyles,
		}
		// The standalone runtime reads both lists unconditionally.
		settings.Content[key].Scripts = append([]string{}, manifest.PreloadedJS...)
		settings.Content[key].Styles = append([]string{}, manifest.PreloadedCSS...)
	}

	renderer.Data(SettingsNamespace, settings, true)
	return settings, nil
}
