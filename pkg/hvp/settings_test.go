package hvp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-hvp/pkg/hvp"
	"github.com/tendant/simple-hvp/pkg/hvp/core"
	"github.com/tendant/simple-hvp/pkg/hvp/page"
	"github.com/tendant/simple-hvp/pkg/hvp/repo/memory"
)

const wwwRoot = "https://lms.example.com"

var (
	fooJS = []string{
		"/mod/hvp/files/libraries/Foo-1.0/a.js",
		"/mod/hvp/files/libraries/Foo-1.0/b.js",
	}
	fooCSS      = []string{"/mod/hvp/files/libraries/Foo-1.0/s.css"}
	coreScripts = []string{"/mod/hvp/library/js/jquery.js", "/mod/hvp/library/js/h5p.js"}
	coreStyles  = []string{"/mod/hvp/library/styles/h5p.css"}
)

func newAssembler(repo hvp.Repository) *hvp.SettingsAssembler {
	resolver := hvp.NewAssetResolver(repo, core.New(), "")
	return hvp.NewSettingsAssembler(resolver, core.New(), wwwRoot+"/", "", "")
}

func TestSettingsAssembler_Div(t *testing.T) {
	repo := memory.New()
	instance := fooFixture(t, repo)
	renderer := &recordingRenderer{}

	settings, err := newAssembler(repo).Assemble(context.Background(), instance, hvp.EmbedDiv, renderer)
	require.NoError(t, err)

	assert.Equal(t, append(append([]string{}, coreStyles...), fooCSS...), renderer.stylesheets)
	assert.Equal(t, append(append([]string{"/mod/hvp/hvp.js"}, coreScripts...), fooJS...), renderer.scripts)
	assert.Equal(t, []string{"hvp:fullscreen"}, renderer.strings)
	assert.Same(t, settings, renderer.data[hvp.SettingsNamespace])

	assert.Equal(t, wwwRoot+"/mod/hvp/files/content/", settings.ContentPath)
	assert.Equal(t, wwwRoot+"/mod/hvp/files/libraries/", settings.LibraryPath)
	assert.False(t, settings.ExportEnabled)
	assert.Nil(t, settings.Core)
	assert.Equal(t, []string{wwwRoot + fooJS[0], wwwRoot + fooJS[1]}, settings.LoadedJS)
	assert.Equal(t, []string{wwwRoot + fooCSS[0]}, settings.LoadedCSS)

	entry := settings.Content[hvp.ContentKey(instance.ID)]
	require.NotNil(t, entry)
	assert.Equal(t, `{"question":"?"}`, entry.JSONContent)
	assert.True(t, entry.FullScreen)
	assert.Empty(t, entry.Scripts)
	assert.Empty(t, entry.Styles)
}

func TestSettingsAssembler_Iframe(t *testing.T) {
	repo := memory.New()
	instance := fooFixture(t, repo)
	renderer := &recordingRenderer{}

	settings, err := newAssembler(repo).Assemble(context.Background(), instance, hvp.EmbedIframe, renderer)
	require.NoError(t, err)

	assert.Equal(t, coreStyles, renderer.stylesheets)
	assert.Equal(t, append([]string{"/mod/hvp/hvp.js"}, coreScripts...), renderer.scripts)
	assert.Empty(t, settings.LoadedJS)
	assert.Empty(t, settings.LoadedCSS)

	entry := settings.Content[hvp.ContentKey(instance.ID)]
	require.NotNil(t, entry)
	assert.Equal(t, fooJS, entry.Scripts)
	assert.Equal(t, fooCSS, entry.Styles)

	require.NotNil(t, settings.Core)
	assert.Equal(t, append([]string{"/mod/hvp/hvp.js"}, coreScripts...), settings.Core.Scripts)
	assert.Equal(t, coreStyles, settings.Core.Styles)
}

func TestSettingsAssembler_UnknownEmbedTypeIsStandalone(t *testing.T) {
	repo := memory.New()
	instance := fooFixture(t, repo)
	renderer := &recordingRenderer{}

	settings, err := newAssembler(repo).Assemble(context.Background(), instance, hvp.EmbedType("external"), renderer)
	require.NoError(t, err)
	assert.NotNil(t, settings.Core)
	assert.NotContains(t, renderer.scripts, fooJS[0])
}

func TestSettingsAssembler_StandaloneWithoutDependencies(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	libraryID, err := repo.SaveLibrary(ctx, &hvp.LibraryRecord{
		Library:  hvp.Library{MachineName: "Bar", MajorVersion: 2, MinorVersion: 1},
		Runnable: true,
	})
	require.NoError(t, err)
	id, err := repo.CreateInstance(ctx, &hvp.ContentInstance{Name: "Empty", MainLibraryID: libraryID})
	require.NoError(t, err)
	instance, err := repo.GetInstance(ctx, id)
	require.NoError(t, err)

	settings, err := newAssembler(repo).Assemble(ctx, instance, hvp.EmbedIframe, &recordingRenderer{})
	require.NoError(t, err)

	encoded, err := json.Marshal(settings.Content[hvp.ContentKey(id)])
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonContent":"","fullScreen":false,"scripts":[],"styles":[]}`, string(encoded))

	// div bundles leave the lists out.
	settings, err = newAssembler(repo).Assemble(ctx, instance, hvp.EmbedDiv, &recordingRenderer{})
	require.NoError(t, err)
	encoded, err = json.Marshal(settings.Content[hvp.ContentKey(id)])
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonContent":"","fullScreen":false}`, string(encoded))
}

func TestSettingsAssembler_CustomFilesPath(t *testing.T) {
	repo := memory.New()
	instance := fooFixture(t, repo)
	resolver := hvp.NewAssetResolver(repo, core.New(), "/static/h5p")
	assembler := hvp.NewSettingsAssembler(resolver, core.New(), wwwRoot, "", "/static/h5p/")

	settings, err := assembler.Assemble(context.Background(), instance, hvp.EmbedDiv, &recordingRenderer{})
	require.NoError(t, err)

	assert.Equal(t, wwwRoot+"/static/h5p/content/", settings.ContentPath)
	assert.Equal(t, wwwRoot+"/static/h5p/libraries/", settings.LibraryPath)
	assert.Equal(t, []string{
		wwwRoot + "/static/h5p/libraries/Foo-1.0/a.js",
		wwwRoot + "/static/h5p/libraries/Foo-1.0/b.js",
	}, settings.LoadedJS)
}

func TestSettingsAssembler_PageOutput(t *testing.T) {
	repo := memory.New()
	instance := fooFixture(t, repo)
	reqs := page.New()

	_, err := newAssembler(repo).Assemble(context.Background(), instance, hvp.EmbedDiv, reqs)
	require.NoError(t, err)

	var head bytes.Buffer
	require.NoError(t, reqs.WriteHead(&head))
	out := head.String()
	assert.Contains(t, out, `href="/mod/hvp/files/libraries/Foo-1.0/s.css"`)
	assert.Contains(t, out, `src="/mod/hvp/files/libraries/Foo-1.0/a.js"`)
	assert.Contains(t, out, "var hvp = ")

	snap := reqs.Snapshot()
	require.Len(t, snap.Data, 1)

	encoded, err := json.Marshal(snap.Data[0].Value)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Contains(t, decoded, "loadedJs")
	assert.NotContains(t, decoded, "core")
	content := decoded["content"].(map[string]interface{})
	entry := content[hvp.ContentKey(instance.ID)].(map[string]interface{})
	assert.Equal(t, `{"question":"?"}`, entry["jsonContent"])
	assert.Equal(t, true, entry["fullScreen"])
}

func TestContentKey(t *testing.T) {
	assert.Equal(t, "cid-42", hvp.ContentKey(42))
}
