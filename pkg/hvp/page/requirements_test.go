package page

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequirements_OrderAndDeduplication(t *testing.T) {
	r := New()

	r.Stylesheet("/a.css")
	r.Stylesheet("/b.css")
	r.Stylesheet("/a.css")
	r.Script("/head.js", true)
	r.Script("/foot.js", false)
	r.Script("/head.js", false)
	r.LocalizedString("fullscreen", "hvp")
	r.LocalizedString("fullscreen", "hvp")

	snap := r.Snapshot()
	assert.Equal(t, []string{"/a.css", "/b.css"}, snap.Stylesheets)
	assert.Equal(t, []string{"/head.js"}, snap.HeadScripts)
	assert.Equal(t, []string{"/foot.js"}, snap.FootScripts)
	assert.Equal(t, map[string][]string{"hvp": {"fullscreen"}}, snap.Strings)
}

func TestRequirements_DataReplacesNamespace(t *testing.T) {
	r := New()

	r.Data("hvp", map[string]int{"v": 1}, true)
	r.Data("other", "x", false)
	r.Data("hvp", map[string]int{"v": 2}, true)

	snap := r.Snapshot()
	require.Len(t, snap.Data, 2)
	assert.Equal(t, "hvp", snap.Data[0].Namespace)
	assert.Equal(t, map[string]int{"v": 2}, snap.Data[0].Value)
}

func TestRequirements_WriteHeadAndFooter(t *testing.T) {
	r := New()
	r.Stylesheet("/s.css")
	r.Script("/h.js", true)
	r.Script("/f.js", false)
	r.Data("hvp", map[string]string{"k": "</script>"}, true)

	var head bytes.Buffer
	require.NoError(t, r.WriteHead(&head))
	out := head.String()
	assert.Contains(t, out, `<link rel="stylesheet" type="text/css" href="/s.css" />`)
	assert.Contains(t, out, `<script type="text/javascript" src="/h.js"></script>`)
	assert.Contains(t, out, `var hvp = {"k":"\u003c/script\u003e"};`)
	assert.NotContains(t, out, "/f.js")

	var foot bytes.Buffer
	require.NoError(t, r.WriteFooter(&foot))
	assert.Equal(t, "<script type=\"text/javascript\" src=\"/f.js\"></script>\n", foot.String())
}
