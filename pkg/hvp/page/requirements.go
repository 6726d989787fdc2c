// Package page collects the assets and data a rendered page requires.
package page

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"sync"
)

// Requirements records stylesheets, scripts, localized strings and data
// bundles in registration order. Registering the same URL twice keeps the
// first registration, the way the host page manager loads each file once.
type Requirements struct {
	mu          sync.Mutex
	stylesheets []string
	headScripts []string
	footScripts []string
	strings     map[string][]string
	data        []DataBundle
	seen        map[string]bool
}

// DataBundle is a named value handed to page scripts.
type DataBundle struct {
	Namespace string      `json:"namespace"`
	Value     interface{} `json:"value"`
	InHead    bool        `json:"in_head"`
}

// Snapshot is a serializable view of Requirements.
type Snapshot struct {
	Stylesheets []string            `json:"stylesheets"`
	HeadScripts []string            `json:"head_scripts"`
	FootScripts []string            `json:"foot_scripts"`
	Strings     map[string][]string `json:"strings"`
	Data        []DataBundle        `json:"data"`
}

// New creates empty page requirements
func New() *Requirements {
	return &Requirements{
		strings: make(map[string][]string),
		seen:    make(map[string]bool),
	}
}

// Stylesheet registers a stylesheet URL
func (r *Requirements) Stylesheet(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seen["css:"+url] {
		return
	}
	r.seen["css:"+url] = true
	r.stylesheets = append(r.stylesheets, url)
}

// Script registers a script URL in the head or at the end of the page
func (r *Requirements) Script(url string, inHead bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seen["js:"+url] {
		return
	}
	r.seen["js:"+url] = true
	if inHead {
		r.headScripts = append(r.headScripts, url)
	} else {
		r.footScripts = append(r.footScripts, url)
	}
}

// LocalizedString registers a string page scripts may look up
func (r *Requirements) LocalizedString(key, component string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := "str:" + component + ":" + key
	if r.seen[id] {
		return
	}
	r.seen[id] = true
	r.strings[component] = append(r.strings[component], key)
}

// Data registers a named value. A later bundle with the same namespace
// replaces the earlier one.
func (r *Requirements) Data(namespace string, value interface{}, inHead bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.data {
		if r.data[i].Namespace == namespace {
			r.data[i] = DataBundle{Namespace: namespace, Value: value, InHead: inHead}
			return
		}
	}
	r.data = append(r.data, DataBundle{Namespace: namespace, Value: value, InHead: inHead})
}

// Snapshot returns a copy of the recorded requirements
func (r *Requirements) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	strs := make(map[string][]string, len(r.strings))
	for k, v := range r.strings {
		strs[k] = append([]string{}, v...)
	}
	return Snapshot{
		Stylesheets: append([]string{}, r.stylesheets...),
		HeadScripts: append([]string{}, r.headScripts...),
		FootScripts: append([]string{}, r.footScripts...),
		Strings:     strs,
		Data:        append([]DataBundle{}, r.data...),
	}
}

// WriteHead writes the head markup: stylesheets, head data bundles and head
// scripts, in that order.
func (r *Requirements) WriteHead(w io.Writer) error {
	snap := r.Snapshot()

	for _, url := range snap.Stylesheets {
		if _, err := fmt.Fprintf(w, "<link rel=\"stylesheet\" type=\"text/css\" href=\"%s\" />\n", html.EscapeString(url)); err != nil {
			return err
		}
	}
	for _, bundle := range snap.Data {
		if !bundle.InHead {
			continue
		}
		if err := writeData(w, bundle); err != nil {
			return err
		}
	}
	for _, url := range snap.HeadScripts {
		if _, err := fmt.Fprintf(w, "<script type=\"text/javascript\" src=\"%s\"></script>\n", html.EscapeString(url)); err != nil {
			return err
		}
	}
	return nil
}

// WriteFooter writes the remaining data bundles and scripts.
func (r *Requirements) WriteFooter(w io.Writer) error {
	snap := r.Snapshot()

	for _, bundle := range snap.Data {
		if bundle.InHead {
			continue
		}
		if err := writeData(w, bundle); err != nil {
			return err
		}
	}
	for _, url := range snap.FootScripts {
		if _, err := fmt.Fprintf(w, "<script type=\"text/javascript\" src=\"%s\"></script>\n", html.EscapeString(url)); err != nil {
			return err
		}
	}
	return nil
}

func writeData(w io.Writer, bundle DataBundle) error {
	encoded, err := json.Marshal(bundle.Value)
	if err != nil {
		return fmt.Errorf("failed to encode data bundle %s: %w", bundle.Namespace, err)
	}
	_, err = fmt.Fprintf(w, "<script type=\"text/javascript\">var %s = %s;</script>\n", bundle.Namespace, encoded)
	return err
}
