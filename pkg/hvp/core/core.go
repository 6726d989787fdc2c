// Package core holds the parts of the runtime core the host integration
// relies on: library naming and the list of the runtime's own assets.
package core

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/tendant/simple-hvp/pkg/hvp"
)

// Scripts are the runtime scripts, relative to the runtime library directory.
var Scripts = []string{
	"js/jquery.js",
	"js/h5p.js",
}

// Styles are the runtime styles, relative to the runtime library directory.
var Styles = []string{
	"styles/h5p.css",
}

// LibraryToString renders a library as "Name-1.0" when folderName is set,
// the form used for library directories, and as "Name 1.0" otherwise.
func LibraryToString(library hvp.Library, folderName bool) string {
	sep := " "
	if folderName {
		sep = "-"
	}
	return fmt.Sprintf("%s%s%d.%d", library.MachineName, sep, library.MajorVersion, library.MinorVersion)
}

var libraryString = regexp.MustCompile(`^([\w0-9\-.]{1,255})[\-\ ]([0-9]{1,5})\.([0-9]{1,5})$`)

// ParseLibraryString parses either form produced by LibraryToString.
func ParseLibraryString(s string) (hvp.Library, bool) {
	m := libraryString.FindStringSubmatch(s)
	if m == nil {
		return hvp.Library{}, false
	}
	major, err := strconv.Atoi(m[2])
	if err != nil {
		return hvp.Library{}, false
	}
	minor, err := strconv.Atoi(m[3])
	if err != nil {
		return hvp.Library{}, false
	}
	return hvp.Library{MachineName: m[1], MajorVersion: major, MinorVersion: minor}, true
}

// Core implements hvp.Core with the package-level naming and asset lists.
type Core struct{}

// New returns the runtime core.
func New() hvp.Core {
	return Core{}
}

func (Core) LibraryToString(library hvp.Library, folderName bool) string {
	return LibraryToString(library, folderName)
}

func (Core) Scripts() []string {
	return append([]string(nil), Scripts...)
}

func (Core) Styles() []string {
	return append([]string(nil), Styles...)
}
