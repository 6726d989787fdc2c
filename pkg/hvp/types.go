package hvp

// EmbedType tells the settings assembler how the runtime is embedded in the
// host page.
type EmbedType string

const (
	// EmbedDiv renders the runtime inline; assets are injected into the page.
	EmbedDiv EmbedType = "div"
	// EmbedIframe renders the runtime standalone; assets travel in the bundle.
	EmbedIframe EmbedType = "iframe"
)

// Dependency types recorded on a library usage.
const (
	DependencyPreloaded = "preloaded"
	DependencyDynamic   = "dynamic"
	DependencyEditor    = "editor"
)

// Library identifies a library by machine name and major/minor version.
type Library struct {
	MachineName  string `json:"machine_name"`
	MajorVersion int    `json:"major_version"`
	MinorVersion int    `json:"minor_version"`
}

// ContentInstance is a row of the hvp table, optionally joined with its main
// library.
type ContentInstance struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Course        int64  `json:"course"`
	JSONContent   string `json:"json_content"`
	MainLibraryID int64  `json:"main_library_id,omitempty"`
	EmbedType     string `json:"embed_type,omitempty"`

	// Populated from the main library when read through GetInstance.
	MainLibrary Library `json:"main_library"`
	EmbedTypes  string  `json:"embed_types,omitempty"`
	Fullscreen  bool    `json:"fullscreen"`
}

// LibraryRecord is a registered library as stored in hvp_libraries.
type LibraryRecord struct {
	ID             int64   `json:"id"`
	Library        Library `json:"library"`
	Title          string  `json:"title"`
	PatchVersion   int     `json:"patch_version"`
	Runnable       bool    `json:"runnable"`
	Fullscreen     bool    `json:"fullscreen"`
	EmbedTypes     string  `json:"embed_types,omitempty"`
	PreloadedJS    string  `json:"preloaded_js,omitempty"`
	PreloadedCSS   string  `json:"preloaded_css,omitempty"`
	DropLibraryCSS string  `json:"drop_library_css,omitempty"`
}

// LibraryUsage links a content instance to a library it depends on.
type LibraryUsage struct {
	LibraryID      int64  `json:"library_id"`
	DependencyType string `json:"dependency_type"`
	DropCSS        bool   `json:"drop_css"`
	Weight         int    `json:"weight"`
}

// LibraryDependency is the joined projection the asset resolver reads: one
// library used by a content instance together with its preloaded files.
type LibraryDependency struct {
	LibraryID    int64
	Library      Library
	PreloadedJS  string // comma separated file names
	PreloadedCSS string // comma separated file names
	DropCSS      bool
}

// AssetManifest lists the script and style URLs a content instance needs.
// Both slices are always non-nil.
type AssetManifest struct {
	PreloadedJS  []string `json:"preloadedJs"`
	PreloadedCSS []string `json:"preloadedCss"`
}

// PackageRef points the package storage engine at a content instance and,
// optionally, at the staged upload holding its files.
type PackageRef struct {
	ContentID int64
	UploadKey string
}

// UpdateResult reports the outcome of both halves of an instance update.
type UpdateResult struct {
	RowUpdated     bool  `json:"row_updated"`
	PackageUpdated bool  `json:"package_updated"`
	PackageErr     error `json:"-"`
}
