package gormdb

import "github.com/tendant/simple-hvp/pkg/hvp"

// instanceModel maps the hvp table
type instanceModel struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	Name          string `gorm:"size:255;not null"`
	Course        int64  `gorm:"not null;default:0"`
	JSONContent   string `gorm:"column:json_content;type:text;not null;default:''"`
	EmbedType     string `gorm:"size:127;not null;default:''"`
	MainLibraryID *int64 `gorm:"column:main_library_id"`
}

func (instanceModel) TableName() string { return "hvp" }

// libraryModel maps the hvp_libraries table
type libraryModel struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	MachineName    string `gorm:"size:255;not null;uniqueIndex:idx_hvp_libraries_name"`
	Title          string `gorm:"size:255;not null;default:''"`
	MajorVersion   int    `gorm:"not null;uniqueIndex:idx_hvp_libraries_name"`
	MinorVersion   int    `gorm:"not null;uniqueIndex:idx_hvp_libraries_name"`
	PatchVersion   int    `gorm:"not null;default:0"`
	Runnable       bool   `gorm:"not null;default:false"`
	Fullscreen     bool   `gorm:"not null;default:false"`
	EmbedTypes     string `gorm:"size:255;not null;default:''"`
	PreloadedJS    string `gorm:"column:preloaded_js;type:text"`
	PreloadedCSS   string `gorm:"column:preloaded_css;type:text"`
	DropLibraryCSS string `gorm:"column:drop_library_css;type:text"`
}

func (libraryModel) TableName() string { return "hvp_libraries" }

// usageModel maps the hvp_contents_libraries table
type usageModel struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	ContentID      int64  `gorm:"not null;index"`
	LibraryID      int64  `gorm:"not null"`
	DependencyType string `gorm:"size:31;not null;default:'preloaded'"`
	DropCSS        bool   `gorm:"column:drop_css;not null;default:false"`
	Weight         int    `gorm:"not null;default:0"`
}

func (usageModel) TableName() string { return "hvp_contents_libraries" }

// instanceJoin is the hvp row joined with its main library
type instanceJoin struct {
	ID            int64
	Name          string
	Course        int64
	JSONContent   string `gorm:"column:json_content"`
	EmbedType     string
	MainLibraryID int64
	MachineName   string
	MajorVersion  int
	MinorVersion  int
	EmbedTypes    string
	Fullscreen    bool
}

// dependencyRow is one row of the dependency query
type dependencyRow struct {
	ID           int64
	MachineName  string
	MajorVersion int
	MinorVersion int
	PreloadedJS  string `gorm:"column:preloaded_js"`
	PreloadedCSS string `gorm:"column:preloaded_css"`
	DropCSS      bool   `gorm:"column:drop_css"`
}

func toInstance(m instanceModel) *hvp.ContentInstance {
	instance := &hvp.ContentInstance{
		ID:          m.ID,
		Name:        m.Name,
		Course:      m.Course,
		JSONContent: m.JSONContent,
		EmbedType:   m.EmbedType,
	}
	if m.MainLibraryID != nil {
		instance.MainLibraryID = *m.MainLibraryID
	}
	return instance
}

func fromInstance(instance *hvp.ContentInstance) instanceModel {
	m := instanceModel{
		ID:          instance.ID,
		Name:        instance.Name,
		Course:      instance.Course,
		JSONContent: instance.JSONContent,
		EmbedType:   instance.EmbedType,
	}
	if instance.MainLibraryID != 0 {
		id := instance.MainLibraryID
		m.MainLibraryID = &id
	}
	return m
}

func toLibrary(m libraryModel) *hvp.LibraryRecord {
	return &hvp.LibraryRecord{
		ID: m.ID,
		Library: hvp.Library{
			MachineName:  m.MachineName,
			MajorVersion: m.MajorVersion,
			MinorVersion: m.MinorVersion,
		},
		Title:          m.Title,
		PatchVersion:   m.PatchVersion,
		Runnable:       m.Runnable,
		Fullscreen:     m.Fullscreen,
		EmbedTypes:     m.EmbedTypes,
		PreloadedJS:    m.PreloadedJS,
		PreloadedCSS:   m.PreloadedCSS,
		DropLibraryCSS: m.DropLibraryCSS,
	}
}

func fromLibrary(l *hvp.LibraryRecord) libraryModel {
	return libraryModel{
		ID:             l.ID,
		MachineName:    l.Library.MachineName,
		Title:          l.Title,
		MajorVersion:   l.Library.MajorVersion,
		MinorVersion:   l.Library.MinorVersion,
		PatchVersion:   l.PatchVersion,
		Runnable:       l.Runnable,
		Fullscreen:     l.Fullscreen,
		EmbedTypes:     l.EmbedTypes,
		PreloadedJS:    l.PreloadedJS,
		PreloadedCSS:   l.PreloadedCSS,
		DropLibraryCSS: l.DropLibraryCSS,
	}
}
