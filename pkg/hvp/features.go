package hvp

// Feature names a host capability the host may ask a module about.
type Feature string

// Features the host asks about.
const (
	FeatureGroups                Feature = "groups"
	FeatureGroupings             Feature = "groupings"
	FeatureGroupMembersOnly      Feature = "groupmembersonly"
	FeatureModIntro              Feature = "mod_intro"
	FeatureCompletionTracksViews Feature = "completion_tracks_views"
	FeatureCompletionHasRules    Feature = "completion_has_rules"
	FeatureGradeHasGrade         Feature = "grade_has_grade"
	FeatureGradeOutcomes         Feature = "grade_outcomes"
	FeatureBackupMoodle2         Feature = "backup_moodle2"
	FeatureShowDescription       Feature = "showdescription"
)

// Support is the answer to a feature query.
type Support int

const (
	// Unspecified means the module has no opinion and the host default applies.
	Unspecified Support = iota
	Supported
	Unsupported
)

func (s Support) String() string {
	switch s {
	case Supported:
		return "true"
	case Unsupported:
		return "false"
	default:
		return "null"
	}
}

// MarshalJSON encodes the answer as true, false or null.
func (s Support) MarshalJSON() ([]byte, error) {
	return []byte(s.String()), nil
}

var featureSupport = map[Feature]Support{
	FeatureGroups:                Supported,
	FeatureGroupings:             Supported,
	FeatureGroupMembersOnly:      Supported,
	FeatureModIntro:              Unsupported,
	FeatureCompletionTracksViews: Unsupported,
	FeatureCompletionHasRules:    Unsupported,
	FeatureGradeHasGrade:         Unsupported,
	FeatureGradeOutcomes:         Unsupported,
	FeatureBackupMoodle2:         Unsupported,
	FeatureShowDescription:       Unsupported,
}

// Supports reports whether the module supports a host feature.
func Supports(feature Feature) Support {
	return featureSupport[feature]
}

// KnownFeatures lists every feature Supports answers explicitly.
func KnownFeatures() []Feature {
	return []Feature{
		FeatureGroups,
		FeatureGroupings,
		FeatureGroupMembersOnly,
		FeatureModIntro,
		FeatureCompletionTracksViews,
		FeatureCompletionHasRules,
		FeatureGradeHasGrade,
		FeatureGradeOutcomes,
		FeatureBackupMoodle2,
		FeatureShowDescription,
	}
}
