package config

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Dossier variables usable in the output directory.
const (
	VarFullFilename   = "dict_fullfilename"
	VarTypeDemande    = "dict_type_demande"
	VarNoTeleservice  = "dict_no_teleservice"
	VarTvxAdresse     = "dict_tvx_adresse"
	VarTvxCommune     = "dict_tvx_commune"
	VarTvxDescription = "dict_tvx_description"
	VarFilename       = "dict_filename"
	VarMapFilename    = "dict_map_filename"
)

var variablePattern = regexp.MustCompile(`@[a-zA-Z][a-zA-Z0-9_]*`)

// HasVariables reports whether s holds an @variable reference.
func HasVariables(s string) bool {
	return variablePattern.MatchString(s)
}

// ExpandVariables replaces every @name found in vars. Unknown references
// are left as written.
func ExpandVariables(s string, vars map[string]string) string {
	if !HasVariables(s) {
		return s
	}
	return variablePattern.ReplaceAllStringFunc(s, func(ref string) string {
		if v, ok := vars[ref[1:]]; ok {
			return v
		}
		return ref
	})
}

// FixedPrefix returns the leading directories of path that hold no
// variable, or path itself when it has none.
func FixedPrefix(path string) string {
	if path == "" || !HasVariables(path) {
		return path
	}
	i := strings.Index(path, "@")
	prefix := path[:i]
	if j := strings.LastIndexAny(prefix, `/\`); j >= 0 {
		prefix = prefix[:j]
		if prefix == "" {
			return string(filepath.Separator)
		}
		return prefix
	}
	return ""
}
