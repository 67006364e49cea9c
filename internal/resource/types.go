package resource

import (
	"mime"
	"path"
	"strings"
)

// TypeResolver guesses the content type and content encoding of a file from
// its name. Empty strings mean unknown.
type TypeResolver interface {
	Resolve(name string) (mimeType, encoding string)
}

// ExtensionTypes resolves types from file extensions using the mime table
type ExtensionTypes struct{}

// shorthand extensions for compressed tarballs
var suffixAliases = map[string]string{
	".tgz":  ".tar.gz",
	".taz":  ".tar.gz",
	".tz":   ".tar.gz",
	".tbz2": ".tar.bz2",
	".txz":  ".tar.xz",
}

var encodingSuffixes = map[string]string{
	".gz":  "gzip",
	".Z":   "compress",
	".bz2": "bzip2",
	".xz":  "xz",
	".br":  "br",
}

// Resolve maps "report.json.gz" to ("application/json", "gzip").
func (ExtensionTypes) Resolve(name string) (string, string) {
	ext := path.Ext(name)
	if alias, ok := suffixAliases[strings.ToLower(ext)]; ok {
		name = strings.TrimSuffix(name, ext) + alias
		ext = path.Ext(name)
	}

	encoding := ""
	if enc, ok := encodingSuffixes[ext]; ok {
		encoding = enc
		name = strings.TrimSuffix(name, ext)
		ext = path.Ext(name)
	}

	if ext == "" {
		return "", encoding
	}
	return mime.TypeByExtension(ext), encoding
}
