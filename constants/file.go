package constants

import (
	"path/filepath"
	"strings"
)

// Format groups extensions by the extraction strategy they need.
type Format string

const (
	PDF    Format = "PDF"
	IMAGE  Format = "IMAGE"
	DOCX   Format = "DOCX"
	OFFICE Format = "OFFICE" // converted to PDF before extraction
	OTHER  Format = "OTHER"
)

// ForbiddenExtensions are never handed to the state machine.
var ForbiddenExtensions = map[string]struct{}{
	"ini":  {},
	"exe":  {},
	"html": {},
	"bak":  {},
	"tmp":  {},
}

var formatByExt = map[string]Format{
	"pdf":  PDF,
	"jpg":  IMAGE,
	"jpeg": IMAGE,
	"png":  IMAGE,
	"docx": DOCX,
	"pptx": OFFICE,
	"ppt":  OFFICE,
	"doc":  OFFICE,
}

// Filename wire contract shared between runs.
const (
	IssueDateMarker      = "issueddate"
	ExpirationDateMarker = "expirationdate"
	DuplicateSuffix      = "_dup"
	VaultDirName         = "duplicates"
	ReportPrefix         = "reporte_"
	ReportExt            = ".xlsx"
	SplitDirSuffix       = "_paginas_separadas"
	SplitPageInfix       = "_pagina_"
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsForbiddenExt reports whether ext (with or without dot) is in the forbidden set.
func IsForbiddenExt(ext string) bool {
	_, ok := ForbiddenExtensions[NormalizeExt(ext)]
	return ok
}

// MapExtToFormat returns the extraction format for ext, or OTHER.
func MapExtToFormat(ext string) Format {
	if f, ok := formatByExt[NormalizeExt(ext)]; ok {
		return f
	}
	return OTHER
}

// ImageMIMEType maps an image extension to its MIME type.
func ImageMIMEType(ext string) string {
	switch NormalizeExt(ext) {
	case "png":
		return "image/png"
	default:
		return "image/jpeg"
	}
}

// ReportFileName is the per-folder report file name, reporte_<folder base>.xlsx.
func ReportFileName(folder string) string {
	return ReportPrefix + filepath.Base(filepath.Clean(folder)) + ReportExt
}
