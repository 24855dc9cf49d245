package modal

import (
	"path/filepath"
	"regexp"
	"strings"
)

var extensionLanguages = map[string]string{
	".go":    "go",
	".py":    "python",
	".pyi":   "python",
	".js":    "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".cxx":   "cpp",
	".hpp":   "cpp",
	".rb":    "ruby",
	".sh":    "bash",
	".bash":  "bash",
	".sql":   "sql",
	".json":  "json",
	".yaml":  "yaml",
	".yml":   "yaml",
	".toml":  "toml",
	".md":    "markdown",
	".mdx":   "markdown",
	".rst":   "rst",
	".txt":   "text",
	".html":  "html",
	".css":   "css",
	".kt":    "kotlin",
	".swift": "swift",
	".php":   "php",
	".cs":    "csharp",
}

var languageAliases = map[string]string{
	"py":         "python",
	"python3":    "python",
	"js":         "javascript",
	"node":       "javascript",
	"jsx":        "javascript",
	"ts":         "typescript",
	"tsx":        "typescript",
	"golang":     "go",
	"rs":         "rust",
	"c++":        "cpp",
	"cxx":        "cpp",
	"rb":         "ruby",
	"sh":         "bash",
	"shell":      "bash",
	"zsh":        "bash",
	"yml":        "yaml",
	"javascript": "javascript",
}

var fenceInfo = regexp.MustCompile("(?m)^[ \t]*(?:```|~~~)[ \t]*([A-Za-z0-9_+#.-]+)")

// LanguageFromFilename returns the language hint for a file extension,
// or "" when the extension is unknown
func LanguageFromFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return extensionLanguages[ext]
}

// FenceLanguage returns the language named by the first fenced code block's
// info string, or "" when there is none
func FenceLanguage(text string) string {
	m := fenceInfo.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return NormalizeLanguage(m[1])
}

// NormalizeLanguage lower-cases a language name and resolves common aliases
func NormalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if canonical, ok := languageAliases[lang]; ok {
		return canonical
	}
	return lang
}

// ResolveLanguage picks the language hint for a block: a fence info string
// wins over the filename extension
func ResolveLanguage(blockText, filename string) string {
	if lang := FenceLanguage(blockText); lang != "" {
		return lang
	}
	return LanguageFromFilename(filename)
}

var markupLanguages = map[string]bool{
	"":         true,
	"markdown": true,
	"rst":      true,
	"text":     true,
	"html":     true,
}

// IsMarkup reports whether lang is a document format whose heading lines
// structure the text. Source and data files are not.
func IsMarkup(lang string) bool {
	return markupLanguages[NormalizeLanguage(lang)]
}
