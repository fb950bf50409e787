// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.

// Package assets validates brand logo SVGs against the SVG Tiny Portable/
// Secure profile required for BIMI, with one permitted repair.
package assets

const (
	ProfileVersion = "tiny-ps/1"

	SVGNamespace   = "http://www.w3.org/2000/svg"
	XLinkNamespace = "http://www.w3.org/1999/xlink"
)

// Violation rules.
const (
	RuleStructure         = "structure"
	RuleRootAttribute     = "root-attribute"
	RuleScript            = "script"
	RuleForeignObject     = "foreign-object"
	RuleExternalReference = "external-reference"
	RuleRasterData        = "raster-data"
	RuleFilter            = "filter"
	RuleGradient          = "gradient"
	RuleStyle             = "style"
	RuleAnimation         = "animation"
	RuleDoctype           = "doctype"
	RuleElement           = "element"
)

// RootAttribute is required on the <svg> root. An empty Value accepts any
// non-empty value.
type RootAttribute struct {
	Name  string
	Value string
}

// Profile describes the permitted structure of a logo document. Profiles
// are shared and must not be modified.
type Profile struct {
	Version        string
	RequiredRoot   []RootAttribute
	Allowed        map[string]bool
	DeniedElements map[string]string
	// TimingAttributes are animation attributes reported even on allowed
	// elements.
	TimingAttributes map[string]bool
}

// repairable are the root attributes the single permitted repair may add.
var repairable = []RootAttribute{
	{Name: "version", Value: "1.2"},
	{Name: "baseProfile", Value: "tiny-ps"},
	{Name: "xmlns", Value: SVGNamespace},
}

var tinyPS = &Profile{
	Version: ProfileVersion,
	RequiredRoot: []RootAttribute{
		{Name: "version", Value: "1.2"},
		{Name: "baseProfile", Value: "tiny-ps"},
		{Name: "xmlns", Value: SVGNamespace},
		{Name: "viewBox"},
	},
	Allowed: map[string]bool{
		"svg": true, "title": true, "desc": true, "g": true, "defs": true, "use": true,
		"path": true, "rect": true, "circle": true, "ellipse": true, "line": true,
		"polyline": true, "polygon": true, "text": true, "tspan": true, "textArea": true,
		"solidColor": true, "stop": true,
	},
	DeniedElements: map[string]string{
		"script":           RuleScript,
		"handler":          RuleScript,
		"foreignObject":    RuleForeignObject,
		"filter":           RuleFilter,
		"linearGradient":   RuleGradient,
		"radialGradient":   RuleGradient,
		"meshGradient":     RuleGradient,
		"style":            RuleStyle,
		"animate":          RuleAnimation,
		"animateMotion":    RuleAnimation,
		"animateTransform": RuleAnimation,
		"animateColor":     RuleAnimation,
		"set":              RuleAnimation,
		"discard":          RuleAnimation,
	},
	TimingAttributes: map[string]bool{
		"begin": true, "dur": true, "end": true, "repeatCount": true, "repeatDur": true,
	},
}

// TinyPS returns the SVG Tiny PS profile.
func TinyPS() *Profile {
	return tinyPS
}
