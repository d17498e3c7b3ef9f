// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package postprocess

import (
	"strings"

	"github.com/openfields/uaparse/internal/field"
)

// versionMajor returns the prefix of v up to (not including) its first '.',
// or field.VersionSentinel unchanged if v already is the sentinel.
func versionMajor(v string) string {
	if v == field.VersionSentinel || v == "" {
		return field.VersionSentinel
	}
	if i := strings.IndexByte(v, '.'); i >= 0 {
		return v[:i]
	}
	return v
}

// versionMajorCalculator derives versionMajor from version.
func versionMajorCalculator(name string, version, versionMajorField field.Field) Calculator {
	return Calculator{
		Name:   name,
		Reads:  []field.Field{version},
		Writes: []field.Field{versionMajorField},
		Apply: func(values map[field.Field]string) {
			values[versionMajorField] = versionMajor(values[version])
		},
	}
}

// nameVersionCalculator composes "<name> <version>" from whatever the two
// fields hold, sentinels included (e.g. "Unknown ??").
func nameVersionCalculator(calcName string, name, version, nameVersionField field.Field) Calculator {
	return Calculator{
		Name:   calcName,
		Reads:  []field.Field{name, version},
		Writes: []field.Field{nameVersionField},
		Apply: func(values map[field.Field]string) {
			values[nameVersionField] = values[name] + " " + values[version]
		},
	}
}

// classFallbackCalculator sets class to fallback when name resolved to
// something other than field.UnknownSentinel but class is still unset —
// covers rule authors who forgot (or chose not) to extract a *Class field
// explicitly alongside a *Name field.
func classFallbackCalculator(calcName string, name, class field.Field, fallback string) Calculator {
	return Calculator{
		Name:   calcName,
		Reads:  []field.Field{name},
		Writes: []field.Field{class},
		Apply: func(values map[field.Field]string) {
			if values[class] != field.UnknownSentinel {
				return
			}
			if values[name] == field.UnknownSentinel {
				return
			}
			values[class] = fallback
		},
	}
}

// localeNames maps a handful of well-known language codes to display names.
// A production rule corpus typically supplies a much larger table via its
// own rules; this covers what the embedded default corpus needs plus a few
// common neighbors.
var localeNames = map[string]string{
	"en-us": "English (United States)",
	"en-gb": "English (United Kingdom)",
	"de-de": "German (Germany)",
	"fr-fr": "French (France)",
	"es-es": "Spanish (Spain)",
	"ja-jp": "Japanese (Japan)",
	"zh-cn": "Chinese (China)",
}

// languageCalculator expands AgentLanguageCode into AgentLanguage when a
// rule set the code but left the display name at its default.
func languageCalculator() Calculator {
	return Calculator{
		Name:   "agent-language-expand",
		Reads:  []field.Field{field.AgentLanguageCode},
		Writes: []field.Field{field.AgentLanguage},
		Apply: func(values map[field.Field]string) {
			if values[field.AgentLanguage] != field.UnknownSentinel {
				return
			}
			code := strings.ToLower(values[field.AgentLanguageCode])
			if name, ok := localeNames[code]; ok {
				values[field.AgentLanguage] = name
			}
		},
	}
}

// minimalVersionCalculator shortens a version field to its first two
// dot-separated components, leaving the sentinel untouched. Only included
// in a pipeline when the analyzer is built WithMinimalVersion.
func minimalVersionCalculator(calcName string, version field.Field) Calculator {
	return Calculator{
		Name:   calcName,
		Reads:  []field.Field{version},
		Writes: []field.Field{version},
		Apply: func(values map[field.Field]string) {
			v := values[version]
			if v == field.VersionSentinel || v == "" {
				return
			}
			parts := strings.SplitN(v, ".", 3)
			if len(parts) <= 2 {
				return
			}
			values[version] = parts[0] + "." + parts[1]
		},
	}
}

// versionedFamily names the three fields of one Name/Version/VersionMajor
// family that get NameVersion/NameVersionMajor/VersionMajor calculators.
type versionedFamily struct {
	label             string
	name              field.Field
	version           field.Field
	versionMajor      field.Field
	nameVersion       field.Field
	nameVersionMajor  field.Field
	classField        field.Field
	classFallbackName string
}

var families = []versionedFamily{
	{
		label: "os", name: field.OperatingSystemName, version: field.OperatingSystemVersion,
		versionMajor: field.OperatingSystemVersionMajor, nameVersion: field.OperatingSystemNameVersion,
		nameVersionMajor: field.OperatingSystemNameVersionMajor, classField: field.OperatingSystemClass,
		classFallbackName: "Desktop",
	},
	{
		label: "layout", name: field.LayoutEngineName, version: field.LayoutEngineVersion,
		versionMajor: field.LayoutEngineVersionMajor, nameVersion: field.LayoutEngineNameVersion,
		nameVersionMajor: field.LayoutEngineNameVersionMajor, classField: field.LayoutEngineClass,
		classFallbackName: "Browser",
	},
	{
		label: "agent", name: field.AgentName, version: field.AgentVersion,
		versionMajor: field.AgentVersionMajor, nameVersion: field.AgentNameVersion,
		nameVersionMajor: field.AgentNameVersionMajor, classField: field.AgentClass,
		classFallbackName: "Browser",
	},
}

// Standard returns the default calculator set: for each of the
// OperatingSystem/LayoutEngine/Agent families, a class fallback, a
// VersionMajor shortener, and NameVersion/NameVersionMajor composers, plus
// the one-off AgentLanguage expander. This is the calculator set
// internal/analyzer always uses.
//
// When minimalVersion is true, each family's version field is shortened to
// its first two dotted components before VersionMajor and the NameVersion
// fields are computed from it — the declared reads/writes order this
// automatically; callers never need to sequence it by hand.
func Standard(minimalVersion bool) []Calculator {
	var calcs []Calculator
	for _, f := range families {
		if minimalVersion {
			calcs = append(calcs, minimalVersionCalculator(f.label+"-version-minimal", f.version))
		}
		calcs = append(calcs,
			classFallbackCalculator(f.label+"-class-fallback", f.name, f.classField, f.classFallbackName),
			versionMajorCalculator(f.label+"-version-major", f.version, f.versionMajor),
			nameVersionCalculator(f.label+"-name-version", f.name, f.version, f.nameVersion),
			nameVersionCalculator(f.label+"-name-version-major", f.name, f.versionMajor, f.nameVersionMajor),
		)
	}
	calcs = append(calcs, languageCalculator())
	return calcs
}
