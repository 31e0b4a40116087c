// Copyright 2015 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sanitize turns state machine names and ids into strings that are
// safe as file names and diagram identifiers, and decodes config files to UTF-8.
package sanitize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// commonCharacterReplacements contains URL safe replacements for some
// unsuitable -- but common -- characters in names.
var commonCharacterReplacements = map[rune]string{ //nolint:gochecknoglobals
	'ä': "ae", 'Ä': "Ae", 'ö': "oe", 'Ö': "Oe",
	'ü': "ue", 'Ü': "Ue", 'ß': "ss", 'ç': "c",
	'&': "_and_", '+': "_plus_", '@': "_at_",
	'€': "Euro", '£': "Pound", '$': "Dollar", '¥': "Yen",
}

// transliterate performs the common replacements and strips combining marks.
func transliterate(name string) string {
	var sb strings.Builder

	for _, r := range name {
		if repl, ok := commonCharacterReplacements[r]; ok {
			sb.WriteString(repl)
		} else {
			sb.WriteRune(r)
		}
	}

	var out strings.Builder

	for _, r := range norm.NFD.String(sb.String()) {
		if !unicode.IsMark(r) {
			out.WriteRune(r)
		}
	}

	return out.String()
}

func collapseUnderscores(name string) string {
	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_")
	}

	return name
}

// FileName produces something resembling name but being
// suitable as a filename.
func FileName(name string) string {
	if len(name) == 0 {
		return ""
	}

	// Some characters just do not belong into a filename. '&' is
	// transliterated first so it becomes "_and_" and is not dropped.
	name = transliterate(strings.Map(func(r rune) rune {
		switch r {
		case '"', ':', '/', '\\', '(', ')', '?', '*', '\n', '\t', '\r',
			' ', '{', '|', '}', '[', '¦', ']', '!', '#', '%', '<',
			'>', '~', '^', '\'', '`', '°', '§':
			return '_'
		default:
			return r
		}
	}, name))

	// Keep only printable ASCII.
	name = strings.Map(func(r rune) rune {
		if r < 32 || r > 126 {
			return '_'
		}

		return r
	}, name)

	name = collapseUnderscores(name)

	name = strings.TrimPrefix(name, "-")
	if len(name) > 1 {
		name = strings.TrimSuffix(name, "-")
	}

	return name
}

// Identifier reduces name to ASCII letters, digits and underscores, the
// character set diagram languages accept for node ids. It never returns "".
func Identifier(name string) string {
	id := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, transliterate(name))

	id = collapseUnderscores(id)
	if id == "" {
		return "_"
	}

	return id
}
