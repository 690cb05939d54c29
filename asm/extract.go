// Package asm builds, inspects, and rewrites the assembly programs fed to
// the simulators: the HTIF dump scaffold around a user-code body, extraction
// of that body back out of a source file, and line-level surgery for retries.
package asm

import "strings"

// UserCodeLabel marks the start of the generated user-code section.
const UserCodeLabel = "_user_code:"

// ExtractUserCode returns the ordered instruction strings between the
// _user_code: label and the next label. Blank lines, comment lines, and
// inline comments are dropped.
func ExtractUserCode(source string) []string {
	var instructions []string
	inUserCode := false

	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if trimmed == UserCodeLabel {
			inUserCode = true
			continue
		}
		if !inUserCode {
			continue
		}
		if strings.HasSuffix(trimmed, ":") {
			// Next label ends the section.
			break
		}
		if strings.HasPrefix(trimmed, "#") {
			continue
		}

		if i := strings.IndexByte(trimmed, '#'); i >= 0 {
			trimmed = strings.TrimSpace(trimmed[:i])
		}
		if trimmed != "" {
			instructions = append(instructions, trimmed)
		}
	}

	return instructions
}

// ReplaceUserCode keeps everything outside the user-code section and swaps
// the body for the given instructions. The footer starts at the first label
// after _user_code:.
func ReplaceUserCode(source string, instructions []string) string {
	var header, footer []string
	inUserCode := false
	afterUserCode := false

	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == UserCodeLabel:
			header = append(header, line)
			inUserCode = true
		case inUserCode && !afterUserCode &&
			strings.HasSuffix(trimmed, ":") && !strings.Contains(trimmed, " "):
			afterUserCode = true
			footer = append(footer, line)
		case !inUserCode:
			header = append(header, line)
		case afterUserCode:
			footer = append(footer, line)
		}
	}

	var b strings.Builder
	for _, line := range header {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for _, inst := range instructions {
		b.WriteString("    ")
		b.WriteString(inst)
		b.WriteByte('\n')
	}
	for _, line := range footer {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// RemoveInstructions drops every source line containing one of the given
// instruction strings. Used by the retry policy to strip instructions one
// simulator rejects.
func RemoveInstructions(source string, remove []string) string {
	if len(remove) == 0 {
		return source
	}

	var kept []string
	for _, line := range strings.Split(source, "\n") {
		drop := false
		for _, inst := range remove {
			if strings.Contains(line, inst) {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
