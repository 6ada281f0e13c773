package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/resume-editor/internal/editor"
)

// parseIndex parses a non-negative position argument
func parseIndex(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, s)
	}
	return n, nil
}

// parseFieldAddr reads "field", "N" or "N.field"
func parseFieldAddr(s string) (editor.FieldAddr, error) {
	if s == "" {
		return editor.FieldAddr{}, fmt.Errorf("empty field address")
	}
	head, field, hasField := strings.Cut(s, ".")
	i, err := strconv.Atoi(head)
	if err != nil {
		if hasField {
			return editor.FieldAddr{}, fmt.Errorf("invalid field address %q", s)
		}
		return editor.Field(s), nil
	}
	if i < 0 {
		return editor.FieldAddr{}, fmt.Errorf("invalid field address %q: negative index", s)
	}
	if !hasField {
		return editor.ItemAt(i), nil
	}
	if field == "" {
		return editor.FieldAddr{}, fmt.Errorf("invalid field address %q", s)
	}
	return editor.ItemField(i, field), nil
}

// parseBulletAddr recognizes "N.bullets.B"
func parseBulletAddr(s string) (item, bullet int, ok bool) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 || parts[1] != "bullets" {
		return 0, 0, false
	}
	item, err := strconv.Atoi(parts[0])
	if err != nil || item < 0 {
		return 0, 0, false
	}
	bullet, err = strconv.Atoi(parts[2])
	if err != nil || bullet < 0 {
		return 0, 0, false
	}
	return item, bullet, true
}

// parseAssignment splits "addr=value". A bullets value starting with "[" is
// decoded as a JSON string array; every other value is kept verbatim.
func parseAssignment(s string) (string, any, error) {
	addr, raw, ok := strings.Cut(s, "=")
	if !ok || addr == "" {
		return "", nil, fmt.Errorf("invalid assignment %q: expected ADDR=VALUE", s)
	}
	if isBulletsAddr(addr) && strings.HasPrefix(strings.TrimSpace(raw), "[") {
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return "", nil, fmt.Errorf("invalid list value for %s: %w", addr, err)
		}
		return addr, list, nil
	}
	return addr, raw, nil
}

func isBulletsAddr(addr string) bool {
	return addr == "bullets" || strings.HasSuffix(addr, ".bullets")
}
