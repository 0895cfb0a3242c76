package directive

import (
	"fmt"
	"strings"
)

// Kind is the classification of a module's leading directive.
type Kind uint8

const (
	// Default means no recognised directive in the leading position.
	Default Kind = iota
	Client
	Server
)

var kindNames = [...]string{
	Default: "default",
	Client:  "client",
	Server:  "server",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind is the inverse of String, case-insensitive.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return Default, fmt.Errorf("unknown directive kind %q", s)
}

// table maps exact literal contents to their classification.
var table = map[string]Kind{
	"use client": Client,
	"use server": Server,
}

// couldMatch reports whether an open literal with the given raw content
// so far can still complete into a table key.
func couldMatch(content []byte) bool {
	for key := range table {
		if strings.HasPrefix(key, string(content)) {
			return true
		}
	}
	return false
}
