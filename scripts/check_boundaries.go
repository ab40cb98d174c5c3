package main

import (
	"flag"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "paidvote"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRule lists what a service layer may import besides the standard
// library. Prefixes starting with "/" are relative to the owning service.
type layerRule struct {
	allowed    []string
	thirdParty bool
}

var layerRules = map[string]layerRule{
	"domain":      {allowed: []string{"/domain"}},
	"ports":       {allowed: []string{"/domain", "/ports", modulePath + "/contracts"}},
	"application": {allowed: []string{"/application", "/domain", "/ports", modulePath + "/contracts"}},
	"transport":   {allowed: []string{"/transport"}},
	"adapters": {
		allowed:    []string{"/adapters", "/application", "/domain", "/ports", "/transport", modulePath + "/contracts", modulePath + "/internal/platform"},
		thirdParty: true,
	},
}

func main() {
	root := flag.String("root", ".", "repository root")
	flag.Parse()

	violations, err := collectViolations(*root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "boundary check failed: %v\n", err)
		os.Exit(2)
	}
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

// collectViolations walks contexts/ and internal/platform/ under root.
// Test files are exempt.
func collectViolations(root string) ([]violation, error) {
	var violations []violation
	for _, dir := range []string{"contexts", "internal/platform"} {
		base := filepath.Join(root, dir)
		if _, err := os.Stat(base); err != nil {
			continue
		}
		err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			found, err := checkFile(path, filepath.ToSlash(rel))
			if err != nil {
				return err
			}
			violations = append(violations, found...)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File != violations[j].File {
			return violations[i].File < violations[j].File
		}
		if violations[i].Line != violations[j].Line {
			return violations[i].Line < violations[j].Line
		}
		return violations[i].Import < violations[j].Import
	})
	return violations, nil
}

func checkFile(path string, rel string) ([]violation, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: rel, Line: 1, Rule: "file must parse"}}, nil
	}

	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		line := fset.Position(imp.Pos()).Line
		if rule := importRule(rel, importPath); rule != "" {
			violations = append(violations, violation{File: rel, Line: line, Import: importPath, Rule: rule})
		}
	}
	return violations, nil
}

// importRule returns the broken rule, or "" when rel may import importPath.
func importRule(rel string, importPath string) string {
	parts := strings.Split(rel, "/")
	if parts[0] == "internal" {
		if hasPrefix(importPath, modulePath+"/contexts") && !platformMayCompose(rel) {
			return "platform packages must not depend on contexts"
		}
		return ""
	}
	if len(parts) < 4 {
		return ""
	}

	servicePrefix := fmt.Sprintf("%s/contexts/%s/%s", modulePath, parts[1], parts[2])
	if hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, servicePrefix) {
		return "cross-service imports are forbidden"
	}

	layer := parts[3]
	rule, ok := layerRules[layer]
	if !ok {
		// module.go and doc.go are composition roots for their service.
		return ""
	}
	if isStdlib(importPath) {
		return ""
	}
	for _, allowed := range rule.allowed {
		if strings.HasPrefix(allowed, "/") {
			allowed = servicePrefix + allowed
		}
		if hasPrefix(importPath, allowed) {
			return ""
		}
	}
	if rule.thirdParty && !hasPrefix(importPath, modulePath) {
		return ""
	}
	return layer + " import is outside explicit allowlist"
}

// platformMayCompose reports whether a platform package is allowed to wire
// service modules together.
func platformMayCompose(rel string) bool {
	return strings.HasPrefix(rel, "internal/platform/httpserver/")
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isStdlib(importPath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first := importPath
	if idx := strings.Index(first, "/"); idx != -1 {
		first = first[:idx]
	}
	return !strings.Contains(first, ".")
}
