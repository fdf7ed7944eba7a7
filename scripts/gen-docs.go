//go:build ignore

// gen-docs writes a JSON reference for the job file format. Starting from
// BundleJob it follows every field that refers to another struct of apis/v1
// and writes one schema per struct to docs/schemas/.
package main

import (
	"encoding/json"
	"fmt"
	"go/ast"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"golang.org/x/tools/go/packages"
)

const rootStruct = "BundleJob"

type Schema struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Fields      []Field `json:"fields"`
}

type Field struct {
	Name        string   `json:"name"`
	YAMLKey     string   `json:"yamlKey"`
	Type        string   `json:"type"`
	Required    bool     `json:"required"`
	Template    bool     `json:"template"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
	Ref         *string  `json:"ref,omitempty"`
	Default     *string  `json:"default,omitempty"`
}

type typeInfo struct {
	doc        string
	structType *ast.StructType
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gen-docs: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	root, err := findProjectRoot()
	if err != nil {
		return fmt.Errorf("failed to find project root: %w", err)
	}

	outputDir := filepath.Join(root, "docs", "schemas")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	pkgs, err := packages.Load(&packages.Config{
		Mode: packages.NeedSyntax | packages.NeedFiles | packages.NeedName,
		Dir:  root,
	}, "./apis/v1")
	if err != nil {
		return fmt.Errorf("failed to load apis/v1: %w", err)
	}

	types := make(map[string]typeInfo)
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			return fmt.Errorf("package error: %v", e)
		}
		for _, file := range pkg.Syntax {
			collectStructs(file, types)
		}
	}

	// Breadth-first from the root so the output only holds reachable structs.
	queue := []string{rootStruct}
	seen := map[string]bool{rootStruct: true}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		info, ok := types[name]
		if !ok {
			return fmt.Errorf("struct %s not found", name)
		}

		schema := extractSchema(name, info, types)
		for _, f := range schema.Fields {
			if f.Ref != nil && !seen[*f.Ref] {
				seen[*f.Ref] = true
				queue = append(queue, *f.Ref)
			}
		}

		data, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", name, err)
		}

		outputPath := filepath.Join(outputDir, kebab(name)+".json")
		if err := os.WriteFile(outputPath, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", outputPath, err)
		}
		fmt.Printf("Generated %s\n", outputPath)
	}

	return nil
}

func collectStructs(file *ast.File, types map[string]typeInfo) {
	for _, decl := range file.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE {
			continue
		}

		for _, spec := range genDecl.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			structType, ok := typeSpec.Type.(*ast.StructType)
			if !ok {
				continue
			}

			doc := typeSpec.Doc
			if doc == nil && len(genDecl.Specs) == 1 {
				doc = genDecl.Doc
			}
			types[typeSpec.Name.Name] = typeInfo{doc: cleanDoc(doc), structType: structType}
		}
	}
}

func extractSchema(name string, info typeInfo, types map[string]typeInfo) Schema {
	schema := Schema{Name: name, Description: info.doc, Fields: []Field{}}

	for _, field := range info.structType.Fields.List {
		if len(field.Names) == 0 || !ast.IsExported(field.Names[0].Name) {
			continue
		}

		f := Field{Name: field.Names[0].Name}
		if field.Tag != nil {
			tag := reflect.StructTag(strings.Trim(field.Tag.Value, "`"))
			f.YAMLKey, _, _ = strings.Cut(tag.Get("yaml"), ",")
			f.Required, f.Enum = parseValidateTag(tag.Get("validate"))
			_, f.Template = tag.Lookup("template")
		}

		var ref string
		f.Type, ref = fieldType(field.Type)
		if _, ok := types[ref]; ok {
			f.Ref = &ref
		}

		doc := field.Doc
		if doc == nil {
			doc = field.Comment
		}
		f.Description = cleanDoc(doc)
		f.Default = parseDefault(f.Description)

		schema.Fields = append(schema.Fields, f)
	}

	return schema
}

func parseValidateTag(tag string) (required bool, enum []string) {
	for _, part := range strings.Split(tag, ",") {
		switch {
		case part == "required":
			required = true
		case strings.HasPrefix(part, "oneof="):
			enum = strings.Fields(strings.TrimPrefix(part, "oneof="))
		}
	}
	return required, enum
}

// fieldType renders a field type and returns the name of the struct it
// refers to, if any.
func fieldType(expr ast.Expr) (string, string) {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name, t.Name
	case *ast.StarExpr:
		return fieldType(t.X)
	case *ast.ArrayType:
		inner, ref := fieldType(t.Elt)
		return "[]" + inner, ref
	case *ast.MapType:
		key, _ := fieldType(t.Key)
		val, _ := fieldType(t.Value)
		return fmt.Sprintf("map[%s]%s", key, val), ""
	case *ast.SelectorExpr:
		return t.Sel.Name, ""
	default:
		return "unknown", ""
	}
}

// Matches: (default: zip), (default: "gzip"), Defaults to 30s
var defaultRegex = regexp.MustCompile(`[Dd]efaults?(?::| to| is)\s+"?([^")]+?)"?\)?\.?$`)

func parseDefault(description string) *string {
	for _, line := range strings.Split(description, "\n") {
		if m := defaultRegex.FindStringSubmatch(line); m != nil {
			val := strings.TrimSpace(m[1])
			return &val
		}
	}
	return nil
}

func cleanDoc(doc *ast.CommentGroup) string {
	if doc == nil {
		return ""
	}
	lines := strings.Split(strings.TrimSpace(doc.Text()), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}

var upperRun = regexp.MustCompile(`([a-z0-9])([A-Z])|([A-Z]+)([A-Z][a-z])`)

func kebab(name string) string {
	return strings.ToLower(upperRun.ReplaceAllString(name, "${1}${3}-${2}${4}"))
}

func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
