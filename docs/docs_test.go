package docs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// annotatedOps collects operationId → joined @Description from the handler
// annotations, the way swag joins multi-line descriptions.
func annotatedOps(t *testing.T) map[string]string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join("..", "internal", "http", "handlers", "*.go"))
	if err != nil || len(files) == 0 {
		t.Fatalf("glob handlers: %v (%d files)", err, len(files))
	}
	out := map[string]string{}
	for _, f := range files {
		if strings.HasSuffix(f, "_test.go") {
			continue
		}
		b, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		var id string
		var desc []string
		for _, line := range strings.Split(string(b), "\n") {
			if !strings.HasPrefix(line, "//") {
				if id != "" {
					out[id] = strings.Join(desc, "\n")
				}
				id, desc = "", nil
				continue
			}
			fields := strings.Fields(strings.TrimPrefix(line, "//"))
			if len(fields) == 0 {
				continue
			}
			rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(strings.TrimPrefix(line, "//")), fields[0]))
			switch fields[0] {
			case "@ID":
				id = rest
			case "@Description":
				desc = append(desc, rest)
			}
		}
	}
	return out
}

func TestDocsMatchHandlerAnnotations(t *testing.T) {
	var doc struct {
		Paths map[string]map[string]struct {
			OperationID string `json:"operationId"`
			Description string `json:"description"`
		} `json:"paths"`
	}
	if err := json.Unmarshal([]byte(SwaggerInfo.ReadDoc()), &doc); err != nil {
		t.Fatalf("generated doc is not valid JSON: %v", err)
	}

	want := annotatedOps(t)
	seen := map[string]bool{}
	for path, methods := range doc.Paths {
		for method, op := range methods {
			w, ok := want[op.OperationID]
			if !ok {
				t.Fatalf("%s %s: operation %q has no annotated handler", method, path, op.OperationID)
			}
			if op.Description != w {
				t.Fatalf("%s: description drifted from annotations\n got: %q\nwant: %q", op.OperationID, op.Description, w)
			}
			seen[op.OperationID] = true
		}
	}
	for id := range want {
		if !seen[id] {
			t.Fatalf("annotated operation %q missing from docs", id)
		}
	}
}
