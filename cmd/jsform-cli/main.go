package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	jsform "github.com/goliatone/go-jsform"
	"github.com/goliatone/go-jsform/pkg/interpreter"
	"github.com/goliatone/go-jsform/pkg/jsf"
	"github.com/goliatone/go-jsform/pkg/renderers/tui"
)

func main() {
	source := flag.String("source", "schema.json", "form schema path or URL")
	renderer := flag.String("renderer", "html", "renderer to use (html or tui)")
	output := flag.String("output", "", "output file (stdout if empty)")
	valuesJSON := flag.String("values", "", "initial values as a JSON object")
	flag.Parse()

	ctx := context.Background()

	src := parseSource(*source)
	if src == nil {
		log.Fatalf("invalid source: %q", *source)
	}

	values := map[string]any{}
	if *valuesJSON != "" {
		if err := json.Unmarshal([]byte(*valuesJSON), &values); err != nil {
			log.Fatalf("invalid -values payload: %v", err)
		}
	}

	if *renderer == "tui" {
		runInteractive(ctx, src, values, *output)
		return
	}

	gen, err := jsform.New()
	if err != nil {
		log.Fatalf("failed to build generator: %v", err)
	}
	out, err := gen.Generate(ctx, jsform.Request{
		Source:   src,
		Values:   values,
		Renderer: *renderer,
	})
	if err != nil {
		log.Fatalf("failed to generate form: %v", err)
	}
	write(*output, out)
}

// runInteractive drives a dynamic prompt session so conditional fields react
// to earlier answers, then prints the collected payload.
func runInteractive(ctx context.Context, src jsf.Source, values map[string]any, output string) {
	doc, err := jsf.NewLoader().Load(ctx, src)
	if err != nil {
		log.Fatalf("failed to load schema: %v", err)
	}
	interp, err := interpreter.New(ctx, doc)
	if err != nil {
		log.Fatalf("failed to interpret schema: %v", err)
	}
	session, err := tui.NewSession(interp)
	if err != nil {
		log.Fatalf("failed to start session: %v", err)
	}

	payload, err := session.Run(ctx, values)
	if err != nil {
		log.Fatalf("session failed: %v", err)
	}
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		log.Fatalf("failed to encode payload: %v", err)
	}
	write(output, out)
}

func write(output string, data []byte) {
	if output != "" {
		if err := os.WriteFile(output, data, 0o644); err != nil {
			log.Fatalf("failed to write output: %v", err)
		}
		fmt.Printf("Output written to %s\n", output)
		return
	}
	fmt.Println(string(data))
}

func parseSource(raw string) jsf.Source {
	path := strings.TrimSpace(raw)
	if path == "" {
		return nil
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return jsf.SourceFromURL(path)
	}
	return jsf.SourceFromFile(path)
}
