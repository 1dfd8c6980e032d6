package extract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"
	"github.com/rs/zerolog/log"
)

const (
	maxScriptBytes = 256 << 10
	scriptTimeout  = 50 * time.Millisecond
	maxSearchDepth = 32
)

// stubbed browser globals, excluded from the result
var hostGlobals = map[string]bool{
	"window":     true,
	"self":       true,
	"globalThis": true,
	"document":   true,
	"location":   true,
	"navigator":  true,
	"console":    true,
}

// scriptGlobals runs inline scripts in an isolated runtime and returns the
// data globals they define. JSON data islands are decoded under their id.
// Script errors are ignored; pages routinely reference APIs we do not stub.
func scriptGlobals(root *goquery.Selection, pageURL string) map[string]any {
	out := make(map[string]any)
	vm := newScriptRuntime(pageURL)

	root.Find("script").Each(func(i int, s *goquery.Selection) {
		if _, external := s.Attr("src"); external {
			return
		}
		typ := strings.ToLower(strings.TrimSpace(s.AttrOr("type", "")))
		text := s.Text()

		switch {
		case typ == "application/json":
			var v any
			if err := json.Unmarshal([]byte(text), &v); err != nil {
				return
			}
			key := s.AttrOr("id", fmt.Sprintf("json-%d", i))
			out[key] = v
		case typ == "" || strings.Contains(typ, "javascript") || typ == "module":
			if len(text) > maxScriptBytes || strings.TrimSpace(text) == "" {
				return
			}
			runScript(vm, text)
		}
	})

	for _, key := range vm.GlobalObject().Keys() {
		if hostGlobals[key] {
			continue
		}
		v := vm.Get(key)
		if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
			continue
		}
		if _, fn := goja.AssertFunction(v); fn {
			continue
		}
		if data := plain(v.Export()); data != nil {
			out[key] = data
		}
	}
	return out
}

func newScriptRuntime(pageURL string) *goja.Runtime {
	vm := goja.New()
	global := vm.GlobalObject()
	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }

	location := vm.NewObject()
	_ = location.Set("href", pageURL)
	document := vm.NewObject()
	_ = document.Set("location", location)
	_ = document.Set("addEventListener", noop)
	console := vm.NewObject()
	for _, name := range []string{"log", "info", "warn", "error", "debug"} {
		_ = console.Set(name, noop)
	}

	_ = vm.Set("window", global)
	_ = vm.Set("self", global)
	_ = vm.Set("document", document)
	_ = vm.Set("location", location)
	_ = vm.Set("navigator", vm.NewObject())
	_ = vm.Set("console", console)
	return vm
}

// scriptGuard interrupts a running script unless it has already returned
type scriptGuard struct {
	mu   sync.Mutex
	vm   *goja.Runtime
	done bool
}

func (g *scriptGuard) interrupt() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.done {
		g.vm.Interrupt("script timeout")
	}
}

// finish disarms the guard; a timer firing afterwards is a no-op
func (g *scriptGuard) finish() {
	g.mu.Lock()
	g.done = true
	g.mu.Unlock()
	g.vm.ClearInterrupt()
}

func runScript(vm *goja.Runtime, src string) error {
	g := &scriptGuard{vm: vm}
	timer := time.AfterFunc(scriptTimeout, g.interrupt)
	_, err := vm.RunString(src)
	timer.Stop()
	g.finish()
	if err != nil {
		log.Trace().Err(err).Msg("Inline script failed")
	}
	return err
}

// plain keeps only JSON-shaped data: maps, slices, strings, numbers, bools
func plain(v any) any {
	switch x := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, item := range x {
			if p := plain(item); p != nil {
				m[k] = p
			}
		}
		return m
	case []any:
		s := make([]any, 0, len(x))
		for _, item := range x {
			if p := plain(item); p != nil {
				s = append(s, p)
			}
		}
		return s
	case string, bool, float64:
		return x
	case int64:
		return float64(x)
	case int:
		return float64(x)
	}
	return nil
}

// findKey searches data depth-first, visiting map keys in sorted order, for
// the first scalar stored under key.
func findKey(data any, key string) (any, bool) {
	return searchKey(data, key, 0)
}

func searchKey(data any, key string, depth int) (any, bool) {
	if depth > maxSearchDepth {
		return nil, false
	}
	switch x := data.(type) {
	case map[string]any:
		if v, ok := x[key]; ok && scalarString(v) != "" {
			return v, true
		}
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if v, ok := searchKey(x[k], key, depth+1); ok {
				return v, true
			}
		}
	case []any:
		for _, item := range x {
			if v, ok := searchKey(item, key, depth+1); ok {
				return v, true
			}
		}
	}
	return nil, false
}
