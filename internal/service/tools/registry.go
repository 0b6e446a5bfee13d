// internal/service/tools/registry.go

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"agentesocial/internal/domain/virality"
)

// ErrUnknownTool is returned when no tool is registered under a name
var ErrUnknownTool = errors.New("unknown tool")

// Handler runs a tool and returns a JSON-serializable result
type Handler func(ctx context.Context, args Args) (interface{}, error)

// Param describes one tool argument
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Tool is a named operation callable by the agent layer
type Tool struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`

	handler Handler
}

// Registry holds the tools exposed to the agent layer
type Registry struct {
	tools  map[string]Tool
	order  []string
	logger logrus.FieldLogger
	mu     sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry(logger logrus.FieldLogger) *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logger,
	}
}

// Register adds a tool, replacing any tool with the same name
func (r *Registry) Register(tool Tool, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tool.handler = handler
	if _, exists := r.tools[tool.Name]; !exists {
		r.order = append(r.order, tool.Name)
	}
	r.tools[tool.Name] = tool
}

// List returns the registered tools in registration order
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Call runs a tool and returns its raw result
func (r *Registry) Call(ctx context.Context, name string, args Args) (interface{}, error) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if args == nil {
		args = Args{}
	}

	return tool.handler(ctx, args)
}

// Invoke runs a tool and renders its result as a JSON string. Failures are
// rendered as {"error": "..."} instead of being returned.
func (r *Registry) Invoke(ctx context.Context, name string, args Args) string {
	result, err := r.Call(ctx, name, args)
	if err != nil {
		r.logger.WithError(err).WithField("tool", name).Error("Error running tool")
		return errorJSON(err)
	}

	data, err := json.Marshal(result)
	if err != nil {
		r.logger.WithError(err).WithField("tool", name).Error("Error encoding tool result")
		return errorJSON(err)
	}
	return string(data)
}

func errorJSON(err error) string {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(data)
}

// Args are the JSON arguments of a tool call. Numbers may arrive string-encoded.
type Args map[string]interface{}

// String returns the named argument as a string, or def when absent
func (a Args) String(name, def string) string {
	v, ok := a[name]
	if !ok || v == nil {
		return def
	}
	s := strings.TrimSpace(cast.ToString(v))
	if s == "" {
		return def
	}
	return s
}

// RequiredString returns the named argument or an error when it is missing
func (a Args) RequiredString(name string) (string, error) {
	s := a.String(name, "")
	if s == "" {
		return "", fmt.Errorf("missing required argument: %s", name)
	}
	return s, nil
}

// Int returns the named argument as an int, or def when absent
func (a Args) Int(name string, def int) (int, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return def, nil
	}
	s, isString := v.(string)
	if !isString {
		n, err := cast.ToIntE(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", name, err)
		}
		return n, nil
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid %s: %q is not a whole number", name, s)
	}
	return int(f), nil
}

// Items returns the named argument as a content batch. The batch may be a list
// of objects or a JSON string encoding one.
func (a Args) Items(name string) ([]virality.Item, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return []virality.Item{}, nil
	}

	if items, isItems := v.([]virality.Item); isItems {
		return items, nil
	}

	if s, isString := v.(string); isString {
		var decoded []interface{}
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", name, err)
		}
		v = decoded
	}

	list, err := cast.ToSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}

	items := make([]virality.Item, 0, len(list))
	for i, elem := range list {
		if item, ok := elem.(virality.Item); ok {
			items = append(items, item)
			continue
		}
		m, err := cast.ToStringMapE(elem)
		if err != nil {
			return nil, fmt.Errorf("invalid %s[%d]: %w", name, i, err)
		}
		items = append(items, virality.Item(m))
	}
	return items, nil
}
