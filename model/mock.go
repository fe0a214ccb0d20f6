package model

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tuandaodev/gptswarm/core"
)

// MockBackendOptions configure a MockBackend instance.
type MockBackendOptions struct {
	// FailRoles maps role names to errors the backend should return instead
	// of output. Used by tests to force node failures.
	FailRoles map[string]error
}

// MockBackend is a pure, deterministic Backend with no I/O. Its output is a
// templated structure derived only from the role name and the request shape,
// so two identical requests always yield identical output. It fails only on
// a malformed request (empty role) or when a forced failure is registered.
type MockBackend struct {
	failRoles map[string]error
}

// NewMockBackend constructs a MockBackend.
func NewMockBackend(optFns ...func(o *MockBackendOptions)) *MockBackend {
	opts := MockBackendOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &MockBackend{failRoles: opts.FailRoles}
}

// Info implements Backend.
func (m *MockBackend) Info() Info {
	return Info{Name: MockModelName, Provider: "mock"}
}

// Infer implements Backend. Design roles receive a design-shaped structure
// derived from the task; every other role receives a track-shaped task list
// derived from the upstream design, or from a synthesized one when the
// design role was not part of the run.
func (m *MockBackend) Infer(ctx context.Context, req Request) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}
	if req.Role == "" {
		return Output{}, Permanent("mock.infer", errors.New("request has no role"))
	}
	if err, ok := m.failRoles[req.Role]; ok {
		return Output{}, err
	}

	if strings.Contains(strings.ToLower(req.Role), "design") {
		return Output{Structured: mockDesign(req.Task)}, nil
	}
	design := upstreamDesign(req.Upstream)
	if design == nil {
		design = mockDesign(req.Task)
	}
	return Output{Structured: mockTrackPlan(req.Role, design)}, nil
}

// upstreamDesign returns the first upstream output that looks like a design
// document, or nil.
func upstreamDesign(upstream map[string]core.PartialOutput) core.PartialOutput {
	for _, role := range sortedKeys(upstream) {
		po := upstream[role]
		if _, ok := po["api_endpoints"]; ok {
			return po
		}
		if _, ok := po["document"]; ok {
			return po
		}
	}
	return nil
}

// mockDesign builds the deterministic design document for a task. The
// feature name seeds every derived identifier.
func mockDesign(task core.Task) map[string]any {
	feature := featureName(task)
	entity := pascalCase(feature)

	return map[string]any{
		"document": fmt.Sprintf(
			"System design for %s: an Angular single-page application backed by a .NET Core REST API.",
			feature,
		),
		"api_endpoints": []map[string]any{
			{
				"path":           "/api/" + strings.ReplaceAll(feature, "_", "-"),
				"method":         "GET",
				"request_model":  entity + "Query",
				"response_model": entity + "List",
			},
			{
				"path":           "/api/" + strings.ReplaceAll(feature, "_", "-"),
				"method":         "POST",
				"request_model":  entity + "Request",
				"response_model": entity,
			},
		},
		"data_models": []map[string]any{
			{
				"name":       entity,
				"properties": []string{"id", "name", "description"},
			},
		},
		"ui_components": []map[string]any{
			{
				"name":         entity + "View",
				"requirements": []string{"list", "detail"},
			},
		},
		"services": []map[string]any{
			{
				"name":       entity + "Service",
				"operations": []string{"list", "get", "create"},
			},
		},
		"frontend_dependencies": []string{"@angular/core", "@angular/router"},
		"backend_dependencies":  []string{"Microsoft.AspNetCore.App", "EntityFrameworkCore"},
	}
}

// mockTrackPlan derives a track's implementation tasks from the upstream
// design document. Roles that read as frontend roles receive component and
// service tasks; every other role receives controller, model and service
// tasks.
func mockTrackPlan(role string, design core.PartialOutput) map[string]any {
	if isFrontendRole(role) {
		return map[string]any{
			"tasks":        frontendTasks(design),
			"tech_stack":   "Angular",
			"dependencies": stringSlice(design["frontend_dependencies"]),
		}
	}
	return map[string]any{
		"tasks":        backendTasks(design),
		"tech_stack":   ".NET Core",
		"dependencies": stringSlice(design["backend_dependencies"]),
	}
}

func isFrontendRole(role string) bool {
	r := strings.ToLower(role)
	return strings.Contains(r, "angular") || strings.Contains(r, "frontend") || strings.Contains(r, "ui")
}

func frontendTasks(design core.PartialOutput) []core.TaskItem {
	var tasks []core.TaskItem
	for _, comp := range mapSlice(design["ui_components"]) {
		tasks = append(tasks, core.TaskItem{
			Type:         "component",
			Name:         str(comp["name"]),
			Requirements: stringSlice(comp["requirements"]),
		})
	}
	for _, ep := range mapSlice(design["api_endpoints"]) {
		tasks = append(tasks, core.TaskItem{
			Type:     "service",
			Endpoint: str(ep["path"]),
			Method:   str(ep["method"]),
			Model:    str(ep["response_model"]),
		})
	}
	return tasks
}

func backendTasks(design core.PartialOutput) []core.TaskItem {
	var tasks []core.TaskItem
	for _, ep := range mapSlice(design["api_endpoints"]) {
		tasks = append(tasks, core.TaskItem{
			Type:     "controller",
			Endpoint: str(ep["path"]),
			Method:   str(ep["method"]),
			Model:    str(ep["request_model"]),
		})
	}
	for _, dm := range mapSlice(design["data_models"]) {
		tasks = append(tasks, core.TaskItem{
			Type:         "model",
			Name:         str(dm["name"]),
			Requirements: stringSlice(dm["properties"]),
		})
	}
	for _, svc := range mapSlice(design["services"]) {
		tasks = append(tasks, core.TaskItem{
			Type:         "service",
			Name:         str(svc["name"]),
			Requirements: stringSlice(svc["operations"]),
		})
	}
	return tasks
}

// featureName extracts the feature identifier from a task, falling back to a
// stable placeholder so mock output stays deterministic for any shape.
func featureName(task core.Task) string {
	if f := str(task["feature"]); f != "" {
		return f
	}
	if keys := sortedKeys(task); len(keys) > 0 {
		return keys[0]
	}
	return "feature"
}

func pascalCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func stringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func mapSlice(v any) []map[string]any {
	switch vv := v.(type) {
	case []map[string]any:
		return vv
	case []any:
		out := make([]map[string]any, 0, len(vv))
		for _, e := range vv {
			if m, ok := e.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}
