package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	if len(tools) == 0 {
		t.Fatal("GetToolDefinitions returned empty slice")
	}

	expectedTools := []string{
		"document_analyze",
		"document_process",
		"document_process_batch",
		"problem_list",
		"problem_get",
		"problem_set_note",
		"problem_remove",
		"crop_session_open",
		"crop_pointer_down",
		"crop_pointer_move",
		"crop_pointer_up",
		"crop_set_rotation",
		"crop_set_viewport",
		"crop_session_commit",
		"crop_session_cancel",
		"layout_render",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("Duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("Tool count: got %d, want %d", len(tools), len(expectedTools))
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	tools := GetToolDefinitions()

	for _, tool := range tools {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema == nil {
				t.Fatal("Tool InputSchema is nil")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema properties missing")
			}

			// Every required parameter must be declared.
			if required, ok := tool.InputSchema["required"]; ok {
				list, ok := required.([]string)
				if !ok {
					t.Fatal("'required' should be a string slice")
				}
				for _, r := range list {
					if _, ok := props[r]; !ok {
						t.Errorf("required %q not in properties", r)
					}
				}
			}
		})
	}
}

func TestToolDefinitions_RequiredID(t *testing.T) {
	toolsRequiringID := []string{
		"problem_get",
		"problem_set_note",
		"problem_remove",
		"crop_session_open",
		"crop_pointer_down",
		"crop_pointer_move",
		"crop_pointer_up",
		"crop_set_rotation",
		"crop_set_viewport",
		"crop_session_commit",
		"crop_session_cancel",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	for _, name := range toolsRequiringID {
		t.Run(name, func(t *testing.T) {
			tool, ok := toolMap[name]
			if !ok {
				t.Fatal("tool not found")
			}
			required, _ := tool.InputSchema["required"].([]string)
			for _, r := range required {
				if r == "id" {
					return
				}
			}
			t.Error("Tool should require 'id' parameter")
		})
	}
}

func TestToolDefinitions_LayoutGridEnum(t *testing.T) {
	var tool Tool
	for _, tt := range GetToolDefinitions() {
		if tt.Name == "layout_render" {
			tool = tt
			break
		}
	}
	if tool.Name == "" {
		t.Fatal("layout_render tool not found")
	}

	props := tool.InputSchema["properties"].(map[string]interface{})
	grid := props["grid"].(map[string]interface{})
	enum, ok := grid["enum"].([]string)
	if !ok {
		t.Fatal("grid enum should be a string slice")
	}

	want := map[string]bool{"1x1": true, "1x2": true, "2x2": true, "2x3": true}
	for _, g := range enum {
		if !want[g] {
			t.Errorf("unexpected grid %q", g)
		}
		delete(want, g)
	}
	for g := range want {
		t.Errorf("grid %q missing from enum", g)
	}
}
