package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// Shared schema fragments.
var (
	pathProperty = map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file. Either path or image_base64 is required.",
	}
	imageBase64Property = map[string]interface{}{
		"type":        "string",
		"description": "Image bytes (PNG, JPEG, GIF, WebP, BMP or TIFF) as base64",
	}
	optionsProperty = map[string]interface{}{
		"type":        "object",
		"description": "Pipeline option overrides for this call, e.g. {\"analyzer\":\"density\",\"enable_scan_filter\":false}",
	}
	outputPathProperty = map[string]interface{}{
		"type":        "string",
		"description": "Optional path to write the JPEG to. When set, base64 image data is omitted from the result.",
	}
	problemIDProperty = map[string]interface{}{
		"type":        "string",
		"description": "Problem id returned by document_process",
	}
	pointerSchema = map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id": problemIDProperty,
			"x": map[string]interface{}{
				"type":        "number",
				"description": "Pointer X in screen pixels",
			},
			"y": map[string]interface{}{
				"type":        "number",
				"description": "Pointer Y in screen pixels",
			},
		},
		"required": []string{"id", "x", "y"},
	}
	idOnlySchema = map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id": problemIDProperty,
		},
		"required": []string{"id"},
	}
)

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Automatic Processing
		{
			Name:        "document_analyze",
			Description: "Locate the printed content of a document photo and the rotation that straightens it. Returns box_2d [ymin,xmin,ymax,xmax] on a 0-1000 scale, rotation_angle in degrees and the matching crop rectangle in source pixels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":         pathProperty,
					"image_base64": imageBase64Property,
					"options":      optionsProperty,
				},
			},
		},
		{
			Name:        "document_process",
			Description: "Analyze, crop, straighten, remove shadows, apply the scan filter and trim a document photo. Stores the result as a problem for later editing and returns it with the processed JPEG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":         pathProperty,
					"image_base64": imageBase64Property,
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Display name. Defaults to the file name.",
					},
					"options":     optionsProperty,
					"output_path": outputPathProperty,
				},
			},
		},
		{
			Name:        "document_process_batch",
			Description: "Process several image files. Each file succeeds or fails on its own; undecodable files are kept unprocessed. Sends notifications/progress when the request carries a progressToken.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths of the images to process",
					},
					"options": optionsProperty,
				},
				"required": []string{"paths"},
			},
		},

		// Problem Records
		{
			Name:        "problem_list",
			Description: "List stored problems in creation order.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "problem_get",
			Description: "Return one problem with its processed JPEG, and optionally the original upload.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": problemIDProperty,
					"include_original": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the original image bytes",
					},
					"output_path": outputPathProperty,
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "problem_set_note",
			Description: "Attach a free-text note to a problem. It is printed under the problem by layout_render.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": problemIDProperty,
					"note": map[string]interface{}{
						"type": "string",
					},
				},
				"required": []string{"id", "note"},
			},
		},
		{
			Name:        "problem_remove",
			Description: "Delete a problem and any open crop session on it.",
			InputSchema: idOnlySchema,
		},

		// Crop Editing
		{
			Name:        "crop_session_open",
			Description: "Open an interactive crop session on a problem. Only one session per problem may be open. Pointer coordinates are screen pixels of a display centered at (center_x, center_y), scaled by zoom and rotated by the session rotation.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": problemIDProperty,
					"zoom": map[string]interface{}{
						"type":        "number",
						"description": "Display scale. Default 1.0",
						"default":     1.0,
					},
					"center_x": map[string]interface{}{
						"type":        "number",
						"description": "Display center X in screen pixels. Defaults to the image center.",
					},
					"center_y": map[string]interface{}{
						"type":        "number",
						"description": "Display center Y in screen pixels. Defaults to the image center.",
					},
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "crop_pointer_down",
			Description: "Press at a screen point. Grabs a corner or edge handle, or the rectangle body to move it. Returns the started mode (none when nothing was hit).",
			InputSchema: pointerSchema,
		},
		{
			Name:        "crop_pointer_move",
			Description: "Drag the active handle to a screen point. The rectangle always stays inside the image and at least the minimum size.",
			InputSchema: pointerSchema,
		},
		{
			Name:        "crop_pointer_up",
			Description: "Release the pointer. Safe to call when nothing is held.",
			InputSchema: idOnlySchema,
		},
		{
			Name:        "crop_set_rotation",
			Description: "Set the session rotation in degrees (clockwise), or advance it by a quarter turn.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": problemIDProperty,
					"angle": map[string]interface{}{
						"type":        "number",
						"description": "Rotation in degrees, positive is clockwise",
					},
					"quarter_turn": map[string]interface{}{
						"type":        "boolean",
						"description": "Snap to the next multiple of 90 degrees instead of using angle",
					},
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "crop_set_viewport",
			Description: "Change the display zoom and center used to interpret pointer coordinates.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id":       problemIDProperty,
					"zoom":     map[string]interface{}{"type": "number"},
					"center_x": map[string]interface{}{"type": "number"},
					"center_y": map[string]interface{}{"type": "number"},
				},
				"required": []string{"id", "zoom"},
			},
		},
		{
			Name:        "crop_session_commit",
			Description: "Render the session crop and rotation from the original image (no trimming), store it on the problem and close the session.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id":          problemIDProperty,
					"options":     optionsProperty,
					"output_path": outputPathProperty,
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "crop_session_cancel",
			Description: "Close the session without changing the problem.",
			InputSchema: idOnlySchema,
		},

		// Printing
		{
			Name:        "layout_render",
			Description: "Lay problems out on A4 sheets (794x1123 px at scale 1) in a 1x1, 1x2, 2x2 or 2x3 grid and return the sheets as JPEG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"ids": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Problems to print, in order. Defaults to all problems.",
					},
					"grid": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"1x1", "1x2", "2x2", "2x3"},
						"description": "Columns x rows. Default 1x2",
						"default":     "1x2",
					},
					"title": map[string]interface{}{
						"type":        "string",
						"description": "Printed at the top of every sheet",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Resolution multiplier. Default 1.0",
						"default":     1.0,
					},
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Optional directory to write page-N.jpg files to instead of returning base64",
					},
				},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
