// Package server implements the MCP (Model Context Protocol) server for
// document rectification.
//
// The server exposes the rectification pipeline, stored problem records,
// interactive crop sessions and print layout as MCP tools over a JSON-RPC
// 2.0 stdio transport.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses and notifications on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Automatic Processing:
//   - document_analyze: Content box and skew of a photo
//   - document_process: Full pipeline, stores a problem
//   - document_process_batch: Many files, with progress notifications
//
// Problem Records:
//   - problem_list, problem_get, problem_set_note, problem_remove
//
// Crop Editing:
//   - crop_session_open, crop_session_commit, crop_session_cancel
//   - crop_pointer_down, crop_pointer_move, crop_pointer_up
//   - crop_set_rotation, crop_set_viewport
//
// Printing:
//   - layout_render: A4 sheets in a 1x1, 1x2, 2x2 or 2x3 grid
//
// # State
//
// Problems live in memory for the lifetime of the process, in creation
// order. Each problem keeps its original upload; decoded originals are
// cached by problem id so repeated commits do not decode again. At most one
// crop session is open per problem.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv, err := server.New(config.Load())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
