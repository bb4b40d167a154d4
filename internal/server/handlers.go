package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/ironsheep/doc-rectify-mcp/internal/analysis"
	"github.com/ironsheep/doc-rectify-mcp/internal/editor"
	"github.com/ironsheep/doc-rectify-mcp/internal/imaging"
	"github.com/ironsheep/doc-rectify-mcp/internal/layout"
	"github.com/ironsheep/doc-rectify-mcp/internal/pipeline"
)

var (
	ErrProblemNotFound = errors.New("problem not found")
	ErrSessionNotFound = errors.New("no crop session open")
	ErrSessionActive   = errors.New("crop session already open")
	ErrNoImageInput    = errors.New("either path or image_base64 is required")
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "document_process", "crop_pointer_move").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`

	// Meta carries the optional progress token for long-running tools.
	Meta *struct {
		ProgressToken interface{} `json:"progressToken,omitempty"`
	} `json:"_meta,omitempty"`
}

func (p ToolCallParams) progressToken() interface{} {
	if p.Meta == nil {
		return nil
	}
	return p.Meta.ProgressToken
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	s.debugf("Tool call: %s", params.Name)
	result, err := s.executeTool(params)
	if err != nil {
		s.debugf("Tool %s failed: %v", params.Name, err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(params ToolCallParams) (interface{}, error) {
	args := params.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch params.Name {
	// Automatic Processing
	case "document_analyze":
		return s.handleDocumentAnalyze(args)
	case "document_process":
		return s.handleDocumentProcess(args)
	case "document_process_batch":
		return s.handleDocumentProcessBatch(args, params.progressToken())

	// Problem Records
	case "problem_list":
		return s.handleProblemList()
	case "problem_get":
		return s.handleProblemGet(args)
	case "problem_set_note":
		return s.handleProblemSetNote(args)
	case "problem_remove":
		return s.handleProblemRemove(args)

	// Crop Editing
	case "crop_session_open":
		return s.handleCropSessionOpen(args)
	case "crop_pointer_down":
		return s.handleCropPointerDown(args)
	case "crop_pointer_move":
		return s.handleCropPointerMove(args)
	case "crop_pointer_up":
		return s.handleCropPointerUp(args)
	case "crop_set_rotation":
		return s.handleCropSetRotation(args)
	case "crop_set_viewport":
		return s.handleCropSetViewport(args)
	case "crop_session_commit":
		return s.handleCropSessionCommit(args)
	case "crop_session_cancel":
		return s.handleCropSessionCancel(args)

	// Printing
	case "layout_render":
		return s.handleLayoutRender(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", params.Name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Shared helpers ===

// pipelineFor returns the server pipeline, or one built from per-call
// option overrides.
func (s *Server) pipelineFor(raw json.RawMessage) (*pipeline.Pipeline, error) {
	if len(raw) == 0 {
		return s.pipe, nil
	}
	opts, err := s.opts.Merge(raw)
	if err != nil {
		return nil, err
	}
	return pipeline.New(opts)
}

type imageInput struct {
	Path        string `json:"path"`
	ImageBase64 string `json:"image_base64"`
}

// read returns the upload's display name and bytes.
func (in imageInput) read() (string, []byte, error) {
	switch {
	case in.Path != "":
		data, err := os.ReadFile(in.Path)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read image: %w", err)
		}
		return filepath.Base(in.Path), data, nil
	case in.ImageBase64 != "":
		data, err := base64.StdEncoding.DecodeString(in.ImageBase64)
		if err != nil {
			return "", nil, fmt.Errorf("invalid image_base64: %w", err)
		}
		return "upload", data, nil
	}
	return "", nil, ErrNoImageInput
}

// imageOutput is a JPEG result, either inline or written to Path.
type imageOutput struct {
	*imaging.EncodedImage
	Path string `json:"path,omitempty"`
}

func newImageOutput(data []byte, mimeType, outputPath string) (*imageOutput, error) {
	enc, err := imaging.Describe(data, mimeType)
	if err != nil {
		return nil, err
	}
	out := &imageOutput{EncodedImage: enc}
	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", outputPath, err)
		}
		out.ImageBase64 = ""
		out.Path = outputPath
	}
	return out, nil
}

// storedOutput wraps problem bytes. Undecodable uploads are returned as
// they were stored.
func storedOutput(data []byte, decoded bool, outputPath string) (*imageOutput, error) {
	if decoded {
		return newImageOutput(data, "", outputPath)
	}
	return &imageOutput{EncodedImage: &imaging.EncodedImage{
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "application/octet-stream",
	}}, nil
}

// lookup returns the problem with id. s.mu must be held.
func (s *Server) lookup(id string) (*pipeline.Problem, error) {
	p, ok := s.problems[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProblemNotFound, id)
	}
	return p, nil
}

// session returns the open session on id. s.mu must be held.
func (s *Server) session(id string) (*editor.Session, error) {
	if _, err := s.lookup(id); err != nil {
		return nil, err
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

func (s *Server) store(p *pipeline.Problem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.problems[p.ID] = p
	s.order = append(s.order, p.ID)
}

// source returns the decoded original of p, decoding once per problem.
func (s *Server) source(p *pipeline.Problem) (image.Image, error) {
	if img, ok := s.cache.Get(p.ID); ok {
		return img, nil
	}
	img, err := imaging.DecodeBytes(p.Original)
	if err != nil {
		return nil, err
	}
	s.cache.Put(p.ID, img)
	return img, nil
}

// === Automatic Processing Handlers ===

type documentAnalyzeArgs struct {
	imageInput
	Options json.RawMessage `json:"options"`
}

type analyzeResult struct {
	analysis.Result
	Width  int          `json:"width"`
	Height int          `json:"height"`
	Crop   imaging.Rect `json:"crop"`
}

func (s *Server) handleDocumentAnalyze(args json.RawMessage) (interface{}, error) {
	var a documentAnalyzeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	pipe, err := s.pipelineFor(a.Options)
	if err != nil {
		return nil, err
	}

	var img image.Image
	if a.Path != "" {
		img, err = s.cache.Load(a.Path)
	} else {
		var data []byte
		if _, data, err = a.read(); err == nil {
			img, err = imaging.DecodeBytes(data)
		}
	}
	if err != nil {
		return nil, err
	}

	res, err := pipe.Analyze(img)
	if err != nil {
		return nil, err
	}
	return &analyzeResult{
		Result: res,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Crop:   pipe.CropFor(img, res),
	}, nil
}

type documentProcessArgs struct {
	imageInput
	Name       string          `json:"name"`
	Options    json.RawMessage `json:"options"`
	OutputPath string          `json:"output_path"`
}

type problemResult struct {
	Problem  *pipeline.Problem `json:"problem"`
	Image    *imageOutput      `json:"image,omitempty"`
	Original *imageOutput      `json:"original,omitempty"`
}

func (s *Server) handleDocumentProcess(args json.RawMessage) (interface{}, error) {
	var a documentProcessArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	pipe, err := s.pipelineFor(a.Options)
	if err != nil {
		return nil, err
	}
	name, data, err := a.read()
	if err != nil {
		return nil, err
	}
	if a.Name != "" {
		name = a.Name
	}

	prob, err := pipe.Process(s.ctx, name, data)
	if err != nil {
		return nil, err
	}
	out, err := newImageOutput(prob.Processed, "image/jpeg", a.OutputPath)
	if err != nil {
		return nil, err
	}
	s.store(prob)
	return &problemResult{Problem: prob, Image: out}, nil
}

type documentProcessBatchArgs struct {
	Paths   []string        `json:"paths"`
	Options json.RawMessage `json:"options"`
}

type batchItem struct {
	Name    string `json:"name"`
	ID      string `json:"id,omitempty"`
	Decoded bool   `json:"decoded"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleDocumentProcessBatch(args json.RawMessage, token interface{}) (interface{}, error) {
	var a documentProcessBatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, fmt.Errorf("paths must not be empty")
	}
	pipe, err := s.pipelineFor(a.Options)
	if err != nil {
		return nil, err
	}

	items := make([]batchItem, len(a.Paths))
	var inputs []pipeline.Input
	var slots []int
	for i, path := range a.Paths {
		name, data, err := imageInput{Path: path}.read()
		items[i].Name = filepath.Base(path)
		if err != nil {
			items[i].Error = err.Error()
			continue
		}
		inputs = append(inputs, pipeline.Input{Name: name, Data: data})
		slots = append(slots, i)
	}

	var progress pipeline.ProgressFunc
	if token != nil {
		progress = func(done, total int) {
			s.notify("notifications/progress", map[string]interface{}{
				"progressToken": token,
				"progress":      done,
				"total":         total,
			})
		}
	}

	for j, r := range pipe.ProcessBatch(s.ctx, inputs, progress) {
		item := &items[slots[j]]
		if r.Err != nil {
			item.Error = r.Err.Error()
		}
		if r.Problem != nil {
			s.store(r.Problem)
			item.ID = r.Problem.ID
			item.Decoded = r.Problem.Decoded()
		}
	}
	return map[string]interface{}{"results": items}, nil
}

// === Problem Record Handlers ===

func (s *Server) handleProblemList() (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*pipeline.Problem, 0, len(s.order))
	for _, id := range s.order {
		list = append(list, s.problems[id])
	}
	return map[string]interface{}{"problems": list}, nil
}

type problemGetArgs struct {
	ID              string `json:"id"`
	IncludeOriginal bool   `json:"include_original"`
	OutputPath      string `json:"output_path"`
}

func (s *Server) handleProblemGet(args json.RawMessage) (interface{}, error) {
	var a problemGetArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prob, err := s.lookup(a.ID)
	if err != nil {
		return nil, err
	}

	res := &problemResult{Problem: prob}
	if res.Image, err = storedOutput(prob.Processed, prob.Decoded(), a.OutputPath); err != nil {
		return nil, err
	}
	if a.IncludeOriginal {
		if res.Original, err = storedOutput(prob.Original, prob.Decoded(), ""); err != nil {
			return nil, err
		}
	}
	return res, nil
}

type problemSetNoteArgs struct {
	ID   string `json:"id"`
	Note string `json:"note"`
}

func (s *Server) handleProblemSetNote(args json.RawMessage) (interface{}, error) {
	var a problemSetNoteArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prob, err := s.lookup(a.ID)
	if err != nil {
		return nil, err
	}
	prob.Note = a.Note
	return prob, nil
}

type idArgs struct {
	ID string `json:"id"`
}

func (s *Server) handleProblemRemove(args json.RawMessage) (interface{}, error) {
	var a idArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.lookup(a.ID); err != nil {
		return nil, err
	}
	delete(s.problems, a.ID)
	delete(s.sessions, a.ID)
	for i, id := range s.order {
		if id == a.ID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.cache.Evict(a.ID)
	return map[string]interface{}{"removed": a.ID}, nil
}

// === Crop Editing Handlers ===

type sessionState struct {
	ID       string          `json:"id"`
	Mode     editor.Mode     `json:"mode"`
	Crop     imaging.Rect    `json:"crop"`
	Rotation float64         `json:"rotation"`
	Viewport editor.Viewport `json:"viewport"`
	Width    float64         `json:"width"`
	Height   float64         `json:"height"`
}

func stateOf(id string, sess *editor.Session) *sessionState {
	w, h := sess.Size()
	return &sessionState{
		ID:       id,
		Mode:     sess.Mode(),
		Crop:     sess.Crop(),
		Rotation: sess.Rotation(),
		Viewport: sess.Viewport(),
		Width:    w,
		Height:   h,
	}
}

type cropSessionOpenArgs struct {
	ID      string   `json:"id"`
	Zoom    float64  `json:"zoom"`
	CenterX *float64 `json:"center_x"`
	CenterY *float64 `json:"center_y"`
}

func (s *Server) handleCropSessionOpen(args json.RawMessage) (interface{}, error) {
	var a cropSessionOpenArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prob, err := s.lookup(a.ID)
	if err != nil {
		return nil, err
	}
	if !prob.Decoded() {
		return nil, fmt.Errorf("problem %s has no decodable image to edit", a.ID)
	}
	if _, open := s.sessions[a.ID]; open {
		return nil, fmt.Errorf("%w: %s", ErrSessionActive, a.ID)
	}

	sess, err := editor.NewSession(prob.Width, prob.Height, prob.Crop, prob.Rotation, s.opts.MinSizePx)
	if err != nil {
		return nil, err
	}
	vp := sess.Viewport()
	if a.Zoom != 0 {
		vp.Zoom = a.Zoom
	}
	if a.CenterX != nil {
		vp.CenterX = *a.CenterX
	}
	if a.CenterY != nil {
		vp.CenterY = *a.CenterY
	}
	if err := sess.SetViewport(vp); err != nil {
		return nil, err
	}
	s.sessions[a.ID] = sess
	return stateOf(a.ID, sess), nil
}

type cropPointerArgs struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

func (s *Server) handleCropPointerDown(args json.RawMessage) (interface{}, error) {
	var a cropPointerArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(a.ID)
	if err != nil {
		return nil, err
	}
	sess.PointerDown(editor.Point{X: a.X, Y: a.Y})
	return stateOf(a.ID, sess), nil
}

func (s *Server) handleCropPointerMove(args json.RawMessage) (interface{}, error) {
	var a cropPointerArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(a.ID)
	if err != nil {
		return nil, err
	}
	if _, err := sess.PointerMove(editor.Point{X: a.X, Y: a.Y}); err != nil {
		return nil, err
	}
	return stateOf(a.ID, sess), nil
}

func (s *Server) handleCropPointerUp(args json.RawMessage) (interface{}, error) {
	var a idArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(a.ID)
	if err != nil {
		return nil, err
	}
	sess.PointerUp()
	return stateOf(a.ID, sess), nil
}

type cropSetRotationArgs struct {
	ID          string  `json:"id"`
	Angle       float64 `json:"angle"`
	QuarterTurn bool    `json:"quarter_turn"`
}

func (s *Server) handleCropSetRotation(args json.RawMessage) (interface{}, error) {
	var a cropSetRotationArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(a.ID)
	if err != nil {
		return nil, err
	}
	if a.QuarterTurn {
		sess.QuarterTurn()
	} else {
		sess.SetRotation(a.Angle)
	}
	return stateOf(a.ID, sess), nil
}

type cropSetViewportArgs struct {
	ID      string   `json:"id"`
	Zoom    float64  `json:"zoom"`
	CenterX *float64 `json:"center_x"`
	CenterY *float64 `json:"center_y"`
}

func (s *Server) handleCropSetViewport(args json.RawMessage) (interface{}, error) {
	var a cropSetViewportArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(a.ID)
	if err != nil {
		return nil, err
	}
	vp := sess.Viewport()
	vp.Zoom = a.Zoom
	if a.CenterX != nil {
		vp.CenterX = *a.CenterX
	}
	if a.CenterY != nil {
		vp.CenterY = *a.CenterY
	}
	if err := sess.SetViewport(vp); err != nil {
		return nil, err
	}
	return stateOf(a.ID, sess), nil
}

type cropSessionCommitArgs struct {
	ID         string          `json:"id"`
	Options    json.RawMessage `json:"options"`
	OutputPath string          `json:"output_path"`
}

func (s *Server) handleCropSessionCommit(args json.RawMessage) (interface{}, error) {
	var a cropSessionCommitArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	pipe, err := s.pipelineFor(a.Options)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(a.ID)
	if err != nil {
		return nil, err
	}
	prob := s.problems[a.ID]
	src, err := s.source(prob)
	if err != nil {
		return nil, err
	}
	crop, rotation := sess.Crop(), sess.Rotation()
	data, err := pipe.Commit(src, crop, rotation)
	if err != nil {
		return nil, err
	}
	// The output is written before anything changes, so a failed write
	// leaves the problem and the session as they were.
	out, err := newImageOutput(data, "image/jpeg", a.OutputPath)
	if err != nil {
		return nil, err
	}
	prob.Commit(data, crop, rotation)
	delete(s.sessions, a.ID)
	return &problemResult{Problem: prob, Image: out}, nil
}

func (s *Server) handleCropSessionCancel(args json.RawMessage) (interface{}, error) {
	var a idArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.session(a.ID); err != nil {
		return nil, err
	}
	delete(s.sessions, a.ID)
	return map[string]interface{}{"closed": a.ID}, nil
}

// === Printing Handlers ===

type layoutRenderArgs struct {
	IDs       []string `json:"ids"`
	Grid      string   `json:"grid"`
	Title     string   `json:"title"`
	Scale     float64  `json:"scale"`
	OutputDir string   `json:"output_dir"`
}

func (s *Server) handleLayoutRender(args json.RawMessage) (interface{}, error) {
	var a layoutRenderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	grid, err := layout.ParseGrid(a.Grid)
	if err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	s.mu.Lock()
	ids := a.IDs
	if len(ids) == 0 {
		ids = append([]string(nil), s.order...)
	}
	items := make([]layout.Item, 0, len(ids))
	skipped := []string{}
	for _, id := range ids {
		prob, err := s.lookup(id)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		// Undecodable uploads have no image to print.
		if !prob.Decoded() {
			skipped = append(skipped, id)
			continue
		}
		img, err := imaging.DecodeBytes(prob.Processed)
		if err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("problem %s: %w", id, err)
		}
		items = append(items, layout.Item{Image: img, Note: prob.Note})
	}
	s.mu.Unlock()
	if len(items) == 0 {
		return nil, fmt.Errorf("no printable problems to lay out")
	}

	opts := layout.DefaultPage()
	opts.Title = a.Title
	opts.Scale = a.Scale
	pages, err := layout.Render(items, grid, opts)
	if err != nil {
		return nil, err
	}

	out := make([]*imageOutput, 0, len(pages))
	for i, page := range pages {
		data, err := imaging.EncodeJPEG(page, s.opts.JPEGQuality)
		if err != nil {
			return nil, err
		}
		path := ""
		if a.OutputDir != "" {
			path = filepath.Join(a.OutputDir, fmt.Sprintf("page-%d.jpg", i+1))
		}
		img, err := newImageOutput(data, "image/jpeg", path)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return map[string]interface{}{
		"grid":    grid,
		"pages":   out,
		"skipped": skipped,
	}, nil
}
