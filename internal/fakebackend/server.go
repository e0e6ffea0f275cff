// Package fakebackend はテスト用に非同期ジョブAPIを再現する gin サーバーです。
// 種別ごとに状態遷移の台本と失敗を設定でき、受け取ったアップロードや処理開始の本文を記録します。
package fakebackend

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yourusername/paper-courier/internal/ops"
)

// Verb はバックエンドへの呼び出し種別です。
type Verb string

const (
	VerbCreate   Verb = "create"
	VerbStart    Verb = "start"
	VerbStatus   Verb = "status"
	VerbDownload Verb = "download"
	VerbFile     Verb = "file"
)

// Step はステータス照会1回分の応答です。
type Step struct {
	Status    string
	Processed int
	Total     int
	Error     string
	Extras    map[string]any
}

// Behavior は種別ごとの振る舞いです。
type Behavior struct {
	// Steps はステータス照会ごとに順に返します。尽きた後は最後の Step を返し続けます。
	Steps []Step
	// FailCreate / FailStart が 0 以外の場合、そのステータスコードで失敗します。
	FailCreate int
	FailStart  int
	// FailStatusFrom 回目以降のステータス照会を 500 で失敗させます (1-based)。
	FailStatusFrom int
	Result         []byte
	ResultType     string
}

// Upload は受け取ったファイルです。
type Upload struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

type job struct {
	id          string
	op          ops.OperationType
	status      string
	uploads     []Upload
	form        map[string]string
	startBody   json.RawMessage
	started     bool
	statusCalls int
}

// Server はスクリプト可能なバックエンドです。
type Server struct {
	engine    *gin.Engine
	apiPrefix string

	mu        sync.Mutex
	behaviors map[ops.OperationType]Behavior
	jobs      map[string]*job
	order     []string
	calls     map[ops.OperationType]map[Verb]int
}

// New は apiPrefix 配下に全種別のルートを登録したサーバーを作成します。
func New(apiPrefix string) *Server {
	gin.SetMode(gin.TestMode)
	if apiPrefix == "" {
		apiPrefix = "/api"
	}
	s := &Server{
		engine:    gin.New(),
		apiPrefix: "/" + strings.Trim(apiPrefix, "/"),
		behaviors: make(map[ops.OperationType]Behavior),
		jobs:      make(map[string]*job),
		calls:     make(map[ops.OperationType]map[Verb]int),
	}
	s.engine.Use(gin.Recovery())
	s.registerRoutes()
	return s
}

// Handler は http.Handler を返します。httptest.NewServer に渡して使います。
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Script は種別の振る舞いを設定します。
func (s *Server) Script(op ops.OperationType, b Behavior) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.behaviors[op] = b
}

// Calls は種別・呼び出し種別ごとの呼び出し回数です。
func (s *Server) Calls(op ops.OperationType, verb Verb) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op][verb]
}

// JobIDs は作成されたジョブIDを作成順に返します。
func (s *Server) JobIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Uploads はジョブ作成時に受け取ったファイルを受信順に返します。
func (s *Server) Uploads(jobID string) []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[jobID]; ok {
		return append([]Upload(nil), j.uploads...)
	}
	return nil
}

// FormValues はジョブ作成時のテキスト項目です。
func (s *Server) FormValues(jobID string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[jobID]; ok {
		out := make(map[string]string, len(j.form))
		for k, v := range j.form {
			out[k] = v
		}
		return out
	}
	return nil
}

// StartBody は処理開始リクエストの本文です。受け取っていない場合は nil です。
func (s *Server) StartBody(jobID string) json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[jobID]; ok {
		return append(json.RawMessage(nil), j.startBody...)
	}
	return nil
}

func (s *Server) registerRoutes() {
	api := s.engine.Group(s.apiPrefix)
	for _, op := range ops.Types() {
		spec := ops.Specs[op]
		api.POST(ginPath(spec.CreatePath), s.createHandler(spec))
		if spec.TwoCall {
			api.POST(ginPath(spec.StartPath), s.startHandler(spec))
		}
		api.GET(ginPath(spec.StatusPath), s.statusHandler(spec))
		api.GET(ginPath(spec.DownloadPath), s.downloadHandler(spec))
	}
	s.engine.GET("/files/:id/:name", s.fileHandler)
}

func (s *Server) createHandler(spec ops.Spec) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.count(spec.Type, VerbCreate)
		b := s.behavior(spec.Type)
		if b.FailCreate != 0 {
			detail(c, b.FailCreate, "upload rejected")
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			detail(c, http.StatusBadRequest, "multipart/form-data required")
			return
		}
		defer form.RemoveAll()

		headers := form.File[spec.UploadField]
		if len(headers) == 0 {
			detail(c, http.StatusUnprocessableEntity, "field required: "+spec.UploadField)
			return
		}
		if !spec.MultiFile && len(headers) > 1 {
			detail(c, http.StatusBadRequest, "only one file allowed")
			return
		}

		uploads := make([]Upload, 0, len(headers))
		for _, fh := range headers {
			ctype := fh.Header.Get("Content-Type")
			if !acceptable(spec.Input, ctype) {
				detail(c, http.StatusBadRequest, rejectMessage(spec.Input))
				return
			}
			f, err := fh.Open()
			if err != nil {
				detail(c, http.StatusBadRequest, err.Error())
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				detail(c, http.StatusBadRequest, err.Error())
				return
			}
			uploads = append(uploads, Upload{Field: spec.UploadField, Filename: fh.Filename, ContentType: ctype, Data: data})
		}

		fields := make(map[string]string)
		for k, v := range form.Value {
			if len(v) > 0 {
				fields[k] = v[0]
			}
		}

		initial := "pending"
		code := http.StatusOK
		switch spec.Type {
		case ops.OperationPDFToImages:
			initial, code = "queued", http.StatusCreated
		case ops.OperationSplit, ops.OperationPDFToWord, ops.OperationImageConvert, ops.OperationRotate,
			ops.OperationImageCompress, ops.OperationImageResize, ops.OperationImageCrop, ops.OperationImageFilters:
			initial = "uploaded"
		}

		j := &job{id: uuid.NewString(), op: spec.Type, status: initial, uploads: uploads, form: fields}
		s.mu.Lock()
		s.jobs[j.id] = j
		s.order = append(s.order, j.id)
		s.mu.Unlock()

		c.JSON(code, gin.H{
			"job_id":   j.id,
			"status":   initial,
			"progress": gin.H{"percent": 0},
		})
	}
}

func (s *Server) startHandler(spec ops.Spec) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.count(spec.Type, VerbStart)
		j, ok := s.lookup(c, spec.Type)
		if !ok {
			return
		}
		b := s.behavior(spec.Type)
		if b.FailStart != 0 {
			detail(c, b.FailStart, "processing could not be started")
			return
		}

		body, _ := io.ReadAll(c.Request.Body)
		s.mu.Lock()
		defer s.mu.Unlock()
		if j.started {
			detail(c, http.StatusBadRequest, "Job already processed")
			return
		}
		j.started = true
		j.status = "processing"
		if len(body) > 0 {
			j.startBody = json.RawMessage(body)
		}
		c.JSON(http.StatusOK, gin.H{"job_id": j.id, "status": j.status})
	}
}

func (s *Server) statusHandler(spec ops.Spec) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.count(spec.Type, VerbStatus)
		j, ok := s.lookup(c, spec.Type)
		if !ok {
			return
		}
		b := s.behavior(spec.Type)

		s.mu.Lock()
		j.statusCalls++
		n := j.statusCalls
		s.mu.Unlock()

		if b.FailStatusFrom > 0 && n >= b.FailStatusFrom {
			detail(c, http.StatusInternalServerError, "status lookup failed")
			return
		}

		step := stepAt(b.Steps, n-1)
		s.mu.Lock()
		j.status = step.Status
		s.mu.Unlock()

		percent := 0
		switch {
		case step.Status == "completed":
			percent = 100
		case step.Total > 0:
			percent = step.Processed * 100 / step.Total
		}
		payload := gin.H{
			"job_id": j.id,
			"status": step.Status,
			"progress": gin.H{
				"percent":         percent,
				"processed_pages": step.Processed,
				"total_pages":     step.Total,
			},
			"error": nil,
		}
		if step.Error != "" {
			payload["error"] = step.Error
		}
		for k, v := range step.Extras {
			payload[k] = v
		}
		c.JSON(http.StatusOK, payload)
	}
}

func (s *Server) downloadHandler(spec ops.Spec) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.count(spec.Type, VerbDownload)
		j, ok := s.lookup(c, spec.Type)
		if !ok {
			return
		}
		s.mu.Lock()
		status := j.status
		s.mu.Unlock()
		if status != "completed" {
			detail(c, http.StatusBadRequest, "Job not completed")
			return
		}

		data, ctype, name := s.result(spec, c.Param("format"))
		c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
		c.Data(http.StatusOK, ctype, data)
	}
}

func (s *Server) fileHandler(c *gin.Context) {
	s.mu.Lock()
	j, ok := s.jobs[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		detail(c, http.StatusNotFound, "File not found")
		return
	}
	s.count(j.op, VerbFile)
	c.Data(http.StatusOK, "image/png", SamplePNG(2, 2))
}

func (s *Server) result(spec ops.Spec, format string) ([]byte, string, string) {
	b := s.behavior(spec.Type)
	if len(b.Result) > 0 {
		ctype := b.ResultType
		if ctype == "" {
			ctype = "application/octet-stream"
		}
		return b.Result, ctype, "result"
	}
	switch {
	case format == "txt":
		return []byte("page 1\nsample text\n"), "text/plain", "document_ocr.txt"
	case format == "json":
		return []byte(`{"total_pages":1,"pages":[{"page":1,"text":"sample text"}]}`), "application/json", "document_ocr.json"
	case spec.Type == ops.OperationPDFToWord:
		return SampleArchive(1, "xml"), "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "document.docx"
	case spec.Result == ops.ResultKindArchive:
		return SampleArchive(2, "png"), "application/zip", "images.zip"
	case spec.Input == ops.InputImage:
		return SamplePNG(4, 2), "image/png", "result.png"
	default:
		return SamplePDF(1), "application/pdf", "result.pdf"
	}
}

func (s *Server) lookup(c *gin.Context, op ops.OperationType) (*job, bool) {
	s.mu.Lock()
	j, ok := s.jobs[c.Param("id")]
	s.mu.Unlock()
	if !ok || j.op != op {
		detail(c, http.StatusNotFound, "Job not found")
		return nil, false
	}
	return j, true
}

func (s *Server) behavior(op ops.OperationType) Behavior {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.behaviors[op]
}

func (s *Server) count(op ops.OperationType, verb Verb) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls[op] == nil {
		s.calls[op] = make(map[Verb]int)
	}
	s.calls[op][verb]++
}

func stepAt(steps []Step, i int) Step {
	if len(steps) == 0 {
		return Step{Status: "completed"}
	}
	if i >= len(steps) {
		return steps[len(steps)-1]
	}
	return steps[i]
}

func acceptable(class ops.InputClass, contentType string) bool {
	switch class {
	case ops.InputPDF:
		return contentType == "application/pdf"
	case ops.InputScan:
		return contentType == "application/pdf" || contentType == "image/jpeg" || contentType == "image/png"
	}
	return strings.HasPrefix(contentType, "image/")
}

func rejectMessage(class ops.InputClass) string {
	switch class {
	case ops.InputPDF:
		return "Only PDF files allowed"
	case ops.InputScan:
		return "Only PDF, JPEG, and PNG files allowed"
	}
	return "File must be an image"
}

func detail(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"detail": message})
}

var ginParams = strings.NewReplacer("{id}", ":id", "{format}", ":format")

func ginPath(template string) string {
	return ginParams.Replace(template)
}
