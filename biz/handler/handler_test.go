package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"testing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yi-nology/cos_bridge/biz/dal/db"
	"github.com/yi-nology/cos_bridge/biz/service"
	"github.com/yi-nology/cos_bridge/pkg/storage/memory"
	"github.com/yi-nology/cos_bridge/pkg/validator"
)

type envelope struct {
	Code  int             `json:"code"`
	Msg   string          `json:"msg"`
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) (*server.Hertz, *memory.Storage) {
	t.Helper()
	store := memory.New(memory.Config{Bucket: "test-bucket"})
	svc := service.NewService(db.SetupTestDB(t), store, service.Options{
		StorePath: "uploads",
		Upload:    validator.NewUploadConfig(64, 64, nil),
	})
	h := New(svc)

	srv := server.New()
	srv.GET("/ping", Ping)
	v1 := srv.Group("/api/v1")
	v1.POST("/cos", h.UploadObject)
	v1.GET("/cos", h.GetObject)
	v1.POST("/cos/preview", h.PreviewObject)
	v1.POST("/cos/delete", h.DeleteObject)
	v1.POST("/cos/initMultipartUpload", h.InitMultipartUpload)
	v1.POST("/cos/uploadPart", h.UploadPart)
	v1.POST("/cos/completeMultipartUpload", h.CompleteMultipartUpload)
	v1.POST("/cos/abortMultipartUpload", h.AbortMultipartUpload)
	v1.POST("/files", h.UploadFile)
	v1.GET("/files", h.ListFiles)
	v1.GET("/files/:id", h.GetFile)
	v1.GET("/files/:id/path", h.GetFilePath)
	v1.GET("/files/:id/content", h.GetFileContent)
	v1.DELETE("/files/:id", h.DeleteFile)
	v1.POST("/folders", h.CreateFolder)
	v1.DELETE("/folders/:id", h.DeleteFolder)
	return srv, store
}

func multipartBody(t *testing.T, field, fileName string, content []byte, values map[string]string) (*ut.Body, ut.Header) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile(field, fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &ut.Body{Body: &buf, Len: buf.Len()}, ut.Header{Key: "Content-Type", Value: w.FormDataContentType()}
}

func jsonBody(t *testing.T, v any) (*ut.Body, ut.Header) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return &ut.Body{Body: bytes.NewReader(raw), Len: len(raw)}, ut.Header{Key: "Content-Type", Value: "application/json"}
}

func decode(t *testing.T, w *ut.ResponseRecorder, data any) envelope {
	t.Helper()
	resp := w.Result()
	require.Equal(t, 200, resp.StatusCode())
	var env envelope
	require.NoError(t, json.Unmarshal(resp.Body(), &env))
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func TestPing(t *testing.T) {
	srv, _ := newTestServer(t)
	env := decode(t, ut.PerformRequest(srv.Engine, "GET", "/ping", nil), nil)
	assert.Equal(t, 200, env.Code)
	assert.Equal(t, "pong", env.Msg)
}

func TestFolderAndFileFlow(t *testing.T) {
	srv, store := newTestServer(t)

	body, ct := jsonBody(t, map[string]string{"name": "docs"})
	var folder struct {
		ID  string `json:"id"`
		Key string `json:"key"`
	}
	env := decode(t, ut.PerformRequest(srv.Engine, "POST", "/api/v1/folders", body, ct), &folder)
	require.Equal(t, 200, env.Code, env.Error)
	assert.Equal(t, "docs/", folder.Key)

	body, ct = multipartBody(t, "file", "a.pdf", []byte("%PDF-1.4"), map[string]string{"parent_id": folder.ID})
	var uploaded struct {
		URL    string `json:"url"`
		Key    string `json:"key"`
		Record struct {
			ID string `json:"id"`
		} `json:"record"`
	}
	env = decode(t, ut.PerformRequest(srv.Engine, "POST", "/api/v1/files", body, ct), &uploaded)
	require.Equal(t, 200, env.Code, env.Error)
	assert.Regexp(t, `^docs/[0-9a-f-]{36}\.pdf$`, uploaded.Key)

	var resolved struct {
		Path string `json:"path"`
	}
	env = decode(t, ut.PerformRequest(srv.Engine, "GET", "/api/v1/files/"+uploaded.Record.ID+"/path", nil), &resolved)
	require.Equal(t, 200, env.Code, env.Error)
	assert.Equal(t, uploaded.Key, resolved.Path)

	var listing struct {
		Total int `json:"total"`
	}
	env = decode(t, ut.PerformRequest(srv.Engine, "GET", "/api/v1/files?parent_id="+folder.ID, nil), &listing)
	require.Equal(t, 200, env.Code, env.Error)
	assert.Equal(t, 1, listing.Total)

	w := ut.PerformRequest(srv.Engine, "GET", "/api/v1/files/"+uploaded.Record.ID+"/content", nil)
	assert.Equal(t, "%PDF-1.4", string(w.Result().Body()))

	body, ct = jsonBody(t, map[string]string{"name": "docs"})
	env = decode(t, ut.PerformRequest(srv.Engine, "POST", "/api/v1/folders", body, ct), nil)
	assert.Equal(t, 400, env.Code)
	assert.Contains(t, env.Error, "folder already exists")

	env = decode(t, ut.PerformRequest(srv.Engine, "DELETE", "/api/v1/folders/"+folder.ID, nil), nil)
	require.Equal(t, 200, env.Code, env.Error)
	assert.Zero(t, store.Len())

	env = decode(t, ut.PerformRequest(srv.Engine, "GET", "/api/v1/files/"+folder.ID, nil), nil)
	assert.Equal(t, 404, env.Code)
}

func TestUploadErrorsMapToCodes(t *testing.T) {
	srv, store := newTestServer(t)

	body, ct := multipartBody(t, "file", "big.bin", bytes.Repeat([]byte("x"), 65), nil)
	env := decode(t, ut.PerformRequest(srv.Engine, "POST", "/api/v1/cos", body, ct), nil)
	assert.Equal(t, 400, env.Code)
	assert.Zero(t, store.Len())

	body, ct = multipartBody(t, "other", "a.txt", []byte("x"), nil)
	env = decode(t, ut.PerformRequest(srv.Engine, "POST", "/api/v1/files", body, ct), nil)
	assert.Equal(t, 400, env.Code)

	body, ct = multipartBody(t, "file", "a.txt", []byte("x"), map[string]string{"parent_id": "missing"})
	env = decode(t, ut.PerformRequest(srv.Engine, "POST", "/api/v1/files", body, ct), nil)
	assert.Equal(t, 404, env.Code)
}

func TestDirectObjectEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	body, ct := multipartBody(t, "file", "clip.mp4", []byte("frames"), nil)
	var obj struct {
		URL string `json:"url"`
		Key string `json:"key"`
	}
	env := decode(t, ut.PerformRequest(srv.Engine, "POST", "/api/v1/cos", body, ct), &obj)
	require.Equal(t, 200, env.Code, env.Error)
	assert.Regexp(t, `^uploads/[0-9]+-clip\.mp4$`, obj.Key)

	w := ut.PerformRequest(srv.Engine, "GET", "/api/v1/cos?key="+obj.Key, nil)
	assert.Equal(t, "frames", string(w.Result().Body()))

	jb, jct := jsonBody(t, map[string]string{"key": obj.Key})
	var preview struct {
		URL string `json:"url"`
	}
	env = decode(t, ut.PerformRequest(srv.Engine, "POST", "/api/v1/cos/preview", jb, jct), &preview)
	require.Equal(t, 200, env.Code, env.Error)
	assert.Contains(t, preview.URL, obj.Key)

	jb, jct = jsonBody(t, map[string]string{"key": obj.Key})
	env = decode(t, ut.PerformRequest(srv.Engine, "POST", "/api/v1/cos/delete", jb, jct), nil)
	require.Equal(t, 200, env.Code, env.Error)

	env = decode(t, ut.PerformRequest(srv.Engine, "GET", "/api/v1/cos?key="+obj.Key, nil), nil)
	assert.Equal(t, 404, env.Code)
}

func TestMultipartEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	jb, jct := jsonBody(t, map[string]string{"key": "big.bin"})
	var session struct {
		Key      string `json:"key"`
		UploadID string `json:"uploadId"`
	}
	env := decode(t, ut.PerformRequest(srv.Engine, "POST", "/api/v1/cos/initMultipartUpload", jb, jct), &session)
	require.Equal(t, 200, env.Code, env.Error)

	type part struct {
		ETag       string `json:"eTag"`
		PartNumber int32  `json:"partNumber"`
	}
	var parts []part
	for i, chunk := range []string{"AA", "BB"} {
		body, ct := multipartBody(t, "chunk", "blob", []byte(chunk), map[string]string{
			"key":        session.Key,
			"uploadId":   session.UploadID,
			"partNumber": fmt.Sprint(i + 1),
		})
		var p part
		env = decode(t, ut.PerformRequest(srv.Engine, "POST", "/api/v1/cos/uploadPart", body, ct), &p)
		require.Equal(t, 200, env.Code, env.Error)
		assert.Equal(t, int32(i+1), p.PartNumber)
		parts = append(parts, p)
	}

	jb, jct = jsonBody(t, map[string]any{"key": session.Key, "uploadId": session.UploadID, "parts": parts})
	var done struct {
		Key      string `json:"key"`
		Location string `json:"location"`
	}
	env = decode(t, ut.PerformRequest(srv.Engine, "POST", "/api/v1/cos/completeMultipartUpload", jb, jct), &done)
	require.Equal(t, 200, env.Code, env.Error)
	assert.Equal(t, "big.bin", done.Key)

	w := ut.PerformRequest(srv.Engine, "GET", "/api/v1/cos?key=big.bin", nil)
	assert.Equal(t, "AABB", string(w.Result().Body()))

	jb, jct = jsonBody(t, map[string]string{"key": session.Key, "uploadId": session.UploadID})
	env = decode(t, ut.PerformRequest(srv.Engine, "POST", "/api/v1/cos/abortMultipartUpload", jb, jct), nil)
	assert.Equal(t, 502, env.Code)
}

func TestCodeFor(t *testing.T) {
	cases := map[error]int{
		service.ErrValidation:     400,
		service.ErrNotFolder:      400,
		service.ErrFolderExists:   400,
		service.ErrNotFound:       404,
		service.ErrRecordNotFound: 404,
		service.ErrObjectNotFound: 404,
		service.ErrCycleDetected:  409,
		service.ErrUploadFailed:   400,
		service.ErrDeleteFailed:   400,
		service.ErrStore:          502,
		fmt.Errorf("boom"):        500,
	}
	for err, want := range cases {
		assert.Equal(t, want, codeFor(fmt.Errorf("wrapped: %w", err)), err.Error())
	}
}
