package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartUpload(t *testing.T, files map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("comment", "ignored"))
	for name, content := range files {
		part, err := mw.CreateFormFile(name, "upload")
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/packages/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestPackageHandler_UploadAndServe(t *testing.T) {
	env := setupTest(t)

	req := multipartUpload(t, map[string]string{
		"content/content.json": `{"q":1}`,
		"Foo-1.0/a.js":         "var a;",
	})
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var upload UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &upload))
	assert.NotEmpty(t, upload.UploadKey)
	assert.Equal(t, 2, upload.Files)

	w = env.do(t, http.MethodPost, "/api/v1/instances", CreateInstanceRequest{Name: "Quiz", UploadKey: upload.UploadKey})
	require.Equal(t, http.StatusCreated, w.Code)

	var created CreateInstanceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Empty(t, created.PackageError)

	t.Run("ContentFile", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/mod/hvp/files/content/"+strconv.FormatInt(created.ID, 10)+"/content.json", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, `{"q":1}`, w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Type"), "json")
	})

	t.Run("LibraryFile", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/mod/hvp/files/libraries/Foo-1.0/a.js", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "var a;", w.Body.String())
	})

	t.Run("Missing", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/mod/hvp/files/libraries/Foo-1.0/missing.js", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("DeleteRemovesContent", func(t *testing.T) {
		w := env.do(t, http.MethodDelete, "/api/v1/instances/"+strconv.FormatInt(created.ID, 10), nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = env.do(t, http.MethodGet, "/mod/hvp/files/content/"+strconv.FormatInt(created.ID, 10)+"/content.json", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPackageHandler_StagedFilesAreHidden(t *testing.T) {
	env := setupTest(t)

	req := multipartUpload(t, map[string]string{"content/content.json": `{"q":1}`})
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var upload UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &upload))

	w = env.do(t, http.MethodGet, "/mod/hvp/files/temp/"+upload.UploadKey+"/content/content.json", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/mod/hvp/files/libraries/../temp/"+upload.UploadKey+"/content/content.json", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPackageHandler_UploadErrors(t *testing.T) {
	env := setupTest(t)

	t.Run("NotMultipart", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/packages/uploads", map[string]string{"a": "b"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("NoFiles", func(t *testing.T) {
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, multipartUpload(t, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
