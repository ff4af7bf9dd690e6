// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package rest

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/healthz", getHealthz)
			v1.POST("/process", postProcess)
		}
	}
	return r
}

func TestGetHealthzReturnsOK(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func encodePNGFixture(t *testing.T, w, h int, gray uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: gray})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func multipartProcessRequest(t *testing.T, pngBytes []byte, settingsJSON string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("image", "fixture.png")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(pngBytes); err != nil {
		t.Fatal(err)
	}
	if settingsJSON != "" {
		if err := mw.WriteField("settings", settingsJSON); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/process", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestPostProcessSucceedsWithValidSettings(t *testing.T) {
	router := newTestRouter()
	pngBytes := encodePNGFixture(t, 20, 20, 128)
	settingsJSON := `{"iso":400,"filmType":"kodak","grainIntensity":1,"upscaleFactor":1,"seed":42}`
	req := multipartProcessRequest(t, pngBytes, settingsJSON)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if rec.Body.Len() == 0 {
		t.Error("expected non-empty encoded image body")
	}
}

func TestPostProcessRejectsMissingImage(t *testing.T) {
	router := newTestRouter()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("settings", `{"iso":400,"filmType":"kodak"}`)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/process", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestPostProcessRejectsInvalidSettings(t *testing.T) {
	router := newTestRouter()
	pngBytes := encodePNGFixture(t, 10, 10, 100)
	settingsJSON := `{"iso":1,"filmType":"kodak"}`
	req := multipartProcessRequest(t, pngBytes, settingsJSON)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d; body=%s", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
}

func TestHasSeedFieldDetectsExplicitSeed(t *testing.T) {
	if !hasSeedField(`{"iso":400,"seed":0}`) {
		t.Error("expected hasSeedField to detect an explicit seed of 0")
	}
	if hasSeedField(`{"iso":400}`) {
		t.Error("expected hasSeedField to report false when seed is absent")
	}
}

func TestSingleLineCollapsesNewlines(t *testing.T) {
	got := singleLine("a\nb\nc")
	if got != "a; b; c" {
		t.Errorf("singleLine = %q, want %q", got, "a; b; c")
	}
}
