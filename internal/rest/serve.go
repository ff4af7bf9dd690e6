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

// Package rest is the module's HTTP entry point: a thin gin-gonic server
// that decodes an uploaded image and job settings, calls into
// internal/grainproc, and streams the result back. It is strictly a caller
// of the core pipeline; grainproc never imports gin or net/http.
package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/mlnoga/filmgrain/internal/grainerr"
	"github.com/mlnoga/filmgrain/internal/grainproc"
)

// Serve starts the API server on the default gin address.
func Serve() {
	r := gin.Default()
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/healthz", getHealthz)
			v1.POST("/process", postProcess)
		}
	}
	r.Run() // listen and serve on $PORT, or 0.0.0.0:8080 if unset
}

func getHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// postProcess accepts a multipart form with an "image" file field (JPEG or
// PNG) and a "settings" field holding a JSON-encoded grainproc.Settings, runs
// the pipeline, and streams back the encoded result. The response body is
// the image itself, so progress lines travel in the X-Process-Log header
// (newlines collapsed), or in the "log" field of the JSON error body.
func postProcess(c *gin.Context) {
	defer debug.FreeOSMemory()

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("missing image field: %s", err.Error())})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	srcImg, format, err := image.Decode(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("decoding image: %s", err.Error())})
		return
	}

	var settings grainproc.Settings
	if raw := c.PostForm("settings"); len(raw) > 0 {
		if err := json.Unmarshal([]byte(raw), &settings); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("parsing settings: %s", err.Error())})
			return
		}
		settings.HasSeed = json.Valid([]byte(raw)) && hasSeedField(raw)
	}

	img := grainproc.FromImage(srcImg)

	var logBuf bytes.Buffer
	printProgress(&logBuf, "settings", settings)
	out, err := grainproc.Process(img, settings, &logBuf)
	if err != nil {
		status := http.StatusInternalServerError
		if gerr, ok := err.(*grainerr.Error); ok && gerr.Kind != grainerr.InternalInvariantViolated {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error(), "log": logBuf.String()})
		return
	}

	c.Header("X-Process-Log", singleLine(logBuf.String()))
	writeImage(c, out.ToImage(), format)
}

// hasSeedField reports whether the raw JSON settings payload explicitly
// named a seed, so caller-provided seed=0 isn't mistaken for "no seed".
func hasSeedField(raw string) bool {
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return false
	}
	_, ok := m["seed"]
	return ok
}

func singleLine(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, ';', ' ')
		} else {
			out = append(out, s[i])
		}
	}
	return string(out)
}

func writeImage(c *gin.Context, img image.Image, format string) {
	var buf bytes.Buffer
	var contentType string
	var err error
	switch format {
	case "png":
		contentType = "image/png"
		err = png.Encode(&buf, img)
	default:
		contentType = "image/jpeg"
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95})
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("encoding result: %s", err.Error())})
		return
	}
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// printProgress echoes the incoming job arguments for debugging, one JSON
// block per call, matching grainproc.Process's own fmt.Fprintf convention.
func printProgress(w io.Writer, label string, v interface{}) {
	m, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "%s: error marshaling: %s\n", label, err.Error())
		return
	}
	fmt.Fprintf(w, "%s:\n%s\n", label, string(m))
}
