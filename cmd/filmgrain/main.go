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

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mlnoga/filmgrain/internal/filmstock"
	"github.com/mlnoga/filmgrain/internal/grainproc"
	"github.com/mlnoga/filmgrain/internal/rest"
)

const version = "0.1.0"

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")

var port = flag.Int64("port", 8080, "port for serving HTTP API")
var chroot = flag.String("chroot", "", "directory to chroot and chdir to when serving HTTP. must be run as root")
var setuid = flag.Int64("setuid", -1, "user id number to setuid to when serving HTTP. must be run as root")
var job = flag.String("job", "", "JSON job specification to run, as an alternative to the flags below")

var in = flag.String("in", "", "process input image from `file`")
var out = flag.String("out", "out.jpg", "save output to `file`, format inferred from extension (.jpg/.jpeg or .png)")
var log = flag.String("log", "%auto", "save log output to `file`. `%auto` replaces suffix of output file with .log")

var iso = flag.Int64("iso", 400, "simulated film ISO/ASA speed, in [100,3200]")
var film = flag.String("film", "kodak", "simulated film stock, one of kodak, fuji, ilford")
var intensity = flag.Float64("intensity", 1.0, "grain intensity multiplier, >0")
var upscale = flag.Float64("upscale", 1.0, "process at this multiple of input resolution before downscaling back, >=1")
var seed = flag.Int64("seed", -1, "PRNG seed for grain generation, -1=derive deterministically from image dimensions and settings")

func main() {
	var logWriter io.Writer = os.Stdout
	start := time.Now()
	flag.Usage = func() {
		fmt.Fprintf(logWriter, `Filmgrain Copyright (c) 2020 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (process|serve|run|legal|version)

Commands:
  process Apply film grain to -in and write -out
  serve   Serve the HTTP API on -port
  run     Run a JSON job specification from the file named by -job
  legal   Show license and attribution information
  version Show version information

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *log == "%auto" {
		if *out != "" {
			*log = strings.TrimSuffix(*out, filepath.Ext(*out)) + ".log"
		} else {
			*log = ""
		}
	}
	if *log != "" {
		logFile, err := os.Create(*log)
		if err != nil {
			panic(fmt.Sprintf("Unable to open log file %s\n", *log))
		}
		logWriter = io.MultiWriter(logWriter, logFile)
	}

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		return
	}

	var err error
	switch args[0] {
	case "serve":
		rest.MakeSandbox(*chroot, int(*setuid))
		os.Setenv("PORT", fmt.Sprint(*port)) // gin's Run() listens on $PORT
		rest.Serve()

	case "process":
		err = runProcess(logWriter)

	case "run":
		err = runJob(logWriter)

	case "legal":
		fmt.Fprintf(logWriter, "%s\n", legal)

	case "version":
		fmt.Fprintf(logWriter, "Filmgrain version %s\n", version)

	default:
		flag.Usage()
		return
	}

	if err != nil {
		fmt.Fprintf(logWriter, "Error: %s\n", err.Error())
		os.Exit(-1)
	}
	fmt.Fprintf(logWriter, "Done after %v\n", time.Since(start))
}

// settingsFromFlags builds grainproc.Settings from the command line flags.
func settingsFromFlags() grainproc.Settings {
	s := grainproc.Settings{
		ISO:            int(*iso),
		FilmType:       filmstock.Type(*film),
		GrainIntensity: *intensity,
		UpscaleFactor:  *upscale,
	}
	if *seed >= 0 {
		s.Seed = uint64(*seed)
		s.HasSeed = true
	}
	return s
}

// runProcess loads -in, applies film grain per the flags, and writes -out.
func runProcess(logWriter io.Writer) error {
	if *in == "" {
		return fmt.Errorf("-in is required for the process command")
	}
	f, err := os.Open(*in)
	if err != nil {
		return err
	}
	defer f.Close()
	srcImg, _, err := image.Decode(f)
	if err != nil {
		return err
	}

	img := grainproc.FromImage(srcImg)
	outImg, err := grainproc.Process(img, settingsFromFlags(), logWriter)
	if err != nil {
		return err
	}
	return saveImage(outImg.ToImage(), *out)
}

// runJob decodes a JSON job specification (input path, output path, and
// grainproc.Settings) and runs it.
func runJob(logWriter io.Writer) error {
	content, err := ioutil.ReadFile(*job)
	if err != nil {
		return fmt.Errorf("opening %s: %w", *job, err)
	}
	var spec struct {
		In       string             `json:"in"`
		Out      string             `json:"out"`
		Settings grainproc.Settings `json:"settings"`
	}
	if err := json.Unmarshal(content, &spec); err != nil {
		return fmt.Errorf("unmarshaling JSON job: %w", err)
	}
	// An explicit "seed" in the settings counts as a supplied seed, even 0.
	var rawSpec struct {
		Settings map[string]json.RawMessage `json:"settings"`
	}
	if err := json.Unmarshal(content, &rawSpec); err == nil {
		_, spec.Settings.HasSeed = rawSpec.Settings["seed"]
	}

	f, err := os.Open(spec.In)
	if err != nil {
		return err
	}
	defer f.Close()
	srcImg, _, err := image.Decode(f)
	if err != nil {
		return err
	}

	img := grainproc.FromImage(srcImg)
	outImg, err := grainproc.Process(img, spec.Settings, logWriter)
	if err != nil {
		return err
	}
	return saveImage(outImg.ToImage(), spec.Out)
}

func saveImage(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return png.Encode(f, img)
	default:
		return jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
	}
}
