//go:build js && wasm
// +build js,wasm

package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"syscall/js"

	"github.com/spf13/viper"

	"github.com/MeKo-Tech/noisetex/assets"
	"github.com/MeKo-Tech/noisetex/internal/gradient"
	"github.com/MeKo-Tech/noisetex/internal/imageio"
	"github.com/MeKo-Tech/noisetex/internal/texture"
)

// GenerateRequest is a texture request from JS. Omitted fields take the
// texture defaults.
type GenerateRequest struct {
	texture.Params
	Gradient     string `json:"gradient,omitempty"`
	GradientMode string `json:"gradient_mode,omitempty"`
	Tiled        bool   `json:"tiled,omitempty"`
}

type GenerateResponse struct {
	Key     string `json:"key,omitempty"`
	DataURL string `json:"data_url,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respond(r GenerateResponse) interface{} {
	b, _ := json.Marshal(r)
	return string(b)
}

// maxResolution bounds width and height of browser requests.
const maxResolution = 2048

// generateTexture synthesizes a texture in the browser and returns it as a
// PNG data URL inside a JSON response.
func generateTexture(this js.Value, args []js.Value) interface{} {
	payload := ""
	if len(args) > 0 {
		payload = args[0].String()
	}
	return respond(handleGenerate(payload))
}

// handleGenerate applies the same range checks as the CLI and server before
// generating.
func handleGenerate(payload string) GenerateResponse {
	req := GenerateRequest{Params: texture.DefaultParams()}
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return GenerateResponse{Error: fmt.Sprintf("failed to parse request: %v", err)}
		}
	}
	if err := req.Params.ValidateRanges(); err != nil {
		return GenerateResponse{Error: err.Error()}
	}
	if req.Width > maxResolution || req.Height > maxResolution {
		return GenerateResponse{Error: fmt.Sprintf("resolution %dx%d exceeds maximum %d", req.Width, req.Height, maxResolution)}
	}

	// Browsers run one goroutine at a time; skip band parallelism.
	tex, err := texture.NewSynthesizer(nil, 1).Generate(req.Params)
	if err != nil {
		return GenerateResponse{Error: err.Error()}
	}

	var img image.Image = tex.Gray()
	if req.Gradient != "" {
		g, err := gradient.Parse(req.Gradient, gradient.Mode(req.GradientMode))
		if err != nil {
			return GenerateResponse{Error: err.Error()}
		}
		img = g.Map(tex)
	}
	if req.Tiled {
		img = texture.TiledPreview(img)
	}

	encoded, err := imageio.EncodeToBytes(img, imageio.Options{PNGCompression: "speed"})
	if err != nil {
		return GenerateResponse{Error: err.Error()}
	}

	return GenerateResponse{
		Key:     req.Params.Key(),
		DataURL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(encoded),
	}
}

// presets returns the built-in presets as JSON.
func presets(this js.Value, args []js.Value) interface{} {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(assets.Presets)); err != nil {
		return respond(GenerateResponse{Error: err.Error()})
	}
	b, err := json.Marshal(v.Get("batch.textures"))
	if err != nil {
		return respond(GenerateResponse{Error: err.Error()})
	}
	return string(b)
}

func main() {
	c := make(chan struct{})

	js.Global().Set("noisetexGenerate", js.FuncOf(generateTexture))
	js.Global().Set("noisetexPresets", js.FuncOf(presets))

	fmt.Println("noisetex WASM module loaded")
	<-c
}
