package resources

import (
	"embed"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
)

const (
	imageDir = "images/"
	soundDir = "sounds/"
)

//go:embed images/*.png
var imageFS embed.FS

//go:embed sounds/*.wav
var soundFS embed.FS

var imageCache sync.Map
var soundCache sync.Map

// Image returns a Fyne resource for the given image file.
func Image(fileName string) (fyne.Resource, error) {
	return loadResource(imageFS, imageDir+fileName, &imageCache)
}

// MustImage returns a Fyne resource or panics on error.
func MustImage(fileName string) fyne.Resource {
	resource, err := Image(fileName)
	if err != nil {
		panic(err)
	}
	return resource
}

// Sound returns the raw WAV data for the given cue file.
func Sound(fileName string) ([]byte, error) {
	path := soundDir + fileName
	if cached, ok := soundCache.Load(path); ok {
		return cached.([]byte), nil
	}

	data, err := soundFS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load resource %s: %w", path, err)
	}

	soundCache.Store(path, data)
	return data, nil
}

// MustSound returns raw WAV data or panics on error.
func MustSound(fileName string) []byte {
	data, err := Sound(fileName)
	if err != nil {
		panic(err)
	}
	return data
}

func loadResource(fs embed.FS, path string, cache *sync.Map) (fyne.Resource, error) {
	if cached, ok := cache.Load(path); ok {
		return cached.(fyne.Resource), nil
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load resource %s: %w", path, err)
	}

	resource := fyne.NewStaticResource(path, data)
	cache.Store(path, resource)
	return resource, nil
}
