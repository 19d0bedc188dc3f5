package raster

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/airbusgeo/godal"
)

var registerDriversOnce sync.Once

func registerDrivers() {
	registerDriversOnce.Do(godal.RegisterInternalDrivers)
}

// Load decodes a multi-band geospatial raster file into a Scene.
//
// expectedBands is the number of bands read into the scene; the file must
// carry at least that many. Pass 0 to read every band present. Validation
// failures surface as *MalformedRasterError, *MissingGeoreferenceError or
// *UnsupportedFormatError. The context is checked between band reads so a
// cancelled load aborts without finishing the remaining bands.
func Load(ctx context.Context, path string, expectedBands int) (*Scene, error) {
	registerDrivers()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dataset, err := godal.Open(path)
	if err != nil {
		return nil, &UnsupportedFormatError{Path: path, Err: err}
	}
	defer dataset.Close()

	structure := dataset.Structure()
	width, height := structure.SizeX, structure.SizeY
	if width <= 0 || height <= 0 {
		return nil, &MalformedRasterError{Path: path, Detail: fmt.Sprintf("invalid dimensions %dx%d", width, height)}
	}

	bands := dataset.Bands()
	if len(bands) == 0 {
		return nil, &MalformedRasterError{Path: path, Detail: "no raster bands"}
	}
	if expectedBands <= 0 {
		expectedBands = len(bands)
	}
	if len(bands) < expectedBands {
		return nil, &MalformedRasterError{Path: path, Detail: fmt.Sprintf("expected %d bands, found %d", expectedBands, len(bands))}
	}

	geoTransform, err := dataset.GeoTransform()
	if err != nil {
		return nil, &MissingGeoreferenceError{Path: path, Detail: "no geotransform"}
	}
	transform := Transform(geoTransform)
	if transform.Determinant() == 0 {
		return nil, &MissingGeoreferenceError{Path: path, Detail: "degenerate geotransform"}
	}

	spatialRef := dataset.SpatialRef()
	if spatialRef == nil {
		return nil, &MissingGeoreferenceError{Path: path, Detail: "no spatial reference"}
	}
	defer spatialRef.Close()
	crs, err := spatialRef.WKT()
	if err != nil || crs == "" {
		return nil, &MissingGeoreferenceError{Path: path, Detail: "no spatial reference"}
	}

	scene, err := NewScene(width, height, expectedBands, crs, transform)
	if err != nil {
		return nil, &MalformedRasterError{Path: path, Detail: err.Error()}
	}

	for i := 0; i < expectedBands; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		band := bands[i]
		bandStructure := band.Structure()
		if bandStructure.SizeX != width || bandStructure.SizeY != height {
			return nil, &MalformedRasterError{
				Path: path,
				Detail: fmt.Sprintf("band %d is %dx%d, scene is %dx%d",
					i+1, bandStructure.SizeX, bandStructure.SizeY, width, height),
			}
		}
		if err := band.Read(0, 0, scene.Bands[i], width, height); err != nil {
			return nil, &MalformedRasterError{Path: path, Detail: fmt.Sprintf("reading band %d: %v", i+1, err)}
		}
	}

	return scene, nil
}

// LoadBytes decodes an in-memory raster buffer by staging it to a
// temporary file for the driver layer. The file is removed before
// returning.
func LoadBytes(ctx context.Context, data []byte, expectedBands int) (*Scene, error) {
	tmp, err := os.CreateTemp("", "flood-scene-*.tif")
	if err != nil {
		return nil, fmt.Errorf("staging raster buffer: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("staging raster buffer: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("staging raster buffer: %w", err)
	}

	return Load(ctx, tmp.Name(), expectedBands)
}
