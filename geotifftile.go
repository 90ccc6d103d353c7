package terrainrgb

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/google/tiff"
	_ "github.com/google/tiff/bigtiff"
	_ "github.com/google/tiff/geotiff"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/paulmach/orb"
	"golang.org/x/image/tiff/lzw"
)

// TIFF compression schemes.
const (
	compressionNone = 1
	compressionLZW  = 5
)

var errShortRead = errors.New("short read")

// A geoTIFFFile is the subset of an fs.File that a GeoTIFFTile needs.
type geoTIFFFile interface {
	io.ReadSeeker
	io.ReaderAt
	io.Closer
}

// A GeoTIFFTile is an open single-band float32 GeoTIFF file in geographic
// coordinates. Its samples are addressed by pixel column and row.
type GeoTIFFTile struct {
	file                      geoTIFFFile
	imageWidth                int
	imageLength               int
	tileWidth                 int
	tileLength                int
	tilesAcross               int
	tilesDown                 int
	compression               int
	tileOffsets               []uint64
	tileByteCounts            []uint64
	smallestTileByteCount     uint64
	tileSampleCount           int
	tileByteCountUncompressed int
	tileCacheSizeBytes        int
	noData                    float32
	hasNoData                 bool
	scaleX                    float64
	scaleY                    float64
	translateX                float64
	translateY                float64

	mutex            sync.Mutex
	tileSamplesCache *lru.Cache[Coord, []float32]
	emptyTileBytes   []byte
}

// A GeoTIFFTileOption sets an option on a GeoTIFFTile.
type GeoTIFFTileOption func(*GeoTIFFTile)

// A geoTIFFIFD is a struct into which github.com/google/tiff can unmarshal an
// IFD.
type geoTIFFIFD struct {
	ImageWidth                uint16    `tiff:"field,tag=256"`
	ImageLength               uint16    `tiff:"field,tag=257"`
	BitsPerSample             uint16    `tiff:"field,tag=258"`
	Compression               uint16    `tiff:"field,tag=259"`
	PhotometricInterpretation uint16    `tiff:"field,tag=262"`
	SamplesPerPixel           uint16    `tiff:"field,tag=277"`
	PlanarConfiguration       uint16    `tiff:"field,tag=284"`
	Predictor                 uint16    `tiff:"field,tag=317"`
	TileWidth                 uint16    `tiff:"field,tag=322"`
	TileLength                uint16    `tiff:"field,tag=323"`
	TileOffsets               []uint64  `tiff:"field,tag=324"`
	TileByteCounts            []uint64  `tiff:"field,tag=325"`
	SampleFormat              uint16    `tiff:"field,tag=339"`
	ModelPixelScaleTag        []float64 `tiff:"field,tag=33550"`
	ModelTiepointTag          []float64 `tiff:"field,tag=33922"`
	GeoKeyDirectoryTag        []uint16  `tiff:"field,tag=34735"`
	GeoDoubleParamsTag        []float64 `tiff:"field,tag=34736"`
	GeoASCIIParamsTag         string    `tiff:"field,tag=34737"`
	GDALNoData                string    `tiff:"field,tag=42113"`
}

// NewGeoTIFFTile opens filename in fsys as a GeoTIFFTile. The file must be
// tiled, little endian, uncompressed or LZW compressed, and have a geographic
// model type.
func NewGeoTIFFTile(fsys fs.FS, filename string, options ...GeoTIFFTileOption) (*GeoTIFFTile, error) {
	var err error
	ok := false

	f := &GeoTIFFTile{
		tileCacheSizeBytes: 128 << 20, // 128MB.
	}
	for _, option := range options {
		option(f)
	}

	file, err := fsys.Open(filename)
	if err != nil {
		return nil, err
	}
	geoTIFFFile, isGeoTIFFFile := file.(geoTIFFFile)
	if !isGeoTIFFFile {
		_ = file.Close()
		return nil, fmt.Errorf("%s: file does not support random access: %w", filename, errors.ErrUnsupported)
	}
	f.file = geoTIFFFile
	defer func() {
		if !ok {
			_ = f.file.Close()
		}
	}()

	tiffTIFF, err := tiff.Parse(f.file, tiff.GetTagSpace("GeoTIFF"), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	if len(tiffTIFF.IFDs()) != 1 {
		return nil, fmt.Errorf("%s: found %d IFDs, expected 1", filename, len(tiffTIFF.IFDs()))
	}

	var ifd geoTIFFIFD
	if err := tiff.UnmarshalIFD(tiffTIFF.IFDs()[0], &ifd); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	if ifd.BitsPerSample != 32 ||
		(ifd.Compression != compressionNone && ifd.Compression != compressionLZW) ||
		ifd.SamplesPerPixel != 1 ||
		ifd.PlanarConfiguration != 1 ||
		ifd.Predictor > 1 ||
		ifd.SampleFormat != 3 ||
		ifd.TileWidth == 0 || ifd.TileLength == 0 ||
		len(ifd.ModelPixelScaleTag) != 3 ||
		len(ifd.ModelTiepointTag) != 6 {
		return nil, fmt.Errorf("%s: unsupported sample layout: %w", filename, errors.ErrUnsupported)
	}

	geoKeys, err := ParseGeoKeys(ifd.GeoKeyDirectoryTag, ifd.GeoDoubleParamsTag, []byte(ifd.GeoASCIIParamsTag))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if modelType := geoKeys.ModelType(); modelType != ModelTypeGeographic {
		return nil, fmt.Errorf("%s: model type %d: %w", filename, modelType, errors.ErrUnsupported)
	}

	f.compression = int(ifd.Compression)
	f.imageWidth = int(ifd.ImageWidth)
	f.imageLength = int(ifd.ImageLength)
	f.tileWidth = int(ifd.TileWidth)
	f.tileLength = int(ifd.TileLength)
	f.tilesAcross = (f.imageWidth + f.tileWidth - 1) / f.tileWidth
	f.tilesDown = (f.imageLength + f.tileLength - 1) / f.tileLength
	tilesPerImage := f.tilesAcross * f.tilesDown
	if len(ifd.TileByteCounts) != tilesPerImage || len(ifd.TileOffsets) != tilesPerImage {
		return nil, fmt.Errorf("%s: incorrect number of tile byte counts or offsets", filename)
	}
	f.tileOffsets = ifd.TileOffsets
	f.tileByteCounts = ifd.TileByteCounts
	f.smallestTileByteCount = slices.Min(ifd.TileByteCounts)
	f.tileSampleCount = f.tileWidth * f.tileLength
	f.tileByteCountUncompressed = f.tileSampleCount * int(ifd.BitsPerSample) / 8

	if f.noData, f.hasNoData, err = parseNoData(ifd.GDALNoData); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	scaleX, scaleY := ifd.ModelPixelScaleTag[0], ifd.ModelPixelScaleTag[1]
	if !isFinite(scaleX) || !isFinite(scaleY) || scaleX <= 0 || scaleY <= 0 {
		return nil, fmt.Errorf("%s: pixel scale %v: %w", filename, ifd.ModelPixelScaleTag, ErrInvalidGeometry)
	}
	i, j := ifd.ModelTiepointTag[0], ifd.ModelTiepointTag[1]
	x, y := ifd.ModelTiepointTag[3], ifd.ModelTiepointTag[4]
	f.scaleX = scaleX
	f.scaleY = scaleY
	f.translateX = x - i*scaleX
	f.translateY = y + j*scaleY
	if geoKeys.RasterType() == RasterTypePixelIsPoint {
		f.translateX -= scaleX / 2
		f.translateY += scaleY / 2
	}

	if err := f.initCache(); err != nil {
		return nil, err
	}

	ok = true
	return f, nil
}

// WithTileCacheSize sets the maximum size, in bytes, of decoded tiles cached
// by a GeoTIFFTile.
func WithTileCacheSize(tileCacheSize int) GeoTIFFTileOption {
	return func(f *GeoTIFFTile) {
		f.tileCacheSizeBytes = tileCacheSize
	}
}

// Close closes f's underlying file.
func (f *GeoTIFFTile) Close() error {
	return f.file.Close()
}

// Bounds returns the geographic bounds of f.
func (f *GeoTIFFTile) Bounds() Rect {
	return Rect{
		West:  f.translateX,
		South: f.translateY - float64(f.imageLength)*f.scaleY,
		East:  f.translateX + float64(f.imageWidth)*f.scaleX,
		North: f.translateY,
	}
}

// Size returns the width and height of f in pixels.
func (f *GeoTIFFTile) Size() (int, int) {
	return f.imageWidth, f.imageLength
}

// PixelCoord returns the fractional pixel coordinates of p. Pixel (x, y) covers
// [x, x+1) × [y, y+1).
func (f *GeoTIFFTile) PixelCoord(p orb.Point) (float64, float64) {
	return f.pixelCoord(p.Lon(), p.Lat())
}

func (f *GeoTIFFTile) pixelCoord(lon, lat float64) (float64, float64) {
	return (lon - f.translateX) / f.scaleX, (f.translateY - lat) / f.scaleY
}

// Sample returns the sample at coord, or NaN if there is no data.
func (f *GeoTIFFTile) Sample(ctx context.Context, coord Coord) (float64, error) {
	localTileCoord, ok := f.localTileCoord(coord)
	if !ok {
		return math.NaN(), nil
	}
	tileSamples, err := f.getTileSamplesCached(ctx, localTileCoord)
	if err != nil {
		return 0, err
	}
	return f.tileSample(tileSamples, coord), nil
}

// Samples returns the samples at coords. Missing samples are represented by
// NaNs. It is significantly faster than calling [GeoTIFFTile.Sample] for each
// coordinate.
func (f *GeoTIFFTile) Samples(ctx context.Context, coords []Coord) ([]float64, error) {
	samples := make([]float64, len(coords))

	// Group indexes by local tile coord.
	indexesByLocalTileCoord := make(map[Coord][]int)
	for index, coord := range coords {
		localTileCoord, ok := f.localTileCoord(coord)
		if !ok {
			samples[index] = math.NaN()
			continue
		}
		indexesByLocalTileCoord[localTileCoord] = append(indexesByLocalTileCoord[localTileCoord], index)
	}

	// Populate samples one local tile at a time.
	for localTileCoord, indexes := range indexesByLocalTileCoord {
		tileSamples, err := f.getTileSamplesCached(ctx, localTileCoord)
		if err != nil {
			return nil, err
		}
		for _, index := range indexes {
			samples[index] = f.tileSample(tileSamples, coords[index])
		}
	}

	return samples, nil
}

func (f *GeoTIFFTile) initCache() error {
	tileCacheCount := max(f.tileCacheSizeBytes/f.tileByteCountUncompressed, 1)
	var err error
	f.tileSamplesCache, err = lru.New[Coord, []float32](tileCacheCount)
	return err
}

// getCompressedTileData returns the compressed tile data for the data at
// localTileCoord. It returns nil if the tile is known to be empty.
func (f *GeoTIFFTile) getCompressedTileData(localTileCoord Coord) ([]byte, error) {
	tileIndex := localTileCoord.X + f.tilesAcross*localTileCoord.Y
	tileByteCount := f.tileByteCounts[tileIndex]
	if tileByteCount == 0 {
		return nil, nil
	}
	tileOffset := f.tileOffsets[tileIndex]
	compressedData := make([]byte, tileByteCount)
	switch n, err := f.file.ReadAt(compressedData, int64(tileOffset)); {
	case n == int(tileByteCount):
	case err != nil:
		return nil, err
	default:
		return nil, errShortRead
	}
	if f.emptyTileBytes != nil && bytes.Equal(compressedData, f.emptyTileBytes) {
		return nil, nil
	}
	return compressedData, nil
}

// decompressTileData decompresses the tile data in compressedData.
func (f *GeoTIFFTile) decompressTileData(compressedData []byte) ([]byte, error) {
	if f.compression == compressionNone {
		if len(compressedData) < f.tileByteCountUncompressed {
			return nil, errShortRead
		}
		return compressedData, nil
	}
	tileData := make([]byte, f.tileByteCountUncompressed)
	r := lzw.NewReader(bytes.NewReader(compressedData), lzw.MSB, 8)
	defer r.Close()
	if _, err := io.ReadFull(r, tileData); err != nil {
		return nil, err
	}
	return tileData, nil
}

// decodeTileData decodes tileData.
func (f *GeoTIFFTile) decodeTileData(tileData []byte) []float32 {
	tileSamples := make([]float32, f.tileSampleCount)
	for i := range f.tileSampleCount {
		b := binary.LittleEndian.Uint32(tileData[i*4 : (i+1)*4])
		tileSamples[i] = math.Float32frombits(b)
	}
	return tileSamples
}

// getTileSamples returns the tile samples at localTileCoord, or nil if the
// tile is empty. f.mutex must be held.
func (f *GeoTIFFTile) getTileSamples(localTileCoord Coord) ([]float32, error) {
	// Retrieve the compressed tile data.
	compressedTileData, err := f.getCompressedTileData(localTileCoord)
	if err != nil || compressedTileData == nil {
		return nil, err
	}

	// Decompress the tile data and decode it.
	tileData, err := f.decompressTileData(compressedTileData)
	if err != nil {
		return nil, err
	}
	tileSamples := f.decodeTileData(tileData)

	// If we do not know what an empty tile looks like compressed, check to see
	// if this is an empty tile, and, if so, use its bytes to detect empty tiles
	// before they are decompressed. We assume that the empty tile is the
	// smallest tile.
	if f.hasNoData && f.emptyTileBytes == nil && len(compressedTileData) == int(f.smallestTileByteCount) {
		isEmptyTile := true
		for _, sample := range tileSamples {
			if sample != f.noData {
				isEmptyTile = false
				break
			}
		}
		if isEmptyTile {
			f.emptyTileBytes = compressedTileData
			return nil, nil
		}
	}

	return tileSamples, nil
}

// getTileSamplesCached returns the tile at localTileCoord using f's cache.
func (f *GeoTIFFTile) getTileSamplesCached(ctx context.Context, localTileCoord Coord) ([]float32, error) {
	if tileSamples, ok := f.tileSamplesCache.Get(localTileCoord); ok {
		geoTIFFTileCacheHits.Inc()
		return tileSamples, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	if tileSamples, ok := f.tileSamplesCache.Get(localTileCoord); ok {
		geoTIFFTileCacheHits.Inc()
		return tileSamples, nil
	}

	geoTIFFTileCacheMisses.Inc()

	tileSamples, err := f.getTileSamples(localTileCoord)
	if err != nil {
		return nil, err
	}
	f.tileSamplesCache.Add(localTileCoord, tileSamples)
	return tileSamples, nil
}

// localTileCoord returns the column and row of the tile containing coord.
func (f *GeoTIFFTile) localTileCoord(coord Coord) (Coord, bool) {
	if coord.X < 0 || f.imageWidth <= coord.X || coord.Y < 0 || f.imageLength <= coord.Y {
		return Coord{}, false
	}
	return Coord{
		X: coord.X / f.tileWidth,
		Y: coord.Y / f.tileLength,
	}, true
}

// tileSample returns the sample from tileSamples at coord. A nil tileSamples
// is an empty tile.
func (f *GeoTIFFTile) tileSample(tileSamples []float32, coord Coord) float64 {
	if tileSamples == nil {
		return math.NaN()
	}
	sample := tileSamples[coord.X%f.tileWidth+(coord.Y%f.tileLength)*f.tileWidth]
	if math.IsNaN(float64(sample)) || f.hasNoData && sample == f.noData {
		return math.NaN()
	}
	return float64(sample)
}

// parseNoData parses the value of a GDAL_NODATA tag.
func parseNoData(s string) (float32, bool, error) {
	s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
	if s == "" || strings.EqualFold(s, "nan") {
		return 0, false, nil
	}
	noData, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, false, fmt.Errorf("%s: invalid no data value: %w", s, err)
	}
	return float32(noData), true, nil
}
