package unitypackage

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"

	"assetpack/internal/assets"
)

// ErrMalformed reports a package whose GUID directories are incomplete.
var ErrMalformed = errors.New("malformed unitypackage")

// ErrEntryTooLarge reports a tar entry above the per-entry read limit.
var ErrEntryTooLarge = errors.New("unitypackage entry too large")

// maxEntryBytes bounds a single decoded entry.
var maxEntryBytes int64 = 512 << 20

// Asset is one GUID directory of a package.
type Asset struct {
	GUID     string `json:"guid"`
	Pathname string `json:"pathname"`
	Meta     []byte `json:"-"`
	Data     []byte `json:"-"`
	// HasData is false for folders, which carry only meta and pathname.
	HasData bool `json:"hasData"`
}

// Size returns the asset payload size in bytes.
func (a Asset) Size() int64 { return int64(len(a.Data)) }

// Package is the decoded content of a .unitypackage stream.
type Package struct {
	Assets []Asset
	Icon   []byte
}

// Read decodes a gzip-compressed tar stream. Assets are returned sorted by
// pathname. Entries other than asset, asset.meta and pathname (such as
// preview.png) are ignored.
func Read(r io.Reader) (*Package, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer gz.Close()
	tr := tar.NewReader(gz)

	pkg := &Package{}
	byGUID := map[string]*Asset{}
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		name := strings.TrimPrefix(hdr.Name, "./")
		if name == assets.IconName {
			if pkg.Icon, err = readEntry(tr, hdr); err != nil {
				return nil, err
			}
			continue
		}

		guid, entry, ok := strings.Cut(name, "/")
		if !ok || guid == "" {
			continue
		}
		switch entry {
		case entryAsset, entryMeta, entryPathname:
		default:
			continue
		}
		data, err := readEntry(tr, hdr)
		if err != nil {
			return nil, err
		}

		asset := byGUID[guid]
		if asset == nil {
			asset = &Asset{GUID: guid}
			byGUID[guid] = asset
		}
		switch entry {
		case entryAsset:
			asset.Data = data
			asset.HasData = true
		case entryMeta:
			asset.Meta = data
		case entryPathname:
			// Some exporters append a second line with extra data.
			line, _, _ := strings.Cut(string(data), "\n")
			asset.Pathname = strings.TrimRight(line, "\r")
		}
	}

	for guid, asset := range byGUID {
		if asset.Pathname == "" {
			return nil, fmt.Errorf("%w: %s has no pathname", ErrMalformed, guid)
		}
		pkg.Assets = append(pkg.Assets, *asset)
	}
	sort.Slice(pkg.Assets, func(i, j int) bool {
		return pkg.Assets[i].Pathname < pkg.Assets[j].Pathname
	})
	return pkg, nil
}

// readEntry reads exactly hdr.Size bytes, refusing entries above
// maxEntryBytes before allocating.
func readEntry(r io.Reader, hdr *tar.Header) ([]byte, error) {
	if hdr.Size < 0 || hdr.Size > maxEntryBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrEntryTooLarge, hdr.Name, hdr.Size)
	}
	data := make([]byte, hdr.Size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("read %s: %w", hdr.Name, err)
	}
	return data, nil
}
