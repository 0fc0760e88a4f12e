// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package inspect inventories an acquired DICOM directory: it groups files
// into series and reports which dcm2bids rule, if any, each series matches.
package inspect

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"sync/atomic"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
	"github.com/tidwall/match"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/fmri2bids/internal/logger"
	"github.com/pdiddy/fmri2bids/pkg/types"
)

// Header holds the DICOM attributes the inventory uses. Fields maps
// attribute keywords to values for rule matching.
type Header struct {
	SeriesInstanceUID string
	Fields            map[string]string
}

// matchedFields are the header attributes read from each file and offered
// to rule criteria.
var matchedFields = map[string]tag.Tag{
	"SeriesDescription": tag.SeriesDescription,
	"SeriesNumber":      tag.SeriesNumber,
	"ProtocolName":      tag.ProtocolName,
	"SequenceName":      tag.SequenceName,
	"Modality":          tag.Modality,
	"ImageType":         tag.ImageType,
}

// readHeader parses one file's header. Replaced in tests.
var readHeader = parseHeader

// ErrNoSeriesUID reports a DICOM file without a SeriesInstanceUID.
var ErrNoSeriesUID = errors.New("missing SeriesInstanceUID")

func parseHeader(path string) (Header, error) {
	ds, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	if err != nil {
		return Header{}, err
	}
	uid, ok := firstString(ds, tag.SeriesInstanceUID)
	if !ok {
		return Header{}, ErrNoSeriesUID
	}
	h := Header{SeriesInstanceUID: uid, Fields: make(map[string]string, len(matchedFields))}
	for name, t := range matchedFields {
		if v, ok := firstString(ds, t); ok {
			h.Fields[name] = v
		}
	}
	return h, nil
}

func firstString(ds dicom.Dataset, t tag.Tag) (string, bool) {
	el, err := ds.FindElementByTag(t)
	if err != nil || el.Value == nil {
		return "", false
	}
	switch el.Value.ValueType() {
	case dicom.Strings:
		if s := dicom.MustGetStrings(el.Value); len(s) > 0 {
			return s[0], true
		}
	case dicom.Ints:
		if n := dicom.MustGetInts(el.Value); len(n) > 0 {
			return strconv.Itoa(n[0]), true
		}
	}
	return "", false
}

// Options tune an inventory scan.
type Options struct {
	// Concurrency bounds parallel header reads. Defaults to the CPU count.
	Concurrency int
}

// Series summarizes one DICOM series.
type Series struct {
	UID         string `json:"uid"`
	Number      string `json:"number"`
	Description string `json:"description"`
	Files       int    `json:"files"`

	// Matches are the indices of the matching config descriptions, in
	// config order.
	Matches []int `json:"matches"`
	// Label is the BIDS label of the first matching description, or empty.
	Label string `json:"label,omitempty"`
}

// Report is the result of an inventory scan.
type Report struct {
	Dir     string   `json:"dir"`
	Files   int      `json:"files"`
	Skipped int      `json:"skipped"`
	Series  []Series `json:"series"`
}

// Inventory reads every file under dir, groups DICOM files by series, and
// matches each series against cfg's descriptions. Files that cannot be parsed
// as DICOM are counted in Skipped. cfg may be nil.
func Inventory(ctx context.Context, dir string, cfg *types.BIDSConfig, opts Options) (*Report, error) {
	log := logger.FromContext(ctx).With(zap.String("dir", dir))

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	headers := make([]*Header, len(paths))
	var skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			h, err := readHeader(path)
			if err != nil {
				skipped.Add(1)
				log.Debug("skipping file", zap.String("path", path), zap.Error(err))
				return nil
			}
			headers[i] = &h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Dir: dir, Files: len(paths), Skipped: int(skipped.Load())}
	report.Series = groupSeries(headers, cfg)
	log.Info("inventory complete",
		zap.Int("files", report.Files),
		zap.Int("series", len(report.Series)),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

func groupSeries(headers []*Header, cfg *types.BIDSConfig) []Series {
	byUID := make(map[string]*Series)
	var order []string
	for _, h := range headers {
		if h == nil {
			continue
		}
		s, ok := byUID[h.SeriesInstanceUID]
		if !ok {
			s = &Series{
				UID:         h.SeriesInstanceUID,
				Number:      h.Fields["SeriesNumber"],
				Description: h.Fields["SeriesDescription"],
				Matches:     matchRules(h.Fields, cfg),
			}
			if len(s.Matches) > 0 {
				s.Label = cfg.Descriptions[s.Matches[0]].Label()
			}
			byUID[h.SeriesInstanceUID] = s
			order = append(order, h.SeriesInstanceUID)
		}
		s.Files++
	}

	out := make([]Series, 0, len(order))
	for _, uid := range order {
		out = append(out, *byUID[uid])
	}
	sort.SliceStable(out, func(i, j int) bool {
		ni, ei := strconv.Atoi(out[i].Number)
		nj, ej := strconv.Atoi(out[j].Number)
		if ei == nil && ej == nil && ni != nj {
			return ni < nj
		}
		if (ei == nil) != (ej == nil) {
			return ei == nil
		}
		return out[i].UID < out[j].UID
	})
	return out
}

// matchRules returns the indices of descriptions whose every criterion
// matches the header fields.
func matchRules(fields map[string]string, cfg *types.BIDSConfig) []int {
	matches := []int{}
	if cfg == nil {
		return matches
	}
	for i, d := range cfg.Descriptions {
		if len(d.Criteria) > 0 && MatchCriteria(fields, d.Criteria) {
			matches = append(matches, i)
		}
	}
	return matches
}

// MatchCriteria reports whether every criterion glob matches the field of the
// same name. A criterion naming an absent field does not match.
func MatchCriteria(fields, criteria map[string]string) bool {
	for key, pattern := range criteria {
		v, ok := fields[key]
		if !ok || !match.Match(v, pattern) {
			return false
		}
	}
	return true
}
