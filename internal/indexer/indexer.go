// Package indexer walks a directory tree and builds the photo index: every
// image gets its faces assigned to identities and a caption, and the result is
// written as one full-text record.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/kozaktomas/photo-index/internal/ai"
	"github.com/kozaktomas/photo-index/internal/constants"
	"github.com/kozaktomas/photo-index/internal/database"
	"github.com/kozaktomas/photo-index/internal/facematch"
	"github.com/kozaktomas/photo-index/internal/fingerprint"
	"github.com/kozaktomas/photo-index/internal/logger"
)

// Extractor detects faces in an encoded image.
type Extractor interface {
	Extract(ctx context.Context, imageData []byte, model string) facematch.Extraction
}

type Indexer struct {
	extractor Extractor
	captioner ai.Captioner
	assigner  *facematch.Assigner
	index     database.RecordWriter
	model     string
	resize    int
	out       io.Writer
}

type IndexOptions struct {
	SkipIndexed  bool // skip images whose path is already in the index
	ShowProgress bool
}

type IndexResult struct {
	ProcessedCount int // files looked at
	IndexedCount   int // records written
	SkippedCount   int // already indexed, with SkipIndexed
	DuplicateCount int // rejected by the index as already present
	VideoCount     int
	UnknownCount   int // neither image nor video
	FaceCount      int // faces assigned, "unknown" not included
	NewIdentities  int
	Errors         []error
}

// FileOutcome tells what happened to a single file.
type FileOutcome int

const (
	OutcomeIndexed FileOutcome = iota
	OutcomeSkipped
	OutcomeDuplicate
	OutcomeVideo
	OutcomeUnknownType
)

// FileResult is the result of indexing one file.
type FileResult struct {
	Outcome     FileOutcome
	Record      database.Record
	Assignments []facematch.Assignment
}

func New(extractor Extractor, captioner ai.Captioner, assigner *facematch.Assigner, index database.RecordWriter, model string, resize int) *Indexer {
	return &Indexer{
		extractor: extractor,
		captioner: captioner,
		assigner:  assigner,
		index:     index,
		model:     model,
		resize:    resize,
		out:       os.Stdout,
	}
}

// SetOutput redirects user-facing messages such as unknown file types
func (ix *Indexer) SetOutput(w io.Writer) {
	ix.out = w
}

// ListFiles returns every regular file under root in lexical walk order.
func ListFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return files, nil
}

// IndexDirectory indexes every file under root, one at a time. Failures are
// collected per file and never stop the batch; only a walk error or a
// cancelled context aborts.
func (ix *Indexer) IndexDirectory(ctx context.Context, root string, opts IndexOptions) (*IndexResult, error) {
	files, err := ListFiles(root)
	if err != nil {
		return nil, err
	}

	result := &IndexResult{}
	if len(files) == 0 {
		return result, nil
	}

	var bar *progressbar.ProgressBar
	if opts.ShowProgress {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("Indexing photos"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}

	for _, path := range files {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		result.ProcessedCount++
		fr, err := ix.IndexFile(ctx, path, opts)
		if bar != nil {
			bar.Add(1)
		}
		if err != nil {
			logger.Error("%s: %v", path, err)
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", path, err))
			continue
		}

		switch fr.Outcome {
		case OutcomeIndexed:
			result.IndexedCount++
		case OutcomeSkipped:
			result.SkippedCount++
		case OutcomeDuplicate:
			result.DuplicateCount++
		case OutcomeVideo:
			result.VideoCount++
		case OutcomeUnknownType:
			result.UnknownCount++
		}
		for _, a := range fr.Assignments {
			if a.Key == constants.UnknownIdentity {
				continue
			}
			result.FaceCount++
			if a.Created {
				result.NewIdentities++
			}
		}
	}

	if bar != nil {
		bar.Finish()
		fmt.Fprintln(ix.out)
	}
	return result, nil
}

// IndexFile indexes a single file: extraction, matching, assignment,
// caption, then the index write.
func (ix *Indexer) IndexFile(ctx context.Context, path string, opts IndexOptions) (*FileResult, error) {
	kind, err := sniffKind(path)
	if err != nil {
		return nil, err
	}
	switch kind {
	case kindVideo:
		return &FileResult{Outcome: OutcomeVideo}, nil
	case kindOther:
		fmt.Fprintf(ix.out, "Unknown file type: %s\n", filepath.Base(path))
		return &FileResult{Outcome: OutcomeUnknownType}, nil
	}

	if opts.SkipIndexed {
		has, err := ix.index.Has(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to check index: %w", err)
		}
		if has {
			logger.Debug("skipping already indexed %s", path)
			return &FileResult{Outcome: OutcomeSkipped}, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	img, err := fingerprint.DecodeImage(data)
	if err != nil {
		return nil, err
	}
	prepared := fingerprint.PrepareForExtraction(img, ix.resize)
	encoded, err := fingerprint.EncodeJPEG(prepared)
	if err != nil {
		return nil, err
	}

	ext := ix.extractor.Extract(ctx, encoded, ix.model)
	logger.Debug("%s: extraction %s, %d faces", path, ext.Status, len(ext.Faces))

	assignments, err := ix.assigner.AssignExtraction(ctx, ext, prepared)
	if err != nil {
		return nil, err
	}

	caption, err := ix.captioner.Caption(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to caption image: %w", err)
	}

	rec := database.Record{
		ImagePath: path,
		Faces:     facematch.Keys(assignments),
		Caption:   ai.NormalizeCaption(caption),
	}

	fr := &FileResult{Outcome: OutcomeIndexed, Record: rec, Assignments: assignments}
	if err := ix.index.Add(ctx, rec); err != nil {
		if errors.Is(err, database.ErrDuplicateRecord) {
			logger.Warn("%s is already indexed, keeping the existing record", path)
			fr.Outcome = OutcomeDuplicate
			return fr, nil
		}
		return nil, fmt.Errorf("failed to write index record: %w", err)
	}
	return fr, nil
}

type fileKind int

const (
	kindOther fileKind = iota
	kindImage
	kindVideo
)

// sniffKind classifies a file by content, falling back to its extension for
// containers the content sniffer does not know, such as QuickTime.
func sniffKind(path string) (fileKind, error) {
	f, err := os.Open(path)
	if err != nil {
		return kindOther, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return kindOther, fmt.Errorf("failed to read file: %w", err)
	}

	if kind := kindOf(http.DetectContentType(head[:n])); kind != kindOther {
		return kind, nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	if videoExtensions[ext] {
		return kindVideo, nil
	}
	return kindOf(mime.TypeByExtension(ext)), nil
}

// videoExtensions covers formats missing from the builtin MIME table
var videoExtensions = map[string]bool{
	".3gp":  true,
	".avi":  true,
	".m4v":  true,
	".mkv":  true,
	".mov":  true,
	".mp4":  true,
	".mts":  true,
	".webm": true,
}

func kindOf(mimeType string) fileKind {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return kindImage
	case strings.HasPrefix(mimeType, "video/"):
		return kindVideo
	default:
		return kindOther
	}
}
