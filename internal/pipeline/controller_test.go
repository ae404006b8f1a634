package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"resumind-backend/internal/blobstore"
	"resumind-backend/internal/convert"
	"resumind-backend/internal/inference"
	"resumind-backend/internal/kvstore"
	"resumind-backend/internal/records"
)

type fakeBlobs struct {
	paths   []string
	calls   int
	failOn  int // 1-based call number to fail, 0 for never
	uploads []string
}

func (f *fakeBlobs) Upload(ctx context.Context, fileName string, r io.Reader) (blobstore.Object, error) {
	f.calls++
	f.uploads = append(f.uploads, fileName)
	if f.failOn == f.calls {
		return blobstore.Object{}, errors.New("upload rejected")
	}
	path := fmt.Sprintf("/u/blob%d", f.calls)
	if len(f.paths) >= f.calls {
		path = f.paths[f.calls-1]
	}
	return blobstore.Object{Path: path, SizeBytes: 1, MimeType: "application/octet-stream"}, nil
}

func (f *fakeBlobs) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

type fakeConverter struct {
	err error
}

func (f fakeConverter) Convert(ctx context.Context, document []byte) (convert.Image, error) {
	if f.err != nil {
		return convert.Image{}, f.err
	}
	return convert.Image{Data: []byte("jpeg-bytes"), MimeType: "image/jpeg", Width: 10, Height: 10}, nil
}

type fakeInference struct {
	resp *inference.Response
	err  error
}

func (f fakeInference) Feedback(ctx context.Context, documentRef string, instructions string) (*inference.Response, error) {
	return f.resp, f.err
}

type fakeIDs struct {
	id string
}

func (f fakeIDs) Next() string { return f.id }

// recordingStore observes write order on top of the in-memory store.
type recordingStore struct {
	*kvstore.MemoryStore
	writes []string
	failed bool
}

func (s *recordingStore) Set(ctx context.Context, key, value string) error {
	if s.failed {
		return errors.New("store write rejected")
	}
	s.writes = append(s.writes, value)
	return s.MemoryStore.Set(ctx, key, value)
}

func validFeedbackJSON() string {
	return `{"overallScore":82,"ATS":{"score":78,"tips":[{"type":"improve","tip":"Add keywords"}]},` +
		`"toneAndStyle":{"score":85,"tips":[]},"content":{"score":80,"tips":[]},` +
		`"structure":{"score":88,"tips":[]},"skills":{"score":75,"tips":[]}}`
}

func newController(blobs *fakeBlobs, store *recordingStore, conv convert.Converter, inf inference.Client) *Controller {
	return &Controller{
		Blobs:     blobs,
		Records:   store,
		Converter: conv,
		Inference: inf,
		IDs:       fakeIDs{id: "id-1"},
	}
}

func submitInput() SubmitInput {
	return SubmitInput{
		Document:       []byte("%PDF-1.4 fake"),
		FileName:       "resume.pdf",
		CompanyName:    "Acme",
		JobTitle:       "Engineer",
		JobDescription: "Build things",
	}
}

func TestSubmitHappyPath(t *testing.T) {
	blobs := &fakeBlobs{paths: []string{"/u/doc1", "/u/img1"}}
	store := &recordingStore{MemoryStore: kvstore.NewMemoryStore()}
	inf := fakeInference{resp: &inference.Response{
		Message: inference.Message{Content: inference.TextContent(validFeedbackJSON())},
	}}

	var stages []Stage
	ctrl := newController(blobs, store, fakeConverter{}, inf)
	ctrl.Progress = func(stage Stage, message string) { stages = append(stages, stage) }

	id, err := ctrl.Submit(context.Background(), submitInput())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if id != "id-1" {
		t.Fatalf("unexpected id %q", id)
	}

	// Exactly two blob uploads, document first.
	if blobs.calls != 2 {
		t.Fatalf("expected 2 uploads, got %d", blobs.calls)
	}

	// Exactly two record writes: partial (empty feedback), then final.
	if len(store.writes) != 2 {
		t.Fatalf("expected 2 record writes, got %d", len(store.writes))
	}
	partial, err := records.Deserialize(store.writes[0])
	if err != nil {
		t.Fatalf("deserialize partial: %v", err)
	}
	if partial.Analyzed() {
		t.Fatalf("partial write must have empty feedback")
	}
	if partial.ResumePath != "/u/doc1" || partial.ImagePath != "/u/img1" {
		t.Fatalf("unexpected references %+v", partial)
	}
	final, err := records.Deserialize(store.writes[1])
	if err != nil {
		t.Fatalf("deserialize final: %v", err)
	}
	if !final.Analyzed() || final.Feedback.OverallScore != 82 {
		t.Fatalf("final write missing feedback: %+v", final.Feedback)
	}

	stored, err := store.Get(context.Background(), "resume:id-1")
	if err != nil {
		t.Fatalf("get stored record: %v", err)
	}
	if stored != store.writes[1] {
		t.Fatalf("stored value is not the final write")
	}

	wantStages := []Stage{StageUploading, StageConverting, StageUploadingPreview, StagePreparing, StageAnalyzing, StageCompleted}
	if len(stages) != len(wantStages) {
		t.Fatalf("unexpected stage sequence %v", stages)
	}
	for i, s := range wantStages {
		if stages[i] != s {
			t.Fatalf("stage %d: want %s got %s", i, s, stages[i])
		}
	}
}

func TestSubmitUploadFailureNoIDNoRecord(t *testing.T) {
	blobs := &fakeBlobs{failOn: 1}
	store := &recordingStore{MemoryStore: kvstore.NewMemoryStore()}
	ctrl := newController(blobs, store, fakeConverter{}, fakeInference{})

	id, err := ctrl.Submit(context.Background(), submitInput())
	if id != "" {
		t.Fatalf("expected no id, got %q", id)
	}
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected pipeline error, got %v", err)
	}
	if perr.Stage != StageUploading || perr.Kind != KindUpload {
		t.Fatalf("unexpected outcome %v/%v", perr.Stage, perr.Kind)
	}
	if len(store.writes) != 0 {
		t.Fatalf("expected no record writes, got %d", len(store.writes))
	}
}

func TestSubmitConversionFailure(t *testing.T) {
	blobs := &fakeBlobs{}
	store := &recordingStore{MemoryStore: kvstore.NewMemoryStore()}
	ctrl := newController(blobs, store, fakeConverter{err: convert.ErrNoPages}, fakeInference{})

	_, err := ctrl.Submit(context.Background(), submitInput())
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected pipeline error, got %v", err)
	}
	if perr.Stage != StageConverting || perr.Kind != KindConversion {
		t.Fatalf("unexpected outcome %v/%v", perr.Stage, perr.Kind)
	}
	if len(store.writes) != 0 {
		t.Fatalf("no record may exist after conversion failure")
	}
}

func TestSubmitPreviewUploadFailure(t *testing.T) {
	blobs := &fakeBlobs{failOn: 2}
	store := &recordingStore{MemoryStore: kvstore.NewMemoryStore()}
	ctrl := newController(blobs, store, fakeConverter{}, fakeInference{})

	_, err := ctrl.Submit(context.Background(), submitInput())
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected pipeline error, got %v", err)
	}
	if perr.Stage != StageUploadingPreview || perr.Kind != KindUpload {
		t.Fatalf("unexpected outcome %v/%v", perr.Stage, perr.Kind)
	}
}

func TestSubmitPersistenceFailureReturnsNoID(t *testing.T) {
	blobs := &fakeBlobs{}
	store := &recordingStore{MemoryStore: kvstore.NewMemoryStore(), failed: true}
	ctrl := newController(blobs, store, fakeConverter{}, fakeInference{})

	id, err := ctrl.Submit(context.Background(), submitInput())
	if id != "" {
		t.Fatalf("expected no id on persistence failure, got %q", id)
	}
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected pipeline error, got %v", err)
	}
	if perr.Stage != StagePreparing || perr.Kind != KindPersistence {
		t.Fatalf("unexpected outcome %v/%v", perr.Stage, perr.Kind)
	}
}

func TestSubmitInferenceFailureKeepsPartialRecord(t *testing.T) {
	blobs := &fakeBlobs{}
	store := &recordingStore{MemoryStore: kvstore.NewMemoryStore()}
	ctrl := newController(blobs, store, fakeConverter{}, fakeInference{err: errors.New("model unavailable")})

	_, err := ctrl.Submit(context.Background(), submitInput())
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected pipeline error, got %v", err)
	}
	if perr.Stage != StageAnalyzing || perr.Kind != KindInference {
		t.Fatalf("unexpected outcome %v/%v", perr.Stage, perr.Kind)
	}

	stored, err := store.Get(context.Background(), "resume:id-1")
	if err != nil {
		t.Fatalf("partial record must survive inference failure: %v", err)
	}
	rec, err := records.Deserialize(stored)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if rec.Analyzed() {
		t.Fatalf("partial record must have empty feedback")
	}
}

func TestSubmitMalformedResponseKeepsPartialRecord(t *testing.T) {
	blobs := &fakeBlobs{}
	store := &recordingStore{MemoryStore: kvstore.NewMemoryStore()}
	inf := fakeInference{resp: &inference.Response{
		Message: inference.Message{Content: inference.TextContent("not json")},
	}}
	ctrl := newController(blobs, store, fakeConverter{}, inf)

	_, err := ctrl.Submit(context.Background(), submitInput())
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected pipeline error, got %v", err)
	}
	if perr.Stage != StageAnalyzing || perr.Kind != KindMalformedResponse {
		t.Fatalf("unexpected outcome %v/%v", perr.Stage, perr.Kind)
	}

	stored, err := store.Get(context.Background(), "resume:id-1")
	if err != nil {
		t.Fatalf("partial record must survive malformed response: %v", err)
	}
	rec, err := records.Deserialize(stored)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if rec.Analyzed() {
		t.Fatalf("no partial feedback may ever be stored")
	}
	if len(store.writes) != 1 {
		t.Fatalf("expected exactly one record write, got %d", len(store.writes))
	}
}

func TestSubmitBlockContentResponse(t *testing.T) {
	blobs := &fakeBlobs{}
	store := &recordingStore{MemoryStore: kvstore.NewMemoryStore()}
	inf := fakeInference{resp: &inference.Response{
		Message: inference.Message{Content: inference.BlockContent(
			inference.Block{Type: "text", Text: validFeedbackJSON()},
			inference.Block{Type: "text", Text: "ignored"},
		)},
	}}
	ctrl := newController(blobs, store, fakeConverter{}, inf)

	id, err := ctrl.Submit(context.Background(), submitInput())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if id != "id-1" {
		t.Fatalf("unexpected id %q", id)
	}
}

func TestSubmitNilResponse(t *testing.T) {
	blobs := &fakeBlobs{}
	store := &recordingStore{MemoryStore: kvstore.NewMemoryStore()}
	ctrl := newController(blobs, store, fakeConverter{}, fakeInference{})

	_, err := ctrl.Submit(context.Background(), submitInput())
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected pipeline error, got %v", err)
	}
	if perr.Stage != StageAnalyzing || perr.Kind != KindInference {
		t.Fatalf("unexpected outcome %v/%v", perr.Stage, perr.Kind)
	}
}

func TestSubmitEmptyDocument(t *testing.T) {
	ctrl := newController(&fakeBlobs{}, &recordingStore{MemoryStore: kvstore.NewMemoryStore()}, fakeConverter{}, fakeInference{})
	_, err := ctrl.Submit(context.Background(), SubmitInput{})
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected pipeline error, got %v", err)
	}
	if perr.Kind != KindUpload {
		t.Fatalf("unexpected kind %v", perr.Kind)
	}
}

func TestSubmitCancelledBetweenStages(t *testing.T) {
	blobs := &fakeBlobs{}
	store := &recordingStore{MemoryStore: kvstore.NewMemoryStore()}
	ctrl := newController(blobs, store, fakeConverter{}, fakeInference{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ctrl.Submit(ctx, submitInput())
	if err == nil {
		t.Fatalf("expected cancellation error")
	}
	if blobs.calls != 0 {
		t.Fatalf("no upload may start after cancellation")
	}
}
