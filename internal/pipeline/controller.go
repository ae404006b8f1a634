package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"resumind-backend/internal/blobstore"
	"resumind-backend/internal/convert"
	"resumind-backend/internal/identifier"
	"resumind-backend/internal/inference"
	"resumind-backend/internal/kvstore"
	"resumind-backend/internal/records"
	"resumind-backend/internal/shared/metrics"
	"resumind-backend/internal/shared/telemetry"
)

// DefaultStepTimeout bounds each external call when no timeout is configured.
const DefaultStepTimeout = 120 * time.Second

// SubmitInput is one document submission with its job context.
type SubmitInput struct {
	Document       []byte
	FileName       string
	CompanyName    string
	JobTitle       string
	JobDescription string
}

// Controller drives a submission through upload, conversion, persistence and
// analysis. Collaborators are injected so the pipeline can be exercised
// headlessly with fakes.
type Controller struct {
	Blobs     blobstore.Store
	Records   kvstore.Store
	Converter convert.Converter
	Inference inference.Client
	IDs       identifier.Generator

	// StepTimeout bounds each external call. Zero means DefaultStepTimeout.
	StepTimeout time.Duration

	// Progress, when set, receives each stage transition with a
	// human-readable status message.
	Progress func(stage Stage, message string)
}

// Submit runs the full pipeline for one submission and returns the record
// identifier on success. Every failure is reported as a *Error carrying the
// failing stage and kind; for failures before the Preparing write no
// identifier exists and nothing is persisted. A failure after the partial
// record write leaves that record in the store with empty feedback.
func (p *Controller) Submit(ctx context.Context, in SubmitInput) (string, error) {
	if len(in.Document) == 0 {
		return "", fail(StageUploading, KindUpload, errors.New("empty document"))
	}
	fileName := in.FileName
	if fileName == "" {
		fileName = "resume.pdf"
	}

	started := time.Now()
	metrics.IncSubmissionStarted()

	id, err := p.run(ctx, in, fileName)
	if err != nil {
		var perr *Error
		if !errors.As(err, &perr) {
			perr = fail(StageFailed, KindPersistence, err)
		}
		metrics.IncSubmissionFailed()
		telemetry.Error("pipeline.failed", map[string]any{
			"stage":       string(perr.Stage),
			"kind":        string(perr.Kind),
			"error":       perr.Message(),
			"duration_ms": float64(time.Since(started).Microseconds()) / 1000.0,
		})
		p.notify(StageFailed, "Error: "+perr.Message())
		return "", perr
	}

	metrics.IncSubmissionCompleted()
	metrics.ObserveSubmissionDurationMs(float64(time.Since(started).Microseconds()) / 1000.0)
	telemetry.Info("pipeline.completed", map[string]any{
		"record_id":   id,
		"duration_ms": float64(time.Since(started).Microseconds()) / 1000.0,
	})
	return id, nil
}

func (p *Controller) run(ctx context.Context, in SubmitInput, fileName string) (string, error) {
	// Uploading: the original document.
	if err := p.enter(ctx, StageUploading, "Uploading the file..."); err != nil {
		return "", err
	}
	var doc blobstore.Object
	err := p.step(ctx, func(ctx context.Context) error {
		var err error
		doc, err = p.Blobs.Upload(ctx, fileName, bytes.NewReader(in.Document))
		return err
	})
	if err != nil {
		return "", fail(StageUploading, KindUpload, err)
	}
	if doc.Path == "" {
		return "", fail(StageUploading, KindUpload, errors.New("upload returned no reference"))
	}

	// Converting: first page to a preview image.
	if err := p.enter(ctx, StageConverting, "Converting PDF to image..."); err != nil {
		return "", err
	}
	var img convert.Image
	err = p.step(ctx, func(ctx context.Context) error {
		var err error
		img, err = p.Converter.Convert(ctx, in.Document)
		return err
	})
	if err != nil {
		return "", fail(StageConverting, KindConversion, err)
	}
	if len(img.Data) == 0 {
		return "", fail(StageConverting, KindConversion, errors.New("conversion produced no image"))
	}

	// UploadingPreview: the rendered image.
	if err := p.enter(ctx, StageUploadingPreview, "Uploading the image..."); err != nil {
		return "", err
	}
	var preview blobstore.Object
	err = p.step(ctx, func(ctx context.Context) error {
		var err error
		preview, err = p.Blobs.Upload(ctx, fileName+".jpg", bytes.NewReader(img.Data))
		return err
	})
	if err != nil {
		return "", fail(StageUploadingPreview, KindUpload, err)
	}
	if preview.Path == "" {
		return "", fail(StageUploadingPreview, KindUpload, errors.New("upload returned no reference"))
	}

	// Preparing: allocate the identifier and persist the partial record.
	if err := p.enter(ctx, StagePreparing, "Preparing data..."); err != nil {
		return "", err
	}
	record := records.AnalysisRecord{
		ID:             p.IDs.Next(),
		ResumePath:     doc.Path,
		ImagePath:      preview.Path,
		CompanyName:    in.CompanyName,
		JobTitle:       in.JobTitle,
		JobDescription: in.JobDescription,
	}
	if err := p.persist(ctx, record, StagePreparing); err != nil {
		return "", err
	}

	// Analyzing: one inference call, then parse and persist the final record.
	if err := p.enter(ctx, StageAnalyzing, "Analyzing..."); err != nil {
		return "", err
	}
	var resp *inference.Response
	err = p.step(ctx, func(ctx context.Context) error {
		var err error
		resp, err = p.Inference.Feedback(ctx, record.ResumePath, inference.PrepareInstructions(inference.Instructions{
			JobTitle:       in.JobTitle,
			JobDescription: in.JobDescription,
		}))
		return err
	})
	if err != nil {
		return "", fail(StageAnalyzing, KindInference, err)
	}
	if resp == nil {
		return "", fail(StageAnalyzing, KindInference, errors.New("no response from inference"))
	}

	text, err := resp.Message.Content.FirstText()
	if err != nil {
		return "", fail(StageAnalyzing, KindMalformedResponse, err)
	}
	feedback, err := records.ParseFeedback([]byte(text))
	if err != nil {
		return "", fail(StageAnalyzing, KindMalformedResponse, err)
	}

	record.Feedback = feedback
	if err := p.persist(ctx, record, StageAnalyzing); err != nil {
		return "", err
	}

	p.notify(StageCompleted, "Analysis complete")
	return record.ID, nil
}

// persist serializes the record and writes it to the record store. The same
// path serves both the partial and the final write; the final write is the
// only permitted overwrite of an existing record.
func (p *Controller) persist(ctx context.Context, record records.AnalysisRecord, stage Stage) error {
	value, err := records.Serialize(record)
	if err != nil {
		return fail(stage, KindPersistence, err)
	}
	err = p.step(ctx, func(ctx context.Context) error {
		return p.Records.Set(ctx, record.Key(), value)
	})
	if err != nil {
		return fail(stage, KindPersistence, err)
	}
	return nil
}

// enter checks for cancellation between stages and announces the transition.
func (p *Controller) enter(ctx context.Context, stage Stage, message string) error {
	if err := ctx.Err(); err != nil {
		return fail(stage, kindForStage(stage), fmt.Errorf("cancelled: %w", err))
	}
	telemetry.Info("pipeline.stage", map[string]any{"stage": string(stage)})
	p.notify(stage, message)
	return nil
}

// step runs one external call under the configured per-step timeout.
func (p *Controller) step(ctx context.Context, fn func(ctx context.Context) error) error {
	timeout := p.StepTimeout
	if timeout <= 0 {
		timeout = DefaultStepTimeout
	}
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(stepCtx)
}

func (p *Controller) notify(stage Stage, message string) {
	if p.Progress != nil {
		p.Progress(stage, message)
	}
}

func kindForStage(stage Stage) Kind {
	switch stage {
	case StageConverting:
		return KindConversion
	case StagePreparing:
		return KindPersistence
	case StageAnalyzing:
		return KindInference
	default:
		return KindUpload
	}
}
