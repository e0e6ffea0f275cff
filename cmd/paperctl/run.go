package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/yourusername/paper-courier/internal/jobs"
	"github.com/yourusername/paper-courier/internal/ops"
	"github.com/yourusername/paper-courier/internal/storage"
)

// runOptions は成果物の保存方法です。
type runOptions struct {
	// extract が true の場合、アーカイブを保存先に展開します。
	extract bool
	// pages が 0 より大きい場合、アーカイブではなくページごとのファイルを取得します。
	pages  int
	format string
}

// runJob は入力を検証してジョブを送信し、完了を待って成果物を保存します。
func (a *app) runJob(ctx context.Context, params ops.Params, inputs []ops.Input, opts runOptions) error {
	spec, params, err := ops.Prepare(params, inputs, ops.Limits{
		MaxFileSize:   a.cfg.MaxFileSize,
		MaxMergeFiles: a.cfg.MaxMergeFiles,
	})
	if err != nil {
		return err
	}

	ctrl := jobs.NewController(a.client, jobs.Options{
		PollInterval:    a.cfg.PollInterval,
		MaxPollDuration: a.cfg.MaxPollDuration,
		Logger:          a.log,
	})
	defer ctrl.Close()

	unsubscribe := ctrl.Subscribe(a.logProgress(spec.Type))
	defer unsubscribe()

	jobID, err := ctrl.Submit(ctx, spec, inputs, params)
	if err != nil {
		return fmt.Errorf("failed to submit %s job: %w", spec.Type, err)
	}

	snap, err := ctrl.Wait(ctx)
	if err != nil {
		return fmt.Errorf("job %s: %w", jobID, err)
	}

	manifest := &storage.Manifest{
		JobID:       jobID,
		Operation:   string(spec.Type),
		Status:      string(snap.Job.Status),
		Inputs:      manifestInputs(inputs),
		CompletedAt: time.Now().UTC(),
	}

	if snap.State == jobs.StateFailed {
		manifest.Error = snap.Failure.Message
		a.saveManifest(manifest)
		return &jobFailedError{JobID: jobID, Failure: *snap.Failure}
	}

	meta, err := ops.DecodeMeta(spec.Type, snap.Job.ResultMetadata)
	if err != nil {
		a.log.Warn("failed to decode result metadata", "job_id", jobID, "error", err)
		meta = snap.Job.ResultMetadata
	}
	if len(snap.Job.ResultMetadata) > 0 {
		manifest.Meta = meta
	}

	outputs, err := a.saveResults(ctx, spec, jobID, opts)
	if err != nil {
		return err
	}
	manifest.Outputs = outputs
	a.saveManifest(manifest)

	for _, out := range outputs {
		fmt.Fprintln(a.out, out.Path)
	}
	return nil
}

// jobFailedError はジョブが失敗して成果物がない場合のエラーです。
type jobFailedError struct {
	JobID   string
	Failure jobs.Failure
}

func (e *jobFailedError) Error() string {
	if e.Failure.Kind == jobs.FailureStatusUnknown {
		return fmt.Sprintf("job %s: %s", e.JobID, e.Failure.Message)
	}
	return fmt.Sprintf("job %s failed: %s", e.JobID, e.Failure.Message)
}

func (e *jobFailedError) Unwrap() error {
	return e.Failure.Err
}

// logProgress は状態が変わるたびに進捗をログへ出力する通知先を返します。
func (a *app) logProgress(op ops.OperationType) func(jobs.Snapshot) {
	var lastPercent = -1
	var lastState jobs.State
	return func(s jobs.Snapshot) {
		if s.Job == nil {
			return
		}
		if s.State == lastState && s.Job.Progress.Percent == lastPercent {
			return
		}
		lastState, lastPercent = s.State, s.Job.Progress.Percent
		a.log.Info("job progress",
			"operation", string(op),
			"job_id", s.Job.ID,
			"state", string(s.State),
			"status", string(s.Job.Status),
			"percent", s.Job.Progress.Percent,
			"pages", fmt.Sprintf("%d/%d", s.Job.Progress.ProcessedUnits, s.Job.Progress.TotalUnits),
		)
	}
}

// saveResults は成果物をダウンロードして保存先に書き込みます。
func (a *app) saveResults(ctx context.Context, spec ops.Spec, jobID string, opts runOptions) ([]storage.ManifestFile, error) {
	resolver := a.client.Resolver()
	locators := resolver.LocatorsFor(spec, jobID)
	if opts.pages > 0 {
		if items := resolver.ItemLocators(spec, jobID, opts.format, opts.pages); len(items) > 0 {
			locators = items
		}
	}

	var outputs []storage.ManifestFile
	for _, loc := range locators {
		var buf bytes.Buffer
		info, err := a.client.Download(ctx, loc, &buf)
		if err != nil {
			return outputs, fmt.Errorf("failed to download %s: %w", loc.Name, err)
		}

		name := loc.Name
		if filepath.Ext(name) == "" {
			name += filepath.Ext(info.Filename)
		}
		f, err := a.store.Create(name)
		if err != nil {
			return outputs, err
		}
		_, werr := buf.WriteTo(f)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return outputs, fmt.Errorf("failed to save %s: %w", name, werr)
		}
		a.log.Debug("result saved", "job_id", jobID, "path", f.Name(), "bytes", info.Size)
		outputs = append(outputs, storage.ManifestFile{Name: filepath.Base(f.Name()), Path: f.Name(), Size: info.Size})

		if loc.Kind == ops.ResultKindArchive && opts.extract {
			dir := strings.TrimSuffix(filepath.Base(f.Name()), filepath.Ext(f.Name()))
			paths, err := a.store.Extract(f.Name(), dir)
			if err != nil {
				return outputs, err
			}
			a.log.Info("archive extracted", "job_id", jobID, "files", len(paths))
			for _, p := range paths {
				outputs = append(outputs, storage.ManifestFile{Name: filepath.Base(p), Path: p})
			}
		}
	}
	return outputs, nil
}

func (a *app) saveManifest(m *storage.Manifest) {
	if !a.manifest {
		return
	}
	path, err := a.store.WriteManifest(m)
	if err != nil {
		a.log.Warn("failed to write manifest", "error", err)
		return
	}
	a.log.Debug("manifest written", "path", path)
}

func manifestInputs(inputs []ops.Input) []storage.ManifestFile {
	files := make([]storage.ManifestFile, len(inputs))
	for i, in := range inputs {
		files[i] = storage.ManifestFile{Name: in.Name, Path: in.Path, Size: in.Size, Pages: in.Pages}
	}
	return files
}

// isJobFailure はジョブ自体の失敗かどうかを返します。
func isJobFailure(err error) bool {
	var failed *jobFailedError
	return errors.As(err, &failed)
}
